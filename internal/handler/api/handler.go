package api

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/models"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/usecase"
	xhttp "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/http"
	xlogger "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/logger"
)

const rootMessage = "price prediction API is running"

// Handler serves the prediction, observation and retrain endpoints.
type Handler struct {
	logger   *xlogger.Logger
	predict  *usecase.PredictionService
	store    *usecase.ObservationStore
	forecast *usecase.ForecastService
	retrain  *usecase.RetrainService
}

var _ xhttp.Handler = (*Handler)(nil)

func NewHandler(
	logger *xlogger.Logger,
	predict *usecase.PredictionService,
	store *usecase.ObservationStore,
	forecast *usecase.ForecastService,
	retrain *usecase.RetrainService,
) *Handler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &Handler{logger: logger, predict: predict, store: store, forecast: forecast, retrain: retrain}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	e.POST("/predict", h.Predict)
	e.POST("/predict/next", h.PredictNext)
	e.POST("/actual", h.Actual)
	e.GET("/observations", h.Observations)
	e.POST("/retrain", h.Retrain)
	e.GET("/retrain", h.RetrainStatus)
}

func (h *Handler) Root(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"message": rootMessage})
}

func (h *Handler) Health(c echo.Context) error {
	res := models.HealthResponse{Status: "ok", ModelVersion: h.predict.ModelVersion(), Store: "ok"}
	if err := h.store.Health(c.Request().Context()); err != nil {
		h.logger.Error("store health check failed", xlogger.Error(err))
		res.Status, res.Store = "degraded", err.Error()
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, res)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *Handler) Predict(c echo.Context) error {
	var payload models.FeaturePayload
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil || payload == nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_BAD_REQUEST",
			Message: "body must be a JSON object of feature name to number",
		}})
	}

	p, err := h.predict.Predict(c.Request().Context(), payload)
	if err != nil {
		return h.fail(c, "predict", err)
	}
	return xhttp.SuccessResponse(c, p)
}

func (h *Handler) PredictNext(c echo.Context) error {
	f, err := h.forecast.ForecastNext(c.Request().Context())
	if err != nil {
		return h.fail(c, "predict next", err)
	}
	return xhttp.SuccessResponse(c, f)
}

func (h *Handler) Actual(c echo.Context) error {
	req := &models.ActualRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	entry, err := h.store.UpsertActual(c.Request().Context(), req.Date, *req.PriceToday)
	if err != nil {
		return h.fail(c, "upsert actual", err)
	}
	msg := "actual price recorded"
	if !entry.Inserted {
		msg = "actual price updated"
	}
	return xhttp.SuccessResponse(c, models.ActualResponse{
		Message:    msg,
		Date:       entry.Date.Format(models.DateLayout),
		PriceToday: entry.PriceToday,
	})
}

func (h *Handler) Observations(c echo.Context) error {
	req := &models.ObservationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.store.List(c.Request().Context(), req.Limit)
	if err != nil {
		return h.fail(c, "list observations", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *Handler) Retrain(c echo.Context) error {
	req := &models.RetrainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	st, err := h.retrain.Request(c.Request().Context(), c.RealIP(), req.Reason)
	if err != nil {
		return h.fail(c, "retrain", err)
	}
	return xhttp.AcceptedResponse(c, st)
}

func (h *Handler) RetrainStatus(c echo.Context) error {
	st, err := h.retrain.Status(c.Request().Context())
	if err != nil {
		return h.fail(c, "retrain status", err)
	}
	return xhttp.SuccessResponse(c, st)
}

func (h *Handler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
