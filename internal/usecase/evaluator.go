package usecase

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/errs"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/models"
	domrepo "github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/repository"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/service"
	applogger "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/logger"
)

const maeGauge = "model_mae_current"

// GaugePusher is satisfied by pkg/metrics.GaugePusher.
type GaugePusher interface {
	PushGauge(ctx context.Context, name, help string, value float64, grouping map[string]string) error
}

// Evaluator scores the model against every stored observation
// (X = the model's lag features, y = price_today).
type Evaluator struct {
	model   service.Regressor
	table   domrepo.ObservationTable
	logPath string
	pusher  GaugePusher
	logger  *applogger.Logger
}

// NewEvaluator builds an evaluator. Empty logPath or nil pusher skip that output.
func NewEvaluator(model service.Regressor, table domrepo.ObservationTable, logPath string, pusher GaugePusher, l *applogger.Logger) *Evaluator {
	if l == nil {
		l = applogger.Nop()
	}
	return &Evaluator{model: model, table: table, logPath: logPath, pusher: pusher, logger: l}
}

func (e *Evaluator) Evaluate(ctx context.Context) (models.Evaluation, error) {
	rows, err := e.table.Load(ctx)
	if err != nil {
		return models.Evaluation{}, errs.Storage("load", err)
	}
	if len(rows) == 0 {
		return models.Evaluation{}, ErrNoObservations
	}

	features := e.model.Features()
	x := make([][]float64, len(rows))
	for i, r := range rows {
		vec := make([]float64, len(features))
		for j, f := range features {
			v, ok := column(r, f)
			if !ok {
				return models.Evaluation{}, fmt.Errorf("model feature %q is not an observation column", f)
			}
			vec[j] = v
		}
		x[i] = vec
	}

	pred, err := e.model.Predict(x)
	if err != nil {
		return models.Evaluation{}, &errs.ModelInferenceError{Err: err}
	}
	if len(pred) != len(rows) {
		return models.Evaluation{}, &errs.ModelInferenceError{Err: fmt.Errorf("model returned %d values for %d rows", len(pred), len(rows))}
	}

	var sum float64
	for i, r := range rows {
		sum += math.Abs(r.PriceToday - pred[i])
	}
	res := models.Evaluation{ModelVersion: e.model.Version(), Rows: len(rows), MAE: sum / float64(len(rows))}

	e.logger.Info("model evaluated",
		applogger.String("model_version", res.ModelVersion),
		applogger.Int("rows", res.Rows),
		applogger.Float64("mae", res.MAE))

	if e.logPath != "" {
		if err := appendMetricsLog(e.logPath, res.MAE); err != nil {
			return res, err
		}
	}
	if e.pusher != nil {
		err := e.pusher.PushGauge(ctx, maeGauge, "Current MAE of the price model on the full dataset",
			res.MAE, map[string]string{"model_version": res.ModelVersion})
		if err != nil {
			e.logger.Warn("pushgateway push failed", applogger.Error(err))
		}
	}
	return res, nil
}

func column(r models.Observation, name string) (float64, bool) {
	switch name {
	case featureLag1:
		return r.PriceLag1, true
	case featureLag2:
		return r.PriceLag2, true
	default:
		return 0, false
	}
}

func appendMetricsLog(path string, mae float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open metrics log: %w", err)
	}
	if _, err := fmt.Fprintf(f, "MAE=%.2f\n", mae); err != nil {
		f.Close()
		return fmt.Errorf("write metrics log: %w", err)
	}
	return f.Close()
}
