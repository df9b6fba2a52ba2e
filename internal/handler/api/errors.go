package api

import (
	"errors"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/errs"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/usecase"
	xhttp "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/http"
)

// toAppError maps domain errors onto HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	var (
		missing *errs.MissingFeatureError
		unknown *errs.UnknownFeatureError
		badDate *errs.InvalidDateError
		badVal  *errs.InvalidValueError
	)
	switch {
	case errors.As(err, &missing):
		return xhttp.NewAppError("ERR_MISSING_FEATURE", "", err.Error(), 400).
			WithParam("missing", missing.Names).WithError(err)
	case errors.As(err, &unknown):
		return xhttp.NewAppError("ERR_UNKNOWN_FEATURE", "", err.Error(), 400).
			WithParam("unknown", unknown.Names).WithError(err)
	case errors.As(err, &badDate):
		return xhttp.NewAppError("ERR_INVALID_DATE", "date", err.Error(), 400).WithError(err)
	case errors.As(err, &badVal):
		return xhttp.NewAppError("ERR_INVALID_VALUE", badVal.Field, err.Error(), 400).WithError(err)
	case errs.IsValidation(err):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, errs.ErrModelInference):
		return xhttp.NewAppError("ERR_MODEL_INFERENCE", "", "model inference failed", 500).WithError(err)
	case errors.Is(err, errs.ErrStorageUnavailable):
		return xhttp.ServiceUnavailableError("observation store unavailable").WithError(err)
	case errors.Is(err, usecase.ErrRetrainRateLimited):
		return xhttp.TooManyRequestsError(err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrRetrainDisabled):
		return xhttp.ServiceUnavailableError(err.Error()).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
