package usecase

import (
	"errors"
	"fmt"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/errs"
)

var (
	// ErrNoObservations is returned by the forecast path on an empty table.
	ErrNoObservations = fmt.Errorf("%w: no observations recorded yet", errs.ErrValidation)
	// ErrForecastUnsupported is returned when the model is not a two-lag price model.
	ErrForecastUnsupported = fmt.Errorf("%w: model features must be [%s %s]", errs.ErrValidation, featureLag1, featureLag2)
)

// errorKind is the metrics label for err.
func errorKind(err error) string {
	switch {
	case errs.IsValidation(err):
		return "validation"
	case errors.Is(err, errs.ErrModelInference):
		return "inference"
	case errors.Is(err, errs.ErrStorageUnavailable):
		return "storage"
	default:
		return "other"
	}
}
