package service

import "context"

// Regressor is a fitted model: a batch of feature rows in, one scalar per row out.
type Regressor interface {
	Predict(rows [][]float64) ([]float64, error)
	// Features is the ordered input layout the model was fitted on.
	Features() []string
	Version() string
}

// RetrainTrigger asks an external system to retrain the model. Fire and forget.
type RetrainTrigger interface {
	Trigger(ctx context.Context, reason string) error
}
