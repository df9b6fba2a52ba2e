package models

import "time"

// Prediction is a single scalar model output tagged with the artifact version.
type Prediction struct {
	Value        float64 `json:"prediction"`
	ModelVersion string  `json:"model_version"`
}

// FeaturePayload is an inbound prediction request: feature name to number.
// Values arrive untyped from JSON and are converted against the model layout.
type FeaturePayload map[string]interface{}

// Forecast is a prediction for the day after the latest stored observation.
type Forecast struct {
	Prediction
	BasedOn   string  `json:"based_on"`
	PriceLag1 float64 `json:"price_lag1"`
	PriceLag2 float64 `json:"price_lag2"`
}

// RetrainStatus is the last known state of a retrain dispatch.
type RetrainStatus struct {
	State     string    `json:"state"`
	Reason    string    `json:"reason"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Retrain states.
const (
	RetrainQueued     = "queued"
	RetrainDispatched = "dispatched"
	RetrainFailed     = "failed"
)

// Event types published on the events topic.
const (
	EventObservationUpserted = "observation.upserted"
	EventPredictionServed    = "prediction.served"
)

// ObservationEvent is emitted after a successful upsert.
type ObservationEvent struct {
	Type       string    `json:"type"`
	Date       string    `json:"date"`
	PriceToday float64   `json:"price_today"`
	PriceLag1  float64   `json:"price_lag1"`
	PriceLag2  float64   `json:"price_lag2"`
	Inserted   bool      `json:"inserted"`
	At         time.Time `json:"at"`
}

// PredictionEvent is emitted for every served prediction.
type PredictionEvent struct {
	Type         string             `json:"type"`
	ModelVersion string             `json:"model_version"`
	Input        map[string]float64 `json:"input"`
	Prediction   float64            `json:"prediction"`
	At           time.Time          `json:"at"`
}

// Evaluation is the outcome of scoring the model against the stored table.
type Evaluation struct {
	ModelVersion string  `json:"model_version"`
	Rows         int     `json:"rows"`
	MAE          float64 `json:"mae"`
}
