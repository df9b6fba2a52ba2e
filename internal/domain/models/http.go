package models

// Requests for the HTTP endpoints. /predict takes a free-form feature map and is bound directly.

type ActualRequest struct {
	Date       string   `json:"date" validate:"required"`
	PriceToday *float64 `json:"price_today" validate:"required"`
}

type ObservationsRequest struct {
	Limit int `query:"limit" validate:"gte=0,lte=100000"`
}

type RetrainRequest struct {
	Reason string `json:"reason" default:"manual" validate:"max=200"`
}

// ActualResponse echoes the stored row.
type ActualResponse struct {
	Message    string  `json:"message"`
	Date       string  `json:"date"`
	PriceToday float64 `json:"price_today"`
}

type HealthResponse struct {
	Status       string `json:"status"`
	ModelVersion string `json:"model_version"`
	Store        string `json:"store"`
}
