package usecase

import (
	"context"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/models"
)

const (
	featureLag1 = "price_lag1"
	featureLag2 = "price_lag2"
)

// ForecastService predicts the next price from the tail of the observation
// table: lag1 is the latest actual, lag2 the latest row's lag1.
type ForecastService struct {
	predictor *PredictionService
	store     *ObservationStore
}

func NewForecastService(p *PredictionService, s *ObservationStore) *ForecastService {
	return &ForecastService{predictor: p, store: s}
}

// Supported reports whether the loaded model takes exactly the two lag features.
func (f *ForecastService) Supported() bool {
	feats := f.predictor.Features()
	return len(feats) == 2 && feats[0] == featureLag1 && feats[1] == featureLag2
}

func (f *ForecastService) ForecastNext(ctx context.Context) (models.Forecast, error) {
	if !f.Supported() {
		return models.Forecast{}, ErrForecastUnsupported
	}
	latest, err := f.store.Latest(ctx)
	if err != nil {
		return models.Forecast{}, err
	}
	if latest == nil {
		return models.Forecast{}, ErrNoObservations
	}

	lag1, lag2 := latest.PriceToday, latest.PriceLag1
	p, err := f.predictor.predictVector(ctx, []float64{lag1, lag2})
	if err != nil {
		return models.Forecast{}, err
	}
	return models.Forecast{
		Prediction: p,
		BasedOn:    latest.DateString(),
		PriceLag1:  lag1,
		PriceLag2:  lag2,
	}, nil
}
