package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/errs"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/models"
)

func TestForecastNextUsesTail(t *testing.T) {
	table := &memTable{rows: []models.Observation{
		{Date: day("2024-01-01"), PriceLag1: 100, PriceLag2: 100, PriceToday: 100},
		{Date: day("2024-01-02"), PriceLag1: 100, PriceLag2: 100, PriceToday: 120},
	}}
	f := NewForecastService(NewPredictionService(averageModel()), NewObservationStore(table))
	require.True(t, f.Supported())

	got, err := f.ForecastNext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", got.BasedOn)
	assert.Equal(t, 120.0, got.PriceLag1)
	assert.Equal(t, 100.0, got.PriceLag2)
	assert.Equal(t, 110.0, got.Value)
}

func TestForecastNextEmptyStore(t *testing.T) {
	f := NewForecastService(NewPredictionService(averageModel()), NewObservationStore(&memTable{}))
	_, err := f.ForecastNext(context.Background())
	assert.ErrorIs(t, err, ErrNoObservations)
	assert.True(t, errs.IsValidation(err))
}

func TestForecastNextNeedsLagModel(t *testing.T) {
	m := stubModel{features: []string{"Rooms", "Bathroom"}, out: []float64{1}}
	f := NewForecastService(NewPredictionService(m), NewObservationStore(&memTable{}))
	assert.False(t, f.Supported())
	_, err := f.ForecastNext(context.Background())
	assert.ErrorIs(t, err, ErrForecastUnsupported)
}

func TestForecastNextStorageFailure(t *testing.T) {
	f := NewForecastService(NewPredictionService(averageModel()), NewObservationStore(&memTable{loadErr: errDisk}))
	_, err := f.ForecastNext(context.Background())
	assert.ErrorIs(t, err, errs.ErrStorageUnavailable)
}
