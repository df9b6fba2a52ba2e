package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/models"
)

type recPusher struct {
	name     string
	value    float64
	grouping map[string]string
	err      error
}

func (p *recPusher) PushGauge(_ context.Context, name, _ string, value float64, grouping map[string]string) error {
	p.name, p.value, p.grouping = name, value, grouping
	return p.err
}

func evalTable() *memTable {
	return &memTable{rows: []models.Observation{
		{Date: day("2024-01-01"), PriceLag1: 100, PriceLag2: 100, PriceToday: 100}, // pred 100, err 0
		{Date: day("2024-01-02"), PriceLag1: 100, PriceLag2: 100, PriceToday: 110}, // pred 100, err 10
		{Date: day("2024-01-03"), PriceLag1: 110, PriceLag2: 100, PriceToday: 102}, // pred 105, err 3
	}}
}

func TestEvaluateComputesMAEAndAppendsLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "metrics.log")
	pusher := &recPusher{}
	ev := NewEvaluator(averageModel(), evalTable(), logPath, pusher, nil)

	res, err := ev.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rows)
	assert.InDelta(t, 13.0/3, res.MAE, 1e-9)
	assert.Equal(t, "komoditas-v1", res.ModelVersion)

	_, err = ev.Evaluate(context.Background())
	require.NoError(t, err)
	b, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "MAE=4.33\nMAE=4.33\n", string(b))

	assert.Equal(t, "model_mae_current", pusher.name)
	assert.InDelta(t, res.MAE, pusher.value, 1e-9)
	assert.Equal(t, "komoditas-v1", pusher.grouping["model_version"])
}

func TestEvaluatePushFailureIsNotFatal(t *testing.T) {
	ev := NewEvaluator(averageModel(), evalTable(), "", &recPusher{err: errors.New("connection refused")}, nil)
	_, err := ev.Evaluate(context.Background())
	assert.NoError(t, err)
}

func TestEvaluateErrors(t *testing.T) {
	_, err := NewEvaluator(averageModel(), &memTable{}, "", nil, nil).Evaluate(context.Background())
	assert.ErrorIs(t, err, ErrNoObservations)

	m := stubModel{features: []string{"Rooms"}, out: []float64{1}}
	_, err = NewEvaluator(m, evalTable(), "", nil, nil).Evaluate(context.Background())
	assert.Error(t, err)
}
