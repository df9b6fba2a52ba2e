package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/errs"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/models"
)

func TestPredictAverageOfLags(t *testing.T) {
	metrics, events := newRecMetrics(), &recEvents{}
	svc := NewPredictionService(averageModel(), WithPredictionMetrics(metrics), WithPredictionEvents(events))

	p, err := svc.Predict(context.Background(), models.FeaturePayload{"price_lag1": 100.0, "price_lag2": 120.0})
	require.NoError(t, err)
	assert.Equal(t, 110.0, p.Value)
	assert.Equal(t, "komoditas-v1", p.ModelVersion)

	assert.Equal(t, 1, metrics.predictions)
	require.Len(t, events.predictions, 1)
	assert.Equal(t, map[string]float64{"price_lag1": 100, "price_lag2": 120}, events.predictions[0].Input)
	assert.Equal(t, 110.0, events.predictions[0].Prediction)
}

func TestPredictFeatureOrderComesFromModel(t *testing.T) {
	svc := NewPredictionService(stubModel{features: []string{"b", "a"}, out: []float64{1}})
	assert.Equal(t, []string{"b", "a"}, svc.Features())

	v, err := svc.vector(models.FeaturePayload{"a": 1.0, "b": 2.0})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1}, v)
}

func TestPredictIsDeterministic(t *testing.T) {
	svc := NewPredictionService(averageModel())
	payload := models.FeaturePayload{"price_lag1": 97.3, "price_lag2": 101.9}

	first, err := svc.Predict(context.Background(), payload)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := svc.Predict(context.Background(), payload)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPredictMissingFeature(t *testing.T) {
	metrics := newRecMetrics()
	svc := NewPredictionService(averageModel(), WithPredictionMetrics(metrics))

	_, err := svc.Predict(context.Background(), models.FeaturePayload{"price_lag1": 100.0, "volume": 3.0})
	var mf *errs.MissingFeatureError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, []string{"price_lag2"}, mf.Names)
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, 1, metrics.errors["validation"])
	assert.Zero(t, metrics.predictions)
}

func TestPredictExtraFieldsPermissiveByDefault(t *testing.T) {
	payload := models.FeaturePayload{"price_lag1": 100.0, "price_lag2": 120.0, "note": "ignored"}

	p, err := NewPredictionService(averageModel()).Predict(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, 110.0, p.Value)

	_, err = NewPredictionService(averageModel(), WithStrictFeatures(true)).Predict(context.Background(), payload)
	var uf *errs.UnknownFeatureError
	require.ErrorAs(t, err, &uf)
	assert.Equal(t, []string{"note"}, uf.Names)
	assert.True(t, errs.IsValidation(err))
}

func TestPredictRejectsBadValuesAsInferenceErrors(t *testing.T) {
	svc := NewPredictionService(averageModel())
	cases := map[string]interface{}{
		"nan":    math.NaN(),
		"inf":    math.Inf(1),
		"string": "100",
		"null":   nil,
		"bool":   true,
	}
	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Predict(context.Background(), models.FeaturePayload{"price_lag1": v, "price_lag2": 1.0})
			assert.ErrorIs(t, err, errs.ErrModelInference)
			assert.False(t, errs.IsValidation(err))
		})
	}
}

func TestPredictAcceptsJSONNumbers(t *testing.T) {
	p, err := NewPredictionService(averageModel()).Predict(context.Background(),
		models.FeaturePayload{"price_lag1": json.Number("100"), "price_lag2": 120})
	require.NoError(t, err)
	assert.Equal(t, 110.0, p.Value)
}

func TestPredictModelFailures(t *testing.T) {
	feats := []string{"x"}
	payload := models.FeaturePayload{"x": 1.0}

	for name, m := range map[string]stubModel{
		"error":      {features: feats, err: errors.New("shape mismatch")},
		"non-finite": {features: feats, out: []float64{math.NaN()}},
		"no output":  {features: feats, out: nil},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewPredictionService(m).Predict(context.Background(), payload)
			var ie *errs.ModelInferenceError
			assert.ErrorAs(t, err, &ie)
		})
	}
}

func TestPredictEventFailureDoesNotFailPrediction(t *testing.T) {
	svc := NewPredictionService(averageModel(), WithPredictionEvents(&recEvents{err: errors.New("broker down")}))
	_, err := svc.Predict(context.Background(), models.FeaturePayload{"price_lag1": 1.0, "price_lag2": 1.0})
	assert.NoError(t, err)
}
