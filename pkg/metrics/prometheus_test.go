package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordPrediction("v1")
	r.RecordPrediction("v1")
	r.RecordUpsert("insert")
	r.RecordUpsert("replace")
	r.RecordError("storage")
	r.RecordLastActual(101.5)
	r.RecordLatency("upsert", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.predictions.WithLabelValues("v1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.upserts.WithLabelValues("replace")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("storage")))
	assert.Equal(t, 101.5, testutil.ToFloat64(r.lastActual))

	n, err := testutil.GatherAndCount(reg, "pricecast_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewTwiceOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
