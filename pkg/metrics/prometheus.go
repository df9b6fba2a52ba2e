package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions *prometheus.CounterVec
	upserts     *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastActual  prometheus.Gauge
	latency     *prometheus.HistogramVec
}

// New registers the recorder's collectors on reg. A nil reg means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricecast_predictions_total",
				Help: "Predictions served",
			},
			[]string{"model_version"},
		),
		upserts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricecast_observation_upserts_total",
				Help: "Actual observations written, by outcome",
			},
			[]string{"outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricecast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"kind"},
		),
		lastActual: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "pricecast_last_actual_price",
				Help: "Most recently recorded actual price",
			},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricecast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordPrediction(modelVersion string) {
	r.predictions.WithLabelValues(modelVersion).Inc()
}

// RecordUpsert counts an upsert; outcome is "insert" or "replace".
func (r *Recorder) RecordUpsert(outcome string) {
	r.upserts.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLastActual(price float64) {
	r.lastActual.Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordPrediction(string)       {}
func (Nop) RecordUpsert(string)           {}
func (Nop) RecordError(string)            {}
func (Nop) RecordLastActual(float64)      {}
func (Nop) RecordLatency(string, float64) {}
