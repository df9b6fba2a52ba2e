package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/models"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/services/regressor"
)

// memTable is an in-memory ObservationTable that copies on every call.
type memTable struct {
	mu      sync.Mutex
	rows    []models.Observation
	loadErr error
	saveErr error
	saves   int
}

func (t *memTable) Load(ctx context.Context) ([]models.Observation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loadErr != nil {
		return nil, t.loadErr
	}
	return append([]models.Observation(nil), t.rows...), nil
}

func (t *memTable) Save(ctx context.Context, rows []models.Observation) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.saveErr != nil {
		return t.saveErr
	}
	t.saves++
	t.rows = append([]models.Observation(nil), rows...)
	return nil
}

func (t *memTable) Health(context.Context) error { return t.loadErr }
func (t *memTable) Close() error                 { return nil }

func (t *memTable) snapshot() []models.Observation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.Observation(nil), t.rows...)
}

type recMetrics struct {
	mu          sync.Mutex
	predictions int
	upserts     map[string]int
	errors      map[string]int
	lastActual  float64
}

func newRecMetrics() *recMetrics {
	return &recMetrics{upserts: map[string]int{}, errors: map[string]int{}}
}

func (m *recMetrics) RecordPrediction(string) { m.mu.Lock(); m.predictions++; m.mu.Unlock() }
func (m *recMetrics) RecordUpsert(o string)   { m.mu.Lock(); m.upserts[o]++; m.mu.Unlock() }
func (m *recMetrics) RecordError(k string)    { m.mu.Lock(); m.errors[k]++; m.mu.Unlock() }
func (m *recMetrics) RecordLastActual(p float64) {
	m.mu.Lock()
	m.lastActual = p
	m.mu.Unlock()
}
func (m *recMetrics) RecordLatency(string, float64) {}

type recEvents struct {
	mu           sync.Mutex
	observations []models.ObservationEvent
	predictions  []models.PredictionEvent
	err          error
}

func (e *recEvents) PublishObservation(_ context.Context, ev models.ObservationEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observations = append(e.observations, ev)
	return e.err
}

func (e *recEvents) PublishPrediction(_ context.Context, ev models.PredictionEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.predictions = append(e.predictions, ev)
	return e.err
}

func (e *recEvents) Close() error { return nil }

// stubModel returns fixed outputs or an error.
type stubModel struct {
	features []string
	out      []float64
	err      error
}

func (m stubModel) Predict(rows [][]float64) ([]float64, error) { return m.out, m.err }
func (m stubModel) Features() []string                          { return m.features }
func (m stubModel) Version() string                             { return "stub" }

// averageModel is 0.5*price_lag1 + 0.5*price_lag2.
func averageModel() *regressor.Model {
	m, err := regressor.New(regressor.Artifact{
		Name:         "komoditas-v1",
		Type:         regressor.TypeLinear,
		Features:     []string{"price_lag1", "price_lag2"},
		Coefficients: []float64{0.5, 0.5},
	})
	if err != nil {
		panic(err)
	}
	return m
}

func day(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

var errDisk = errors.New("disk on fire")
