package repository

import (
	"context"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/models"
)

// ObservationTable is the persisted date-keyed lag table. Load returns rows in
// ascending date order; Save replaces the whole table.
type ObservationTable interface {
	Load(ctx context.Context) ([]models.Observation, error)
	Save(ctx context.Context, rows []models.Observation) error
	Health(ctx context.Context) error
	Close() error
}

// Locker serialises read-modify-write cycles on the table. The returned
// release func must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// EventPublisher fans domain events out to other systems. Failures are
// reported to the caller but never undo the operation that produced them.
type EventPublisher interface {
	PublishObservation(ctx context.Context, ev models.ObservationEvent) error
	PublishPrediction(ctx context.Context, ev models.PredictionEvent) error
	Close() error
}

type Metrics interface {
	RecordPrediction(modelVersion string)
	RecordUpsert(outcome string)
	RecordError(kind string)
	RecordLastActual(price float64)
	RecordLatency(op string, seconds float64)
}
