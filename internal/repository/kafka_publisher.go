package repository

import (
	"context"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/models"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/repository"
)

// messageWriter is the part of pkg/kafka.Producer the publisher needs.
type messageWriter interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaEventPublisher writes domain events to one topic, keyed by observation
// date or model version so per-key ordering holds across partitions.
type KafkaEventPublisher struct {
	w     messageWriter
	topic string
}

var _ repository.EventPublisher = (*KafkaEventPublisher)(nil)

func NewKafkaEventPublisher(w messageWriter, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{w: w, topic: topic}
}

func (p *KafkaEventPublisher) PublishObservation(ctx context.Context, ev models.ObservationEvent) error {
	if ev.Type == "" {
		ev.Type = models.EventObservationUpserted
	}
	return p.w.Publish(ctx, p.topic, []byte(ev.Date), ev)
}

func (p *KafkaEventPublisher) PublishPrediction(ctx context.Context, ev models.PredictionEvent) error {
	if ev.Type == "" {
		ev.Type = models.EventPredictionServed
	}
	return p.w.Publish(ctx, p.topic, []byte(ev.ModelVersion), ev)
}

func (p *KafkaEventPublisher) Close() error { return p.w.Close() }

// NoopEventPublisher is used when Kafka is disabled.
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishObservation(context.Context, models.ObservationEvent) error {
	return nil
}

func (NoopEventPublisher) PublishPrediction(context.Context, models.PredictionEvent) error {
	return nil
}

func (NoopEventPublisher) Close() error { return nil }
