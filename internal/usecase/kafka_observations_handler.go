package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/errs"
	pkgkafka "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/kafka"
	applogger "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/logger"
)

// KafkaObservationsHandler applies {date, price_today} messages through the
// observation store. Bad messages are logged and dropped; storage failures
// are returned so the consumer retries them.
type KafkaObservationsHandler struct {
	topic  string
	store  *ObservationStore
	logger *applogger.Logger
}

var _ pkgkafka.MessageHandler = (*KafkaObservationsHandler)(nil)

func NewKafkaObservationsHandler(topic string, store *ObservationStore, l *applogger.Logger) *KafkaObservationsHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &KafkaObservationsHandler{topic: topic, store: store, logger: l}
}

func (h *KafkaObservationsHandler) Topic() string { return h.topic }

func (h *KafkaObservationsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Date       string   `json:"date"`
		PriceToday *float64 `json:"price_today"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.logger.Warn("drop malformed observation", applogger.Error(err))
		return nil
	}
	if m.PriceToday == nil {
		h.logger.Warn("drop observation without price_today", applogger.String("date", m.Date))
		return nil
	}

	_, err := h.store.UpsertActual(ctx, m.Date, *m.PriceToday)
	if errs.IsValidation(err) {
		h.logger.Warn("drop invalid observation", applogger.String("date", m.Date), applogger.Error(err))
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply observation %s: %w", m.Date, err)
	}
	return nil
}
