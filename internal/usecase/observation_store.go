package usecase

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/errs"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/models"
	domrepo "github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/repository"
	applogger "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/logger"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/util"
)

const (
	upsertInsert  = "insert"
	upsertReplace = "replace"
)

// ObservationStore maintains the date-keyed lag table. Every operation reads
// the table fresh; upserts hold the writer lock across load and save.
type ObservationStore struct {
	table   domrepo.ObservationTable
	locker  domrepo.Locker
	lockKey string

	logger  *applogger.Logger
	metrics domrepo.Metrics
	events  domrepo.EventPublisher
}

type StoreOption func(*ObservationStore)

// WithLocker serialises upserts. Without it concurrent upserts can lose updates.
func WithLocker(l domrepo.Locker, key string) StoreOption {
	return func(s *ObservationStore) {
		s.locker = l
		if key != "" {
			s.lockKey = key
		}
	}
}

func WithStoreLogger(l *applogger.Logger) StoreOption {
	return func(s *ObservationStore) { s.logger = l }
}

func WithStoreMetrics(m domrepo.Metrics) StoreOption {
	return func(s *ObservationStore) { s.metrics = m }
}

func WithStoreEvents(p domrepo.EventPublisher) StoreOption {
	return func(s *ObservationStore) { s.events = p }
}

func NewObservationStore(table domrepo.ObservationTable, opts ...StoreOption) *ObservationStore {
	s := &ObservationStore{
		table:   table,
		locker:  noLock{},
		lockKey: "observations:upsert",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpsertActual records the actual price for date. A new date takes its lags
// from the latest earlier row (or from itself when there is none); an existing
// date only has price_today replaced. Later rows are never touched.
func (s *ObservationStore) UpsertActual(ctx context.Context, date string, actual float64) (models.ObservationEntry, error) {
	start := time.Now()
	entry, row, err := s.upsert(ctx, date, actual)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordError(errorKind(err))
		}
		if s.logger != nil && !errs.IsValidation(err) {
			s.logger.Error("upsert actual failed", applogger.String("date", date), applogger.Error(err))
		}
		return models.ObservationEntry{}, err
	}

	outcome := upsertReplace
	if entry.Inserted {
		outcome = upsertInsert
	}
	if s.metrics != nil {
		s.metrics.RecordUpsert(outcome)
		s.metrics.RecordLastActual(actual)
		s.metrics.RecordLatency("upsert", time.Since(start).Seconds())
	}
	if s.logger != nil {
		s.logger.Info("actual recorded",
			applogger.String("date", row.DateString()),
			applogger.Float64("price_today", row.PriceToday),
			applogger.Float64("price_lag1", row.PriceLag1),
			applogger.Float64("price_lag2", row.PriceLag2),
			applogger.String("outcome", outcome))
	}
	if s.events != nil {
		ev := models.ObservationEvent{
			Type:       models.EventObservationUpserted,
			Date:       row.DateString(),
			PriceToday: row.PriceToday,
			PriceLag1:  row.PriceLag1,
			PriceLag2:  row.PriceLag2,
			Inserted:   entry.Inserted,
			At:         time.Now().UTC(),
		}
		if err := s.events.PublishObservation(ctx, ev); err != nil && s.logger != nil {
			s.logger.Warn("publish observation event", applogger.Error(err))
		}
	}
	return entry, nil
}

func (s *ObservationStore) upsert(ctx context.Context, date string, actual float64) (models.ObservationEntry, models.Observation, error) {
	d, err := util.ParseDate(date)
	if err != nil {
		return models.ObservationEntry{}, models.Observation{}, &errs.InvalidDateError{Value: date, Err: err}
	}
	if math.IsNaN(actual) || math.IsInf(actual, 0) {
		return models.ObservationEntry{}, models.Observation{}, &errs.InvalidValueError{Field: "price_today", Reason: "must be a finite number"}
	}

	release, err := s.locker.Acquire(ctx, s.lockKey)
	if err != nil {
		return models.ObservationEntry{}, models.Observation{}, errs.Storage("lock", err)
	}
	defer release()

	rows, err := s.table.Load(ctx)
	if err != nil {
		return models.ObservationEntry{}, models.Observation{}, errs.Storage("load", err)
	}

	rows, row, inserted := applyActual(rows, d, actual)

	if err := s.table.Save(ctx, rows); err != nil {
		return models.ObservationEntry{}, models.Observation{}, errs.Storage("save", err)
	}
	return models.ObservationEntry{Date: row.Date, PriceToday: row.PriceToday, Inserted: inserted}, row, nil
}

// applyActual is the pure upsert step: it returns the new table (sorted), the
// stored row, and whether the row was inserted.
func applyActual(rows []models.Observation, d time.Time, actual float64) ([]models.Observation, models.Observation, bool) {
	for i := range rows {
		if rows[i].Date.Equal(d) {
			rows[i].PriceToday = actual
			return rows, rows[i], false
		}
	}

	row := models.Observation{Date: d, PriceLag1: actual, PriceLag2: actual, PriceToday: actual}
	var prev *models.Observation
	for i := range rows {
		if rows[i].Date.Before(d) && (prev == nil || rows[i].Date.After(prev.Date)) {
			prev = &rows[i]
		}
	}
	if prev != nil {
		row.PriceLag1 = prev.PriceToday
		row.PriceLag2 = prev.PriceLag1
	}

	rows = append(rows, row)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, row, true
}

// List returns the table in date order. A positive limit keeps the newest rows.
func (s *ObservationStore) List(ctx context.Context, limit int) ([]models.Observation, error) {
	rows, err := s.table.Load(ctx)
	if err != nil {
		return nil, errs.Storage("load", err)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	if rows == nil {
		rows = []models.Observation{}
	}
	return rows, nil
}

// Latest returns the newest row, or nil for an empty table.
func (s *ObservationStore) Latest(ctx context.Context) (*models.Observation, error) {
	rows, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *ObservationStore) Health(ctx context.Context) error {
	return errs.Storage("health", s.table.Health(ctx))
}

type noLock struct{}

func (noLock) Acquire(context.Context, string) (func(), error) { return func() {}, nil }
