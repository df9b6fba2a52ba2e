package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/models"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/service"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/service/ratelimit"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/cache"
	xhttp "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/http"
	applogger "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/logger"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/queue"
)

const (
	retrainJobType   = "retrain.dispatch"
	retrainStatusKey = "retrain:status"
	retrainStatusTTL = 7 * 24 * time.Hour
)

var (
	ErrRetrainDisabled    = errors.New("retrain trigger is not configured")
	ErrRetrainRateLimited = errors.New("retrain requested too often")
)

// RetrainService accepts retrain requests and hands the outbound dispatch to
// a job queue, so the caller never waits on the CI system.
type RetrainService struct {
	trigger service.RetrainTrigger
	queue   queue.Service
	status  cache.Service
	limiter *ratelimit.Limiter
	logger  *applogger.Logger
}

// NewRetrainService registers the dispatch job on q. A nil trigger disables the service.
func NewRetrainService(trigger service.RetrainTrigger, q queue.Service, status cache.Service, limiter *ratelimit.Limiter, l *applogger.Logger) *RetrainService {
	if l == nil {
		l = applogger.Nop()
	}
	s := &RetrainService{trigger: trigger, queue: q, status: status, limiter: limiter, logger: l}
	if trigger != nil && q != nil {
		q.RegisterJob(&retrainJob{svc: s})
	}
	return s
}

func (s *RetrainService) Enabled() bool { return s.trigger != nil && s.queue != nil }

// Request enqueues a dispatch. clientKey scopes the rate limit.
func (s *RetrainService) Request(ctx context.Context, clientKey, reason string) (models.RetrainStatus, error) {
	if !s.Enabled() {
		return models.RetrainStatus{}, ErrRetrainDisabled
	}
	if s.limiter != nil && !s.limiter.Allow(clientKey) {
		return models.RetrainStatus{}, ErrRetrainRateLimited
	}

	if err := s.queue.Enqueue(ctx, retrainJobType, retrainPayload{Reason: reason}); err != nil {
		return models.RetrainStatus{}, fmt.Errorf("enqueue retrain: %w", err)
	}
	st := s.setStatus(ctx, models.RetrainQueued, reason, nil)
	s.logger.Info("retrain queued", applogger.String("reason", reason), applogger.String("client", clientKey))
	return st, nil
}

// Status returns the last recorded state, or an "idle" status if none.
func (s *RetrainService) Status(ctx context.Context) (models.RetrainStatus, error) {
	var st models.RetrainStatus
	if s.status == nil {
		return models.RetrainStatus{State: "idle"}, nil
	}
	err := s.status.Get(ctx, retrainStatusKey, &st)
	if errors.Is(err, cache.ErrCacheMiss) {
		return models.RetrainStatus{State: "idle"}, nil
	}
	if err != nil {
		return models.RetrainStatus{}, fmt.Errorf("read retrain status: %w", err)
	}
	return st, nil
}

func (s *RetrainService) dispatch(ctx context.Context, reason string) error {
	err := s.trigger.Trigger(ctx, reason)
	if err == nil {
		s.setStatus(ctx, models.RetrainDispatched, reason, nil)
		s.logger.Info("retrain dispatched", applogger.String("reason", reason))
		return nil
	}

	s.setStatus(ctx, models.RetrainFailed, reason, err)
	var se *xhttp.StatusError
	if errors.As(err, &se) && !se.Temporary() {
		// a rejected request will be rejected again
		s.logger.Error("retrain rejected", applogger.Int("status", se.Code), applogger.Error(err))
		return nil
	}
	return err
}

func (s *RetrainService) setStatus(ctx context.Context, state, reason string, cause error) models.RetrainStatus {
	st := models.RetrainStatus{State: state, Reason: reason, UpdatedAt: time.Now().UTC()}
	if cause != nil {
		st.Error = cause.Error()
	}
	if s.status != nil {
		if err := s.status.Set(ctx, retrainStatusKey, st, retrainStatusTTL); err != nil {
			s.logger.Warn("store retrain status", applogger.Error(err))
		}
	}
	return st
}

type retrainPayload struct {
	Reason string `json:"reason"`
}

type retrainJob struct {
	svc *RetrainService
}

func (j *retrainJob) Name() string { return "retrain-dispatch" }
func (j *retrainJob) Type() string { return retrainJobType }

func (j *retrainJob) Handle(ctx context.Context, payload json.RawMessage) error {
	var p retrainPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode retrain payload: %w", err)
	}
	return j.svc.dispatch(ctx, p.Reason)
}
