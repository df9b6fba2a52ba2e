package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/errs"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/models"
	domrepo "github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/repository"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/service"
	applogger "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/logger"
)

// PredictionService scores feature payloads against one immutable model.
// It is safe for concurrent use.
type PredictionService struct {
	model    service.Regressor
	features []string
	known    map[string]struct{}
	strict   bool

	logger  *applogger.Logger
	metrics domrepo.Metrics
	events  domrepo.EventPublisher
}

type PredictionOption func(*PredictionService)

// WithStrictFeatures rejects payload fields the model does not know.
func WithStrictFeatures(strict bool) PredictionOption {
	return func(s *PredictionService) { s.strict = strict }
}

func WithPredictionLogger(l *applogger.Logger) PredictionOption {
	return func(s *PredictionService) { s.logger = l }
}

func WithPredictionMetrics(m domrepo.Metrics) PredictionOption {
	return func(s *PredictionService) { s.metrics = m }
}

func WithPredictionEvents(p domrepo.EventPublisher) PredictionOption {
	return func(s *PredictionService) { s.events = p }
}

func NewPredictionService(model service.Regressor, opts ...PredictionOption) *PredictionService {
	features := append([]string(nil), model.Features()...)
	known := make(map[string]struct{}, len(features))
	for _, f := range features {
		known[f] = struct{}{}
	}
	s := &PredictionService{model: model, features: features, known: known}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Features returns the ordered input layout.
func (s *PredictionService) Features() []string { return append([]string(nil), s.features...) }

func (s *PredictionService) ModelVersion() string { return s.model.Version() }

// Predict builds the feature vector in model order and returns one scalar.
func (s *PredictionService) Predict(ctx context.Context, payload models.FeaturePayload) (models.Prediction, error) {
	start := time.Now()
	vector, err := s.vector(payload)
	if err != nil {
		s.recordError(err)
		return models.Prediction{}, err
	}

	out, err := s.score(vector)
	if err != nil {
		s.recordError(err)
		return models.Prediction{}, err
	}

	p := models.Prediction{Value: out, ModelVersion: s.model.Version()}
	s.served(ctx, vector, p, time.Since(start))
	return p, nil
}

// predictVector skips payload conversion; the caller guarantees model order.
func (s *PredictionService) predictVector(ctx context.Context, vector []float64) (models.Prediction, error) {
	start := time.Now()
	out, err := s.score(vector)
	if err != nil {
		s.recordError(err)
		return models.Prediction{}, err
	}
	p := models.Prediction{Value: out, ModelVersion: s.model.Version()}
	s.served(ctx, vector, p, time.Since(start))
	return p, nil
}

func (s *PredictionService) vector(payload models.FeaturePayload) ([]float64, error) {
	var missing []string
	for _, f := range s.features {
		if _, ok := payload[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &errs.MissingFeatureError{Names: missing}
	}

	if s.strict {
		var unknown []string
		for k := range payload {
			if _, ok := s.known[k]; !ok {
				unknown = append(unknown, k)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return nil, &errs.UnknownFeatureError{Names: unknown}
		}
	}

	vector := make([]float64, len(s.features))
	for i, f := range s.features {
		v, err := toFloat(payload[f])
		if err != nil {
			return nil, &errs.ModelInferenceError{Err: fmt.Errorf("feature %s: %w", f, err)}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &errs.ModelInferenceError{Err: fmt.Errorf("feature %s is not finite", f)}
		}
		vector[i] = v
	}
	return vector, nil
}

func (s *PredictionService) score(vector []float64) (float64, error) {
	out, err := s.model.Predict([][]float64{vector})
	if err != nil {
		return 0, &errs.ModelInferenceError{Err: err}
	}
	if len(out) != 1 {
		return 0, &errs.ModelInferenceError{Err: fmt.Errorf("model returned %d values for 1 row", len(out))}
	}
	if math.IsNaN(out[0]) || math.IsInf(out[0], 0) {
		return 0, &errs.ModelInferenceError{Err: fmt.Errorf("model returned non-finite value %v", out[0])}
	}
	return out[0], nil
}

func (s *PredictionService) served(ctx context.Context, vector []float64, p models.Prediction, took time.Duration) {
	input := make(map[string]float64, len(vector))
	for i, f := range s.features {
		input[f] = vector[i]
	}

	if s.logger != nil {
		s.logger.Info("prediction served",
			applogger.Any("input", input),
			applogger.Float64("prediction", p.Value),
			applogger.String("model_version", p.ModelVersion))
	}
	if s.metrics != nil {
		s.metrics.RecordPrediction(p.ModelVersion)
		s.metrics.RecordLatency("predict", took.Seconds())
	}
	if s.events != nil {
		ev := models.PredictionEvent{
			Type:         models.EventPredictionServed,
			ModelVersion: p.ModelVersion,
			Input:        input,
			Prediction:   p.Value,
			At:           time.Now().UTC(),
		}
		if err := s.events.PublishPrediction(ctx, ev); err != nil && s.logger != nil {
			s.logger.Warn("publish prediction event", applogger.Error(err))
		}
	}
}

func (s *PredictionService) recordError(err error) {
	if s.metrics != nil {
		s.metrics.RecordError(errorKind(err))
	}
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case nil:
		return 0, fmt.Errorf("value is null")
	default:
		return 0, fmt.Errorf("value of type %T is not numeric", v)
	}
}
