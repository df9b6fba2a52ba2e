package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/repository"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/service"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/handler/api"
	internalrepo "github.com/yudhaislamisulistya/rpl-sc-06-01/internal/repository"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/service/ratelimit"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/services/regressor"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/services/retrain"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/usecase"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/cache"
	pkgch "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/clickhouse"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/config"
	xhttp "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/http"
	pkgkafka "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/kafka"
	applogger "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/logger"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/metrics"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/queue"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/server"
)

const initTimeout = 10 * time.Second

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the application logger. Error lines are also shipped
// to Kafka when the collector is enabled.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Logging.Collector.Enabled && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logging.Collector.Interval,
			CountThreshold: cfg.Logging.Collector.CountThreshold,
			Topic:          cfg.Logging.Collector.Topic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideMetrics registers the domain recorder on the default registry.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideModel loads the regressor artifact. A failure here is fatal.
func ProvideModel(cfg *config.Config) (*regressor.Model, error) {
	return regressor.Load(cfg.Model.Path,
		regressor.WithVersion(cfg.Model.Version),
		regressor.WithExpectedFeatures(cfg.Model.Features),
	)
}

// ProvideRedisClient connects to Redis, or returns nil when Redis is disabled.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc.Client(), nil
}

// ProvideCache returns a Redis-backed cache when a client exists, else an
// in-process one.
func ProvideCache(cfg *config.Config, client *redis.Client) cache.Service {
	if client != nil {
		return cache.NewRedisCacheFromClient(client, cfg.Redis.Prefix)
	}
	return cache.NewMemoryCache()
}

// ProvideClickHouseClient creates a ClickHouse client for the clickhouse backend only.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Store.Backend != "clickhouse" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideObservationTable opens the configured observation backend.
func ProvideObservationTable(cfg *config.Config, ch *pkgch.Client) (repository.ObservationTable, error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	switch cfg.Store.Backend {
	case "sqlite":
		t, err := internalrepo.NewSQLiteTable(ctx, cfg.Store.SQLite, cfg.Store.Table)
		if err != nil {
			return nil, fmt.Errorf("sqlite table: %w", err)
		}
		return t, nil
	case "clickhouse":
		t, err := internalrepo.NewClickHouseTable(ctx, ch, cfg.ClickHouse.Database, cfg.Store.Table)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("clickhouse table: %w", err)
		}
		return t, nil
	default:
		return internalrepo.NewCSVTable(cfg.Store.CSVPath), nil
	}
}

// ProvideLocker picks the upsert lock. "none" keeps the unserialised behaviour.
func ProvideLocker(cfg *config.Config, c cache.Service, l *applogger.Logger) repository.Locker {
	switch cfg.Store.Lock {
	case "redis":
		return internalrepo.NewCacheLocker(c, cfg.Store.LockTTL, cfg.Store.LockWait,
			internalrepo.WithUnlockErrorHandler(func(key string, err error) {
				l.Warn("release upsert lock", applogger.String("key", key), applogger.Error(err))
			}))
	case "none":
		return nil
	default:
		return internalrepo.NewMutexLocker()
	}
}

// ProvideEventPublisher publishes domain events to Kafka when it is enabled.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NoopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvidePredictionService creates the prediction use case.
func ProvidePredictionService(
	cfg *config.Config,
	model *regressor.Model,
	l *applogger.Logger,
	m repository.Metrics,
	events repository.EventPublisher,
) *usecase.PredictionService {
	return usecase.NewPredictionService(model,
		usecase.WithStrictFeatures(cfg.Model.StrictFeatures),
		usecase.WithPredictionLogger(l),
		usecase.WithPredictionMetrics(m),
		usecase.WithPredictionEvents(events),
	)
}

// ProvideObservationStore creates the observation use case.
func ProvideObservationStore(
	cfg *config.Config,
	table repository.ObservationTable,
	locker repository.Locker,
	l *applogger.Logger,
	m repository.Metrics,
	events repository.EventPublisher,
) *usecase.ObservationStore {
	opts := []usecase.StoreOption{
		usecase.WithStoreLogger(l),
		usecase.WithStoreMetrics(m),
		usecase.WithStoreEvents(events),
	}
	if locker != nil {
		opts = append(opts, usecase.WithLocker(locker, cfg.Store.LockKey))
	}
	return usecase.NewObservationStore(table, opts...)
}

// ProvideRetrainTrigger returns the GitHub workflow dispatcher, or nil when retrain is off.
func ProvideRetrainTrigger(cfg *config.Config) (service.RetrainTrigger, error) {
	if !cfg.Retrain.Enabled {
		return nil, nil
	}
	d, err := retrain.NewGitHubDispatcher(retrain.Config{
		APIURL:   cfg.Retrain.APIURL,
		Repo:     cfg.Retrain.Repo,
		Workflow: cfg.Retrain.Workflow,
		Ref:      cfg.Retrain.Ref,
		Token:    cfg.Retrain.Token,
		Timeout:  cfg.Retrain.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ProvideQueue returns a Redis-backed job queue when Redis is available,
// otherwise in-process workers.
func ProvideQueue(cfg *config.Config, l *applogger.Logger, client *redis.Client) queue.Service {
	qc := &queue.QueueConfig{
		Workers:    1,
		QueueSize:  16,
		RetryLimit: cfg.Retrain.RetryLimit,
		RetryDelay: cfg.Retrain.RetryDelay,
	}
	if client != nil {
		return queue.NewRedisQueue(l, qc, client, queue.WithKeyPrefix(cfg.Redis.Prefix+":queue"))
	}
	return queue.NewLocalQueue(l, qc)
}

// ProvideRetrainService creates the retrain use case with its rate limiter.
func ProvideRetrainService(
	cfg *config.Config,
	trigger service.RetrainTrigger,
	q queue.Service,
	c cache.Service,
	l *applogger.Logger,
) *usecase.RetrainService {
	return usecase.NewRetrainService(trigger, q, c,
		ratelimit.New(cfg.Retrain.Burst, cfg.Retrain.RefillPerSec), l)
}

// ProvideHTTPServer builds the Echo server around the API handler.
func ProvideHTTPServer(cfg *config.Config, h *api.Handler, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h, l,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithMetrics(metricsPath, prometheus.DefaultRegisterer, prometheus.DefaultGatherer),
	)
}

// ProvideKafkaConsumer creates the observations consumer, or nil when it is disabled.
func ProvideKafkaConsumer(
	cfg *config.Config,
	l *applogger.Logger,
	store *usecase.ObservationStore,
	m repository.Metrics,
) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	consumer.RegisterHandler(usecase.NewKafkaObservationsHandler(cfg.Kafka.ObservationsTopic, store, l))
	consumer.WithConsumerHook(pkgkafka.NewHookChain(
		pkgkafka.HookFuncs{
			After: func(_ context.Context, topic string, _ []byte, _ error, took time.Duration) {
				m.RecordLatency("consume_"+topic, took.Seconds())
			},
		},
		pkgkafka.HookFuncs{
			After: func(_ context.Context, topic string, _ []byte, err error, took time.Duration) {
				if err != nil {
					l.Warn("observation message failed",
						applogger.String("topic", topic),
						applogger.Duration("took", took),
						applogger.Error(err))
				}
			},
		},
	))
	return consumer, nil
}

// ProvideApp assembles the application lifecycle.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	q queue.Service,
	table repository.ObservationTable,
	events repository.EventPublisher,
	c cache.Service,
	ch *pkgch.Client,
) *server.App {
	app := server.New(cfg, l, srv, q)
	if consumer != nil {
		app.WithConsumer(consumer)
	}
	app.OnClose("observation table", table.Close)
	// logger first: its collector still publishes through the producer
	app.OnClose("logger", func() error { l.Close(); return nil })
	app.OnClose("event publisher", events.Close)
	app.OnClose("cache", c.Close)
	if ch != nil {
		app.OnClose("clickhouse", ch.Close)
	}
	return app
}
