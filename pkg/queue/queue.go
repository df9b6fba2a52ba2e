package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/logger"
)

// Service is implemented by RedisQueue and LocalQueue.
type Service interface {
	RegisterJob(job Job)
	Start() error
	Stop(ctx context.Context) error
	Enqueue(ctx context.Context, msgType string, payload interface{}) error
}

// QueueConfig contains the configuration for the queue
type QueueConfig struct {
	Workers    int           // number of workers
	QueueSize  int           // buffered messages (LocalQueue only)
	RetryLimit int           // number of maximum retries
	RetryDelay time.Duration // time delay between retries
}

// Message represents a message in the queue
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	Timestamp time.Time       `json:"timestamp"`
}

func newMessage(msgType string, payload interface{}) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal payload: %w", err)
	}
	now := time.Now()
	return Message{
		ID:        strconv.FormatInt(now.UnixNano(), 10),
		Type:      msgType,
		Payload:   raw,
		Timestamp: now,
	}, nil
}

func normalise(config *QueueConfig) *QueueConfig {
	if config == nil {
		config = &QueueConfig{}
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 64
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 10 * time.Second
	}
	return config
}

// jobSet is the registry shared by both queue implementations.
type jobSet struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

func (s *jobSet) register(lgr *logger.Logger, job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobs == nil {
		s.jobs = make(map[string]Job)
	}
	if _, exists := s.jobs[job.Type()]; exists {
		lgr.Warn("job already registered", logger.String("job", job.Name()))
		return
	}
	s.jobs[job.Type()] = job
	lgr.Info("job registered", logger.String("job", job.Name()), logger.String("type", job.Type()))
}

func (s *jobSet) get(msgType string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[msgType]
	return j, ok
}

// LocalQueue runs jobs on in-process workers. Messages are lost on restart.
type LocalQueue struct {
	logger *logger.Logger
	config *QueueConfig
	jobs   jobSet
	ch     chan Message

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

var _ Service = (*LocalQueue)(nil)

func NewLocalQueue(lgr *logger.Logger, config *QueueConfig) *LocalQueue {
	config = normalise(config)
	ctx, cancel := context.WithCancel(context.Background())
	return &LocalQueue{
		logger: lgr,
		config: config,
		ch:     make(chan Message, config.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (q *LocalQueue) RegisterJob(job Job) { q.jobs.register(q.logger, job) }

func (q *LocalQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return fmt.Errorf("queue already running")
	}
	q.running = true
	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.logger.Info("local queue started", logger.Int("workers", q.config.Workers))
	return nil
}

func (q *LocalQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return nil
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-done:
		return nil
	}
}

func (q *LocalQueue) Enqueue(ctx context.Context, msgType string, payload interface{}) error {
	if _, ok := q.jobs.get(msgType); !ok {
		return fmt.Errorf("no job registered for type: %s", msgType)
	}
	msg, err := newMessage(msgType, payload)
	if err != nil {
		return err
	}
	return q.push(ctx, msg)
}

func (q *LocalQueue) push(ctx context.Context, msg Message) error {
	q.mu.Lock()
	running := q.running
	q.mu.Unlock()
	if !running {
		return fmt.Errorf("queue not running")
	}
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.ctx.Done():
		return fmt.Errorf("queue stopped")
	}
}

func (q *LocalQueue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case msg := <-q.ch:
			q.process(msg)
		}
	}
}

func (q *LocalQueue) process(msg Message) {
	job, ok := q.jobs.get(msg.Type)
	if !ok {
		q.logger.Error("no job found", logger.String("type", msg.Type), logger.String("id", msg.ID))
		return
	}
	err := job.Handle(q.ctx, msg.Payload)
	if err == nil {
		return
	}
	q.logger.Error("message processing error",
		logger.String("id", msg.ID),
		logger.String("job", job.Name()),
		logger.Int("attempt", msg.Attempts+1),
		logger.Error(err))
	if msg.Attempts >= q.config.RetryLimit {
		q.logger.Error("max retries reached", logger.String("id", msg.ID), logger.String("job", job.Name()))
		return
	}
	msg.Attempts++
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		select {
		case <-time.After(q.config.RetryDelay):
			if err := q.push(q.ctx, msg); err != nil {
				q.logger.Warn("retry dropped", logger.String("id", msg.ID), logger.Error(err))
			}
		case <-q.ctx.Done():
		}
	}()
}
