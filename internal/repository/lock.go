package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/repository"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/cache"
)

// ErrLockTimeout is returned when a distributed lock could not be taken in time.
var ErrLockTimeout = errors.New("lock: wait timed out")

// MutexLocker is an in-process lock per key that honours context cancellation.
type MutexLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

var _ repository.Locker = (*MutexLocker)(nil)

func NewMutexLocker() *MutexLocker {
	return &MutexLocker{slots: make(map[string]chan struct{})}
}

func (l *MutexLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[key] = s
	}
	return s
}

func (l *MutexLocker) Acquire(ctx context.Context, key string) (func(), error) {
	s := l.slot(key)
	select {
	case s <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-s }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CacheLocker takes the lock through cache.Service (Redis SETNX in production),
// polling until wait elapses. The TTL bounds how long a crashed holder can block others.
type CacheLocker struct {
	cache cache.Service
	ttl   time.Duration
	wait  time.Duration
	poll  time.Duration
	onErr func(key string, err error)
}

var _ repository.Locker = (*CacheLocker)(nil)

type CacheLockerOption func(*CacheLocker)

func WithLockPoll(d time.Duration) CacheLockerOption {
	return func(l *CacheLocker) { l.poll = d }
}

// WithUnlockErrorHandler receives failures from the release func, which has no error return.
func WithUnlockErrorHandler(fn func(key string, err error)) CacheLockerOption {
	return func(l *CacheLocker) { l.onErr = fn }
}

func NewCacheLocker(c cache.Service, ttl, wait time.Duration, opts ...CacheLockerOption) *CacheLocker {
	l := &CacheLocker{cache: c, ttl: ttl, wait: wait, poll: 25 * time.Millisecond}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *CacheLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		token, ok, err := l.cache.TryLock(ctx, key, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := l.cache.Unlock(ctx, key, token); err != nil && l.onErr != nil {
						l.onErr(key, err)
					}
				})
			}, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("lock %s: %w", key, ErrLockTimeout)
			}
			return nil, ctx.Err()
		}
	}
}

// NoopLocker performs no locking. Concurrent upserts may lose updates.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string) (func(), error) { return func() {}, nil }
