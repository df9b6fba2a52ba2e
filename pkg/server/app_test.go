package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/config"
	xhttp "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/http"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/logger"
)

type fakeRunner struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	startErr error
}

func (r *fakeRunner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = r.startErr == nil
	return r.startErr
}

func (r *fakeRunner) Stop(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	return nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Server.ShutdownTimeout = time.Second
	srv := xhttp.NewServer(nil, logger.Nop(), xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0), xhttp.WithMetrics("", nil, nil))
	return &App{cfg: cfg, logger: logger.Nop(), http: srv, runners: map[string]Runner{}}
}

func TestRunStopsRunnersAndClosesInOrder(t *testing.T) {
	app := newTestApp(t)
	r := &fakeRunner{}
	app.addRunner("worker", r)

	var closed []string
	app.OnClose("table", func() error { closed = append(closed, "table"); return nil })
	app.OnClose("logger", func() error { closed = append(closed, "logger"); return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.started
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.True(t, r.stopped)
	assert.Equal(t, []string{"table", "logger"}, closed)
}

func TestRunReportsStartFailure(t *testing.T) {
	app := newTestApp(t)
	boom := errors.New("boom")
	app.addRunner("broken", &fakeRunner{startErr: boom})

	closed := false
	app.OnClose("cache", func() error { closed = true; return nil })

	err := app.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, closed)
}

func TestShutdownJoinsCloseErrors(t *testing.T) {
	app := newTestApp(t)
	bad := errors.New("flush failed")
	app.OnClose("publisher", func() error { return bad })

	err := app.shutdown()
	assert.ErrorIs(t, err, bad)
}
