package repository

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/models"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/repository"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/cache"
)

func day(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleRows() []models.Observation {
	return []models.Observation{
		{Date: day("2024-01-01"), PriceLag1: 100, PriceLag2: 100, PriceToday: 100},
		{Date: day("2024-01-02"), PriceLag1: 100, PriceLag2: 100, PriceToday: 102.5},
		{Date: day("2024-01-03"), PriceLag1: 102.5, PriceLag2: 100, PriceToday: 101},
	}
}

func assertRoundTrip(t *testing.T, table repository.ObservationTable) {
	t.Helper()
	ctx := context.Background()

	rows, err := table.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	want := sampleRows()
	require.NoError(t, table.Save(ctx, want))
	got, err := table.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Date.Equal(got[i].Date), "row %d date", i)
		assert.Equal(t, want[i].PriceLag1, got[i].PriceLag1)
		assert.Equal(t, want[i].PriceLag2, got[i].PriceLag2)
		assert.Equal(t, want[i].PriceToday, got[i].PriceToday)
	}

	// Save replaces, never appends
	require.NoError(t, table.Save(ctx, want[:1]))
	got, err = table.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	assert.NoError(t, table.Health(ctx))
}

func TestCSVTableRoundTrip(t *testing.T) {
	table := NewCSVTable(filepath.Join(t.TempDir(), "nested", "data.csv"))
	assertRoundTrip(t, table)
	assert.NoError(t, table.Close())
}

func TestCSVTableWritesHeaderAndPlainNumbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	table := NewCSVTable(path)
	require.NoError(t, table.Save(context.Background(), sampleRows()[1:2]))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "date,price_lag1,price_lag2,price_today\n2024-01-02,100,100,102.5\n", string(b))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestCSVTableLoadSortsAndAcceptsReorderedColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	body := "price_today,date,price_lag2,price_lag1\n" +
		"101,2024-01-03,100,102.5\n" +
		"100,2024-01-01,100,100\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	rows, err := NewCSVTable(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-01", rows[0].DateString())
	assert.Equal(t, 102.5, rows[1].PriceLag1)
}

func TestCSVTableRejectsBadContent(t *testing.T) {
	cases := map[string]string{
		"missing column": "date,price_lag1,price_today\n2024-01-01,1,1\n",
		"bad number":     "date,price_lag1,price_lag2,price_today\n2024-01-01,x,1,1\n",
		"bad date":       "date,price_lag1,price_lag2,price_today\n01/02/2024,1,1,1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data.csv")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := NewCSVTable(path).Load(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestSQLiteTableRoundTrip(t *testing.T) {
	table, err := NewSQLiteTable(context.Background(), filepath.Join(t.TempDir(), "obs.db"), "observations")
	require.NoError(t, err)
	defer table.Close()
	assertRoundTrip(t, table)
}

func TestSQLiteTableRejectsBadIdentifier(t *testing.T) {
	_, err := NewSQLiteTable(context.Background(), ":memory:", "obs; DROP TABLE x")
	assert.Error(t, err)
}

func TestMutexLockerSerialisesAndHonoursContext(t *testing.T) {
	l := NewMutexLocker()
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// other keys are independent
	r2, err := l.Acquire(context.Background(), "other")
	require.NoError(t, err)
	r2()

	release()
	release()
	r3, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	r3()
}

func TestMutexLockerNoLostUpdates(t *testing.T) {
	l := NewMutexLocker()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "table")
			if err != nil {
				return
			}
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestCacheLockerTimesOut(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	l := NewCacheLocker(mc, time.Minute, 30*time.Millisecond, WithLockPoll(5*time.Millisecond))

	release, err := l.Acquire(context.Background(), "observations")
	require.NoError(t, err)

	_, err = l.Acquire(context.Background(), "observations")
	assert.ErrorIs(t, err, ErrLockTimeout)

	release()
	release2, err := l.Acquire(context.Background(), "observations")
	require.NoError(t, err)
	release2()
}

func TestCacheLockerReportsUnlockErrors(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()

	var failed string
	l := NewCacheLocker(mc, time.Minute, time.Second,
		WithUnlockErrorHandler(func(key string, _ error) { failed = key }))

	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	// someone else cleared the lock out from under us
	require.NoError(t, mc.Delete(context.Background(), "k"))
	release()
	assert.Equal(t, "k", failed)
}

type fakeWriter struct {
	topic  string
	keys   []string
	values []interface{}
	closed bool
}

func (w *fakeWriter) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	w.topic = topic
	w.keys = append(w.keys, string(key))
	w.values = append(w.values, value)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaEventPublisherKeysAndTypes(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaEventPublisher(w, "pricecast.events")
	ctx := context.Background()

	require.NoError(t, p.PublishObservation(ctx, models.ObservationEvent{Date: "2024-01-02", PriceToday: 1}))
	require.NoError(t, p.PublishPrediction(ctx, models.PredictionEvent{ModelVersion: "v1", Prediction: 2}))
	require.NoError(t, p.Close())

	assert.Equal(t, "pricecast.events", w.topic)
	assert.Equal(t, []string{"2024-01-02", "v1"}, w.keys)
	assert.Equal(t, models.EventObservationUpserted, w.values[0].(models.ObservationEvent).Type)
	assert.Equal(t, models.EventPredictionServed, w.values[1].(models.PredictionEvent).Type)
	assert.True(t, w.closed)
}
