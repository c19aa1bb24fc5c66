package connectivity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/sgtrakt/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnline_CachesWithinMaxAge(t *testing.T) {
	var calls atomic.Int32
	m := NewMonitor(func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, time.Hour, logging.Nop())

	assert.True(t, m.Online(context.Background()))
	assert.True(t, m.Online(context.Background()))
	assert.EqualValues(t, 1, calls.Load())
}

func TestOnline_ReprobesWhenStale(t *testing.T) {
	var fail atomic.Bool
	m := NewMonitor(func(ctx context.Context) error {
		if fail.Load() {
			return errors.New("down")
		}
		return nil
	}, time.Minute, logging.Nop())

	now := time.Now()
	m.now = func() time.Time { return now }

	require.True(t, m.Online(context.Background()))

	fail.Store(true)
	now = now.Add(2 * time.Minute)
	assert.False(t, m.Online(context.Background()))
}

func TestHTTPProbe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	m := NewMonitor(HTTPProbe(ts.Client(), ts.URL), time.Minute, logging.Nop())
	assert.True(t, m.Check(context.Background()))

	ts.Close()
	assert.False(t, m.Check(context.Background()))
}

func TestWatch_ReportsChanges(t *testing.T) {
	var fail atomic.Bool
	m := NewMonitor(func(ctx context.Context) error {
		if fail.Load() {
			return errors.New("down")
		}
		return nil
	}, 0, logging.Nop())

	var (
		mu     sync.Mutex
		states []bool
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go m.Watch(ctx, 5*time.Millisecond, func(online bool) {
		mu.Lock()
		states = append(states, online)
		mu.Unlock()
	})

	time.Sleep(20 * time.Millisecond)
	fail.Store(true)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) >= 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, states[:2])
}

func TestWatch_NonPositiveIntervalFallsBack(t *testing.T) {
	m := NewMonitor(func(ctx context.Context) error { return nil }, 0, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	reported := make(chan bool, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Watch(ctx, 0, func(online bool) { reported <- online })
	}()

	select {
	case online := <-reported:
		assert.True(t, online)
	case <-time.After(time.Second):
		t.Fatal("no initial state reported")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
