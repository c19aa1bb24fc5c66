// Package connectivity tracks whether the trakt API is reachable so callers
// can fail fast while offline instead of waiting for a request to time out.
package connectivity

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/sgtrakt/internal/logging"
	"github.com/dmitrijs2005/sgtrakt/internal/netx"
)

// ProbeFunc reports nil when the remote end answered.
type ProbeFunc func(ctx context.Context) error

// HTTPProbe probes url with a HEAD request.
func HTTPProbe(client *http.Client, url string) ProbeFunc {
	return func(ctx context.Context) error {
		return netx.Probe(ctx, client, url)
	}
}

// Monitor caches the last probe result for maxAge.
type Monitor struct {
	probe   ProbeFunc
	maxAge  time.Duration
	timeout time.Duration
	log     logging.Logger
	now     func() time.Time

	mu      sync.Mutex
	online  bool
	checked time.Time
}

func NewMonitor(probe ProbeFunc, maxAge time.Duration, log logging.Logger) *Monitor {
	return &Monitor{
		probe:   probe,
		maxAge:  maxAge,
		timeout: 3 * time.Second,
		log:     log.With("module", "connectivity"),
		now:     time.Now,
	}
}

// Online returns the cached state, probing first if it is stale.
func (m *Monitor) Online(ctx context.Context) bool {
	m.mu.Lock()
	fresh := !m.checked.IsZero() && m.now().Sub(m.checked) < m.maxAge
	online := m.online
	m.mu.Unlock()

	if fresh {
		return online
	}
	return m.Check(ctx)
}

// Check probes now and records the result.
func (m *Monitor) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.probe(ctx)
	cancel()

	online := err == nil

	m.mu.Lock()
	changed := m.online != online || m.checked.IsZero()
	m.online = online
	m.checked = m.now()
	m.mu.Unlock()

	if changed {
		if online {
			m.log.Info(ctx, "trakt reachable")
		} else {
			m.log.Warn(ctx, "trakt unreachable", "error", err)
		}
	}
	return online
}

// DefaultWatchInterval replaces a non-positive Watch interval.
const DefaultWatchInterval = 30 * time.Second

// Watch probes every interval until ctx is done and calls onChange whenever
// the state flips.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration, onChange func(online bool)) {
	if interval <= 0 {
		m.log.Warn(ctx, "invalid online check interval, using default", "interval", interval, "default", DefaultWatchInterval)
		interval = DefaultWatchInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := m.Check(ctx)
	if onChange != nil {
		onChange(last)
	}

	for {
		select {
		case <-ticker.C:
			online := m.Check(ctx)
			if online != last && onChange != nil {
				onChange(online)
			}
			last = online

		case <-ctx.Done():
			return
		}
	}
}
