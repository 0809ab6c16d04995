// Package telemetry provides process-wide counters for the extraction
// pipeline and a JSON snapshot endpoint. It deliberately uses only standard
// library constructs; the pipeline's observability needs are a handful of
// monotonic counters, not a tracing SDK.
package telemetry

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

// Counter names emitted by the pipeline.
const (
	CounterDocsProcessed    = "documents_processed"
	CounterDocsFailed       = "documents_failed"
	CounterFieldMiss        = "field_extraction_miss"
	CounterTerminologyMiss  = "terminology_miss"
	CounterStrategyExhaust  = "strategy_exhausted"
	CounterCacheUnavailable = "cache_unavailable"
)

// Metrics is a registry of named counters. All methods are safe for
// concurrent use and nil-safe, so components can treat metrics as optional.
type Metrics struct {
	mu       sync.RWMutex
	started  time.Time
	counters map[string]*int64
}

// New creates an empty metrics registry.
func New() *Metrics {
	return &Metrics{
		started:  time.Now().UTC(),
		counters: make(map[string]*int64),
	}
}

// Inc increments a counter by one.
func (m *Metrics) Inc(name string) { m.Add(name, 1) }

// Add increments a counter by delta, creating it on first use.
func (m *Metrics) Add(name string, delta int64) {
	if m == nil {
		return
	}
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()
	if !ok {
		m.mu.Lock()
		if c, ok = m.counters[name]; !ok {
			c = new(int64)
			m.counters[name] = c
		}
		m.mu.Unlock()
	}
	atomic.AddInt64(c, delta)
}

// Get returns a counter's current value.
func (m *Metrics) Get(name string) int64 {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.counters[name]; ok {
		return atomic.LoadInt64(c)
	}
	return 0
}

// Snapshot returns a copy of all counters.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int64, len(m.counters))
	for name, c := range m.counters {
		out[name] = atomic.LoadInt64(c)
	}
	return out
}

type snapshotResponse struct {
	UptimeSeconds int64            `json:"uptime_seconds"`
	Counters      map[string]int64 `json:"counters"`
}

// Handler returns an echo handler serving the counter snapshot as JSON.
func (m *Metrics) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := snapshotResponse{Counters: m.Snapshot()}
		if m != nil {
			resp.UptimeSeconds = int64(time.Since(m.started).Seconds())
		}
		return c.JSON(http.StatusOK, resp)
	}
}
