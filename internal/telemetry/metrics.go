package telemetry

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects per-session counters for the turn loop.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	TurnsStarted    int64
	TurnsCompleted  int64
	TurnsFailed     int64
	RouterDecisions int64
	UnknownRoutes   int64
	SearchCalls     int64
	MemoryWrites    int64
	APIRequests     int64

	// Histograms (simplified)
	turnDurations []time.Duration

	// Exporter (optional)
	exporter MetricsExporter
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		turnDurations: make([]time.Duration, 0, 256),
	}
}

// IncTurnsStarted increments the turns started counter.
func (m *Metrics) IncTurnsStarted() {
	atomic.AddInt64(&m.TurnsStarted, 1)
}

// IncTurnsCompleted increments the turns completed counter.
func (m *Metrics) IncTurnsCompleted() {
	atomic.AddInt64(&m.TurnsCompleted, 1)
}

// IncTurnsFailed increments the turns failed counter.
func (m *Metrics) IncTurnsFailed() {
	atomic.AddInt64(&m.TurnsFailed, 1)
}

// IncRouterDecisions increments the router decisions counter.
func (m *Metrics) IncRouterDecisions() {
	atomic.AddInt64(&m.RouterDecisions, 1)
}

// IncUnknownRoutes increments the unrecognized-routing-decision counter.
func (m *Metrics) IncUnknownRoutes() {
	atomic.AddInt64(&m.UnknownRoutes, 1)
}

// IncSearchCalls increments the search provider call counter.
func (m *Metrics) IncSearchCalls() {
	atomic.AddInt64(&m.SearchCalls, 1)
}

// IncMemoryWrites increments the memory write counter.
func (m *Metrics) IncMemoryWrites() {
	atomic.AddInt64(&m.MemoryWrites, 1)
}

// IncAPIRequests increments the model API request counter.
func (m *Metrics) IncAPIRequests() {
	atomic.AddInt64(&m.APIRequests, 1)
}

// RecordTurnDuration records how long a full turn took.
func (m *Metrics) RecordTurnDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turnDurations = append(m.turnDurations, d)
}

// GetSummary returns a summary of collected metrics.
func (m *Metrics) GetSummary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := map[string]interface{}{
		"turns_started":    atomic.LoadInt64(&m.TurnsStarted),
		"turns_completed":  atomic.LoadInt64(&m.TurnsCompleted),
		"turns_failed":     atomic.LoadInt64(&m.TurnsFailed),
		"router_decisions": atomic.LoadInt64(&m.RouterDecisions),
		"unknown_routes":   atomic.LoadInt64(&m.UnknownRoutes),
		"search_calls":     atomic.LoadInt64(&m.SearchCalls),
		"memory_writes":    atomic.LoadInt64(&m.MemoryWrites),
		"api_requests":     atomic.LoadInt64(&m.APIRequests),
	}

	if len(m.turnDurations) > 0 {
		var total time.Duration
		for _, d := range m.turnDurations {
			total += d
		}
		summary["avg_turn_duration_ms"] = total.Milliseconds() / int64(len(m.turnDurations))
	}

	return summary
}

// Reset resets all metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	atomic.StoreInt64(&m.TurnsStarted, 0)
	atomic.StoreInt64(&m.TurnsCompleted, 0)
	atomic.StoreInt64(&m.TurnsFailed, 0)
	atomic.StoreInt64(&m.RouterDecisions, 0)
	atomic.StoreInt64(&m.UnknownRoutes, 0)
	atomic.StoreInt64(&m.SearchCalls, 0)
	atomic.StoreInt64(&m.MemoryWrites, 0)
	atomic.StoreInt64(&m.APIRequests, 0)
	m.turnDurations = m.turnDurations[:0]
}

// SetExporter attaches a metrics exporter.
func (m *Metrics) SetExporter(e MetricsExporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exporter = e
}

// Flush exports the current metrics snapshot with the given event label.
func (m *Metrics) Flush(event string, labels map[string]string) {
	m.mu.RLock()
	exporter := m.exporter
	m.mu.RUnlock()

	if exporter == nil {
		return
	}

	snapshot := MetricsSnapshot{
		Timestamp: time.Now(),
		Event:     event,
		Metrics:   m.GetSummary(),
		Labels:    labels,
	}
	// Best-effort export.
	_ = exporter.Export(snapshot)
}
