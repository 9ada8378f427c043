package testutil

import (
	"sync"

	"github.com/aide-oss/aide/internal/event"
	"github.com/aide-oss/aide/internal/telemetry"
)

// EventRecorder is a blocking hook that captures every emitted event.
type EventRecorder struct {
	mu     sync.Mutex
	events []event.Event
}

// NewEventRecorder creates an empty recorder.
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

func (r *EventRecorder) Name() string                   { return "recorder" }
func (r *EventRecorder) IsBlocking() bool               { return true }
func (r *EventRecorder) Matches(t event.EventType) bool { return true }

func (r *EventRecorder) Handle(ev event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the captured events.
func (r *EventRecorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of the given type were captured.
func (r *EventRecorder) Count(t event.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// Harness bundles the telemetry and event plumbing tests need.
type Harness struct {
	Logger   *telemetry.Logger
	Metrics  *telemetry.Metrics
	Bus      *event.Bus
	Recorder *EventRecorder
}

// NewHarness creates a quiet logger, fresh metrics, and an event bus
// with a recorder registered.
func NewHarness() *Harness {
	logger := telemetry.NewLogger("error", "text")
	recorder := NewEventRecorder()
	bus := event.NewBus(logger)
	bus.Register(recorder)
	return &Harness{
		Logger:   logger,
		Metrics:  telemetry.NewMetrics(),
		Bus:      bus,
		Recorder: recorder,
	}
}
