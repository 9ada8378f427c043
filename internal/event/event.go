package event

import "time"

// EventType identifies the kind of lifecycle event.
type EventType string

const (
	// Turn lifecycle
	TurnStarted   EventType = "turn.started"
	TurnCompleted EventType = "turn.completed"
	TurnFailed    EventType = "turn.failed"

	// Routing
	RoutingDecided EventType = "routing.decided"
	RoutingUnknown EventType = "routing.unknown"

	// Search
	SearchExecuted    EventType = "search.executed"
	CorrelationFailed EventType = "correlation.failed"

	// Memory
	MemoryUpdated EventType = "memory.updated"

	// State
	ThreadCheckpoint EventType = "thread.checkpoint"
)

// Event carries data about a lifecycle occurrence.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]interface{}) Event {
	return Event{
		Type:      t,
		Timestamp: time.Now(),
		Data:      data,
	}
}
