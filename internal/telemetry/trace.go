package telemetry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type traceKey struct{}

// TraceContext carries correlation IDs through a turn-loop execution.
type TraceContext struct {
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`
	TurnID   string `json:"turn_id"`
	SpanID   string `json:"span_id"`
	ParentID string `json:"parent_id,omitempty"`
	State    string `json:"state,omitempty"` // current turn-loop state name
}

// NewTraceContext creates a root trace context for a turn.
func NewTraceContext(threadID, userID string) *TraceContext {
	return &TraceContext{
		ThreadID: threadID,
		UserID:   userID,
		TurnID:   randomID(),
		SpanID:   randomID(),
	}
}

// ChildSpan creates a child trace context inheriting the turn identifiers.
func (tc *TraceContext) ChildSpan() *TraceContext {
	return &TraceContext{
		ThreadID: tc.ThreadID,
		UserID:   tc.UserID,
		TurnID:   tc.TurnID,
		SpanID:   randomID(),
		ParentID: tc.SpanID,
	}
}

// WithState returns a copy annotated with a turn-loop state name.
func (tc *TraceContext) WithState(state string) *TraceContext {
	child := *tc
	child.State = state
	return &child
}

// Fields returns key-value pairs suitable for structured logging.
func (tc *TraceContext) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"thread_id": tc.ThreadID,
		"user_id":   tc.UserID,
		"turn_id":   tc.TurnID,
		"span_id":   tc.SpanID,
	}
	if tc.ParentID != "" {
		fields["parent_id"] = tc.ParentID
	}
	if tc.State != "" {
		fields["state"] = tc.State
	}
	return fields
}

// ContextWithTrace stores a TraceContext in the context.
func ContextWithTrace(ctx context.Context, tc *TraceContext) context.Context {
	return context.WithValue(ctx, traceKey{}, tc)
}

// TraceFromContext extracts a TraceContext from the context, or nil.
func TraceFromContext(ctx context.Context) *TraceContext {
	tc, _ := ctx.Value(traceKey{}).(*TraceContext)
	return tc
}

// WithTrace returns a logger enriched with trace fields from the context.
func (l *Logger) WithTrace(ctx context.Context) *Logger {
	tc := TraceFromContext(ctx)
	if tc == nil {
		return l
	}
	return l.WithFields(tc.Fields())
}

func randomID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
