package agent

import (
	"context"
	"time"

	aideErrors "github.com/aide-oss/aide/internal/errors"
	"github.com/aide-oss/aide/internal/event"
	"github.com/aide-oss/aide/internal/extract"
	"github.com/aide-oss/aide/internal/memory"
	"github.com/aide-oss/aide/internal/provider"
	"github.com/aide-oss/aide/internal/router"
	"github.com/aide-oss/aide/internal/search"
	"github.com/aide-oss/aide/internal/state"
	"github.com/aide-oss/aide/internal/telemetry"
)

// DefaultMaxIterations bounds how many times a turn may loop back to
// the router before it is forcibly terminated.
const DefaultMaxIterations = 10

const (
	apologyReply    = "I ran into a problem while processing that. Please try again."
	overflowReply   = "I wasn't able to finish processing that request. Could you break it into smaller steps?"
	ambiguousPrefix = "I wasn't sure how to act on that."
)

// Options wires the turn loop's collaborators.
type Options struct {
	Router        *router.Router
	Executor      *search.Executor
	Extractor     *extract.StructuredExtractor
	Consolidator  *extract.Consolidator
	Memory        memory.Store
	Threads       state.Store
	Logger        *telemetry.Logger
	Metrics       *telemetry.Metrics
	Bus           *event.Bus
	MaxIterations int
}

// TurnLoop drives one conversation turn through routing, searching, and
// memory updates until a terminating reply is produced.
type TurnLoop struct {
	router        *router.Router
	executor      *search.Executor
	extractor     *extract.StructuredExtractor
	consolidator  *extract.Consolidator
	memory        memory.Store
	threads       state.Store
	logger        *telemetry.Logger
	metrics       *telemetry.Metrics
	bus           *event.Bus
	maxIterations int
}

// New creates a turn loop.
func New(opts Options) *TurnLoop {
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	return &TurnLoop{
		router:        opts.Router,
		executor:      opts.Executor,
		extractor:     opts.Extractor,
		consolidator:  opts.Consolidator,
		memory:        opts.Memory,
		threads:       opts.Threads,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		bus:           opts.Bus,
		maxIterations: maxIter,
	}
}

// Turn processes one user message and returns the assistant's reply.
// The thread is checkpointed before returning, including on failure, so
// a restart resumes from a consistent state.
func (l *TurnLoop) Turn(ctx context.Context, threadID, userID, input string) (string, error) {
	trace := telemetry.NewTraceContext(threadID, userID)
	ctx = telemetry.ContextWithTrace(ctx, trace)
	logger := l.logger.WithTrace(ctx)

	thread, ok, err := l.threads.Load(threadID)
	if err != nil {
		return apologyReply, aideErrors.Wrap(aideErrors.CodeStoreError, "failed to load thread", err)
	}
	if !ok {
		thread = &state.Thread{ID: threadID, UserID: userID}
	}
	msgs := append(thread.Messages, UserMessage(input))

	l.metrics.IncTurnsStarted()
	l.bus.Emit(event.NewEvent(event.TurnStarted, map[string]interface{}{
		"thread_id": threadID,
		"user_id":   userID,
	}))
	started := time.Now()

	reply, msgs, err := l.run(ctx, logger, userID, msgs)
	if err != nil {
		l.metrics.IncTurnsFailed()
		l.bus.Emit(event.NewEvent(event.TurnFailed, map[string]interface{}{
			"thread_id": threadID,
			"user_id":   userID,
			"error":     err.Error(),
		}))
		logger.Error("turn failed", "error", err)
		// The user still gets a reply; the error surfaces to the caller
		// for logging.
		reply = apologyReply
		msgs = append(trimDanglingToolUse(msgs), AssistantText(reply))
	}

	thread.UserID = userID
	thread.Messages = msgs
	if saveErr := l.threads.Save(thread); saveErr != nil {
		logger.Error("failed to checkpoint thread", "error", saveErr)
		if err == nil {
			err = aideErrors.Wrap(aideErrors.CodeStoreError, "failed to checkpoint thread", saveErr)
		}
	} else {
		l.bus.Emit(event.NewEvent(event.ThreadCheckpoint, map[string]interface{}{
			"thread_id": threadID,
			"messages":  len(msgs),
		}))
	}

	l.metrics.RecordTurnDuration(time.Since(started))
	if err == nil {
		l.metrics.IncTurnsCompleted()
		l.bus.Emit(event.NewEvent(event.TurnCompleted, map[string]interface{}{
			"thread_id": threadID,
			"duration":  time.Since(started).String(),
		}))
	}

	return reply, err
}

// run executes the routing loop. Every update loops back to the router;
// only a terminate decision (or the iteration cap) ends the turn.
func (l *TurnLoop) run(ctx context.Context, logger *telemetry.Logger, userID string, msgs []provider.Message) (string, []provider.Message, error) {
	for iteration := 1; iteration <= l.maxIterations; iteration++ {
		snap, err := memory.LoadSnapshot(l.memory, userID)
		if err != nil {
			return "", msgs, aideErrors.Wrap(aideErrors.CodeStoreError, "failed to load memory snapshot", err)
		}

		resp, decision, err := l.router.DecideInitial(ctx, snap, msgs)
		if err != nil {
			return "", msgs, err
		}
		logger.Debug("iteration routed", "iteration", iteration, "action", string(decision.Action))

		switch {
		case decision.Action == router.ActionTerminate:
			msgs = append(msgs, AssistantMessage(resp))
			return decision.Reply, msgs, nil

		case decision.Action == router.ActionUnknown:
			// The response is dropped rather than appended: an
			// unanswered tool_use block would poison later requests.
			reply := ambiguousFallback(resp)
			msgs = append(msgs, AssistantText(reply))
			return reply, msgs, nil

		case decision.Action == router.ActionSearch:
			msgs = append(msgs, AssistantMessage(resp))
			var reply string
			var done bool
			reply, msgs, done, err = l.handleSearch(ctx, userID, msgs, decision)
			if err != nil {
				return "", msgs, err
			}
			if done {
				return reply, msgs, nil
			}

		case decision.Action.IsUpdate():
			kind, _ := decision.Action.UpdateKind()
			msgs = append(msgs, AssistantMessage(resp))
			result, err := l.runUpdate(ctx, userID, kind, msgs, decision.ToolCallID)
			if err != nil {
				return "", msgs, err
			}
			msgs = append(msgs, ToolResultsMessage(result))
		}
	}

	l.metrics.IncTurnsFailed()
	l.bus.Emit(event.NewEvent(event.TurnFailed, map[string]interface{}{
		"user_id": userID,
		"reason":  "max iterations reached",
	}))
	logger.Warn("turn hit iteration cap", "max_iterations", l.maxIterations)
	msgs = append(msgs, AssistantText(overflowReply))
	return overflowReply, msgs, nil
}

// handleSearch executes the search batch and routes its results. done
// reports whether the turn terminated; otherwise the caller loops back
// to the router after the queued memory update.
func (l *TurnLoop) handleSearch(ctx context.Context, userID string, msgs []provider.Message, decision router.Decision) (string, []provider.Message, bool, error) {
	results := l.executor.Execute(ctx, decision.SearchCalls)
	l.bus.Emit(event.NewEvent(event.SearchExecuted, map[string]interface{}{
		"user_id": userID,
		"calls":   len(decision.SearchCalls),
	}))
	msgs = append(msgs, ToolResultsMessage(results...))

	resp, next, err := l.router.HandleSearchResult(ctx, msgs)
	if err != nil {
		return "", msgs, false, err
	}

	switch {
	case next.Action == router.ActionTerminate:
		if resp != nil {
			msgs = append(msgs, AssistantMessage(resp))
		} else {
			// Correlation failure synthesizes the reply without a
			// provider response.
			msgs = append(msgs, AssistantText(next.Reply))
		}
		return next.Reply, msgs, true, nil

	case next.Action.IsUpdate():
		kind, _ := next.Action.UpdateKind()
		msgs = append(msgs, AssistantMessage(resp))
		result, err := l.runUpdate(ctx, userID, kind, msgs, next.ToolCallID)
		if err != nil {
			return "", msgs, false, err
		}
		msgs = append(msgs, ToolResultsMessage(result))
		return "", msgs, false, nil
	}

	reply := ambiguousFallback(resp)
	msgs = append(msgs, AssistantText(reply))
	return reply, msgs, true, nil
}

func (l *TurnLoop) runUpdate(ctx context.Context, userID string, kind memory.Kind, msgs []provider.Message, toolCallID string) (provider.ToolResult, error) {
	switch kind {
	case memory.KindProfile:
		return l.extractor.UpdateProfile(ctx, userID, msgs, toolCallID)
	case memory.KindTicket:
		return l.extractor.UpdateTickets(ctx, userID, msgs, toolCallID)
	default:
		return l.consolidator.Update(ctx, userID, kind, msgs, toolCallID)
	}
}

// trimDanglingToolUse drops a trailing assistant message whose tool
// calls never got results. Checkpointing it would make every request in
// the next turn invalid.
func trimDanglingToolUse(msgs []provider.Message) []provider.Message {
	if len(msgs) == 0 {
		return msgs
	}
	last := msgs[len(msgs)-1]
	if last.Role != "assistant" {
		return msgs
	}
	for _, block := range last.ContentBlocks {
		if block.Type == "tool_use" {
			return msgs[:len(msgs)-1]
		}
	}
	return msgs
}

func ambiguousFallback(resp *provider.Response) string {
	if resp != nil && resp.Content != "" {
		return resp.Content
	}
	return ambiguousPrefix + " Could you rephrase?"
}
