// Package router decides what happens next in a turn: run a search,
// hand off to a memory update, or terminate with a reply to the user.
package router

import (
	"context"

	"github.com/aide-oss/aide/internal/event"
	"github.com/aide-oss/aide/internal/memory"
	"github.com/aide-oss/aide/internal/provider"
	"github.com/aide-oss/aide/internal/search"
	"github.com/aide-oss/aide/internal/telemetry"
)

// Router turns the conversation plus memory state into routing decisions.
type Router struct {
	provider provider.Provider
	registry *search.Registry
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics
	bus      *event.Bus
}

// New creates a router.
func New(p provider.Provider, registry *search.Registry, logger *telemetry.Logger, metrics *telemetry.Metrics, bus *event.Bus) *Router {
	return &Router{
		provider: p,
		registry: registry,
		logger:   logger,
		metrics:  metrics,
		bus:      bus,
	}
}

func updateMemoryToolDef() provider.Tool {
	return provider.Tool{
		Name:        UpdateMemoryTool,
		Description: UpdateMemoryDescription,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"kind": map[string]interface{}{
					"type":        "string",
					"enum":        updateMemoryKinds,
					"description": "Which memory namespace to update",
				},
			},
			"required": []string{"kind"},
		},
	}
}

// DecideInitial routes from the start of an iteration. The full search
// and update vocabulary is bound; the model may also reply directly.
func (r *Router) DecideInitial(ctx context.Context, snap *memory.Snapshot, msgs []provider.Message) (*provider.Response, Decision, error) {
	tools := append(r.registry.ToolDefs(), updateMemoryToolDef())

	resp, err := r.provider.Complete(ctx, &provider.CompletionRequest{
		System:     DecideActionPrompt(snap),
		Messages:   msgs,
		Tools:      tools,
		ToolChoice: provider.ToolChoice{Type: provider.ToolChoiceAuto},
	})
	if err != nil {
		return nil, Decision{}, err
	}

	decision := Decode(resp, r.registry.Has, true)
	r.observe("initial", decision)
	return resp, decision, nil
}

// HandleSearchResult routes after a search batch completes. Only the
// update_memory tool is bound, so the outcome is an update or a
// terminating summary, never another search.
func (r *Router) HandleSearchResult(ctx context.Context, msgs []provider.Message) (*provider.Response, Decision, error) {
	sctx, ok := BuildSearchContext(msgs)
	if !ok {
		r.metrics.IncUnknownRoutes()
		r.bus.Emit(event.NewEvent(event.CorrelationFailed, map[string]interface{}{
			"messages": len(msgs),
		}))
		return nil, Decision{
			Action: ActionTerminate,
			Reply:  "Error: Could not properly process search tool results.",
		}, nil
	}

	resp, err := r.provider.Complete(ctx, &provider.CompletionRequest{
		System: HandleSearchResultPrompt(sctx.QueryContext, sctx.Results, sctx.History),
		Messages: []provider.Message{
			{Role: "user", Content: "Search results received: " + clip(sctx.Results, 1000)},
		},
		Tools:      []provider.Tool{updateMemoryToolDef()},
		ToolChoice: provider.ToolChoice{Type: provider.ToolChoiceAuto},
	})
	if err != nil {
		return nil, Decision{}, err
	}

	decision := Decode(resp, r.registry.Has, false)
	r.observe("search_result", decision)
	return resp, decision, nil
}

func (r *Router) observe(stage string, d Decision) {
	r.metrics.IncRouterDecisions()
	if d.Action == ActionUnknown {
		r.metrics.IncUnknownRoutes()
		r.logger.Warn("unknown route", "stage", stage, "reason", d.Reason)
		r.bus.Emit(event.NewEvent(event.RoutingUnknown, map[string]interface{}{
			"stage":  stage,
			"reason": d.Reason,
		}))
		return
	}
	r.logger.Debug("routing decided", "stage", stage, "action", string(d.Action))
	r.bus.Emit(event.NewEvent(event.RoutingDecided, map[string]interface{}{
		"stage":  stage,
		"action": string(d.Action),
	}))
}
