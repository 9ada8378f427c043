package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/aide-oss/aide/internal/provider"
	"github.com/aide-oss/aide/internal/telemetry"
)

// Executor runs search tool calls concurrently and correlates results
// back to their originating tool call ids.
type Executor struct {
	registry *Registry
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics
}

// NewExecutor creates a search executor.
func NewExecutor(registry *Registry, logger *telemetry.Logger, metrics *telemetry.Metrics) *Executor {
	return &Executor{registry: registry, logger: logger, metrics: metrics}
}

type queryArgs struct {
	Query string `json:"query"`
}

// Execute dispatches every tool call to its provider concurrently and
// waits for all to finish. Results come back in call order regardless
// of completion order, and provider failures become error-flagged
// results rather than aborting the batch.
func (e *Executor) Execute(ctx context.Context, calls []provider.ToolCall) []provider.ToolResult {
	results := make([]provider.ToolResult, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(idx int, tc provider.ToolCall) {
			defer wg.Done()
			results[idx] = e.executeOne(ctx, tc)
		}(i, call)
	}
	wg.Wait()

	return results
}

func (e *Executor) executeOne(ctx context.Context, call provider.ToolCall) provider.ToolResult {
	searcher, err := e.registry.Get(call.Name)
	if err != nil {
		return provider.ToolResult{ID: call.ID, Error: err.Error()}
	}

	var args queryArgs
	if err := json.Unmarshal([]byte(call.Input), &args); err != nil {
		return provider.ToolResult{
			ID:    call.ID,
			Error: fmt.Sprintf("invalid arguments for %s: %v", call.Name, err),
		}
	}
	if strings.TrimSpace(args.Query) == "" {
		return provider.ToolResult{
			ID:    call.ID,
			Error: fmt.Sprintf("missing query for %s", call.Name),
		}
	}

	e.logger.Debug("executing search", "provider", call.Name, "query", args.Query)
	e.metrics.IncSearchCalls()

	results, err := searcher.Search(ctx, args.Query)
	if err != nil {
		e.logger.Warn("search failed", "provider", call.Name, "error", err)
		return provider.ToolResult{ID: call.ID, Error: err.Error()}
	}

	payload, err := encodePayload(searcher.ResultKey(), results)
	if err != nil {
		return provider.ToolResult{ID: call.ID, Error: err.Error()}
	}
	return provider.ToolResult{ID: call.ID, Result: payload}
}

// encodePayload wraps formatted results under the provider-specific key,
// e.g. {"web_results": "..."}.
func encodePayload(key string, results []Result) (string, error) {
	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		sb.WriteString(fmt.Sprintf("Source: %s\n%s", r.Source, r.Content))
	}
	text := sb.String()
	if text == "" {
		text = "No results found."
	}

	raw, err := json.Marshal(map[string]string{key: text})
	if err != nil {
		return "", fmt.Errorf("failed to encode search payload: %w", err)
	}
	return string(raw), nil
}
