// Package extract turns conversation history into memory writes. The
// structured extractor handles the schema'd kinds (profile, tickets);
// the consolidator rewrites the free-text kinds.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	aideErrors "github.com/aide-oss/aide/internal/errors"
	"github.com/aide-oss/aide/internal/event"
	"github.com/aide-oss/aide/internal/memory"
	"github.com/aide-oss/aide/internal/provider"
	"github.com/aide-oss/aide/internal/telemetry"
)

const (
	profileTool = "Profile"
	ticketTool  = "TicketDetails"
)

const reflectionTemplate = `Reflect on the following interaction.
Use the provided tools to retain any necessary memories about the user.
Use parallel tool calling to handle updates and insertions simultaneously.
System Time: %s`

// StructuredExtractor extracts schema'd records from the conversation
// and reconciles them against what the store already holds.
type StructuredExtractor struct {
	provider provider.Provider
	store    memory.Store
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics
	bus      *event.Bus

	// now is swappable for tests.
	now func() time.Time
}

// NewStructuredExtractor creates a structured extractor.
func NewStructuredExtractor(p provider.Provider, store memory.Store, logger *telemetry.Logger, metrics *telemetry.Metrics, bus *event.Bus) *StructuredExtractor {
	return &StructuredExtractor{
		provider: p,
		store:    store,
		logger:   logger,
		metrics:  metrics,
		bus:      bus,
		now:      time.Now,
	}
}

// extractionMessages drops tool-result messages so the extractor sees
// only the natural conversation.
func extractionMessages(msgs []provider.Message) []provider.Message {
	out := make([]provider.Message, 0, len(msgs))
	for _, msg := range msgs {
		if isToolResultMessage(msg) {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func isToolResultMessage(msg provider.Message) bool {
	for _, block := range msg.ContentBlocks {
		if block.Type == "tool_result" {
			return true
		}
	}
	return false
}

// renderExisting lists stored records as (key, type, value) tuples so
// the model can target updates at them.
func renderExisting(items []memory.Item, typeName string) string {
	if len(items) == 0 {
		return "None."
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- (%s, %s, %s)", item.Key, typeName, string(item.Value)))
	}
	return strings.Join(lines, "\n")
}

func (e *StructuredExtractor) reflectionSystem(items []memory.Item, typeName string) string {
	system := fmt.Sprintf(reflectionTemplate, e.now().Format(time.RFC3339))
	return system + "\n\nExisting records (key, type, value):\n" + renderExisting(items, typeName)
}

func profileToolDef() provider.Tool {
	return provider.Tool{
		Name:        profileTool,
		Description: "The profile of the user you are having a conversation with.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name":        map[string]interface{}{"type": "string", "description": "The user's name"},
				"location":    map[string]interface{}{"type": "string", "description": "The user's location"},
				"team":        map[string]interface{}{"type": "string", "description": "The user's team"},
				"designation": map[string]interface{}{"type": "string", "description": "The user's designation"},
				"email":       map[string]interface{}{"type": "string", "description": "The user's email"},
			},
		},
	}
}

func ticketToolDef() provider.Tool {
	return provider.Tool{
		Name:        ticketTool,
		Description: "The details of a ticket created by analyzing the user's input and conversations.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Key of an existing ticket to update. Omit when creating a new ticket.",
				},
				"task": map[string]interface{}{
					"type":        "string",
					"description": "The task to be completed.",
				},
				"time_to_complete": map[string]interface{}{
					"type":        "integer",
					"description": "Estimated time to complete the task (minutes).",
				},
				"deadline": map[string]interface{}{
					"type":        "string",
					"format":      "date-time",
					"description": "When the task needs to be completed by (if applicable).",
				},
				"solutions": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Specific, actionable solutions relevant to completing the task.",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"not started", "in progress", "done", "archived"},
					"description": "Current status of the task.",
				},
			},
			"required": []string{"task"},
		},
	}
}

// UpdateProfile extracts the profile from the conversation and stores it
// under the singleton key, overwriting any previous record. The returned
// tool result answers the routing tool call.
func (e *StructuredExtractor) UpdateProfile(ctx context.Context, userID string, msgs []provider.Message, toolCallID string) (provider.ToolResult, error) {
	ns := memory.Namespace{Kind: memory.KindProfile, UserID: userID}

	existing, err := e.store.List(ns)
	if err != nil {
		return provider.ToolResult{}, aideErrors.Wrap(aideErrors.CodeStoreError, "failed to list existing profile", err)
	}

	resp, err := e.provider.Complete(ctx, &provider.CompletionRequest{
		System:     e.reflectionSystem(existing, profileTool),
		Messages:   extractionMessages(msgs),
		Tools:      []provider.Tool{profileToolDef()},
		ToolChoice: provider.ToolChoice{Type: provider.ToolChoiceTool, Name: profileTool},
	})
	if err != nil {
		return provider.ToolResult{}, err
	}

	if len(resp.ToolCalls) == 0 {
		return provider.ToolResult{
			ID:     toolCallID,
			Result: "No profile information extracted to update.",
		}, nil
	}

	var profile memory.Profile
	if err := json.Unmarshal([]byte(resp.ToolCalls[0].Input), &profile); err != nil {
		return provider.ToolResult{}, aideErrors.Wrap(aideErrors.CodeProviderError, "failed to decode extracted profile", err)
	}
	profile.ApplyDefaults()

	key := memory.KindProfile.SingletonKey()
	if err := e.store.Put(ns, key, &profile); err != nil {
		return provider.ToolResult{}, aideErrors.Wrap(aideErrors.CodeStoreError, "failed to store profile", err)
	}
	e.recordWrite(ns, key)

	rendered, err := json.MarshalIndent(&profile, "", "  ")
	if err != nil {
		return provider.ToolResult{}, fmt.Errorf("failed to render profile: %w", err)
	}
	return provider.ToolResult{
		ID:     toolCallID,
		Result: fmt.Sprintf("User profile updated. Current profile details: %s", string(rendered)),
	}, nil
}

// extractedTicket is the ticket schema plus the reconciliation key.
type extractedTicket struct {
	ID string `json:"id,omitempty"`
	memory.Ticket
}

// UpdateTickets extracts tickets from the conversation. Calls carrying
// the key of an existing record update it in place; calls without one
// create a new record under a fresh id.
func (e *StructuredExtractor) UpdateTickets(ctx context.Context, userID string, msgs []provider.Message, toolCallID string) (provider.ToolResult, error) {
	ns := memory.Namespace{Kind: memory.KindTicket, UserID: userID}

	existing, err := e.store.List(ns)
	if err != nil {
		return provider.ToolResult{}, aideErrors.Wrap(aideErrors.CodeStoreError, "failed to list existing tickets", err)
	}
	existingKeys := make(map[string]bool, len(existing))
	for _, item := range existing {
		existingKeys[item.Key] = true
	}

	resp, err := e.provider.Complete(ctx, &provider.CompletionRequest{
		System:     e.reflectionSystem(existing, ticketTool),
		Messages:   extractionMessages(msgs),
		Tools:      []provider.Tool{ticketToolDef()},
		ToolChoice: provider.ToolChoice{Type: provider.ToolChoiceAny},
	})
	if err != nil {
		return provider.ToolResult{}, err
	}

	var summaries []string
	for _, call := range resp.ToolCalls {
		if call.Name != ticketTool {
			continue
		}
		var extracted extractedTicket
		if err := json.Unmarshal([]byte(call.Input), &extracted); err != nil {
			e.logger.Warn("dropping malformed ticket extraction", "error", err)
			continue
		}
		ticket := extracted.Ticket
		if err := ticket.Validate(); err != nil {
			e.logger.Warn("dropping invalid ticket extraction", "error", err)
			continue
		}

		key := extracted.ID
		if key == "" || !existingKeys[key] {
			key = uuid.New().String()
		}
		if err := e.store.Put(ns, key, &ticket); err != nil {
			return provider.ToolResult{}, aideErrors.Wrap(aideErrors.CodeStoreError, "failed to store ticket", err)
		}
		e.recordWrite(ns, key)
		existingKeys[key] = true
		summaries = append(summaries, ticket.Summary())
	}

	if len(summaries) == 0 {
		return provider.ToolResult{
			ID:     toolCallID,
			Result: "No new ticket information was extracted to update/create.",
		}, nil
	}
	return provider.ToolResult{
		ID:     toolCallID,
		Result: "Ticket(s) processed. Details:\n" + strings.Join(summaries, "\n"),
	}, nil
}

func (e *StructuredExtractor) recordWrite(ns memory.Namespace, key string) {
	e.metrics.IncMemoryWrites()
	e.logger.Debug("memory updated", "namespace", ns.String(), "key", key)
	e.bus.Emit(event.NewEvent(event.MemoryUpdated, map[string]interface{}{
		"kind":    string(ns.Kind),
		"user_id": ns.UserID,
		"key":     key,
	}))
}
