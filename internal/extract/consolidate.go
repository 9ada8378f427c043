package extract

import (
	"context"
	"fmt"
	"strings"

	aideErrors "github.com/aide-oss/aide/internal/errors"
	"github.com/aide-oss/aide/internal/event"
	"github.com/aide-oss/aide/internal/memory"
	"github.com/aide-oss/aide/internal/provider"
	"github.com/aide-oss/aide/internal/telemetry"
)

const instructionsTemplate = `Based on the entire conversation history and the user's latest messages, update the instructions for how to manage ticket list items.
Your current instructions are:

%s


User's input related to instructions:
%s

Synthesize the new, complete set of instructions. Output only the new instructions.`

const feedbackTemplate = `Based on the entire conversation history and the user's latest messages, update the collected user feedback.
Current user feedback:

%s


User's input potentially containing feedback:
%s

Synthesize the new, complete user feedback notes. Output only the new notes.`

const researchTemplate = `Based on the entire conversation history, user inputs, and any recent search results provided, update the product research notes.
Current product research notes:

%s


Relevant inputs (user messages, search summaries):
%s

Synthesize the new, complete product research notes. Output only the new notes.`

// consolidationWindow is how many messages preceding the routing
// decision feed the synthesis prompt.
const consolidationWindow = 4

// Consolidator rewrites the free-text memory kinds. Each update reads
// the current blob, synthesizes a replacement from recent conversation,
// and stores it wholesale.
type Consolidator struct {
	provider provider.Provider
	store    memory.Store
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics
	bus      *event.Bus
}

// NewConsolidator creates a free-text consolidator.
func NewConsolidator(p provider.Provider, store memory.Store, logger *telemetry.Logger, metrics *telemetry.Metrics, bus *event.Bus) *Consolidator {
	return &Consolidator{
		provider: p,
		store:    store,
		logger:   logger,
		metrics:  metrics,
		bus:      bus,
	}
}

func templateFor(kind memory.Kind) (string, error) {
	switch kind {
	case memory.KindInstructions:
		return instructionsTemplate, nil
	case memory.KindFeedback:
		return feedbackTemplate, nil
	case memory.KindResearch:
		return researchTemplate, nil
	}
	return "", fmt.Errorf("kind %s is not a free-text memory", kind)
}

// recentWindow formats the messages preceding the latest one. The
// latest message is the routing decision itself and carries no content
// worth synthesizing.
func recentWindow(msgs []provider.Message) string {
	end := len(msgs) - 1
	if end < 0 {
		end = 0
	}
	start := end - consolidationWindow
	if start < 0 {
		start = 0
	}
	lines := make([]string, 0, end-start)
	for _, msg := range msgs[start:end] {
		content := msg.Content
		if content == "" && len(msg.ContentBlocks) > 0 {
			var parts []string
			for _, block := range msg.ContentBlocks {
				if block.Type == "text" {
					parts = append(parts, block.Text)
				}
				if block.Type == "tool_result" {
					parts = append(parts, block.Content)
				}
			}
			content = strings.Join(parts, " ")
		}
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, content))
	}
	return strings.Join(lines, "\n")
}

// Update synthesizes and stores the new blob for a free-text kind. The
// returned tool result answers the routing tool call.
func (c *Consolidator) Update(ctx context.Context, userID string, kind memory.Kind, msgs []provider.Message, toolCallID string) (provider.ToolResult, error) {
	template, err := templateFor(kind)
	if err != nil {
		return provider.ToolResult{}, err
	}

	ns := memory.Namespace{Kind: kind, UserID: userID}
	key := kind.SingletonKey()

	var current memory.Note
	if _, err := memory.GetAs(c.store, ns, key, &current); err != nil {
		return provider.ToolResult{}, aideErrors.Wrap(aideErrors.CodeStoreError, "failed to read current memory", err)
	}

	resp, err := c.provider.Complete(ctx, &provider.CompletionRequest{
		System: fmt.Sprintf(template, current.Content, recentWindow(msgs)),
		Messages: []provider.Message{
			{Role: "user", Content: "Please generate the updated content based on the provided information."},
		},
		ToolChoice: provider.ToolChoice{Type: provider.ToolChoiceNone},
	})
	if err != nil {
		return provider.ToolResult{}, err
	}

	note := memory.Note{Content: resp.Content}
	if err := c.store.Put(ns, key, &note); err != nil {
		return provider.ToolResult{}, aideErrors.Wrap(aideErrors.CodeStoreError, "failed to store memory", err)
	}

	c.metrics.IncMemoryWrites()
	c.logger.Debug("memory updated", "namespace", ns.String(), "key", key)
	c.bus.Emit(event.NewEvent(event.MemoryUpdated, map[string]interface{}{
		"kind":    string(kind),
		"user_id": userID,
		"key":     key,
	}))

	label := strings.ToUpper(string(kind)[:1]) + string(kind)[1:]
	return provider.ToolResult{
		ID:     toolCallID,
		Result: fmt.Sprintf("%s memory has been updated. New content:\n---\n%s\n---", label, note.Content),
	}, nil
}
