package router

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/aide-oss/aide/internal/provider"
)

// SearchContext is the reconstructed context for the search-result
// consolidation prompt.
type SearchContext struct {
	QueryContext string
	Results      string
	History      string
}

// BuildSearchContext walks the conversation backwards to find the
// assistant message that issued the search calls and the tool results
// answering it, then reconstructs the consolidation context. Returns
// false when the correlation cannot be established.
func BuildSearchContext(msgs []provider.Message) (SearchContext, bool) {
	// Find the most recent assistant message carrying tool_use blocks.
	callIdx := -1
	var callBlocks []provider.ContentBlock
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != "assistant" {
			continue
		}
		for _, block := range msgs[i].ContentBlocks {
			if block.Type == "tool_use" {
				callBlocks = append(callBlocks, block)
			}
		}
		if len(callBlocks) > 0 {
			callIdx = i
			break
		}
	}
	if callIdx < 0 {
		return SearchContext{}, false
	}

	callNames := make(map[string]string, len(callBlocks))
	for _, block := range callBlocks {
		callNames[block.ID] = block.Name
	}

	// Collect the tool results answering those calls.
	var results []provider.ContentBlock
	for _, msg := range msgs[callIdx+1:] {
		for _, block := range msg.ContentBlocks {
			if block.Type != "tool_result" {
				continue
			}
			if _, ok := callNames[block.ToolUseID]; ok {
				results = append(results, block)
			}
		}
	}
	if len(results) == 0 {
		return SearchContext{}, false
	}

	// The user message preceding the tool calls is the original query.
	originalQuery := "User query not easily found."
	for i := callIdx - 1; i >= 0; i-- {
		if msgs[i].Role == "user" && len(msgs[i].ContentBlocks) == 0 {
			originalQuery = msgs[i].Content
			break
		}
	}

	var decisionLines []string
	for _, block := range callBlocks {
		decisionLines = append(decisionLines,
			fmt.Sprintf("AI decided to use %s with args: %s", block.Name, string(block.Input)))
	}
	queryContext := fmt.Sprintf("User asked: '%s'\n%s", originalQuery, strings.Join(decisionLines, "\n"))

	return SearchContext{
		QueryContext: queryContext,
		Results:      consolidateResults(results, callNames),
		History:      renderHistory(msgs, callIdx),
	}, true
}

// consolidateResults flattens tool results into a single prompt section.
// Errors stay visibly tagged so the model can report partial failures.
func consolidateResults(results []provider.ContentBlock, callNames map[string]string) string {
	parts := make([]string, 0, len(results))
	for _, block := range results {
		name := callNames[block.ToolUseID]
		if block.IsError {
			parts = append(parts, fmt.Sprintf("Error from tool %s: %s", name, block.Content))
			continue
		}

		var payload map[string]string
		if err := json.Unmarshal([]byte(block.Content), &payload); err == nil && len(payload) > 0 {
			keys := make([]string, 0, len(payload))
			for k := range payload {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				parts = append(parts, fmt.Sprintf("Results from %s (%s):\n%s", name, k, payload[k]))
			}
			continue
		}
		parts = append(parts, fmt.Sprintf("Content from tool %s: %s", name, block.Content))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// renderHistory summarizes the window of messages leading up to and
// including the tool-call message, each clipped to keep the prompt small.
func renderHistory(msgs []provider.Message, callIdx int) string {
	start := callIdx - 4
	if start < 0 {
		start = 0
	}
	lines := make([]string, 0, callIdx-start+1)
	for _, msg := range msgs[start : callIdx+1] {
		content := msg.Content
		if content == "" && len(msg.ContentBlocks) > 0 {
			content = renderBlocks(msg.ContentBlocks)
		}
		lines = append(lines, fmt.Sprintf("%s: %s...", msg.Role, clip(content, 200)))
	}
	return strings.Join(lines, "\n")
}

func renderBlocks(blocks []provider.ContentBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		switch block.Type {
		case "text":
			parts = append(parts, block.Text)
		case "tool_use":
			parts = append(parts, fmt.Sprintf("[tool call: %s]", block.Name))
		case "tool_result":
			parts = append(parts, block.Content)
		}
	}
	return strings.Join(parts, " ")
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
