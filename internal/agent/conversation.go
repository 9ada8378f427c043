// Package agent runs the turn loop: route, act, and loop back until a
// reply for the user emerges.
package agent

import (
	"github.com/aide-oss/aide/internal/provider"
)

// UserMessage builds a plain user message.
func UserMessage(text string) provider.Message {
	return provider.Message{Role: "user", Content: text}
}

// AssistantMessage converts a provider response into a conversation
// message, preserving tool_use blocks so later correlation works.
func AssistantMessage(resp *provider.Response) provider.Message {
	msg := provider.Message{Role: "assistant", Content: resp.Content}
	if len(resp.ContentBlocks) > 0 {
		msg.ContentBlocks = resp.ContentBlocks
	}
	return msg
}

// AssistantText builds a plain assistant message. Used for replies
// synthesized outside the provider, like forced terminations.
func AssistantText(text string) provider.Message {
	return provider.Message{Role: "assistant", Content: text}
}

// ToolResultsMessage wraps tool results into the user-role message the
// Messages API expects them in.
func ToolResultsMessage(results ...provider.ToolResult) provider.Message {
	blocks := make([]provider.ContentBlock, 0, len(results))
	for _, tr := range results {
		blocks = append(blocks, provider.ToolResultBlock(tr))
	}
	return provider.Message{Role: "user", ContentBlocks: blocks}
}
