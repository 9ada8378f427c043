// Package testutil provides mock implementations for testing.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aide-oss/aide/internal/provider"
)

// MockProvider is a mock LLM provider that replays queued responses.
type MockProvider struct {
	mu sync.Mutex

	// Responses are returned in order; when exhausted the provider
	// falls back to a plain text response.
	Responses []*provider.Response

	// Calls records every completion request received.
	Calls []*provider.CompletionRequest

	// ShouldFail makes every call return an error.
	ShouldFail bool

	// FailMessage is the error text when ShouldFail is set.
	FailMessage string

	// Delay simulates provider latency.
	Delay time.Duration

	index int
}

// NewMockProvider creates a mock provider with the given queued responses.
func NewMockProvider(responses ...*provider.Response) *MockProvider {
	return &MockProvider{Responses: responses}
}

// Name returns the provider name.
func (m *MockProvider) Name() string {
	return "mock"
}

// Complete returns the next queued response.
func (m *MockProvider) Complete(ctx context.Context, req *provider.CompletionRequest) (*provider.Response, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if m.ShouldFail {
		msg := m.FailMessage
		if msg == "" {
			msg = "mock provider failure"
		}
		return nil, fmt.Errorf("%s", msg)
	}

	if m.index < len(m.Responses) {
		resp := m.Responses[m.index]
		m.index++
		return resp, nil
	}

	return &provider.Response{
		Content:    "mock response",
		StopReason: "end_turn",
	}, nil
}

// CallCount returns the number of completion requests received.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent completion request, or nil.
func (m *MockProvider) LastCall() *provider.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	return m.Calls[len(m.Calls)-1]
}

// TextResponse builds a plain text response.
func TextResponse(text string) *provider.Response {
	return &provider.Response{
		Content:       text,
		ContentBlocks: []provider.ContentBlock{provider.TextBlock(text)},
		StopReason:    "end_turn",
	}
}

// ToolCallResponse builds a response carrying a single tool call.
func ToolCallResponse(id, name, input string) *provider.Response {
	return &provider.Response{
		ToolCalls: []provider.ToolCall{{ID: id, Name: name, Input: input}},
		ContentBlocks: []provider.ContentBlock{
			provider.ToolUseBlock(id, name, []byte(input)),
		},
		StopReason: "tool_use",
	}
}

// UpdateMemoryResponse builds a response calling update_memory for a kind.
func UpdateMemoryResponse(id, kind string) *provider.Response {
	return ToolCallResponse(id, "update_memory", fmt.Sprintf(`{"kind":%q}`, kind))
}

// SearchCallResponse builds a response calling one search tool.
func SearchCallResponse(id, tool, query string) *provider.Response {
	return ToolCallResponse(id, tool, fmt.Sprintf(`{"query":%q}`, query))
}
