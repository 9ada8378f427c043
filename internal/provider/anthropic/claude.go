package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	aideErrors "github.com/aide-oss/aide/internal/errors"
	"github.com/aide-oss/aide/internal/provider"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	defaultModel   = "claude-sonnet-4-20250514"
)

// Client implements the Anthropic provider
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a new Anthropic client with the given per-call timeout.
func NewClient(apiKey, model string, timeout time.Duration) *Client {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if model == "" {
		model = defaultModel
	}
	if timeout == 0 {
		timeout = 2 * time.Minute
	}

	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the provider name
func (c *Client) Name() string {
	return "anthropic"
}

// Complete sends a completion request to Claude
func (c *Client) Complete(ctx context.Context, req *provider.CompletionRequest) (*provider.Response, error) {
	if c.apiKey == "" {
		return nil, aideErrors.New(aideErrors.CodeAPIKeyMissing, "ANTHROPIC_API_KEY not set").
			WithSuggestion("Set the ANTHROPIC_API_KEY environment variable or add api_key to your aide.yaml provider config")
	}

	// Build API request
	apiReq := c.buildRequest(req)

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return c.parseResponse(respBody)
}

// buildRequest converts our request to Anthropic API format
func (c *Client) buildRequest(req *provider.CompletionRequest) map[string]interface{} {
	model := req.Model
	if model == "" {
		model = c.model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	apiReq := map[string]interface{}{
		"model":      model,
		"max_tokens": maxTokens,
	}

	if req.System != "" {
		apiReq["system"] = req.System
	}

	// Convert messages
	messages := make([]map[string]interface{}, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if len(msg.ContentBlocks) > 0 {
			// Serialize as content block array for tool_use / tool_result flows
			var blocks []map[string]interface{}
			for _, block := range msg.ContentBlocks {
				b := map[string]interface{}{"type": block.Type}
				switch block.Type {
				case "text":
					b["text"] = block.Text
				case "tool_use":
					b["id"] = block.ID
					b["name"] = block.Name
					b["input"] = block.Input
				case "tool_result":
					b["tool_use_id"] = block.ToolUseID
					b["content"] = block.Content
					if block.IsError {
						b["is_error"] = true
					}
				}
				blocks = append(blocks, b)
			}
			messages = append(messages, map[string]interface{}{
				"role":    msg.Role,
				"content": blocks,
			})
		} else {
			messages = append(messages, map[string]interface{}{
				"role":    msg.Role,
				"content": msg.Content,
			})
		}
	}

	apiReq["messages"] = messages

	// Add tools and the tool-choice constraint if present.
	// ToolChoiceNone suppresses the tool list entirely. The API rejects
	// {"type": "none"} when tools are bound, so a plain completion is the
	// equivalent behavior.
	if len(req.Tools) > 0 && req.ToolChoice.Type != provider.ToolChoiceNone {
		tools := make([]map[string]interface{}, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, map[string]interface{}{
				"name":         t.Name,
				"description":  t.Description,
				"input_schema": t.InputSchema,
			})
		}
		apiReq["tools"] = tools

		switch req.ToolChoice.Type {
		case provider.ToolChoiceAny:
			apiReq["tool_choice"] = map[string]interface{}{"type": "any"}
		case provider.ToolChoiceTool:
			apiReq["tool_choice"] = map[string]interface{}{
				"type": "tool",
				"name": req.ToolChoice.Name,
			}
		}
	}

	if req.Temperature > 0 {
		apiReq["temperature"] = req.Temperature
	}

	if len(req.StopSeqs) > 0 {
		apiReq["stop_sequences"] = req.StopSeqs
	}

	return apiReq
}

// parseResponse parses the API response
func (c *Client) parseResponse(body []byte) (*provider.Response, error) {
	var apiResp struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Role    string `json:"role"`
		Content []struct {
			Type  string          `json:"type"`
			Text  string          `json:"text,omitempty"`
			ID    string          `json:"id,omitempty"`
			Name  string          `json:"name,omitempty"`
			Input json.RawMessage `json:"input,omitempty"`
		} `json:"content"`
		Model        string `json:"model"`
		StopReason   string `json:"stop_reason"`
		StopSequence string `json:"stop_sequence"`
		Usage        struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}

	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	resp := &provider.Response{
		StopReason: apiResp.StopReason,
		Usage: provider.Usage{
			InputTokens:  apiResp.Usage.InputTokens,
			OutputTokens: apiResp.Usage.OutputTokens,
		},
	}

	// Extract content and tool calls, and preserve full content blocks
	var textContent []string
	for _, block := range apiResp.Content {
		switch block.Type {
		case "text":
			textContent = append(textContent, block.Text)
			resp.ContentBlocks = append(resp.ContentBlocks, provider.TextBlock(block.Text))
		case "tool_use":
			inputJSON, _ := json.Marshal(block.Input)
			resp.ToolCalls = append(resp.ToolCalls, provider.ToolCall{
				ID:    block.ID,
				Name:  block.Name,
				Input: string(inputJSON),
			})
			resp.ContentBlocks = append(resp.ContentBlocks, provider.ToolUseBlock(block.ID, block.Name, inputJSON))
		}
	}

	resp.Content = strings.Join(textContent, "\n")

	return resp, nil
}
