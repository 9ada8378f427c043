package router

import (
	"encoding/json"
	"fmt"

	"github.com/aide-oss/aide/internal/memory"
	"github.com/aide-oss/aide/internal/provider"
)

// UpdateMemoryTool is the tool name the model calls to request a memory
// update. The kind argument selects the namespace.
const UpdateMemoryTool = "update_memory"

// Action is the routing outcome decoded from a model response.
type Action string

const (
	ActionSearch             Action = "search"
	ActionUpdateProfile      Action = "update_profile"
	ActionUpdateTicket       Action = "update_ticket"
	ActionUpdateInstructions Action = "update_instructions"
	ActionUpdateFeedback     Action = "update_feedback"
	ActionUpdateResearch     Action = "update_research"
	ActionTerminate          Action = "terminate"
	ActionUnknown            Action = "unknown"
)

// ActionForKind maps a memory kind to its update action.
func ActionForKind(kind memory.Kind) Action {
	switch kind {
	case memory.KindProfile:
		return ActionUpdateProfile
	case memory.KindTicket:
		return ActionUpdateTicket
	case memory.KindInstructions:
		return ActionUpdateInstructions
	case memory.KindFeedback:
		return ActionUpdateFeedback
	case memory.KindResearch:
		return ActionUpdateResearch
	}
	return ActionUnknown
}

// UpdateKind returns the memory kind an update action targets.
func (a Action) UpdateKind() (memory.Kind, bool) {
	switch a {
	case ActionUpdateProfile:
		return memory.KindProfile, true
	case ActionUpdateTicket:
		return memory.KindTicket, true
	case ActionUpdateInstructions:
		return memory.KindInstructions, true
	case ActionUpdateFeedback:
		return memory.KindFeedback, true
	case ActionUpdateResearch:
		return memory.KindResearch, true
	}
	return "", false
}

// IsUpdate reports whether the action targets a memory namespace.
func (a Action) IsUpdate() bool {
	_, ok := a.UpdateKind()
	return ok
}

// Decision is the decoded routing outcome of one model response.
type Decision struct {
	Action Action

	// ToolCallID is the id of the first tool call; update confirmations
	// must reference it.
	ToolCallID string

	// SearchCalls holds every search tool call in the response, in
	// emission order. Set only for ActionSearch.
	SearchCalls []provider.ToolCall

	// Reply holds the assistant text for ActionTerminate.
	Reply string

	// Reason explains ActionUnknown for logging.
	Reason string
}

type updateMemoryArgs struct {
	Kind string `json:"kind"`
}

// Decode maps a model response to a routing decision. The first tool
// call determines the route; a response with no tool calls terminates
// the turn with the assistant text as the reply. allowSearch gates the
// search route for contexts where only updates are bound.
func Decode(resp *provider.Response, isSearchTool func(string) bool, allowSearch bool) Decision {
	if len(resp.ToolCalls) == 0 {
		return Decision{Action: ActionTerminate, Reply: resp.Content}
	}

	first := resp.ToolCalls[0]

	if first.Name == UpdateMemoryTool {
		var args updateMemoryArgs
		if err := json.Unmarshal([]byte(first.Input), &args); err != nil {
			return Decision{
				Action:     ActionUnknown,
				ToolCallID: first.ID,
				Reason:     fmt.Sprintf("invalid update_memory arguments: %v", err),
			}
		}
		kind, err := memory.ParseKind(args.Kind)
		if err != nil {
			return Decision{
				Action:     ActionUnknown,
				ToolCallID: first.ID,
				Reason:     err.Error(),
			}
		}
		return Decision{Action: ActionForKind(kind), ToolCallID: first.ID}
	}

	if isSearchTool != nil && isSearchTool(first.Name) {
		if !allowSearch {
			return Decision{
				Action:     ActionUnknown,
				ToolCallID: first.ID,
				Reason:     fmt.Sprintf("search tool %s not available in this context", first.Name),
			}
		}
		// Collect every search call so the executor can fan out.
		var calls []provider.ToolCall
		for _, tc := range resp.ToolCalls {
			if isSearchTool(tc.Name) {
				calls = append(calls, tc)
			}
		}
		return Decision{Action: ActionSearch, ToolCallID: first.ID, SearchCalls: calls}
	}

	return Decision{
		Action:     ActionUnknown,
		ToolCallID: first.ID,
		Reason:     fmt.Sprintf("unrecognized tool: %s", first.Name),
	}
}
