package router

import (
	"testing"

	"github.com/aide-oss/aide/internal/memory"
	"github.com/aide-oss/aide/internal/provider"
)

func isSearch(name string) bool {
	switch name {
	case "web_search", "wiki_search", "arxiv_search":
		return true
	}
	return false
}

func TestDecode_NoToolCallsTerminates(t *testing.T) {
	resp := &provider.Response{Content: "Happy to help. What's next?"}

	d := Decode(resp, isSearch, true)
	if d.Action != ActionTerminate {
		t.Fatalf("action = %s, want terminate", d.Action)
	}
	if d.Reply != "Happy to help. What's next?" {
		t.Errorf("reply = %q", d.Reply)
	}
}

func TestDecode_UpdateMemoryKinds(t *testing.T) {
	cases := []struct {
		kind string
		want Action
	}{
		{"profile", ActionUpdateProfile},
		{"ticket", ActionUpdateTicket},
		{"instructions", ActionUpdateInstructions},
		{"feedback", ActionUpdateFeedback},
		{"research", ActionUpdateResearch},
	}
	for _, tc := range cases {
		resp := &provider.Response{ToolCalls: []provider.ToolCall{
			{ID: "c1", Name: "update_memory", Input: `{"kind":"` + tc.kind + `"}`},
		}}
		d := Decode(resp, isSearch, true)
		if d.Action != tc.want {
			t.Errorf("kind %s: action = %s, want %s", tc.kind, d.Action, tc.want)
		}
		if d.ToolCallID != "c1" {
			t.Errorf("kind %s: tool call id = %s", tc.kind, d.ToolCallID)
		}
	}
}

func TestDecode_UnknownKind(t *testing.T) {
	resp := &provider.Response{ToolCalls: []provider.ToolCall{
		{ID: "c1", Name: "update_memory", Input: `{"kind":"calendar"}`},
	}}
	d := Decode(resp, isSearch, true)
	if d.Action != ActionUnknown {
		t.Fatalf("action = %s, want unknown", d.Action)
	}
	if d.Reason == "" {
		t.Error("expected a reason for the unknown route")
	}
}

func TestDecode_FirstToolCallWins(t *testing.T) {
	// A mixed response routes on its first call only.
	resp := &provider.Response{ToolCalls: []provider.ToolCall{
		{ID: "c1", Name: "update_memory", Input: `{"kind":"ticket"}`},
		{ID: "c2", Name: "web_search", Input: `{"query":"competitors"}`},
	}}
	d := Decode(resp, isSearch, true)
	if d.Action != ActionUpdateTicket {
		t.Errorf("action = %s, want update_ticket", d.Action)
	}
}

func TestDecode_SearchCollectsAllSearchCalls(t *testing.T) {
	resp := &provider.Response{ToolCalls: []provider.ToolCall{
		{ID: "c1", Name: "web_search", Input: `{"query":"a"}`},
		{ID: "c2", Name: "arxiv_search", Input: `{"query":"b"}`},
	}}
	d := Decode(resp, isSearch, true)
	if d.Action != ActionSearch {
		t.Fatalf("action = %s, want search", d.Action)
	}
	if len(d.SearchCalls) != 2 {
		t.Errorf("search calls = %d, want 2", len(d.SearchCalls))
	}
}

func TestDecode_SearchDisallowed(t *testing.T) {
	// After search handling only update_memory is bound; a stray
	// search call must not loop back into another search.
	resp := &provider.Response{ToolCalls: []provider.ToolCall{
		{ID: "c1", Name: "web_search", Input: `{"query":"a"}`},
	}}
	d := Decode(resp, isSearch, false)
	if d.Action != ActionUnknown {
		t.Errorf("action = %s, want unknown", d.Action)
	}
}

func TestDecode_UnrecognizedTool(t *testing.T) {
	resp := &provider.Response{ToolCalls: []provider.ToolCall{
		{ID: "c1", Name: "send_email", Input: `{}`},
	}}
	d := Decode(resp, isSearch, true)
	if d.Action != ActionUnknown {
		t.Errorf("action = %s, want unknown", d.Action)
	}
}

func TestActionForKind_RoundTrip(t *testing.T) {
	for _, kind := range memory.Kinds {
		action := ActionForKind(kind)
		got, ok := action.UpdateKind()
		if !ok || got != kind {
			t.Errorf("kind %s did not round-trip through %s", kind, action)
		}
	}
}
