package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/aide-oss/aide/internal/event"
	"github.com/aide-oss/aide/internal/memory"
	"github.com/aide-oss/aide/internal/provider"
	"github.com/aide-oss/aide/internal/testutil"
)

func newProfileExtractor(t *testing.T, mock *testutil.MockProvider) (*StructuredExtractor, memory.Store, *testutil.Harness) {
	t.Helper()
	h := testutil.NewHarness()
	store := memory.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	return NewStructuredExtractor(mock, store, h.Logger, h.Metrics, h.Bus), store, h
}

func profileConversation() []provider.Message {
	return []provider.Message{
		{Role: "user", Content: "Hi, I'm Priya and I lead the payments team in Berlin."},
		{Role: "assistant", ContentBlocks: []provider.ContentBlock{
			provider.ToolUseBlock("route-1", "update_memory", []byte(`{"kind":"profile"}`)),
		}},
	}
}

func TestUpdateProfile_StoresSingleton(t *testing.T) {
	mock := testutil.NewMockProvider(testutil.ToolCallResponse("x1", "Profile",
		`{"name":"Priya","location":"Berlin","team":"payments"}`))
	ex, store, h := newProfileExtractor(t, mock)

	result, err := ex.UpdateProfile(context.Background(), "user-1", profileConversation(), "route-1")
	if err != nil {
		t.Fatal(err)
	}
	if result.ID != "route-1" {
		t.Errorf("result must answer the routing call, got %s", result.ID)
	}
	if !strings.Contains(result.Result, "User profile updated") {
		t.Errorf("unexpected confirmation: %s", result.Result)
	}

	var stored memory.Profile
	ok, err := memory.GetAs(store, memory.Namespace{Kind: memory.KindProfile, UserID: "user-1"}, "user_profile", &stored)
	if err != nil || !ok {
		t.Fatalf("profile not stored: ok=%v err=%v", ok, err)
	}
	if stored.Name != "Priya" || stored.Location != "Berlin" {
		t.Errorf("stored profile = %+v", stored)
	}
	// Defaults fill fields the extraction left empty.
	if stored.Designation != "manager" {
		t.Errorf("designation default not applied: %q", stored.Designation)
	}
	if h.Recorder.Count(event.MemoryUpdated) != 1 {
		t.Error("expected one memory.updated event")
	}
}

func TestUpdateProfile_OverwritesPrevious(t *testing.T) {
	mock := testutil.NewMockProvider(testutil.ToolCallResponse("x1", "Profile",
		`{"name":"Priya","location":"Munich"}`))
	ex, store, _ := newProfileExtractor(t, mock)

	ns := memory.Namespace{Kind: memory.KindProfile, UserID: "user-1"}
	if err := store.Put(ns, "user_profile", &memory.Profile{Name: "Priya", Location: "Berlin", Email: "p@example.com"}); err != nil {
		t.Fatal(err)
	}

	if _, err := ex.UpdateProfile(context.Background(), "user-1", profileConversation(), "route-1"); err != nil {
		t.Fatal(err)
	}

	var stored memory.Profile
	if _, err := memory.GetAs(store, ns, "user_profile", &stored); err != nil {
		t.Fatal(err)
	}
	if stored.Location != "Munich" {
		t.Errorf("location = %q, want Munich", stored.Location)
	}
	// Overwrite is wholesale; fields absent from the extraction are gone.
	if stored.Email != "" {
		t.Errorf("email should not survive the overwrite: %q", stored.Email)
	}
}

func TestUpdateProfile_PinsToolChoice(t *testing.T) {
	mock := testutil.NewMockProvider(testutil.ToolCallResponse("x1", "Profile", `{"name":"Priya"}`))
	ex, _, _ := newProfileExtractor(t, mock)

	if _, err := ex.UpdateProfile(context.Background(), "user-1", profileConversation(), "route-1"); err != nil {
		t.Fatal(err)
	}

	req := mock.LastCall()
	if req.ToolChoice.Type != provider.ToolChoiceTool || req.ToolChoice.Name != "Profile" {
		t.Errorf("tool choice = %+v, want pinned to Profile", req.ToolChoice)
	}
}

func TestUpdateProfile_FiltersToolResults(t *testing.T) {
	mock := testutil.NewMockProvider(testutil.ToolCallResponse("x1", "Profile", `{"name":"Priya"}`))
	ex, _, _ := newProfileExtractor(t, mock)

	msgs := append(profileConversation(), provider.Message{
		Role: "user",
		ContentBlocks: []provider.ContentBlock{
			{Type: "tool_result", ToolUseID: "old", Content: "stale"},
		},
	})
	if _, err := ex.UpdateProfile(context.Background(), "user-1", msgs, "route-1"); err != nil {
		t.Fatal(err)
	}

	for _, msg := range mock.LastCall().Messages {
		for _, block := range msg.ContentBlocks {
			if block.Type == "tool_result" {
				t.Error("tool results must not reach the extractor")
			}
		}
	}
}

func TestUpdateProfile_NothingExtracted(t *testing.T) {
	mock := testutil.NewMockProvider(testutil.TextResponse("no structured output"))
	ex, store, _ := newProfileExtractor(t, mock)

	result, err := ex.UpdateProfile(context.Background(), "user-1", profileConversation(), "route-1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Result, "No profile information extracted") {
		t.Errorf("unexpected confirmation: %s", result.Result)
	}

	items, err := store.List(memory.Namespace{Kind: memory.KindProfile, UserID: "user-1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Error("nothing should be stored when extraction is empty")
	}
}

func TestUpdateTickets_InsertAndUpdate(t *testing.T) {
	h := testutil.NewHarness()
	store := memory.NewMemoryStore()
	defer store.Close()

	ns := memory.Namespace{Kind: memory.KindTicket, UserID: "user-1"}
	if err := store.Put(ns, "ticket-roadmap", &memory.Ticket{Task: "Draft Q4 roadmap", Status: memory.StatusInProgress}); err != nil {
		t.Fatal(err)
	}

	// One call updates the existing ticket, one inserts a new one.
	mock := testutil.NewMockProvider(&provider.Response{
		ToolCalls: []provider.ToolCall{
			{ID: "x1", Name: "TicketDetails", Input: `{"id":"ticket-roadmap","task":"Draft Q4 roadmap","status":"done"}`},
			{ID: "x2", Name: "TicketDetails", Input: `{"task":"Fix exporter crash","status":"not started"}`},
		},
		StopReason: "tool_use",
	})
	ex := NewStructuredExtractor(mock, store, h.Logger, h.Metrics, h.Bus)

	result, err := ex.UpdateTickets(context.Background(), "user-1", profileConversation(), "route-1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Result, "Ticket(s) processed") {
		t.Errorf("unexpected confirmation: %s", result.Result)
	}

	items, err := store.List(ns)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(items))
	}

	var updated memory.Ticket
	if _, err := memory.GetAs(store, ns, "ticket-roadmap", &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Status != memory.StatusDone {
		t.Errorf("existing ticket status = %s, want done", updated.Status)
	}
}

func TestUpdateTickets_UnknownIDCreatesNewRecord(t *testing.T) {
	h := testutil.NewHarness()
	store := memory.NewMemoryStore()
	defer store.Close()

	mock := testutil.NewMockProvider(testutil.ToolCallResponse("x1", "TicketDetails",
		`{"id":"no-such-ticket","task":"Review churn numbers"}`))
	ex := NewStructuredExtractor(mock, store, h.Logger, h.Metrics, h.Bus)

	if _, err := ex.UpdateTickets(context.Background(), "user-1", profileConversation(), "route-1"); err != nil {
		t.Fatal(err)
	}

	items, err := store.List(memory.Namespace{Kind: memory.KindTicket, UserID: "user-1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(items))
	}
	if items[0].Key == "no-such-ticket" {
		t.Error("an id that matches nothing must not be reused as a key")
	}
}

func TestUpdateTickets_InvalidTicketDropped(t *testing.T) {
	h := testutil.NewHarness()
	store := memory.NewMemoryStore()
	defer store.Close()

	mock := testutil.NewMockProvider(testutil.ToolCallResponse("x1", "TicketDetails", `{"task":"   "}`))
	ex := NewStructuredExtractor(mock, store, h.Logger, h.Metrics, h.Bus)

	result, err := ex.UpdateTickets(context.Background(), "user-1", profileConversation(), "route-1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Result, "No new ticket information") {
		t.Errorf("unexpected confirmation: %s", result.Result)
	}
}
