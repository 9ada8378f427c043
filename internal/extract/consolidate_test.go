package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/aide-oss/aide/internal/memory"
	"github.com/aide-oss/aide/internal/provider"
	"github.com/aide-oss/aide/internal/testutil"
)

func newConsolidator(t *testing.T, mock *testutil.MockProvider) (*Consolidator, memory.Store) {
	t.Helper()
	h := testutil.NewHarness()
	store := memory.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	return NewConsolidator(mock, store, h.Logger, h.Metrics, h.Bus), store
}

func feedbackConversation() []provider.Message {
	return []provider.Message{
		{Role: "user", Content: "The export flow is clunky."},
		{Role: "assistant", Content: "Noted. Anything else?"},
		{Role: "user", Content: "Also the dashboard loads slowly on mobile."},
		{Role: "assistant", ContentBlocks: []provider.ContentBlock{
			provider.ToolUseBlock("route-1", "update_memory", []byte(`{"kind":"feedback"}`)),
		}},
	}
}

func TestConsolidate_StoresReplacementBlob(t *testing.T) {
	mock := testutil.NewMockProvider(testutil.TextResponse("- Export flow is clunky.\n- Dashboard slow on mobile."))
	c, store := newConsolidator(t, mock)

	result, err := c.Update(context.Background(), "user-1", memory.KindFeedback, feedbackConversation(), "route-1")
	if err != nil {
		t.Fatal(err)
	}
	if result.ID != "route-1" {
		t.Errorf("result must answer the routing call, got %s", result.ID)
	}
	if !strings.Contains(result.Result, "Feedback memory has been updated") {
		t.Errorf("unexpected confirmation: %s", result.Result)
	}

	var note memory.Note
	ok, err := memory.GetAs(store, memory.Namespace{Kind: memory.KindFeedback, UserID: "user-1"}, "feedback", &note)
	if err != nil || !ok {
		t.Fatalf("note not stored: ok=%v err=%v", ok, err)
	}
	if !strings.Contains(note.Content, "Dashboard slow on mobile") {
		t.Errorf("stored content = %q", note.Content)
	}
}

func TestConsolidate_PromptCarriesCurrentBlob(t *testing.T) {
	mock := testutil.NewMockProvider(testutil.TextResponse("merged notes"))
	c, store := newConsolidator(t, mock)

	ns := memory.Namespace{Kind: memory.KindResearch, UserID: "user-1"}
	if err := store.Put(ns, "research", &memory.Note{Content: "Competitor X shipped embeddings."}); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Update(context.Background(), "user-1", memory.KindResearch, feedbackConversation(), "route-1"); err != nil {
		t.Fatal(err)
	}

	system := mock.LastCall().System
	if !strings.Contains(system, "Competitor X shipped embeddings.") {
		t.Error("current blob must feed the synthesis prompt")
	}
}

func TestConsolidate_EmptyCurrentBlobDefaults(t *testing.T) {
	mock := testutil.NewMockProvider(testutil.TextResponse("first notes"))
	c, _ := newConsolidator(t, mock)

	if _, err := c.Update(context.Background(), "user-1", memory.KindInstructions, feedbackConversation(), "route-1"); err != nil {
		t.Fatal(err)
	}
	// A missing record reads as the empty string, not an error.
	if mock.CallCount() != 1 {
		t.Fatalf("expected one completion, got %d", mock.CallCount())
	}
}

func TestConsolidate_WindowExcludesLatestMessage(t *testing.T) {
	mock := testutil.NewMockProvider(testutil.TextResponse("notes"))
	c, _ := newConsolidator(t, mock)

	if _, err := c.Update(context.Background(), "user-1", memory.KindFeedback, feedbackConversation(), "route-1"); err != nil {
		t.Fatal(err)
	}

	system := mock.LastCall().System
	if !strings.Contains(system, "The export flow is clunky.") {
		t.Error("window should include recent user messages")
	}
	if strings.Contains(system, "update_memory") {
		t.Error("the routing decision itself must not feed the synthesis prompt")
	}
}

func TestConsolidate_NoToolsBound(t *testing.T) {
	mock := testutil.NewMockProvider(testutil.TextResponse("notes"))
	c, _ := newConsolidator(t, mock)

	if _, err := c.Update(context.Background(), "user-1", memory.KindFeedback, feedbackConversation(), "route-1"); err != nil {
		t.Fatal(err)
	}

	req := mock.LastCall()
	if len(req.Tools) != 0 {
		t.Error("consolidation must be a plain completion")
	}
	if req.ToolChoice.Type != provider.ToolChoiceNone {
		t.Errorf("tool choice = %+v, want none", req.ToolChoice)
	}
}

func TestConsolidate_RejectsStructuredKind(t *testing.T) {
	mock := testutil.NewMockProvider()
	c, _ := newConsolidator(t, mock)

	if _, err := c.Update(context.Background(), "user-1", memory.KindProfile, feedbackConversation(), "route-1"); err == nil {
		t.Error("structured kinds must not reach the consolidator")
	}
}
