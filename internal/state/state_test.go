package state

import (
	"path/filepath"
	"testing"

	"github.com/aide-oss/aide/internal/provider"
)

func testThread(id, userID string) *Thread {
	return &Thread{
		ID:     id,
		UserID: userID,
		Messages: []provider.Message{
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "hi, how can I help?"},
		},
	}
}

func TestMemoryStore_SaveAndLoad(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	if err := s.Save(testThread("t1", "user-1")); err != nil {
		t.Fatal(err)
	}

	loaded, ok, err := s.Load("t1")
	if err != nil || !ok {
		t.Fatalf("load failed: ok=%v err=%v", ok, err)
	}
	if len(loaded.Messages) != 2 {
		t.Errorf("messages = %d, want 2", len(loaded.Messages))
	}
	if loaded.UpdatedAt.IsZero() {
		t.Error("save should stamp UpdatedAt")
	}
}

func TestMemoryStore_LoadCopiesMessages(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	if err := s.Save(testThread("t1", "user-1")); err != nil {
		t.Fatal(err)
	}

	loaded, _, _ := s.Load("t1")
	loaded.Messages[0].Content = "mutated"

	again, _, _ := s.Load("t1")
	if again.Messages[0].Content != "hello" {
		t.Error("mutating a loaded thread must not affect the store")
	}
}

func TestMemoryStore_MissingThread(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	_, ok, err := s.Load("nope")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("missing thread should report ok=false")
	}
}

func TestMemoryStore_RequiresID(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	if err := s.Save(&Thread{UserID: "user-1"}); err == nil {
		t.Error("saving without an id should fail")
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threads.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	thread := testThread("t1", "user-1")
	thread.Messages = append(thread.Messages, provider.Message{
		Role: "assistant",
		ContentBlocks: []provider.ContentBlock{
			provider.ToolUseBlock("c1", "web_search", []byte(`{"query":"x"}`)),
		},
	})
	if err := s.Save(thread); err != nil {
		t.Fatal(err)
	}

	loaded, ok, err := s.Load("t1")
	if err != nil || !ok {
		t.Fatalf("load failed: ok=%v err=%v", ok, err)
	}
	if len(loaded.Messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(loaded.Messages))
	}
	blocks := loaded.Messages[2].ContentBlocks
	if len(blocks) != 1 || blocks[0].Type != "tool_use" || blocks[0].Name != "web_search" {
		t.Errorf("content blocks did not survive the round trip: %+v", blocks)
	}
}

func TestSQLiteStore_SaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threads.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	thread := testThread("t1", "user-1")
	if err := s.Save(thread); err != nil {
		t.Fatal(err)
	}
	thread.Messages = append(thread.Messages, provider.Message{Role: "user", Content: "more"})
	if err := s.Save(thread); err != nil {
		t.Fatal(err)
	}

	loaded, _, _ := s.Load("t1")
	if len(loaded.Messages) != 3 {
		t.Errorf("messages = %d, want 3", len(loaded.Messages))
	}
}

func TestSQLiteStore_ListByUser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threads.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Save(testThread("t1", "user-1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(testThread("t2", "user-2")); err != nil {
		t.Fatal(err)
	}

	ids, err := s.List("user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "t1" {
		t.Errorf("list = %v, want [t1]", ids)
	}
}

func TestNewStore_UnknownDriver(t *testing.T) {
	if _, err := NewStore("postgres", ""); err == nil {
		t.Error("unknown driver should fail")
	}
}
