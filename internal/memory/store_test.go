package memory

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func storeImpls(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatal(err)
	}
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	for name, store := range storeImpls(t) {
		t.Run(name, func(t *testing.T) {
			ns := Namespace{Kind: KindProfile, UserID: "user-1"}
			profile := Profile{Name: "Priya", Location: "Berlin"}
			if err := store.Put(ns, "user_profile", &profile); err != nil {
				t.Fatal(err)
			}

			var got Profile
			ok, err := GetAs(store, ns, "user_profile", &got)
			if err != nil || !ok {
				t.Fatalf("get failed: ok=%v err=%v", ok, err)
			}
			if got.Name != "Priya" || got.Location != "Berlin" {
				t.Errorf("got %+v", got)
			}
		})
	}
}

func TestStore_NamespaceIsolation(t *testing.T) {
	for name, store := range storeImpls(t) {
		t.Run(name, func(t *testing.T) {
			nsA := Namespace{Kind: KindFeedback, UserID: "user-a"}
			nsB := Namespace{Kind: KindFeedback, UserID: "user-b"}
			nsK := Namespace{Kind: KindResearch, UserID: "user-a"}

			if err := store.Put(nsA, "feedback", &Note{Content: "a"}); err != nil {
				t.Fatal(err)
			}

			if _, ok, _ := store.Get(nsB, "feedback"); ok {
				t.Error("record leaked across users")
			}
			if _, ok, _ := store.Get(nsK, "feedback"); ok {
				t.Error("record leaked across kinds")
			}
		})
	}
}

func TestStore_ListInsertionOrder(t *testing.T) {
	for name, store := range storeImpls(t) {
		t.Run(name, func(t *testing.T) {
			ns := Namespace{Kind: KindTicket, UserID: "user-1"}
			keys := []string{"t-charlie", "t-alpha", "t-bravo"}
			for _, key := range keys {
				if err := store.Put(ns, key, &Ticket{Task: key, Status: StatusNotStarted}); err != nil {
					t.Fatal(err)
				}
			}

			// Updating the first record must not move it.
			if err := store.Put(ns, "t-charlie", &Ticket{Task: "t-charlie", Status: StatusDone}); err != nil {
				t.Fatal(err)
			}

			items, err := store.List(ns)
			if err != nil {
				t.Fatal(err)
			}
			if len(items) != 3 {
				t.Fatalf("items = %d, want 3", len(items))
			}
			for i, key := range keys {
				if items[i].Key != key {
					t.Errorf("position %d = %s, want %s", i, items[i].Key, key)
				}
			}
		})
	}
}

func TestStore_PutOverwrites(t *testing.T) {
	for name, store := range storeImpls(t) {
		t.Run(name, func(t *testing.T) {
			ns := Namespace{Kind: KindInstructions, UserID: "user-1"}
			if err := store.Put(ns, "instructions", &Note{Content: "v1"}); err != nil {
				t.Fatal(err)
			}
			if err := store.Put(ns, "instructions", &Note{Content: "v2"}); err != nil {
				t.Fatal(err)
			}

			var note Note
			if _, err := GetAs(store, ns, "instructions", &note); err != nil {
				t.Fatal(err)
			}
			if note.Content != "v2" {
				t.Errorf("content = %q, want v2", note.Content)
			}

			items, _ := store.List(ns)
			if len(items) != 1 {
				t.Errorf("upsert must not duplicate: %d items", len(items))
			}
		})
	}
}

func TestStore_Delete(t *testing.T) {
	for name, store := range storeImpls(t) {
		t.Run(name, func(t *testing.T) {
			ns := Namespace{Kind: KindTicket, UserID: "user-1"}
			if err := store.Put(ns, "t1", &Ticket{Task: "x", Status: StatusNotStarted}); err != nil {
				t.Fatal(err)
			}
			if err := store.Delete(ns, "t1"); err != nil {
				t.Fatal(err)
			}
			if _, ok, _ := store.Get(ns, "t1"); ok {
				t.Error("record should be gone")
			}
			// Deleting again is a no-op.
			if err := store.Delete(ns, "t1"); err != nil {
				t.Errorf("double delete should not fail: %v", err)
			}
		})
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.db")
	ns := Namespace{Kind: KindProfile, UserID: "user-1"}

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ns, "user_profile", &Profile{Name: "Priya"}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	var got Profile
	ok, err := GetAs(reopened, ns, "user_profile", &got)
	if err != nil || !ok || got.Name != "Priya" {
		t.Errorf("record did not survive reopen: ok=%v err=%v got=%+v", ok, err, got)
	}
}

func TestTicketValidate(t *testing.T) {
	bad := Ticket{Task: "  "}
	if err := bad.Validate(); err == nil {
		t.Error("blank task should fail validation")
	}

	okTicket := Ticket{Task: "ship it"}
	if err := okTicket.Validate(); err != nil {
		t.Fatal(err)
	}
	if okTicket.Status != StatusNotStarted {
		t.Errorf("empty status should default, got %q", okTicket.Status)
	}

	invalid := Ticket{Task: "x", Status: "paused"}
	if err := invalid.Validate(); err == nil {
		t.Error("unknown status should fail validation")
	}
}

func TestTicketSummary(t *testing.T) {
	minutes := 90
	deadline := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	ticket := Ticket{
		Task:           "Draft Q4 roadmap",
		TimeToComplete: &minutes,
		Deadline:       &deadline,
		Solutions:      []string{"block Friday morning", "reuse Q3 template"},
		Status:         StatusInProgress,
	}

	summary := ticket.Summary()
	for _, want := range []string{"Draft Q4 roadmap", "in progress", "90 minutes", "2026-09-01", "reuse Q3 template"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}
