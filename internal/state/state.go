// Package state persists conversation threads between process runs so
// a chat can resume where it left off.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/aide-oss/aide/internal/provider"
)

// Thread is one persisted conversation.
type Thread struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Messages  []provider.Message `json:"messages"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Store persists threads keyed by thread id.
type Store interface {
	// Load returns the thread, or ok=false when it does not exist.
	Load(threadID string) (*Thread, bool, error)

	// Save upserts the thread, stamping UpdatedAt.
	Save(t *Thread) error

	// Delete removes a thread. Missing ids are a no-op.
	Delete(threadID string) error

	// List returns thread ids for a user, most recently updated first.
	List(userID string) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// MemoryStore keeps threads in process memory. Used in tests and when
// persistence is disabled.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string]*Thread
}

// NewMemoryStore creates an empty in-memory thread store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string]*Thread)}
}

func (s *MemoryStore) Load(threadID string) (*Thread, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.threads[threadID]
	if !ok {
		return nil, false, nil
	}
	// Copy so callers cannot mutate the stored thread in place.
	cp := *t
	cp.Messages = make([]provider.Message, len(t.Messages))
	copy(cp.Messages, t.Messages)
	return &cp, true, nil
}

func (s *MemoryStore) Save(t *Thread) error {
	if t.ID == "" {
		return fmt.Errorf("thread id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	cp.UpdatedAt = time.Now()
	cp.Messages = make([]provider.Message, len(t.Messages))
	copy(cp.Messages, t.Messages)
	s.threads[t.ID] = &cp
	return nil
}

func (s *MemoryStore) Delete(threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, threadID)
	return nil
}

func (s *MemoryStore) List(userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type entry struct {
		id string
		at time.Time
	}
	entries := make([]entry, 0, len(s.threads))
	for id, t := range s.threads {
		if t.UserID == userID {
			entries = append(entries, entry{id, t.UpdatedAt})
		}
	}
	// Most recent first.
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if entries[j].at.After(entries[i].at) {
				entries[i], entries[j] = entries[j], entries[i]
			}
		}
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
