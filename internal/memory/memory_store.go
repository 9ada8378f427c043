package memory

import (
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore implements an in-memory record store.
// Used by tests and memory.driver: memory configs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[Namespace]map[string]Item
	order   map[Namespace][]string // insertion order of keys
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[Namespace]map[string]Item),
		order:   make(map[Namespace][]string),
	}
}

// Get returns the record under (ns, key).
func (s *MemoryStore) Get(ns Namespace, key string) (json.RawMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.records[ns][key]
	if !ok {
		return nil, false, nil
	}
	return item.Value, true, nil
}

// List returns all records under the namespace in insertion order.
func (s *MemoryStore) List(ns Namespace) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.order[ns]
	items := make([]Item, 0, len(keys))
	for _, k := range keys {
		if item, ok := s.records[ns][k]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// Put upserts a record under (ns, key).
func (s *MemoryStore) Put(ns Namespace, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records[ns] == nil {
		s.records[ns] = make(map[string]Item)
	}
	if _, exists := s.records[ns][key]; !exists {
		s.order[ns] = append(s.order[ns], key)
	}
	s.records[ns][key] = Item{Key: key, Value: data, UpdatedAt: time.Now()}
	return nil
}

// Delete removes the record under (ns, key).
func (s *MemoryStore) Delete(ns Namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[ns][key]; !ok {
		return nil
	}
	delete(s.records[ns], key)

	keys := s.order[ns]
	for i, k := range keys {
		if k == key {
			s.order[ns] = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
