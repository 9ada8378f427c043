package memory

import (
	"encoding/json"
	"time"
)

// Item is one stored record with its namespace-local key.
type Item struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store persists per-user memory records. Implementations guarantee
// single-key atomicity (last write wins); cross-key consistency is the
// caller's concern.
type Store interface {
	// Get returns the record under (ns, key), or ok=false when absent.
	Get(ns Namespace, key string) (json.RawMessage, bool, error)

	// List returns all records under the namespace in insertion order.
	List(ns Namespace) ([]Item, error)

	// Put upserts a record under (ns, key). value is JSON-marshaled.
	Put(ns Namespace, key string, value interface{}) error

	// Delete removes the record under (ns, key). Missing keys are a no-op.
	Delete(ns Namespace, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// GetAs unmarshals the record under (ns, key) into out.
// Returns ok=false when the record is absent.
func GetAs(s Store, ns Namespace, key string, out interface{}) (bool, error) {
	raw, ok, err := s.Get(ns, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}
