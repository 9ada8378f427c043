package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists memory records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the SQLite database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate memory database: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memory_records (
		kind TEXT NOT NULL,
		user_id TEXT NOT NULL,
		key TEXT NOT NULL,
		data JSON NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (kind, user_id, key)
	);

	CREATE INDEX IF NOT EXISTS idx_memory_records_ns ON memory_records(kind, user_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the record under (ns, key).
func (s *SQLiteStore) Get(ns Namespace, key string) (json.RawMessage, bool, error) {
	var data []byte
	err := s.db.QueryRow(`
		SELECT data FROM memory_records
		WHERE kind = ? AND user_id = ? AND key = ?
	`, string(ns.Kind), ns.UserID, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return json.RawMessage(data), true, nil
}

// List returns all records under the namespace in insertion order.
// Upserts keep the original rowid, so rowid order is insertion order.
func (s *SQLiteStore) List(ns Namespace) ([]Item, error) {
	rows, err := s.db.Query(`
		SELECT key, data, updated_at FROM memory_records
		WHERE kind = ? AND user_id = ?
		ORDER BY rowid ASC
	`, string(ns.Kind), ns.UserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var data []byte
		if err := rows.Scan(&item.Key, &data, &item.UpdatedAt); err != nil {
			return nil, err
		}
		item.Value = json.RawMessage(data)
		items = append(items, item)
	}
	return items, rows.Err()
}

// Put upserts a record under (ns, key).
func (s *SQLiteStore) Put(ns Namespace, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO memory_records (kind, user_id, key, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (kind, user_id, key)
		DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, string(ns.Kind), ns.UserID, key, data, time.Now())
	return err
}

// Delete removes the record under (ns, key).
func (s *SQLiteStore) Delete(ns Namespace, key string) error {
	_, err := s.db.Exec(`
		DELETE FROM memory_records WHERE kind = ? AND user_id = ? AND key = ?
	`, string(ns.Kind), ns.UserID, key)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// NewStore creates a record store for the given driver ("sqlite" or "memory").
func NewStore(driver, path string) (Store, error) {
	switch driver {
	case "memory", "":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unsupported memory driver: %s", driver)
	}
}
