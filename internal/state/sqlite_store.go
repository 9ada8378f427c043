package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aide-oss/aide/internal/provider"
)

// SQLiteStore persists threads in a SQLite database.
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
		return nil, fmt.Errorf("failed to open thread database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate thread database: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS threads (
		thread_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		messages JSON NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_threads_user ON threads(user_id, updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns the thread under threadID.
func (s *SQLiteStore) Load(threadID string) (*Thread, bool, error) {
	var (
		userID    string
		raw       []byte
		updatedAt time.Time
	)
	err := s.db.QueryRow(`
		SELECT user_id, messages, updated_at FROM threads WHERE thread_id = ?
	`, threadID).Scan(&userID, &raw, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var messages []provider.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, false, fmt.Errorf("decode thread %s: %w", threadID, err)
	}

	return &Thread{
		ID:        threadID,
		UserID:    userID,
		Messages:  messages,
		UpdatedAt: updatedAt,
	}, true, nil
}

// Save upserts the thread.
func (s *SQLiteStore) Save(t *Thread) error {
	if t.ID == "" {
		return fmt.Errorf("thread id is required")
	}
	raw, err := json.Marshal(t.Messages)
	if err != nil {
		return fmt.Errorf("marshal thread messages: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO threads (thread_id, user_id, messages, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (thread_id)
		DO UPDATE SET user_id = excluded.user_id, messages = excluded.messages, updated_at = excluded.updated_at
	`, t.ID, t.UserID, raw, time.Now())
	return err
}

// Delete removes a thread.
func (s *SQLiteStore) Delete(threadID string) error {
	_, err := s.db.Exec(`DELETE FROM threads WHERE thread_id = ?`, threadID)
	return err
}

// List returns thread ids for a user, most recently updated first.
func (s *SQLiteStore) List(userID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT thread_id FROM threads WHERE user_id = ? ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// NewStore creates a thread store for the given driver ("sqlite" or "memory").
func NewStore(driver, path string) (Store, error) {
	switch driver {
	case "memory", "":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unsupported state driver: %s", driver)
	}
}
