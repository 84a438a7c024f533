package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
)

const (
	stateKeyConversation = "conversation_messages"
	stateKeyEventContext = "event_context"
)

// SQLiteStore is the durable local store behind the conversation list,
// the collected event context and the saved drafts. Payloads are stored
// as JSON, mirroring the key-value contract of the persistence
// collaborator.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed bootstraps) the database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("db path must not be empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func createSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS state (
	key TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS drafts (
	id TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_drafts_created ON drafts (created_at);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) saveState(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO state (key, payload, updated_at) VALUES (?, ?, ?)`,
		key, string(payload), time.Now())
	return err
}

// loadState returns (false, nil) when the key is absent and an error
// when the stored payload does not parse.
func (s *SQLiteStore) loadState(ctx context.Context, key string, dest any) (bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		return false, fmt.Errorf("corrupted payload for %s: %w", key, err)
	}
	return true, nil
}

func (s *SQLiteStore) clearState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM state WHERE key = ?`, key)
	return err
}

// SaveMessages persists the full message list.
func (s *SQLiteStore) SaveMessages(ctx context.Context, messages []entity.Message) error {
	return s.saveState(ctx, stateKeyConversation, messages)
}

// LoadMessages restores the persisted list, if any.
func (s *SQLiteStore) LoadMessages(ctx context.Context) ([]entity.Message, error) {
	var messages []entity.Message
	found, err := s.loadState(ctx, stateKeyConversation, &messages)
	if err != nil || !found {
		return nil, err
	}
	return messages, nil
}

// ClearMessages removes the persisted list.
func (s *SQLiteStore) ClearMessages(ctx context.Context) error {
	return s.clearState(ctx, stateKeyConversation)
}

// SaveContext persists the event context.
func (s *SQLiteStore) SaveContext(ctx context.Context, ec entity.EventContext) error {
	return s.saveState(ctx, stateKeyEventContext, ec)
}

// LoadContext restores the persisted event context, if any.
func (s *SQLiteStore) LoadContext(ctx context.Context) (*entity.EventContext, error) {
	var ec entity.EventContext
	found, err := s.loadState(ctx, stateKeyEventContext, &ec)
	if err != nil || !found {
		return nil, err
	}
	return &ec, nil
}

// ClearContext removes the persisted event context.
func (s *SQLiteStore) ClearContext(ctx context.Context) error {
	return s.clearState(ctx, stateKeyEventContext)
}

// SaveDraft persists one draft.
func (s *SQLiteStore) SaveDraft(ctx context.Context, draft entity.ResponseDraft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO drafts (id, payload, created_at) VALUES (?, ?, ?)`,
		draft.ID, string(payload), draft.CreatedAt)
	return err
}

// ListDrafts returns all drafts, newest first. Unreadable rows are
// skipped rather than failing the whole listing.
func (s *SQLiteStore) ListDrafts(ctx context.Context) ([]entity.ResponseDraft, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM drafts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drafts []entity.ResponseDraft
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var draft entity.ResponseDraft
		if err := json.Unmarshal([]byte(payload), &draft); err != nil {
			continue
		}
		drafts = append(drafts, draft)
	}
	return drafts, rows.Err()
}

// DeleteDraft removes a draft by id.
func (s *SQLiteStore) DeleteDraft(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
