package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
)

// MemoryStore is the in-memory counterpart of SQLiteStore, used in
// tests and as a zero-setup default. It keeps the same JSON payload
// semantics so corrupted-state handling behaves identically.
type MemoryStore struct {
	mu           sync.RWMutex
	conversation []byte
	eventContext []byte
	drafts       map[string]entity.ResponseDraft
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string]entity.ResponseDraft)}
}

// SeedConversationPayload injects a raw persisted payload, valid or
// not. Test hook for the corrupted-state fallback path.
func (m *MemoryStore) SeedConversationPayload(payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversation = payload
}

// SaveMessages persists the full message list.
func (m *MemoryStore) SaveMessages(ctx context.Context, messages []entity.Message) error {
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversation = payload
	return nil
}

// LoadMessages restores the persisted list, if any.
func (m *MemoryStore) LoadMessages(ctx context.Context) ([]entity.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.conversation == nil {
		return nil, nil
	}
	var messages []entity.Message
	if err := json.Unmarshal(m.conversation, &messages); err != nil {
		return nil, fmt.Errorf("corrupted conversation payload: %w", err)
	}
	return messages, nil
}

// ClearMessages removes the persisted list.
func (m *MemoryStore) ClearMessages(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversation = nil
	return nil
}

// SaveContext persists the event context.
func (m *MemoryStore) SaveContext(ctx context.Context, ec entity.EventContext) error {
	payload, err := json.Marshal(ec)
	if err != nil {
		return fmt.Errorf("failed to encode event context: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventContext = payload
	return nil
}

// LoadContext restores the persisted event context, if any.
func (m *MemoryStore) LoadContext(ctx context.Context) (*entity.EventContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.eventContext == nil {
		return nil, nil
	}
	var ec entity.EventContext
	if err := json.Unmarshal(m.eventContext, &ec); err != nil {
		return nil, fmt.Errorf("corrupted event context payload: %w", err)
	}
	return &ec, nil
}

// ClearContext removes the persisted event context.
func (m *MemoryStore) ClearContext(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventContext = nil
	return nil
}

// SaveDraft persists one draft.
func (m *MemoryStore) SaveDraft(ctx context.Context, draft entity.ResponseDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[draft.ID] = draft
	return nil
}

// ListDrafts returns all drafts, newest first.
func (m *MemoryStore) ListDrafts(ctx context.Context) ([]entity.ResponseDraft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	drafts := make([]entity.ResponseDraft, 0, len(m.drafts))
	for _, d := range m.drafts {
		drafts = append(drafts, d)
	}
	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].CreatedAt.After(drafts[j].CreatedAt)
	})
	return drafts, nil
}

// DeleteDraft removes a draft by id.
func (m *MemoryStore) DeleteDraft(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}
