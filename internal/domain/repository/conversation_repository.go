package repository

import (
	"context"

	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
)

// ConversationRepository persists the full ordered message list.
// Save replaces the stored list wholesale; Load returns (nil, nil)
// when nothing was persisted yet and an error when the stored payload
// is unreadable, so the caller can reseed defaults.
type ConversationRepository interface {
	// SaveMessages persists the full message list.
	SaveMessages(ctx context.Context, messages []entity.Message) error

	// LoadMessages restores the persisted list, if any.
	LoadMessages(ctx context.Context) ([]entity.Message, error)

	// ClearMessages removes the persisted list.
	ClearMessages(ctx context.Context) error
}
