package repository

import (
	"context"

	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
)

// DraftRepository persists saved response drafts keyed by their id.
type DraftRepository interface {
	// SaveDraft persists one draft.
	SaveDraft(ctx context.Context, draft entity.ResponseDraft) error

	// ListDrafts returns all drafts, newest first.
	ListDrafts(ctx context.Context) ([]entity.ResponseDraft, error)

	// DeleteDraft removes a draft by id.
	DeleteDraft(ctx context.Context, id string) error
}
