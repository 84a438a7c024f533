package repository

import (
	"context"

	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
)

// EventContextRepository persists the collected event brief.
// Load returns (nil, nil) when no context was persisted.
type EventContextRepository interface {
	// SaveContext persists a complete event context.
	SaveContext(ctx context.Context, ec entity.EventContext) error

	// LoadContext restores the persisted context, if any.
	LoadContext(ctx context.Context) (*entity.EventContext, error)

	// ClearContext removes the persisted context.
	ClearContext(ctx context.Context) error
}
