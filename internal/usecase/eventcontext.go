package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
	"github.com/sonoloc/sonoloc-assistant/internal/domain/repository"
)

// EventContextCollector holds the structured event brief. A context is
// either fully collected or absent; incomplete submissions are no-ops.
type EventContextCollector struct {
	mu        sync.Mutex
	repo      repository.EventContextRepository
	store     *ConversationStore
	logger    *slog.Logger
	current   entity.EventContext
	collected bool
}

// NewEventContextCollector restores a previously persisted context.
func NewEventContextCollector(ctx context.Context, repo repository.EventContextRepository, store *ConversationStore, logger *slog.Logger) *EventContextCollector {
	c := &EventContextCollector{repo: repo, store: store, logger: logger}

	persisted, err := repo.LoadContext(ctx)
	if err != nil {
		logger.Warn("discarding unreadable event context", "error", err)
		return c
	}
	if persisted != nil && persisted.Complete() {
		c.current = *persisted
		c.collected = true
	}
	return c
}

// Submit accepts the context only when all four fields are filled.
// On acceptance it persists the context and appends one bot
// confirmation message quoting the submitted values. Returns whether
// the submission was accepted.
func (c *EventContextCollector) Submit(ctx context.Context, ec entity.EventContext) bool {
	if !ec.Complete() {
		return false
	}

	c.mu.Lock()
	c.current = ec
	c.collected = true
	c.mu.Unlock()

	if err := c.repo.SaveContext(ctx, ec); err != nil {
		c.logger.Warn("failed to persist event context", "error", err)
	}

	confirmation := fmt.Sprintf(
		"C'est noté ! Votre événement : %s, le %s, budget %s, catégorie %s. J'en tiens compte dans toutes mes réponses.",
		ec.EventType, ec.EventDate, ec.Budget, ec.LocationType,
	)
	c.store.Append(ctx, entity.Message{
		ID:        uuid.New().String(),
		Text:      confirmation,
		Sender:    entity.SenderBot,
		Timestamp: c.store.now(),
		IsNew:     true,
	})
	return true
}

// Current returns the collected context, if any.
func (c *EventContextCollector) Current() (entity.EventContext, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.collected
}

// Clear resets the collector and removes the persisted context. Called
// during a full conversation reset.
func (c *EventContextCollector) Clear(ctx context.Context) {
	c.mu.Lock()
	c.current = entity.EventContext{}
	c.collected = false
	c.mu.Unlock()

	if err := c.repo.ClearContext(ctx); err != nil {
		c.logger.Warn("failed to clear persisted event context", "error", err)
	}
}
