package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
	"github.com/sonoloc/sonoloc-assistant/internal/domain/repository"
)

// WelcomeText seeds every fresh conversation.
const WelcomeText = "Bonjour ! Je suis l'assistant SonoLoc 👋 Décrivez votre événement ou mentionnez un produit avec @ et je vous aide à composer votre location."

// seenDelay is the display-animation window after which messages stop
// being flagged as new.
const seenDelay = time.Second

// ConversationStore owns the ordered message list. Every mutation
// persists the full list; persistence failures are logged and swallowed.
type ConversationStore struct {
	mu        sync.Mutex
	repo      repository.ConversationRepository
	logger    *slog.Logger
	messages  []entity.Message
	seenTimer *time.Timer
	seenDelay time.Duration
	now       func() time.Time
}

// NewConversationStore restores the persisted conversation, seeding a
// single welcome message when nothing usable was stored. A corrupted
// payload falls back to the seeded state rather than failing.
func NewConversationStore(ctx context.Context, repo repository.ConversationRepository, logger *slog.Logger) *ConversationStore {
	s := &ConversationStore{
		repo:      repo,
		logger:    logger,
		seenDelay: seenDelay,
		now:       time.Now,
	}

	messages, err := repo.LoadMessages(ctx)
	if err != nil {
		logger.Warn("discarding unreadable conversation state", "error", err)
		messages = nil
	}
	if len(messages) == 0 {
		messages = []entity.Message{s.welcomeMessage()}
		s.messages = messages
		s.persistLocked(ctx)
		return s
	}
	s.messages = messages
	return s
}

func (s *ConversationStore) welcomeMessage() entity.Message {
	return entity.Message{
		ID:        uuid.New().String(),
		Text:      WelcomeText,
		Sender:    entity.SenderBot,
		Timestamp: s.now(),
		IsNew:     true,
	}
}

// Append adds a message to the end of the list, persists the list and
// restarts the single-shot seen timer (last write wins).
func (s *ConversationStore) Append(ctx context.Context, msg entity.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	s.persistLocked(ctx)
	s.restartSeenTimerLocked()
}

// ReplaceAll swaps the full list and persists it.
func (s *ConversationStore) ReplaceAll(ctx context.Context, messages []entity.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append([]entity.Message(nil), messages...)
	s.persistLocked(ctx)
}

// CurrentList returns a copy of the full message list in append order.
func (s *ConversationStore) CurrentList() []entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]entity.Message(nil), s.messages...)
}

// HistoryView strips each message down to text and sender for
// downstream consumers.
func (s *ConversationStore) HistoryView() []entity.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := make([]entity.HistoryEntry, len(s.messages))
	for i, m := range s.messages {
		view[i] = entity.HistoryEntry{Text: m.Text, Sender: m.Sender}
	}
	return view
}

// Reset replaces the conversation with a single fresh welcome message
// and clears the persisted list.
func (s *ConversationStore) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seenTimer != nil {
		s.seenTimer.Stop()
		s.seenTimer = nil
	}
	if err := s.repo.ClearMessages(ctx); err != nil {
		s.logger.Warn("failed to clear persisted conversation", "error", err)
	}
	s.messages = []entity.Message{s.welcomeMessage()}
	s.persistLocked(ctx)
}

// restartSeenTimerLocked supersedes any pending timer with a fresh
// single-shot one.
func (s *ConversationStore) restartSeenTimerLocked() {
	if s.seenTimer != nil {
		s.seenTimer.Stop()
	}
	s.seenTimer = time.AfterFunc(s.seenDelay, s.markAllSeen)
}

func (s *ConversationStore) markAllSeen() {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for i := range s.messages {
		if s.messages[i].IsNew {
			s.messages[i].IsNew = false
			changed = true
		}
	}
	if changed {
		s.persistLocked(context.Background())
	}
}

func (s *ConversationStore) persistLocked(ctx context.Context) {
	if err := s.repo.SaveMessages(ctx, s.messages); err != nil {
		s.logger.Warn("failed to persist conversation", "error", err)
	}
}
