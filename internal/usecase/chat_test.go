package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
	"github.com/sonoloc/sonoloc-assistant/internal/domain/repository"
	"github.com/sonoloc/sonoloc-assistant/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAI fails the first `failures` calls, then answers with `response`.
type stubAI struct {
	failures int
	response string
	calls    int
	lastReq  repository.GenerationRequest
}

func (s *stubAI) Generate(ctx context.Context, req repository.GenerationRequest) (string, error) {
	s.calls++
	s.lastReq = req
	if s.calls <= s.failures {
		return "", errors.New("remote unavailable")
	}
	return s.response, nil
}

type chatFixture struct {
	ai           *stubAI
	store        *ConversationStore
	collector    *EventContextCollector
	orchestrator *ChatOrchestrator
	delays       []time.Duration
}

func newChatFixture(t *testing.T, ai *stubAI, products []entity.Product) *chatFixture {
	t.Helper()
	ctx := context.Background()

	repo := storage.NewMemoryStore()
	productRepo := storage.NewMemoryProductRepository()
	if products != nil {
		require.NoError(t, productRepo.ReplaceCatalog(ctx, entity.Catalog{Products: products}))
	}

	store := NewConversationStore(ctx, repo, testLogger())
	collector := NewEventContextCollector(ctx, repo, store, testLogger())
	orchestrator := NewChatOrchestrator(ai, productRepo, store, collector, GenerationSettings{
		Temperature:     0.3,
		TopP:            0.9,
		MaxOutputTokens: 2048,
	}, testLogger())

	f := &chatFixture{ai: ai, store: store, collector: collector, orchestrator: orchestrator}
	orchestrator.sleep = func(ctx context.Context, d time.Duration) error {
		f.delays = append(f.delays, d)
		return nil
	}
	return f
}

func TestSendBlankInputIsNoOp(t *testing.T) {
	f := newChatFixture(t, &stubAI{response: "ok"}, catalogFixture())

	result := f.orchestrator.Send(context.Background(), "   \n ")

	assert.Nil(t, result)
	assert.Zero(t, f.ai.calls)
	assert.Len(t, f.store.CurrentList(), 1, "nothing may be appended for blank input")
}

func TestSendSucceedsAfterTransientFailures(t *testing.T) {
	f := newChatFixture(t, &stubAI{failures: 2, response: "Je recommande l'Enceinte JBL Pro."}, catalogFixture())

	result := f.orchestrator.Send(context.Background(), "que me conseillez-vous ?")

	require.NotNil(t, result)
	require.NoError(t, result.Err)
	assert.Equal(t, "Je recommande l'Enceinte JBL Pro.", result.ResponseText)
	assert.Equal(t, entity.SourceRemote, result.Source)
	assert.Equal(t, 3, f.ai.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, f.delays)

	messages := f.store.CurrentList()
	require.Len(t, messages, 3) // welcome, user, bot
	bot := messages[2]
	assert.Equal(t, entity.SenderBot, bot.Sender)
	assert.Equal(t, entity.SourceRemote, bot.Source)
	// Mentions are extracted from the response text too.
	require.Len(t, bot.MentionedProducts, 1)
	assert.Equal(t, "p1", bot.MentionedProducts[0].ID)
}

func TestSendExhaustsRetriesAndApologizes(t *testing.T) {
	f := newChatFixture(t, &stubAI{failures: 10}, catalogFixture())

	result := f.orchestrator.Send(context.Background(), "bonjour")

	require.NotNil(t, result)
	require.Error(t, result.Err)
	assert.Equal(t, ApologyText, result.ResponseText)
	assert.Equal(t, 3, f.ai.calls, "exactly three attempts")
	assert.Len(t, f.delays, 2, "no sleep after the last attempt")

	messages := f.store.CurrentList()
	require.Len(t, messages, 3)
	assert.Equal(t, "bonjour", messages[1].Text, "user message survives a failed send")
	apology := messages[2]
	assert.Equal(t, ApologyText, apology.Text)
	assert.Empty(t, apology.Source, "apology carries no source")
}

func TestSendEnrichesQueryWithEventContext(t *testing.T) {
	f := newChatFixture(t, &stubAI{response: "ok"}, catalogFixture())
	require.True(t, f.collector.Submit(context.Background(), entity.EventContext{
		EventType:    "Mariage",
		EventDate:    "2025-06-21",
		Budget:       "3000€",
		LocationType: "Sonorisation",
	}))

	f.orchestrator.Send(context.Background(), "quelles enceintes ?")

	want := fmt.Sprintf(
		"Contexte: type d'événement %s, date %s, budget %s, catégorie %s.\n\n%s",
		"Mariage", "2025-06-21", "3000€", "Sonorisation", "quelles enceintes ?",
	)
	assert.Equal(t, want, f.ai.lastReq.UserQuery)
}

func TestSendHistoryExcludesCurrentMessage(t *testing.T) {
	f := newChatFixture(t, &stubAI{response: "ok"}, catalogFixture())

	f.orchestrator.Send(context.Background(), "première question")

	require.Len(t, f.ai.lastReq.History, 1, "only the welcome precedes the first send")
	assert.Equal(t, WelcomeText, f.ai.lastReq.History[0].Text)
}

func TestSendServesRepeatedQueryFromCache(t *testing.T) {
	f := newChatFixture(t, &stubAI{response: "réponse détaillée"}, catalogFixture())

	first := f.orchestrator.Send(context.Background(), "vos tarifs ?")
	second := f.orchestrator.Send(context.Background(), "vos tarifs ?")

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, entity.SourceRemote, first.Source)
	assert.Equal(t, entity.SourceCache, second.Source)
	assert.Equal(t, first.ResponseText, second.ResponseText)
	assert.Equal(t, 1, f.ai.calls, "cached send must not call the remote service")

	messages := f.store.CurrentList()
	last := messages[len(messages)-1]
	assert.Equal(t, entity.SourceCache, last.Source)
}

func TestSendIncludesCatalogInSystemPrompt(t *testing.T) {
	f := newChatFixture(t, &stubAI{response: "ok"}, catalogFixture())

	f.orchestrator.Send(context.Background(), "bonjour")

	prompt := f.ai.lastReq.SystemPrompt
	assert.Contains(t, prompt, "CATALOGUE DISPONIBLE")
	assert.Contains(t, prompt, "Enceinte JBL Pro")
	assert.Contains(t, prompt, "Sonorisation")
}

func TestSendWithoutCatalogUsesBarePrompt(t *testing.T) {
	f := newChatFixture(t, &stubAI{response: "ok"}, nil)

	f.orchestrator.Send(context.Background(), "bonjour")

	assert.False(t, strings.Contains(f.ai.lastReq.SystemPrompt, "CATALOGUE DISPONIBLE"))
}

func TestBackoffDelayCapsAtTenSeconds(t *testing.T) {
	assert.Equal(t, time.Second, backoffDelay(0))
	assert.Equal(t, 2*time.Second, backoffDelay(1))
	assert.Equal(t, 4*time.Second, backoffDelay(2))
	assert.Equal(t, 10*time.Second, backoffDelay(5))
}
