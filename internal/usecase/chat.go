package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
	"github.com/sonoloc/sonoloc-assistant/internal/domain/repository"
)

// ApologyText is the only failure surface shown to the end user.
const ApologyText = "Désolé, je rencontre un problème technique pour le moment. Pouvez-vous réessayer dans quelques instants ?"

// maxAttempts bounds the remote generation retries.
const maxAttempts = 3

const chatSystemPrompt = `Tu es le conseiller de SonoLoc, une société de location de matériel événementiel (sonorisation, éclairage, vidéo, mobilier).
Tu réponds en français, avec un ton professionnel et chaleureux.
Tu ne proposes QUE des produits présents dans le catalogue fourni, avec leur nom exact et leur prix TTC.
Si un produit demandé n'est pas au catalogue, dis-le simplement et propose l'alternative la plus proche.
Quand un contexte d'événement est fourni (type, date, budget, catégorie), adapte tes recommandations à ce contexte.`

// GenerationSettings are the immutable generation parameters handed to
// the orchestrator at construction time.
type GenerationSettings struct {
	Temperature     float32
	TopP            float32
	MaxOutputTokens int32

	// ReasoningBudget is sent only when reasoning mode is enabled.
	ReasoningEnabled bool
	ReasoningBudget  int32

	// SearchAnchor biases the model toward a topic when non-empty.
	SearchAnchor string
}

// SendResult is the outcome of one send.
type SendResult struct {
	ResponseText string
	Source       entity.Source
	Err          error
}

// ChatOrchestrator composes event context, history and user input into
// a generation request, calls the remote service with retry and routes
// the result back into the conversation store.
type ChatOrchestrator struct {
	ai          repository.AIRepository
	productRepo repository.ProductRepository
	store       *ConversationStore
	collector   *EventContextCollector
	settings    GenerationSettings
	logger      *slog.Logger

	// sleep is injectable so tests can count backoff waits.
	sleep func(context.Context, time.Duration) error

	sending atomic.Bool

	cacheMu sync.Mutex
	cache   map[string]string
}

// NewChatOrchestrator wires the orchestrator. Settings are fixed for
// the orchestrator's lifetime.
func NewChatOrchestrator(
	ai repository.AIRepository,
	productRepo repository.ProductRepository,
	store *ConversationStore,
	collector *EventContextCollector,
	settings GenerationSettings,
	logger *slog.Logger,
) *ChatOrchestrator {
	return &ChatOrchestrator{
		ai:          ai,
		productRepo: productRepo,
		store:       store,
		collector:   collector,
		settings:    settings,
		logger:      logger,
		sleep:       sleepContext,
		cache:       make(map[string]string),
	}
}

// Sending reports whether a send is in flight. Callers are expected to
// disable input while true; concurrent sends are not serialized here.
func (o *ChatOrchestrator) Sending() bool {
	return o.sending.Load()
}

// Send processes one user message end to end. Blank input is a silent
// no-op returning nil. On remote failure after all retries, a single
// apology message is appended (no source) and Err carries the cause.
func (o *ChatOrchestrator) Send(ctx context.Context, userText string) *SendResult {
	if strings.TrimSpace(userText) == "" {
		return nil
	}

	o.sending.Store(true)
	defer o.sending.Store(false)

	products, err := o.productRepo.GetAll(ctx)
	if err != nil {
		o.logger.Warn("catalog unavailable for this send", "error", err)
		products = nil
	}

	// History is captured before the user message joins the list, then
	// the message is appended so it survives even a failed send.
	history := o.store.HistoryView()
	o.store.Append(ctx, entity.Message{
		ID:                uuid.New().String(),
		Text:              userText,
		Sender:            entity.SenderUser,
		Timestamp:         o.store.now(),
		IsNew:             true,
		MentionedProducts: ExtractMentions(userText, products),
	})

	query := userText
	if ec, ok := o.collector.Current(); ok {
		query = fmt.Sprintf(
			"Contexte: type d'événement %s, date %s, budget %s, catégorie %s.\n\n%s",
			ec.EventType, ec.EventDate, ec.Budget, ec.LocationType, userText,
		)
	}

	if cached, ok := o.cachedResponse(query); ok {
		o.appendBotMessage(ctx, cached, products, entity.SourceCache)
		return &SendResult{ResponseText: cached, Source: entity.SourceCache}
	}

	req := repository.GenerationRequest{
		SystemPrompt:    buildSystemPrompt(products),
		UserQuery:       query,
		History:         history,
		Temperature:     o.settings.Temperature,
		TopP:            o.settings.TopP,
		MaxOutputTokens: o.settings.MaxOutputTokens,
		SearchAnchor:    o.settings.SearchAnchor,
	}
	if o.settings.ReasoningEnabled {
		req.ThinkingBudget = o.settings.ReasoningBudget
	}

	text, err := o.generateWithRetry(ctx, req)
	if err != nil {
		o.logger.Error("remote generation failed", "error", err)
		o.store.Append(ctx, entity.Message{
			ID:        uuid.New().String(),
			Text:      ApologyText,
			Sender:    entity.SenderBot,
			Timestamp: o.store.now(),
			IsNew:     true,
		})
		return &SendResult{ResponseText: ApologyText, Err: err}
	}

	o.storeCachedResponse(query, text)
	o.appendBotMessage(ctx, text, products, entity.SourceRemote)
	return &SendResult{ResponseText: text, Source: entity.SourceRemote}
}

func (o *ChatOrchestrator) appendBotMessage(ctx context.Context, text string, products []entity.Product, source entity.Source) {
	o.store.Append(ctx, entity.Message{
		ID:                uuid.New().String(),
		Text:              text,
		Sender:            entity.SenderBot,
		Timestamp:         o.store.now(),
		IsNew:             true,
		MentionedProducts: ExtractMentions(text, products),
		Source:            source,
	})
}

// generateWithRetry calls the remote service up to maxAttempts times
// with exponential backoff between failures.
func (o *ChatOrchestrator) generateWithRetry(ctx context.Context, req repository.GenerationRequest) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		text, err := o.ai.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if attempt == maxAttempts-1 {
			break
		}
		o.logger.Warn("generation attempt failed, retrying",
			"attempt", attempt+1,
			"delay", backoffDelay(attempt),
			"error", err,
		)
		if err := o.sleep(ctx, backoffDelay(attempt)); err != nil {
			return "", fmt.Errorf("canceled during backoff: %w", err)
		}
	}
	return "", fmt.Errorf("generation failed after %d attempts: %w", maxAttempts, lastErr)
}

// backoffDelay is min(1s * 2^attempt, 10s).
func backoffDelay(attempt int) time.Duration {
	d := time.Second << attempt
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	return d
}

func (o *ChatOrchestrator) cachedResponse(query string) (string, bool) {
	o.cacheMu.Lock()
	defer o.cacheMu.Unlock()
	text, ok := o.cache[query]
	return text, ok
}

func (o *ChatOrchestrator) storeCachedResponse(query, text string) {
	o.cacheMu.Lock()
	defer o.cacheMu.Unlock()
	if len(o.cache) >= 64 {
		// Cheap reset instead of an eviction policy.
		o.cache = make(map[string]string)
	}
	o.cache[query] = text
}

// buildSystemPrompt appends the catalog block to the fixed framing, so
// the model only recommends stocked products.
func buildSystemPrompt(products []entity.Product) string {
	if len(products) == 0 {
		return chatSystemPrompt
	}

	var sb strings.Builder
	sb.WriteString(chatSystemPrompt)
	sb.WriteString("\n\nCATALOGUE DISPONIBLE :\n")

	byCategory := make(map[string][]entity.Product)
	var order []string
	for _, p := range products {
		cat := "Autres"
		if len(p.Categories) > 0 {
			cat = p.Categories[0]
		}
		if _, seen := byCategory[cat]; !seen {
			order = append(order, cat)
		}
		byCategory[cat] = append(byCategory[cat], p)
	}

	for _, cat := range order {
		sb.WriteString(fmt.Sprintf("\n%s :\n", cat))
		for _, p := range byCategory[cat] {
			sb.WriteString(fmt.Sprintf("- %s — %.2f € TTC", p.Name, p.PriceTTC))
			if p.Stock > 0 {
				sb.WriteString(fmt.Sprintf(" (%d en stock)", p.Stock))
			}
			if p.Description != "" {
				sb.WriteString(" · ")
				sb.WriteString(p.Description)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
