package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
	"github.com/sonoloc/sonoloc-assistant/internal/domain/repository"
)

const draftSystemPrompt = `Tu rédiges des réponses aux demandes de devis reçues par SonoLoc, société de location de matériel événementiel.
Rédige une réponse professionnelle en français : remercie le client, reformule son besoin, propose le matériel adapté du catalogue avec les prix TTC, et invite à confirmer les dates.
Reste concis, pas de formule pompeuse.`

const descriptionSystemPrompt = `Tu rédiges des descriptions commerciales courtes (3 à 4 phrases) pour les fiches produit du site de SonoLoc.
Mets en avant l'usage événementiel typique du produit. Français uniquement, pas de superlatifs creux.`

// fallbackDraftTemplate is used when the remote service is unavailable
// so an admin always gets a workable starting point.
const fallbackDraftTemplate = `Bonjour,

Merci pour votre demande. Nous avons bien noté votre besoin :

%s

Nous revenons vers vous très vite avec une proposition détaillée et un devis.

L'équipe SonoLoc`

// DraftUseCase covers the response-drafting and description-generation
// flows, which share the remote service with the chatbot but keep their
// own framing.
type DraftUseCase interface {
	// DraftReply generates a quote-reply draft for a customer request.
	// When the remote service fails, a canned template is returned with
	// the fallback source instead of an error.
	DraftReply(ctx context.Context, requestText string) (entity.ResponseDraft, error)

	// DescribeProduct generates a commercial description for a product.
	DescribeProduct(ctx context.Context, productID string) (string, error)

	// SaveDraft persists a draft for later reuse.
	SaveDraft(ctx context.Context, draft entity.ResponseDraft) error

	// ListDrafts returns saved drafts, newest first.
	ListDrafts(ctx context.Context) ([]entity.ResponseDraft, error)

	// DeleteDraft removes a saved draft.
	DeleteDraft(ctx context.Context, id string) error
}

type draftUseCase struct {
	ai          repository.AIRepository
	draftRepo   repository.DraftRepository
	productRepo repository.ProductRepository
	collector   *EventContextCollector
	settings    GenerationSettings
	logger      *slog.Logger
}

// NewDraftUseCase creates the drafting usecase.
func NewDraftUseCase(
	ai repository.AIRepository,
	draftRepo repository.DraftRepository,
	productRepo repository.ProductRepository,
	collector *EventContextCollector,
	settings GenerationSettings,
	logger *slog.Logger,
) DraftUseCase {
	return &draftUseCase{
		ai:          ai,
		draftRepo:   draftRepo,
		productRepo: productRepo,
		collector:   collector,
		settings:    settings,
		logger:      logger,
	}
}

// DraftReply generates a reply draft, falling back to a canned template
// when generation fails.
func (u *draftUseCase) DraftReply(ctx context.Context, requestText string) (entity.ResponseDraft, error) {
	products, err := u.productRepo.GetAll(ctx)
	if err != nil {
		u.logger.Warn("catalog unavailable for draft", "error", err)
	}

	query := requestText
	if ec, ok := u.collector.Current(); ok {
		query = fmt.Sprintf(
			"Contexte: type d'événement %s, date %s, budget %s, catégorie %s.\n\n%s",
			ec.EventType, ec.EventDate, ec.Budget, ec.LocationType, requestText,
		)
	}

	draft := entity.ResponseDraft{
		ID:          uuid.New().String(),
		RequestText: requestText,
		CreatedAt:   time.Now(),
	}

	text, err := u.ai.Generate(ctx, repository.GenerationRequest{
		SystemPrompt:    draftSystemPrompt + "\n\n" + buildSystemPrompt(products),
		UserQuery:       query,
		Temperature:     u.settings.Temperature,
		TopP:            u.settings.TopP,
		MaxOutputTokens: u.settings.MaxOutputTokens,
	})
	if err != nil {
		u.logger.Error("draft generation failed, using fallback template", "error", err)
		draft.DraftText = fmt.Sprintf(fallbackDraftTemplate, requestText)
		draft.Source = entity.SourceFallback
		return draft, nil
	}

	draft.DraftText = text
	draft.Source = entity.SourceRemote
	return draft, nil
}

// DescribeProduct generates a description for one catalog product.
func (u *draftUseCase) DescribeProduct(ctx context.Context, productID string) (string, error) {
	product, err := u.productRepo.GetByID(ctx, productID)
	if err != nil {
		return "", fmt.Errorf("product lookup failed: %w", err)
	}

	query := fmt.Sprintf("Produit : %s\nCatégories : %v\nPrix TTC : %.2f €", product.Name, product.Categories, product.PriceTTC)
	if product.Description != "" {
		query += "\nNotes internes : " + product.Description
	}

	text, err := u.ai.Generate(ctx, repository.GenerationRequest{
		SystemPrompt:    descriptionSystemPrompt,
		UserQuery:       query,
		Temperature:     u.settings.Temperature,
		TopP:            u.settings.TopP,
		MaxOutputTokens: u.settings.MaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("description generation failed: %w", err)
	}
	return text, nil
}

func (u *draftUseCase) SaveDraft(ctx context.Context, draft entity.ResponseDraft) error {
	return u.draftRepo.SaveDraft(ctx, draft)
}

func (u *draftUseCase) ListDrafts(ctx context.Context) ([]entity.ResponseDraft, error) {
	return u.draftRepo.ListDrafts(ctx)
}

func (u *draftUseCase) DeleteDraft(ctx context.Context, id string) error {
	return u.draftRepo.DeleteDraft(ctx, id)
}
