// Package telegram delivers the assistant over a Telegram bot.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
	"github.com/sonoloc/sonoloc-assistant/internal/usecase"
)

// briefStage tracks progress through the /contexte collection flow.
type briefStage int

const (
	stageNeedType briefStage = iota
	stageNeedDate
	stageNeedBudget
	stageNeedCategory
)

type briefSession struct {
	Stage briefStage
	Draft entity.EventContext
}

// BotHandler routes Telegram updates to the usecases.
type BotHandler struct {
	bot          *tgbotapi.BotAPI
	adminIDs     []int64
	orchestrator *usecase.ChatOrchestrator
	store        *usecase.ConversationStore
	collector    *usecase.EventContextCollector
	suggestions  *usecase.SuggestionEngine
	products     usecase.ProductUseCase
	drafts       usecase.DraftUseCase
	logger       *slog.Logger

	mu              sync.Mutex
	briefSessions   map[int64]*briefSession
	awaitingQuote   map[int64]bool
	lastSuggestions map[int64][]string
}

// NewBotHandler creates the bot and its routing state.
func NewBotHandler(
	token string,
	adminIDs []int64,
	orchestrator *usecase.ChatOrchestrator,
	store *usecase.ConversationStore,
	collector *usecase.EventContextCollector,
	suggestions *usecase.SuggestionEngine,
	products usecase.ProductUseCase,
	drafts usecase.DraftUseCase,
	logger *slog.Logger,
) (*BotHandler, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &BotHandler{
		bot:             bot,
		adminIDs:        adminIDs,
		orchestrator:    orchestrator,
		store:           store,
		collector:       collector,
		suggestions:     suggestions,
		products:        products,
		drafts:          drafts,
		logger:          logger,
		briefSessions:   make(map[int64]*briefSession),
		awaitingQuote:   make(map[int64]bool),
		lastSuggestions: make(map[int64][]string),
	}, nil
}

// Start runs the update loop until the context is canceled.
func (h *BotHandler) Start(ctx context.Context) error {
	h.logger.Info("bot started", "username", h.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("bot stopping")
			return ctx.Err()
		case update := <-updates:
			if update.CallbackQuery != nil {
				go h.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil {
				continue
			}
			go h.handleMessage(ctx, update.Message)
		}
	}
}

func (h *BotHandler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.Document != nil {
		h.handleCatalogUpload(ctx, msg)
		return
	}

	if msg.IsCommand() {
		h.handleCommand(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if h.inBriefFlow(chatID) {
		h.advanceBrief(ctx, chatID, text)
		return
	}
	if h.takeAwaitingQuote(chatID) {
		h.handleQuoteRequest(ctx, chatID, text)
		return
	}

	h.handleChat(ctx, chatID, text)
}

func (h *BotHandler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		h.reply(chatID, usecase.WelcomeText)
		h.sendSuggestions(ctx, chatID)
	case "reset":
		h.store.Reset(ctx)
		h.collector.Clear(ctx)
		h.clearChatState(chatID)
		h.reply(chatID, usecase.WelcomeText)
	case "contexte":
		h.mu.Lock()
		h.briefSessions[chatID] = &briefSession{Stage: stageNeedType}
		h.mu.Unlock()
		h.reply(chatID, "Parlons de votre événement ! Quel type d'événement organisez-vous ? (mariage, concert, séminaire…)")
	case "recherche":
		h.handleSearch(ctx, chatID, msg.CommandArguments())
	case "devis":
		if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
			h.handleQuoteRequest(ctx, chatID, args)
			return
		}
		h.mu.Lock()
		h.awaitingQuote[chatID] = true
		h.mu.Unlock()
		h.reply(chatID, "Collez la demande de devis du client, je vous prépare un brouillon de réponse.")
	case "brouillons":
		h.handleListDrafts(ctx, chatID)
	case "description":
		h.handleDescription(ctx, chatID, msg.CommandArguments())
	default:
		h.reply(chatID, "Commande inconnue. Essayez /contexte, /recherche, /devis ou /reset.")
	}
}

func (h *BotHandler) handleChat(ctx context.Context, chatID int64, text string) {
	if h.orchestrator.Sending() {
		h.reply(chatID, "Un instant, je termine la réponse précédente…")
		return
	}

	typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := h.bot.Request(typing); err != nil {
		h.logger.Debug("failed to send typing action", "error", err)
	}

	result := h.orchestrator.Send(ctx, text)
	if result == nil {
		return
	}
	h.reply(chatID, result.ResponseText)
	h.sendSuggestions(ctx, chatID)
}

// sendSuggestions recomputes the follow-up questions and shows them as
// an inline keyboard.
func (h *BotHandler) sendSuggestions(ctx context.Context, chatID int64) {
	products, err := h.products.GetAll(ctx)
	if err != nil {
		h.logger.Warn("failed to load catalog for suggestions", "error", err)
	}

	suggestions := h.suggestions.Compute(products, h.store.HistoryView())
	if len(suggestions) == 0 {
		return
	}

	h.mu.Lock()
	h.lastSuggestions[chatID] = suggestions
	h.mu.Unlock()

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(suggestions))
	for i, s := range suggestions {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(s, fmt.Sprintf("sugg:%d", i)),
		))
	}

	out := tgbotapi.NewMessage(chatID, "Questions suggérées :")
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := h.bot.Send(out); err != nil {
		h.logger.Warn("failed to send suggestions", "error", err)
	}
}

func (h *BotHandler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		h.logger.Debug("failed to answer callback", "error", err)
	}
	if cb.Message == nil || !strings.HasPrefix(cb.Data, "sugg:") {
		return
	}

	idx, err := strconv.Atoi(strings.TrimPrefix(cb.Data, "sugg:"))
	if err != nil {
		return
	}

	chatID := cb.Message.Chat.ID
	h.mu.Lock()
	suggestions := h.lastSuggestions[chatID]
	h.mu.Unlock()
	if idx < 0 || idx >= len(suggestions) {
		return
	}

	h.reply(chatID, "➡️ "+suggestions[idx])
	h.handleChat(ctx, chatID, suggestions[idx])
}

// advanceBrief walks the four-step event-context collection. Blank
// messages never reach this point; they are dropped by the router.
func (h *BotHandler) advanceBrief(ctx context.Context, chatID int64, answer string) {
	h.mu.Lock()
	session := h.briefSessions[chatID]
	h.mu.Unlock()
	if session == nil {
		return
	}

	switch session.Stage {
	case stageNeedType:
		session.Draft.EventType = answer
		session.Stage = stageNeedDate
		h.reply(chatID, "À quelle date aura lieu l'événement ?")
	case stageNeedDate:
		session.Draft.EventDate = answer
		session.Stage = stageNeedBudget
		h.reply(chatID, "Quel est votre budget ? (ex. 1000€ - 3000€)")
	case stageNeedBudget:
		session.Draft.Budget = answer
		session.Stage = stageNeedCategory
		h.reply(chatID, "Quelle catégorie de matériel vous intéresse ? (Sonorisation, Éclairage, Vidéo…)")
	case stageNeedCategory:
		session.Draft.LocationType = answer
		if !h.collector.Submit(ctx, session.Draft) {
			h.reply(chatID, "Il manque une information, reprenons. Quel type d'événement organisez-vous ?")
			session.Stage = stageNeedType
			session.Draft = entity.EventContext{}
			return
		}
		h.mu.Lock()
		delete(h.briefSessions, chatID)
		h.mu.Unlock()
		// The collector already appended its confirmation message.
		messages := h.store.CurrentList()
		h.reply(chatID, messages[len(messages)-1].Text)
		h.sendSuggestions(ctx, chatID)
	}
}

func (h *BotHandler) handleSearch(ctx context.Context, chatID int64, query string) {
	query = strings.TrimSpace(strings.TrimPrefix(query, "@"))
	if query == "" {
		h.reply(chatID, "Utilisation : /recherche <nom de produit>")
		return
	}

	results, err := h.products.Search(ctx, query)
	if err != nil {
		h.logger.Error("product search failed", "error", err)
		h.reply(chatID, usecase.ApologyText)
		return
	}
	if len(results) == 0 {
		h.reply(chatID, fmt.Sprintf("Aucun produit ne correspond à « %s ».", query))
		return
	}

	var sb strings.Builder
	sb.WriteString("Produits trouvés :\n")
	for i, p := range results {
		if i == 10 {
			break
		}
		sb.WriteString(fmt.Sprintf("• %s — %.2f € TTC\n", p.Name, p.PriceTTC))
	}
	h.reply(chatID, sb.String())
}

func (h *BotHandler) handleQuoteRequest(ctx context.Context, chatID int64, requestText string) {
	draft, err := h.drafts.DraftReply(ctx, requestText)
	if err != nil {
		h.logger.Error("draft reply failed", "error", err)
		h.reply(chatID, usecase.ApologyText)
		return
	}
	if err := h.drafts.SaveDraft(ctx, draft); err != nil {
		h.logger.Warn("failed to save draft", "error", err)
	}

	header := "Voici un brouillon de réponse"
	if draft.Source == entity.SourceFallback {
		header += " (modèle de secours, le service de génération est indisponible)"
	}
	h.reply(chatID, fmt.Sprintf("%s :\n\n%s", header, draft.DraftText))
}

func (h *BotHandler) handleListDrafts(ctx context.Context, chatID int64) {
	drafts, err := h.drafts.ListDrafts(ctx)
	if err != nil {
		h.logger.Error("failed to list drafts", "error", err)
		h.reply(chatID, usecase.ApologyText)
		return
	}
	if len(drafts) == 0 {
		h.reply(chatID, "Aucun brouillon enregistré. Utilisez /devis pour en créer un.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Brouillons enregistrés :\n")
	for i, d := range drafts {
		if i == 10 {
			break
		}
		excerpt := d.RequestText
		if len(excerpt) > 60 {
			excerpt = excerpt[:60] + "…"
		}
		sb.WriteString(fmt.Sprintf("• %s — %s\n", d.CreatedAt.Format("02/01 15:04"), excerpt))
	}
	h.reply(chatID, sb.String())
}

func (h *BotHandler) handleDescription(ctx context.Context, chatID int64, args string) {
	query := strings.TrimSpace(args)
	if query == "" {
		h.reply(chatID, "Utilisation : /description <nom de produit>")
		return
	}

	results, err := h.products.Search(ctx, query)
	if err != nil || len(results) == 0 {
		h.reply(chatID, fmt.Sprintf("Aucun produit ne correspond à « %s ».", query))
		return
	}

	description, err := h.drafts.DescribeProduct(ctx, results[0].ID)
	if err != nil {
		h.logger.Error("description generation failed", "error", err)
		h.reply(chatID, usecase.ApologyText)
		return
	}
	h.reply(chatID, fmt.Sprintf("Description proposée pour %s :\n\n%s", results[0].Name, description))
}

// handleCatalogUpload replaces the catalog from an admin-provided
// Excel file.
func (h *BotHandler) handleCatalogUpload(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !h.isAdmin(msg.From.ID) {
		h.reply(chatID, "Seuls les administrateurs peuvent mettre à jour le catalogue.")
		return
	}

	url, err := h.bot.GetFileDirectURL(msg.Document.FileID)
	if err != nil {
		h.logger.Error("failed to resolve file url", "error", err)
		h.reply(chatID, "Impossible de récupérer le fichier, réessayez.")
		return
	}

	resp, err := http.Get(url)
	if err != nil {
		h.logger.Error("failed to download catalog file", "error", err)
		h.reply(chatID, "Impossible de télécharger le fichier, réessayez.")
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.logger.Error("failed to read catalog file", "error", err)
		h.reply(chatID, "Impossible de lire le fichier, réessayez.")
		return
	}

	count, err := h.products.ImportCatalog(ctx, data, msg.Document.FileName)
	if err != nil {
		h.logger.Error("catalog import failed", "error", err)
		h.reply(chatID, fmt.Sprintf("Échec de l'import : %v", err))
		return
	}
	h.reply(chatID, fmt.Sprintf("Catalogue mis à jour : %d produits importés ✅", count))
}

func (h *BotHandler) isAdmin(userID int64) bool {
	for _, id := range h.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (h *BotHandler) inBriefFlow(chatID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.briefSessions[chatID] != nil
}

func (h *BotHandler) takeAwaitingQuote(chatID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	waiting := h.awaitingQuote[chatID]
	delete(h.awaitingQuote, chatID)
	return waiting
}

func (h *BotHandler) clearChatState(chatID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.briefSessions, chatID)
	delete(h.awaitingQuote, chatID)
	delete(h.lastSuggestions, chatID)
}

func (h *BotHandler) reply(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.logger.Warn("failed to send message", "error", err)
	}
}
