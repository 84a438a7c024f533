package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sonoloc/sonoloc-assistant/config"
	"github.com/sonoloc/sonoloc-assistant/internal/delivery/telegram"
	"github.com/sonoloc/sonoloc-assistant/internal/infrastructure/gemini"
	"github.com/sonoloc/sonoloc-assistant/internal/infrastructure/parser"
	"github.com/sonoloc/sonoloc-assistant/internal/infrastructure/storage"
	"github.com/sonoloc/sonoloc-assistant/internal/usecase"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil && err != context.Canceled {
		logger.Error("assistant stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	productRepo := storage.NewMemoryProductRepository()
	catalogParser := parser.NewExcelCatalogParser()
	products := usecase.NewProductUseCase(productRepo, catalogParser, logger)

	if cfg.CatalogPath != "" {
		count, err := products.LoadCatalogFile(ctx, cfg.CatalogPath)
		if err != nil {
			// The bot still runs; admins can upload a catalog later.
			logger.Warn("catalog preload failed", "path", cfg.CatalogPath, "error", err)
		} else {
			logger.Info("catalog preloaded", "products", count)
		}
	}

	ai, err := gemini.NewClient(cfg.GeminiAPIKey)
	if err != nil {
		return err
	}
	defer func() {
		if closer, ok := ai.(io.Closer); ok {
			closer.Close()
		}
	}()

	conversation := usecase.NewConversationStore(ctx, store, logger)
	collector := usecase.NewEventContextCollector(ctx, store, conversation, logger)
	suggestions := usecase.NewSuggestionEngine(nil)

	settings := usecase.GenerationSettings{
		Temperature:      cfg.Temperature,
		TopP:             cfg.TopP,
		MaxOutputTokens:  cfg.MaxOutputTokens,
		ReasoningEnabled: cfg.ReasoningEnabled,
		ReasoningBudget:  cfg.ReasoningBudget,
		SearchAnchor:     cfg.SearchAnchor,
	}

	orchestrator := usecase.NewChatOrchestrator(ai, productRepo, conversation, collector, settings, logger)
	drafts := usecase.NewDraftUseCase(ai, store, productRepo, collector, settings, logger)

	handler, err := telegram.NewBotHandler(
		cfg.TelegramToken,
		cfg.AdminIDs,
		orchestrator,
		conversation,
		collector,
		suggestions,
		products,
		drafts,
		logger,
	)
	if err != nil {
		return err
	}

	return handler.Start(ctx)
}
