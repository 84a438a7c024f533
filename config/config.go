package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting. It is built once at startup and
// passed into constructors; nothing reads the environment afterwards.
type Config struct {
	TelegramToken string
	GeminiAPIKey  string
	DBPath        string
	CatalogPath   string
	AdminIDs      []int64

	// Generation settings forwarded to the remote service.
	Temperature     float32
	TopP            float32
	MaxOutputTokens int32

	// ReasoningBudget is the token-budget hint sent when reasoning
	// mode is enabled.
	ReasoningEnabled bool
	ReasoningBudget  int32

	// SearchAnchor biases the model toward a topic when set.
	SearchAnchor string
}

// Load reads configuration from the environment (and .env if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		DBPath:          "data/assistant.db",
		CatalogPath:     os.Getenv("CATALOG_PATH"),
		Temperature:     0.3,
		TopP:            0.9,
		MaxOutputTokens: 2048,
		SearchAnchor:    os.Getenv("SEARCH_ANCHOR"),
	}

	if dbPath := os.Getenv("ASSISTANT_DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	if raw := os.Getenv("ADMIN_IDS"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("ADMIN_IDS contains an invalid id: %w", err)
			}
			cfg.AdminIDs = append(cfg.AdminIDs, id)
		}
	}

	if raw := os.Getenv("REASONING_BUDGET"); raw != "" {
		budget, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("REASONING_BUDGET must be an integer: %w", err)
		}
		cfg.ReasoningEnabled = true
		cfg.ReasoningBudget = int32(budget)
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is empty")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is empty")
	}

	return cfg, nil
}
