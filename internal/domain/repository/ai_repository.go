package repository

import (
	"context"

	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
)

// GenerationRequest is the narrow contract with the remote
// generative-language service.
type GenerationRequest struct {
	SystemPrompt    string
	UserQuery       string
	History         []entity.HistoryEntry
	Temperature     float32
	TopP            float32
	MaxOutputTokens int32

	// ThinkingBudget is an optional token-budget hint for the model's
	// reasoning mode; zero means not requested.
	ThinkingBudget int32

	// SearchAnchor is an optional free-text topic used to bias the
	// model; empty means none.
	SearchAnchor string
}

// AIRepository is the remote generation service.
type AIRepository interface {
	// Generate produces a response for the given request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
