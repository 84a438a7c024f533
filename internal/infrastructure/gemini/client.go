// Package gemini implements the remote generation service over the
// Google generative-language API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
	"github.com/sonoloc/sonoloc-assistant/internal/domain/repository"
	"google.golang.org/api/option"
)

const modelName = "gemini-2.0-flash"

type geminiClient struct {
	client *genai.Client
	sem    chan struct{}
	mu     sync.Mutex
	last   time.Time
	delay  time.Duration
}

// NewClient creates the Gemini-backed AIRepository. A missing API key
// is a hard configuration error; it is never retried.
func NewClient(apiKey string) (repository.AIRepository, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is not configured")
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &geminiClient{
		client: client,
		sem:    make(chan struct{}, 3), // at most 3 in-flight requests
		delay:  350 * time.Millisecond, // minimum interval between calls
	}, nil
}

// Generate produces a response for one request.
func (g *geminiClient) Generate(ctx context.Context, req repository.GenerationRequest) (string, error) {
	release := g.acquire()
	defer release()

	model := g.client.GenerativeModel(modelName)
	model.SetTemperature(req.Temperature)
	model.SetTopP(req.TopP)
	model.SetMaxOutputTokens(req.MaxOutputTokens)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction(req))},
	}

	var parts []genai.Part
	for _, h := range req.History {
		switch h.Sender {
		case entity.SenderUser:
			parts = append(parts, genai.Text(fmt.Sprintf("Client: %s", h.Text)))
		case entity.SenderBot:
			parts = append(parts, genai.Text(fmt.Sprintf("Toi: %s", h.Text)))
		}
	}
	parts = append(parts, genai.Text(req.UserQuery))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("no response candidates")
	}

	text := extractText(resp)
	if text == "" {
		return "", errors.New("empty response text")
	}
	return text, nil
}

// systemInstruction folds the optional reasoning budget and search
// anchor into the system framing.
func systemInstruction(req repository.GenerationRequest) string {
	instruction := req.SystemPrompt
	if req.SearchAnchor != "" {
		instruction += fmt.Sprintf("\n\nSujet prioritaire pour tes réponses : %s.", req.SearchAnchor)
	}
	if req.ThinkingBudget > 0 {
		instruction += fmt.Sprintf("\n\nLimite ton raisonnement interne à environ %d tokens.", req.ThinkingBudget)
	}
	return instruction
}

func extractText(resp *genai.GenerateContentResponse) string {
	var result strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				result.WriteString(fmt.Sprintf("%v", part))
			}
		}
	}
	return result.String()
}

// acquire enforces the concurrency cap and the minimum call interval.
func (g *geminiClient) acquire() func() {
	g.sem <- struct{}{}
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if !g.last.IsZero() {
		if sleep := g.delay - now.Sub(g.last); sleep > 0 {
			time.Sleep(sleep)
			now = time.Now()
		}
	}
	g.last = now

	return func() {
		<-g.sem
	}
}

// Close releases the underlying client.
func (g *geminiClient) Close() error {
	return g.client.Close()
}
