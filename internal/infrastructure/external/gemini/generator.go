// Package gemini provides the Gemini model backend.
package gemini

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/garyjia/asset-tracker/internal/application/port"
)

// Generator implements port.Generator using the Gemini API
type Generator struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGenerator creates the Gemini client once; it is reused across calls.
// An empty baseURL uses the public endpoint.
func NewGenerator(ctx context.Context, apiKey, baseURL, model string, logger *zap.Logger) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Generator{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// Generate sends a single generate-content request
func (g *Generator) Generate(ctx context.Context, req port.GenerateRequest) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	if err != nil {
		g.logger.Error("Gemini API call failed", zap.String("model", g.model), zap.Error(err))
		return "", fmt.Errorf("Gemini API call failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no response from Gemini")
	}

	if resp.UsageMetadata != nil {
		g.logger.Debug("Gemini response received",
			zap.String("model", g.model),
			zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("completion_tokens", resp.UsageMetadata.CandidatesTokenCount))
	}

	return text, nil
}

// Model returns the configured model name
func (g *Generator) Model() string {
	return g.model
}

var _ port.Generator = (*Generator)(nil)
