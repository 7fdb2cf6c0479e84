package openai

import (
	"context"
	"fmt"

	"github.com/garyjia/asset-tracker/internal/application/port"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Generator implements port.Generator using the OpenAI chat completions API
type Generator struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewGenerator creates a new OpenAI generator. An empty baseURL uses the
// public endpoint.
func NewGenerator(apiKey, baseURL, model string, logger *zap.Logger) *Generator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &Generator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

// Generate sends a single chat completion request
func (g *Generator) Generate(ctx context.Context, req port.GenerateRequest) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
	}
	if req.System != "" {
		chatReq.Messages = append([]openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		}}, chatReq.Messages...)
	}

	resp, err := g.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		g.logger.Error("OpenAI API call failed", zap.String("model", g.model), zap.Error(err))
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	g.logger.Debug("OpenAI response received",
		zap.String("model", g.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return resp.Choices[0].Message.Content, nil
}

// Model returns the configured model name
func (g *Generator) Model() string {
	return g.model
}

var _ port.Generator = (*Generator)(nil)
