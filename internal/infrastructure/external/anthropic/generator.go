package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/garyjia/asset-tracker/internal/application/port"
)

const defaultMaxTokens = 4096

// Generator implements port.Generator using the Anthropic messages API
type Generator struct {
	messages anthropic.MessageService
	model    string
	logger   *zap.Logger
}

// NewGenerator creates a new Anthropic generator. An empty baseURL uses the
// public endpoint.
func NewGenerator(apiKey, baseURL, model string, logger *zap.Logger) *Generator {
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}

	return &Generator{
		messages: anthropic.NewMessageService(options...),
		model:    model,
		logger:   logger,
	}
}

// Generate sends a single message request and joins its text blocks
func (g *Generator) Generate(ctx context.Context, req port.GenerateRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(float64(req.Temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := g.messages.New(ctx, params)
	if err != nil {
		g.logger.Error("Anthropic API call failed", zap.String("model", g.model), zap.Error(err))
		return "", fmt.Errorf("Anthropic API call failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no response from Anthropic")
	}

	g.logger.Debug("Anthropic response received",
		zap.String("model", g.model),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens))

	return sb.String(), nil
}

// Model returns the configured model name
func (g *Generator) Model() string {
	return g.model
}

var _ port.Generator = (*Generator)(nil)
