package extraction

import (
	"context"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/garyjia/asset-tracker/internal/application/port"
	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

// Client asks a generative model for the invoice record of a formatted
// document. Every call is a single attempt.
type Client struct {
	generator port.Generator
	prompts   *PromptConfig
	schema    *jsonschema.Schema
	logger    *zap.Logger
}

// NewClient creates an extraction client. A nil prompts uses the defaults.
func NewClient(generator port.Generator, prompts *PromptConfig, logger *zap.Logger) (*Client, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if prompts == nil {
		var err error
		if prompts, err = DefaultPrompts(); err != nil {
			return nil, err
		}
	}

	schema, err := compileRecordSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile record schema: %w", err)
	}

	return &Client{
		generator: generator,
		prompts:   prompts,
		schema:    schema,
		logger:    logger,
	}, nil
}

// ExtractRaw returns the decoded JSON object from the model response.
// It fails with *entity.SchemaEnvelopeError when the response has no fenced
// JSON block and with *entity.MalformedJSONError when the block is not JSON.
func (c *Client) ExtractRaw(ctx context.Context, document string) (map[string]any, error) {
	prompt, err := c.prompts.Render(document)
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt: %w", err)
	}

	c.logger.Debug("Sending extraction prompt",
		zap.String("model", c.generator.Model()),
		zap.Int("document_length", len(document)))

	response, err := c.generator.Generate(ctx, port.GenerateRequest{
		System:      c.prompts.InvoiceExtraction.System,
		Prompt:      prompt,
		Temperature: c.prompts.InvoiceExtraction.Temperature,
		MaxTokens:   c.prompts.InvoiceExtraction.MaxTokens,
	})
	if err != nil {
		c.logger.Error("Model call failed",
			zap.String("model", c.generator.Model()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to call model: %w", err)
	}

	payload, err := extractEnvelope(response)
	if err != nil {
		c.logger.Error("Model response did not contain a JSON block",
			zap.String("response", response))
		return nil, err
	}

	obj, err := parseObject(payload)
	if err != nil {
		c.logger.Error("Failed to parse JSON from model response",
			zap.String("raw", payload),
			zap.Error(err))
		return nil, err
	}

	if err := c.schema.Validate(obj); err != nil {
		c.logger.Warn("Model output does not match the record schema",
			zap.Error(err))
	}

	return obj, nil
}

// Extract returns the coerced invoice record for a formatted document.
func (c *Client) Extract(ctx context.Context, document string) (*entity.InvoiceRecord, error) {
	obj, err := c.ExtractRaw(ctx, document)
	if err != nil {
		return nil, err
	}

	rec := entity.RecordFromMap(obj)
	for _, w := range rec.Warnings {
		c.logger.Warn("Discarded model value", zap.String("detail", w))
	}
	c.logger.Info("Extracted invoice record",
		zap.String("invoice_number", entity.String(rec.InvoiceNumber)),
		zap.Int("laptops", len(rec.Laptops)))

	return rec, nil
}
