package extraction

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/asset-tracker/internal/application/port"
	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

// Pipeline runs block extraction, table extraction, formatting and model
// extraction for one PDF. A failing stage aborts the run.
type Pipeline struct {
	blocks  port.BlockExtractor
	tables  port.TableExtractor
	client  *Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewPipeline creates a pipeline. A positive timeout bounds the model call.
func NewPipeline(blocks port.BlockExtractor, tables port.TableExtractor, client *Client, timeout time.Duration, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		blocks:  blocks,
		tables:  tables,
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

// Run extracts the invoice record from the PDF at path. Stage errors are
// returned unchanged.
func (p *Pipeline) Run(ctx context.Context, path string) (*entity.InvoiceRecord, error) {
	log := p.logger.With(zap.String("path", path))
	log.Info("Starting extraction pipeline")

	blocks, err := p.blocks.ExtractBlocks(ctx, path)
	if err != nil {
		log.Error("Pipeline stage failed", zap.String("stage", "blocks"), zap.Error(err))
		return nil, err
	}
	log.Info("Extracted text blocks", zap.Int("count", len(blocks)))

	tables, err := p.tables.ExtractTables(ctx, path)
	if err != nil {
		log.Error("Pipeline stage failed", zap.String("stage", "tables"), zap.Error(err))
		return nil, err
	}
	log.Info("Extracted tables", zap.Int("count", len(tables)))

	document := FormatForLLM(blocks, tables)

	extractCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	rec, err := p.client.Extract(extractCtx, document)
	if err != nil {
		log.Error("Pipeline stage failed", zap.String("stage", "extract"), zap.Error(err))
		return nil, err
	}

	log.Info("Pipeline completed",
		zap.String("invoice_number", entity.String(rec.InvoiceNumber)))
	return rec, nil
}

var _ port.ExtractionPipeline = (*Pipeline)(nil)
