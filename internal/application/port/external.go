package port

import (
	"context"

	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

// GenerateRequest is a single-turn prompt for a generative model
type GenerateRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Generator defines text generation against a model backend.
// Implementations make exactly one call per Generate.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Model() string
}

// BlockExtractor recovers layout text blocks from a PDF
type BlockExtractor interface {
	ExtractBlocks(ctx context.Context, path string) ([]string, error)
}

// TableExtractor recovers tables from a PDF
type TableExtractor interface {
	ExtractTables(ctx context.Context, path string) ([]entity.Table, error)
}

// DriveClient defines the remote folder operations used by drive sync
type DriveClient interface {
	// ListPDFs lists every PDF below the folder, descending into subfolders.
	ListPDFs(ctx context.Context, folderID string) ([]entity.DriveFile, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// ExtractionPipeline turns one PDF into an invoice record
type ExtractionPipeline interface {
	Run(ctx context.Context, path string) (*entity.InvoiceRecord, error)
}
