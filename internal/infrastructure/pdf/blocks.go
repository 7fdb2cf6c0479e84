package pdf

import (
	"context"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/garyjia/asset-tracker/internal/application/port"
	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

// textDocument is the part of a MuPDF document the block extractor reads.
type textDocument interface {
	NumPage() int
	Text(pageNumber int) (string, error)
	Close() error
}

// BlockExtractor implements port.BlockExtractor using MuPDF structured text
type BlockExtractor struct {
	open   func(path string) (textDocument, error)
	logger *zap.Logger
}

// NewBlockExtractor creates a block extractor backed by go-fitz
func NewBlockExtractor(logger *zap.Logger) *BlockExtractor {
	return &BlockExtractor{
		open:   openFitz,
		logger: logger,
	}
}

func openFitz(path string) (textDocument, error) {
	if err := checkPDF(path); err != nil {
		return nil, err
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, &entity.DocumentOpenError{Path: path, Err: err}
	}
	return doc, nil
}

// ExtractBlocks returns the text blocks of every page in reading order.
// Pages that fail are logged and skipped.
func (e *BlockExtractor) ExtractBlocks(ctx context.Context, path string) ([]string, error) {
	doc, err := e.open(path)
	if err != nil {
		e.logger.Error("Failed to open PDF for block extraction",
			zap.String("path", path),
			zap.Error(err))
		return nil, err
	}
	defer doc.Close()

	var blocks []string
	for page := 0; page < doc.NumPage(); page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var text string
		err := guardPage(path, page+1, func() error {
			var err error
			text, err = doc.Text(page)
			return err
		})
		if err != nil {
			e.logger.Warn("Skipping page during block extraction",
				zap.String("path", path),
				zap.Int("page", page+1),
				zap.Error(err))
			continue
		}

		blocks = append(blocks, splitBlocks(text)...)
	}

	e.logger.Debug("Extracted text blocks",
		zap.String("path", path),
		zap.Int("pages", doc.NumPage()),
		zap.Int("blocks", len(blocks)))

	return blocks, nil
}

// splitBlocks splits MuPDF page text into blocks. Blocks are separated by
// blank lines. Spans of a line are joined with single spaces and the lines
// of a block with newlines.
func splitBlocks(text string) []string {
	var blocks []string
	var lines []string

	flush := func() {
		if len(lines) > 0 {
			blocks = append(blocks, strings.Join(lines, "\n"))
			lines = lines[:0]
		}
	}

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		spans := strings.Fields(raw)
		if len(spans) == 0 {
			flush()
			continue
		}
		lines = append(lines, strings.Join(spans, " "))
	}
	flush()

	return blocks
}

var _ port.BlockExtractor = (*BlockExtractor)(nil)
