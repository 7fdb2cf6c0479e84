package service

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/garyjia/asset-tracker/internal/application/port"
	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

// IngestService runs the extraction pipeline over local PDFs and stores the results
type IngestService interface {
	// IngestFile extracts and stores one PDF.
	IngestFile(ctx context.Context, path string) (*entity.InvoiceRecord, error)
	// IngestPaths processes every path in order, continuing past failures.
	// onDone, when set, is called after each file.
	IngestPaths(ctx context.Context, paths []string, onDone func(entity.FileOutcome)) (*entity.IngestReport, error)
}

type ingestServiceImpl struct {
	pipeline port.ExtractionPipeline
	invoices InvoiceService
	logger   Logger
}

// NewIngestService creates a new IngestService
func NewIngestService(pipeline port.ExtractionPipeline, invoices InvoiceService, logger Logger) IngestService {
	return &ingestServiceImpl{
		pipeline: pipeline,
		invoices: invoices,
		logger:   logger,
	}
}

func (s *ingestServiceImpl) IngestFile(ctx context.Context, path string) (*entity.InvoiceRecord, error) {
	rec, err := s.pipeline.Run(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, err := s.invoices.Upsert(ctx, rec, ""); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *ingestServiceImpl) IngestPaths(ctx context.Context, paths []string, onDone func(entity.FileOutcome)) (*entity.IngestReport, error) {
	report := &entity.IngestReport{Files: make([]entity.FileOutcome, 0, len(paths))}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome := entity.FileOutcome{Path: path, Name: filepath.Base(path)}
		rec, err := s.IngestFile(ctx, path)
		if err != nil {
			s.logger.Error("Failed to ingest file", "path", path, "error", err)
			outcome.Action = entity.ActionFailed
			outcome.Error = err.Error()
			report.Failed++
		} else {
			outcome.Action = entity.ActionExtracted
			outcome.InvoiceNumber = entity.String(rec.InvoiceNumber)
			for _, li := range rec.Laptops {
				outcome.Items += li.Units()
			}
			report.Processed++
		}

		report.Files = append(report.Files, outcome)
		if onDone != nil {
			onDone(outcome)
		}
	}

	s.logger.Info("Ingest finished", "processed", report.Processed, "failed", report.Failed)
	return report, nil
}

// CollectPDFs expands directories into the PDF files below them. Explicit
// file arguments are kept as given.
func CollectPDFs(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}

		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", p, err)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}
