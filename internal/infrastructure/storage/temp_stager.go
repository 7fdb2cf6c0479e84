package storage

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/garyjia/asset-tracker/internal/application/port"
	"go.uber.org/zap"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// TempStager implements port.TempStager with files under dir
// (the system temp directory when dir is empty)
type TempStager struct {
	dir    string
	logger *zap.Logger
}

// NewTempStager creates a new TempStager
func NewTempStager(dir string, logger *zap.Logger) *TempStager {
	return &TempStager{
		dir:    dir,
		logger: logger,
	}
}

// Stage writes content to temp_drive_pdf_<key>_<random>.pdf. Concurrent
// stages of the same key never share a file.
func (s *TempStager) Stage(ctx context.Context, key string, content []byte) (string, func(), error) {
	f, err := os.CreateTemp(s.dir, "temp_drive_pdf_"+unsafeKeyChars.ReplaceAllString(key, "_")+"_*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()

	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove temp file", zap.String("path", path), zap.Error(err))
		}
	}

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	s.logger.Debug("Staged temp file", zap.String("path", path), zap.Int("size", len(content)))
	return path, cleanup, nil
}

var _ port.TempStager = (*TempStager)(nil)
