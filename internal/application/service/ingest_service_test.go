package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

func TestIngestService_IngestPaths(t *testing.T) {
	store := newTestStore(t)
	pipeline := &mockPipeline{runFunc: func(ctx context.Context, path string) (*entity.InvoiceRecord, error) {
		switch path {
		case "a.pdf":
			return record("INV-A", laptop("Latitude", 2, "SN-A")), nil
		case "c.pdf":
			return record("INV-C", laptop("ThinkPad", 1, "SN-C")), nil
		default:
			return nil, &entity.SchemaEnvelopeError{Response: "sorry"}
		}
	}}
	svc := NewIngestService(pipeline, store.invoiceService(), nopLogger{})

	var seen []string
	report, err := svc.IngestPaths(context.Background(), []string{"a.pdf", "b.pdf", "c.pdf"}, func(o entity.FileOutcome) {
		seen = append(seen, o.Path)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, seen)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, "INV-A", report.Files[0].InvoiceNumber)
	assert.Equal(t, 2, report.Files[0].Items)
	assert.True(t, report.Files[1].Failed())

	items, err := store.items.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestIngestService_StopsOnCancel(t *testing.T) {
	pipeline := &mockPipeline{runFunc: func(ctx context.Context, path string) (*entity.InvoiceRecord, error) {
		return nil, errors.New("unreachable")
	}}
	svc := NewIngestService(pipeline, &mockInvoiceService{}, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.IngestPaths(ctx, []string{"a.pdf"}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Files)
}

func TestCollectPDFs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	for _, name := range []string{"b.pdf", "a.PDF", "notes.txt", filepath.Join("sub", "c.pdf")} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	single := filepath.Join(dir, "notes.txt")

	paths, err := CollectPDFs([]string{dir, single})

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.PDF"),
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "sub", "c.pdf"),
		single,
	}, paths)

	_, err = CollectPDFs([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}
