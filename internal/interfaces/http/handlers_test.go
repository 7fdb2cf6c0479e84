package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/asset-tracker/internal/application/service"
	"github.com/garyjia/asset-tracker/internal/domain/entity"
	"github.com/garyjia/asset-tracker/internal/infrastructure/storage"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockInvoiceService struct {
	service.InvoiceService
	records []*entity.InvoiceRecord
	err     error
}

func (m *mockInvoiceService) List(ctx context.Context) ([]*entity.InvoiceRecord, error) {
	return m.records, m.err
}

func (m *mockInvoiceService) Get(ctx context.Context, number string) (*entity.InvoiceRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, rec := range m.records {
		if entity.String(rec.InvoiceNumber) == number {
			return rec, nil
		}
	}
	return nil, nil
}

type mockIngestService struct {
	service.IngestService
	paths []string
	rec   *entity.InvoiceRecord
	err   error
}

func (m *mockIngestService) IngestFile(ctx context.Context, path string) (*entity.InvoiceRecord, error) {
	m.paths = append(m.paths, path)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(content, []byte("%PDF")) {
		return nil, &entity.DocumentOpenError{Path: path, Err: errors.New("not a PDF")}
	}
	return m.rec, m.err
}

type mockPipeline struct {
	calls int
	rec   *entity.InvoiceRecord
}

func (m *mockPipeline) Run(ctx context.Context, path string) (*entity.InvoiceRecord, error) {
	m.calls++
	return m.rec, nil
}

type mockExportService struct {
	err error
}

func (m *mockExportService) JSON(ctx context.Context, w io.Writer) error {
	if m.err != nil {
		return m.err
	}
	_, err := io.WriteString(w, `[{"laptop_model":"XPS 13"}]`)
	return err
}

func (m *mockExportService) CSV(ctx context.Context, w io.Writer) error {
	if m.err != nil {
		return m.err
	}
	_, err := io.WriteString(w, "invoice_number\nINV-1\n")
	return err
}

func (m *mockExportService) XLSX(ctx context.Context, w io.Writer) error {
	if m.err != nil {
		return m.err
	}
	_, err := io.WriteString(w, "PK")
	return err
}

func (m *mockExportService) WriteFiles(ctx context.Context, dir string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []string{"out/" + service.ExportJSONFile}, nil
}

type mockDriveSync struct {
	service.DriveSyncService
	folder       string
	listed       []entity.DriveFile
	unconfigured bool
	err          error
}

func (m *mockDriveSync) ReconcileFiles(ctx context.Context, current []entity.DriveFile) (entity.DriveDiff, error) {
	m.listed = current
	if m.err != nil {
		return entity.DriveDiff{}, m.err
	}
	return entity.DiffDriveFiles([]entity.DriveFile{{ID: "old"}, {ID: "a", Name: "a.pdf"}}, current), nil
}

func (m *mockDriveSync) Sync(ctx context.Context, folderID string) (*entity.SyncReport, error) {
	m.folder = folderID
	if m.unconfigured {
		return nil, service.ErrDriveNotConfigured
	}
	if m.err != nil {
		return nil, m.err
	}
	return &entity.SyncReport{RunID: "run-1", FolderID: folderID, Extracted: 2}, nil
}

type fixture struct {
	invoices *mockInvoiceService
	ingest   *mockIngestService
	pipeline *mockPipeline
	export   *mockExportService
	drive    *mockDriveSync
	healthy  bool
	router   *gin.Engine
}

func newFixture(t *testing.T, withDrive bool) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := &entity.InvoiceRecord{InvoiceNumber: entity.StringPtr("INV-1")}
	f := &fixture{
		invoices: &mockInvoiceService{records: []*entity.InvoiceRecord{rec}},
		ingest:   &mockIngestService{rec: rec},
		pipeline: &mockPipeline{rec: rec},
		export:   &mockExportService{},
		drive:    &mockDriveSync{unconfigured: !withDrive},
		healthy:  true,
	}

	services := Services{
		Invoices:  f.invoices,
		Ingest:    f.ingest,
		Export:    f.export,
		DriveSync: f.drive,
		Pipeline:  f.pipeline,
		Stager:    storage.NewTempStager(t.TempDir(), zap.NewNop()),
		Health: func(ctx context.Context) (bool, interface{}) {
			return f.healthy, map[string]string{"database": "ok"}
		},
	}

	cfg := DefaultServerConfig()
	cfg.MaxUploadSize = 1024
	f.router = NewServer(cfg, services, nopLogger{}).Router()
	return f
}

func (f *fixture) do(req *http.Request) (*httptest.ResponseRecorder, Response) {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func uploadRequest(t *testing.T, target, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, false)

	w, resp := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	f.healthy = false
	w, resp = f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, w.Body.String(), "degraded")
}

func TestExtractInvoice(t *testing.T) {
	f := newFixture(t, false)

	w, resp := f.do(uploadRequest(t, "/api/invoices/extract", "inv.pdf", []byte("%PDF-1.7 body")))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, resp.Success)
	assert.Contains(t, w.Body.String(), `"Invoice Number":"INV-1"`)

	require.Len(t, f.ingest.paths, 1)
	_, err := os.Stat(f.ingest.paths[0])
	assert.True(t, os.IsNotExist(err), "staged upload should be removed")
	assert.Zero(t, f.pipeline.calls)
}

func TestExtractInvoice_WithoutPersist(t *testing.T) {
	f := newFixture(t, false)

	w, _ := f.do(uploadRequest(t, "/api/invoices/extract?persist=false", "inv.pdf", []byte("%PDF-1.7")))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.pipeline.calls)
	assert.Empty(t, f.ingest.paths)

	w, _ = f.do(uploadRequest(t, "/api/invoices/extract?persist=maybe", "inv.pdf", []byte("%PDF-1.7")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, f.pipeline.calls)
}

func TestExtractInvoice_Errors(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		ingestErr  error
		wantStatus int
	}{
		{
			name: "missing file field",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/invoices/extract", nil)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "too large",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/api/invoices/extract", "big.pdf", bytes.Repeat([]byte("x"), 2048))
			},
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name: "not a pdf",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/api/invoices/extract", "notes.pdf", []byte("hello"))
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "model response without envelope",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/api/invoices/extract", "inv.pdf", []byte("%PDF"))
			},
			ingestErr:  &entity.SchemaEnvelopeError{Response: "sorry"},
			wantStatus: http.StatusBadGateway,
		},
		{
			name: "conflict",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/api/invoices/extract", "inv.pdf", []byte("%PDF"))
			},
			ingestErr:  fmt.Errorf("upsert: %w", &entity.PersistenceConflictError{Key: "INV-1", Err: errors.New("locked")}),
			wantStatus: http.StatusConflict,
		},
		{
			name: "timeout",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/api/invoices/extract", "inv.pdf", []byte("%PDF"))
			},
			ingestErr:  fmt.Errorf("pipeline: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			f.ingest.err = tt.ingestErr

			w, resp := f.do(tt.req(t))
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestInvoiceReads(t *testing.T) {
	f := newFixture(t, false)

	w, resp := f.do(httptest.NewRequest(http.MethodGet, "/api/invoices", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Len(t, resp.Data, 1)

	w, _ = f.do(httptest.NewRequest(http.MethodGet, "/api/invoices/INV-1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(httptest.NewRequest(http.MethodGet, "/api/invoices/INV-404", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	f.invoices.err = errors.New("disk I/O error")
	w, _ = f.do(httptest.NewRequest(http.MethodGet, "/api/invoices", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSyncDrive(t *testing.T) {
	f := newFixture(t, false)
	w, _ := f.do(httptest.NewRequest(http.MethodPost, "/api/drive/sync", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	f = newFixture(t, true)
	w, resp := f.do(httptest.NewRequest(http.MethodPost, "/api/drive/sync", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Empty(t, f.drive.folder)

	w, _ = f.do(httptest.NewRequest(http.MethodPost, "/api/drive/sync", strings.NewReader(`{"folder_id":"abc"}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", f.drive.folder)
	assert.Contains(t, w.Body.String(), `"run_id":"run-1"`)

	w, _ = f.do(httptest.NewRequest(http.MethodPost, "/api/drive/sync", strings.NewReader(`{bad`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.drive.err = service.ErrSyncInProgress
	w, _ = f.do(httptest.NewRequest(http.MethodPost, "/api/drive/sync", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReconcileFiles(t *testing.T) {
	body := `{"files":[{"id":"a","name":"a.pdf","modified_time":null},{"id":"b","name":"b.pdf","modified_time":"2024-03-01T10:00:00Z"}]}`

	// reconciling a supplied listing never needs a Drive client
	f := newFixture(t, false)
	w, resp := f.do(httptest.NewRequest(http.MethodPost, "/api/drive/files/reconcile", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, resp.Success)
	require.Len(t, f.drive.listed, 2)
	assert.NotNil(t, f.drive.listed[1].ModifiedTime)

	var got struct {
		Data ReconcileResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, []string{"old"}, got.Data.Removed)
	assert.Equal(t, []string{"b"}, got.Data.Added)
	assert.Empty(t, got.Data.Changed)
	assert.Equal(t, 1, got.Data.Unchanged)

	w, _ = f.do(httptest.NewRequest(http.MethodPost, "/api/drive/files/reconcile", strings.NewReader(`{"files":[{"name":"x.pdf"}]}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(httptest.NewRequest(http.MethodPost, "/api/drive/files/reconcile", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.drive.err = service.ErrSyncInProgress
	w, _ = f.do(httptest.NewRequest(http.MethodPost, "/api/drive/files/reconcile", strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestExport(t *testing.T) {
	f := newFixture(t, false)

	w, _ := f.do(httptest.NewRequest(http.MethodGet, "/api/export/csv", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), service.ExportCSVFile)
	assert.Equal(t, "invoice_number\nINV-1\n", w.Body.String())

	w, _ = f.do(httptest.NewRequest(http.MethodGet, "/api/export/xlsx", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), service.ExportXLSXFile)

	w, _ = f.do(httptest.NewRequest(http.MethodGet, "/api/export/pdf", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := f.do(httptest.NewRequest(http.MethodPost, "/api/export", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Contains(t, w.Body.String(), service.ExportJSONFile)

	f.export.err = errors.New("database is closed")
	w, resp = f.do(httptest.NewRequest(http.MethodGet, "/api/export/json", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "database is closed", resp.Error)
}
