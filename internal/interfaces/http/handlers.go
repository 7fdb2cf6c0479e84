package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/asset-tracker/internal/application/service"
	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services      Services
	maxUploadSize int64
	logger        Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, maxUploadSize int64, logger Logger) *Handlers {
	return &Handlers{
		services:      services,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string      `json:"status"`
	Timestamp string      `json:"timestamp"`
	Details   interface{} `json:"details,omitempty"`
}

// SyncRequest is the optional body of POST /api/drive/sync
type SyncRequest struct {
	FolderID string `json:"folder_id"`
}

// ReconcileRequest is the body of POST /api/drive/files/reconcile
type ReconcileRequest struct {
	Files []entity.DriveFile `json:"files" binding:"required"`
}

// ReconcileResponse lists the ids in each diff bucket
type ReconcileResponse struct {
	Removed   []string `json:"removed"`
	Changed   []string `json:"changed"`
	Added     []string `json:"added"`
	Unchanged int      `json:"unchanged"`
}

type exportFormat struct {
	contentType string
	filename    string
	render      func(service.ExportService, context.Context, io.Writer) error
}

var exportFormats = map[string]exportFormat{
	"json": {"application/json", service.ExportJSONFile, service.ExportService.JSON},
	"csv":  {"text/csv; charset=utf-8", service.ExportCSVFile, service.ExportService.CSV},
	"xlsx": {
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		service.ExportXLSXFile,
		service.ExportService.XLSX,
	},
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	healthy, details := true, interface{}(nil)
	if h.services.Health != nil {
		healthy, details = h.services.Health(c.Request.Context())
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Details:   details,
	}
	status := http.StatusOK
	if !healthy {
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, Response{
		Success: healthy,
		Data:    response,
	})
}

// ExtractInvoice handles POST /api/invoices/extract. The PDF is sent as the
// multipart field "file"; persist=false returns the record without storing it.
func (h *Handlers) ExtractInvoice(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "multipart field \"file\" is required",
		})
		return
	}
	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, Response{
			Success: false,
			Error:   "file exceeds upload limit",
		})
		return
	}

	persist, err := strconv.ParseBool(c.DefaultQuery("persist", "true"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "persist must be true or false"})
		return
	}

	src, err := file.Open()
	if err != nil {
		h.logger.Error("Failed to open upload", "filename", file.Filename, "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "failed to read upload"})
		return
	}
	content, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		h.logger.Error("Failed to read upload", "filename", file.Filename, "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "failed to read upload"})
		return
	}

	ctx := c.Request.Context()
	path, cleanup, err := h.services.Stager.Stage(ctx, "upload_"+filepath.Base(file.Filename), content)
	if err != nil {
		h.logger.Error("Failed to stage upload", "filename", file.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to stage upload"})
		return
	}
	defer cleanup()

	var rec *entity.InvoiceRecord
	if persist {
		rec, err = h.services.Ingest.IngestFile(ctx, path)
	} else {
		rec, err = h.services.Pipeline.Run(ctx, path)
	}
	if err != nil {
		h.logger.Error("Failed to extract invoice", "filename", file.Filename, "error", err)
		h.fail(c, err)
		return
	}

	h.logger.Info("Invoice extracted",
		"filename", file.Filename,
		"invoice_number", entity.String(rec.InvoiceNumber),
		"persist", persist)

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    rec,
	})
}

// ListInvoices handles GET /api/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	records, err := h.services.Invoices.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list invoices", "error", err)
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    records,
	})
}

// GetInvoice handles GET /api/invoices/:number
func (h *Handlers) GetInvoice(c *gin.Context) {
	number := c.Param("number")

	rec, err := h.services.Invoices.Get(c.Request.Context(), number)
	if err != nil {
		h.logger.Error("Failed to get invoice", "invoice_number", number, "error", err)
		h.fail(c, err)
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "invoice not found",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    rec,
	})
}

// SyncDrive handles POST /api/drive/sync
func (h *Handlers) SyncDrive(c *gin.Context) {
	if h.services.DriveSync == nil {
		c.JSON(http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "drive sync is not configured",
		})
		return
	}

	var req SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
			return
		}
	}

	report, err := h.services.DriveSync.Sync(c.Request.Context(), req.FolderID)
	if err != nil {
		h.logger.Error("Drive sync failed", "folder_id", req.FolderID, "error", err)
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    report,
	})
}

// ReconcileFiles handles POST /api/drive/files/reconcile. The body is a full
// listing; the stored file snapshot is brought in line with it without
// calling Drive or running any extraction.
func (h *Handlers) ReconcileFiles(c *gin.Context) {
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	for _, f := range req.Files {
		if f.ID == "" {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "every file needs an id"})
			return
		}
	}

	diff, err := h.services.DriveSync.ReconcileFiles(c.Request.Context(), req.Files)
	if err != nil {
		h.logger.Error("File reconciliation failed", "files", len(req.Files), "error", err)
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: ReconcileResponse{
			Removed:   fileIDs(diff.Removed),
			Changed:   fileIDs(diff.Changed),
			Added:     fileIDs(diff.Added),
			Unchanged: len(diff.Unchanged),
		},
	})
}

func fileIDs(files []entity.DriveFile) []string {
	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	return ids
}

// Export handles GET /api/export/:format for json, csv and xlsx
func (h *Handlers) Export(c *gin.Context) {
	format, ok := exportFormats[c.Param("format")]
	if !ok {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "format must be one of json, csv, xlsx",
		})
		return
	}

	// rendered fully first so a failure still gets a JSON error body
	var buf bytes.Buffer
	if err := format.render(h.services.Export, c.Request.Context(), &buf); err != nil {
		h.logger.Error("Failed to render export", "format", c.Param("format"), "error", err)
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+format.filename+"\"")
	c.Data(http.StatusOK, format.contentType, buf.Bytes())
}

// WriteExports handles POST /api/export, writing every format to the
// export directory
func (h *Handlers) WriteExports(c *gin.Context) {
	paths, err := h.services.Export.WriteFiles(c.Request.Context(), "")
	if err != nil {
		h.logger.Error("Failed to write exports", "error", err)
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    gin.H{"files": paths},
	})
}

func (h *Handlers) fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), Response{
		Success: false,
		Error:   err.Error(),
	})
}

// statusFor maps pipeline and persistence errors to HTTP status codes
func statusFor(err error) int {
	var (
		openErr     *entity.DocumentOpenError
		envelopeErr *entity.SchemaEnvelopeError
		jsonErr     *entity.MalformedJSONError
		conflictErr *entity.PersistenceConflictError
	)

	switch {
	case errors.As(err, &openErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &envelopeErr), errors.As(err, &jsonErr):
		return http.StatusBadGateway
	case errors.As(err, &conflictErr), errors.Is(err, service.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrDriveNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
