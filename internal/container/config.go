// Package container provides dependency injection and lifecycle management
// for the asset tracker.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Model backend configuration
	LLM LLMConfig

	// Google Drive configuration
	Drive DriveConfig

	// PDF extractor configuration
	PDF PDFConfig

	// Export configuration
	Export ExportConfig

	// Server configuration
	Server ServerConfig

	// DisableWorkers keeps background workers from starting, for one-shot CLI runs
	DisableWorkers bool
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// MigrationsDir replaces the embedded migrations when set
	MigrationsDir string
}

// LLMConfig holds model backend settings.
type LLMConfig struct {
	// Provider is one of gemini, openai, anthropic
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	// Timeout bounds one full pipeline run
	Timeout time.Duration

	// Temperature and MaxTokens replace the prompt file values when set
	Temperature *float32
	MaxTokens   int

	// RatePerMinute caps model calls; zero means unlimited
	RatePerMinute int

	// PromptsPath overlays a YAML prompt file on the built-in prompt
	PromptsPath string
}

// DriveConfig holds Google Drive settings.
type DriveConfig struct {
	// Enabled schedules the periodic sync worker
	Enabled bool

	CredentialsFile string
	FolderID        string
	SyncInterval    time.Duration
	SyncTimeout     time.Duration

	// TempDir holds downloaded PDFs while they are extracted
	TempDir string
}

// PDFConfig holds PDF extractor settings.
type PDFConfig struct {
	// CellGap is the horizontal gap in points that splits table cells
	CellGap float64
}

// ExportConfig holds export settings.
type ExportConfig struct {
	// OutputDir receives exported files
	OutputDir string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server
	WriteTimeout time.Duration

	// MaxUploadSize caps uploaded PDF size in bytes
	MaxUploadSize int64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/invoices.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
			Timeout:  2 * time.Minute,
		},
		Drive: DriveConfig{
			SyncInterval: 15 * time.Minute,
			SyncTimeout:  30 * time.Minute,
		},
		PDF: PDFConfig{
			CellGap: 10,
		},
		Export: ExportConfig{
			OutputDir: "output/assets",
		},
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          8080,
			ReadTimeout:   30 * time.Second,
			WriteTimeout:  5 * time.Minute,
			MaxUploadSize: 32 << 20,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.LLM.Provider {
	case "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%s api key is required", c.LLM.Provider)
	}

	if c.PDF.CellGap <= 0 {
		return fmt.Errorf("pdf.cell_gap must be positive")
	}

	if c.Drive.Enabled && c.Drive.FolderID == "" {
		return fmt.Errorf("drive.folder_id is required when drive sync is enabled")
	}

	return nil
}
