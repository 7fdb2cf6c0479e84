package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Supported model providers
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Gemini    ProviderConfig  `mapstructure:"gemini"`
	OpenAI    ProviderConfig  `mapstructure:"openai"`
	Anthropic ProviderConfig  `mapstructure:"anthropic"`
	Drive     DriveConfig     `mapstructure:"drive"`
	PDF       PDFConfig       `mapstructure:"pdf"`
	Export    ExportConfig    `mapstructure:"export"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	MaxUploadSize int64         `mapstructure:"max_upload_size"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// MigrationsDir overrides the migrations embedded in the binary
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// LLMConfig selects the model backend and how it is called
type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// Temperature and MaxTokens override the prompt file when set
	Temperature   *float32 `mapstructure:"temperature"`
	MaxTokens     int      `mapstructure:"max_tokens"`
	RatePerMinute int      `mapstructure:"rate_per_minute"`
	PromptsPath   string   `mapstructure:"prompts_path"`
}

// ProviderConfig holds credentials for one model provider
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// DriveConfig holds Google Drive sync configuration
type DriveConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	FolderID        string        `mapstructure:"folder_id"`
	SyncInterval    time.Duration `mapstructure:"sync_interval"`
	SyncTimeout     time.Duration `mapstructure:"sync_timeout"`
	TempDir         string        `mapstructure:"temp_dir"`
}

// PDFConfig tunes the PDF extractors
type PDFConfig struct {
	CellGap float64 `mapstructure:"cell_gap"`
}

// ExportConfig holds export output configuration
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads .env, then the YAML file at configPath when it exists, then
// environment overrides
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModel(cfg.LLM.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.max_upload_size", 32<<20)

	// Database defaults
	v.SetDefault("database.path", "data/invoices.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Model defaults
	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.timeout", 2*time.Minute)
	v.SetDefault("llm.rate_per_minute", 0)

	// Drive defaults
	v.SetDefault("drive.enabled", false)
	v.SetDefault("drive.sync_interval", 15*time.Minute)
	v.SetDefault("drive.sync_timeout", 30*time.Minute)

	v.SetDefault("pdf.cell_gap", 10.0)
	v.SetDefault("export.output_dir", "output/assets")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"gemini.api_key":         "GEMINI_API_KEY",
		"openai.api_key":         "OPENAI_API_KEY",
		"anthropic.api_key":      "ANTHROPIC_API_KEY",
		"drive.credentials_file": "GOOGLE_APPLICATION_CREDENTIALS",
		"drive.folder_id":        "DRIVE_FOLDER_ID",
		"database.path":          "DATABASE_PATH",
		"llm.provider":           "LLM_PROVIDER",
		"llm.model":              "LLM_MODEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// DefaultModel returns the model used when llm.model is not set
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-sonnet-4-5"
	default:
		return "gemini-2.0-flash"
	}
}

// ProviderCredentials returns the credentials of the selected provider
func (c *Config) ProviderCredentials() ProviderConfig {
	switch c.LLM.Provider {
	case ProviderOpenAI:
		return c.OpenAI
	case ProviderAnthropic:
		return c.Anthropic
	default:
		return c.Gemini
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("llm.provider must be one of %s, %s, %s; got %q",
			ProviderGemini, ProviderOpenAI, ProviderAnthropic, c.LLM.Provider)
	}

	if c.ProviderCredentials().APIKey == "" {
		return fmt.Errorf("%s.api_key is required", c.LLM.Provider)
	}

	if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}

	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("llm.max_tokens must not be negative")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.PDF.CellGap <= 0 {
		return fmt.Errorf("pdf.cell_gap must be positive")
	}

	if c.Drive.Enabled && c.Drive.FolderID == "" {
		return fmt.Errorf("drive.folder_id is required when drive sync is enabled")
	}

	return nil
}
