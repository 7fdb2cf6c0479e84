package config

import (
	"github.com/garyjia/asset-tracker/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	creds := c.ProviderCredentials()

	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		LLM: container.LLMConfig{
			Provider:      c.LLM.Provider,
			Model:         c.LLM.Model,
			APIKey:        creds.APIKey,
			BaseURL:       creds.BaseURL,
			Timeout:       c.LLM.Timeout,
			Temperature:   c.LLM.Temperature,
			MaxTokens:     c.LLM.MaxTokens,
			RatePerMinute: c.LLM.RatePerMinute,
			PromptsPath:   c.LLM.PromptsPath,
		},
		Drive: container.DriveConfig{
			Enabled:         c.Drive.Enabled,
			CredentialsFile: c.Drive.CredentialsFile,
			FolderID:        c.Drive.FolderID,
			SyncInterval:    c.Drive.SyncInterval,
			SyncTimeout:     c.Drive.SyncTimeout,
			TempDir:         c.Drive.TempDir,
		},
		PDF: container.PDFConfig{
			CellGap: c.PDF.CellGap,
		},
		Export: container.ExportConfig{
			OutputDir: c.Export.OutputDir,
		},
		Server: container.ServerConfig{
			Host:          c.Server.Host,
			Port:          c.Server.Port,
			ReadTimeout:   c.Server.ReadTimeout,
			WriteTimeout:  c.Server.WriteTimeout,
			MaxUploadSize: c.Server.MaxUploadSize,
		},
	}
}
