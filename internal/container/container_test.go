package container

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/asset-tracker/internal/application/extraction"
	"github.com/garyjia/asset-tracker/internal/application/port"
	"github.com/garyjia/asset-tracker/internal/application/service"
	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, req port.GenerateRequest) (string, error) {
	return "", errors.New("not used")
}

func (stubGenerator) Model() string { return "stub-model" }

type stubDrive struct{}

func (stubDrive) ListPDFs(ctx context.Context, folderID string) ([]entity.DriveFile, error) {
	return nil, nil
}

func (stubDrive) Download(ctx context.Context, fileID string) ([]byte, error) {
	return nil, errors.New("not found")
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.LLM.APIKey = "test-key"
	cfg.Export.OutputDir = t.TempDir()
	return cfg
}

func TestNewContainer_Validation(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(testConfig(t), nil)
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.LLM.APIKey = ""
	_, err = NewContainer(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "api key is required")

	cfg = testConfig(t)
	cfg.LLM.Provider = "llama"
	_, err = NewContainer(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported llm provider")
}

func TestContainer_Lifecycle(t *testing.T) {
	cfg := testConfig(t)
	cfg.Drive.Enabled = true
	cfg.Drive.FolderID = "folder-1"
	cfg.Drive.SyncInterval = time.Hour

	c, err := NewContainer(cfg, zap.NewNop(), WithGenerator(stubGenerator{}), WithDriveClient(stubDrive{}))
	require.NoError(t, err)
	assert.False(t, c.Ready())

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(context.Background()))

	services := c.Services()
	require.NotNil(t, services)
	assert.NotNil(t, services.Invoice)
	assert.NotNil(t, services.Ingest)
	assert.NotNil(t, services.Export)
	assert.NotNil(t, services.DriveSync)
	assert.NotNil(t, c.Pipeline())
	assert.Equal(t, "stub-model", c.Generator().Model())

	health := c.Health(context.Background())
	assert.True(t, health.Overall)
	assert.True(t, health.Components["database"].Healthy)
	assert.Equal(t, "stub-model", health.Components["llm"].Message)
	require.Len(t, health.Workers, 1)
	assert.Equal(t, "DriveSyncWorker", health.Workers[0].Name)

	list, err := services.Invoice.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close())
	assert.Error(t, c.Start(context.Background()))
}

func TestContainer_WithoutDrive(t *testing.T) {
	cfg := testConfig(t)
	cfg.DisableWorkers = true

	c, err := NewContainer(cfg, zap.NewNop(), WithGenerator(stubGenerator{}))
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	_, err = c.Services().DriveSync.Sync(context.Background(), "folder-1")
	assert.ErrorIs(t, err, service.ErrDriveNotConfigured)
	assert.Empty(t, c.Workers().Statuses())
	assert.Equal(t, "not configured", c.Health(context.Background()).Components["drive"].Message)
}

func TestProvideGenerator(t *testing.T) {
	gen, err := ProvideGenerator(context.Background(), &LLMConfig{
		Provider:      "openai",
		Model:         "gpt-4o-mini",
		APIKey:        "k",
		RatePerMinute: 60,
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", gen.Model())

	gen, err = ProvideGenerator(context.Background(), &LLMConfig{
		Provider: "anthropic",
		Model:    "claude-sonnet-4-5",
		APIKey:   "k",
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5", gen.Model())

	_, err = ProvideGenerator(context.Background(), &LLMConfig{Provider: "llama"}, zap.NewNop())
	assert.Error(t, err)
}

func TestApplyPromptOverrides(t *testing.T) {
	prompts, err := extraction.DefaultPrompts()
	require.NoError(t, err)
	defaults := prompts.InvoiceExtraction

	applyPromptOverrides(prompts, &LLMConfig{})
	assert.Equal(t, defaults.Temperature, prompts.InvoiceExtraction.Temperature)
	assert.Equal(t, defaults.MaxTokens, prompts.InvoiceExtraction.MaxTokens)

	zero := float32(0)
	applyPromptOverrides(prompts, &LLMConfig{Temperature: &zero, MaxTokens: 1024})
	assert.Zero(t, prompts.InvoiceExtraction.Temperature)
	assert.Equal(t, 1024, prompts.InvoiceExtraction.MaxTokens)
}
