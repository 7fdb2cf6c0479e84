package container

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/garyjia/asset-tracker/internal/application/extraction"
	"github.com/garyjia/asset-tracker/internal/application/port"
	"github.com/garyjia/asset-tracker/internal/application/service"
	"github.com/garyjia/asset-tracker/internal/infrastructure/external/anthropic"
	"github.com/garyjia/asset-tracker/internal/infrastructure/external/gdrive"
	"github.com/garyjia/asset-tracker/internal/infrastructure/external/gemini"
	"github.com/garyjia/asset-tracker/internal/infrastructure/external/limiter"
	"github.com/garyjia/asset-tracker/internal/infrastructure/external/openai"
	"github.com/garyjia/asset-tracker/internal/infrastructure/pdf"
	"github.com/garyjia/asset-tracker/internal/infrastructure/persistence/repository"
	"github.com/garyjia/asset-tracker/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/asset-tracker/internal/infrastructure/storage"
	"github.com/garyjia/asset-tracker/internal/infrastructure/worker"
	"github.com/garyjia/asset-tracker/migrations"
	"github.com/garyjia/asset-tracker/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	SqlDB          *sql.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the database and runs pending migrations, from
// MigrationsDir when set and from the embedded set otherwise.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	var migrationFS fs.FS = migrations.FS
	if cfg.MigrationsDir != "" {
		migrationFS = os.DirFS(cfg.MigrationsDir)
	}

	if err := database.NewMigrator(db, logger).RunMigrations(migrationFS); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		SqlDB:          db.DB,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Invoice:    repository.NewInvoiceRepository(sqlDB, logger),
		LaptopItem: repository.NewLaptopItemRepository(sqlDB, logger),
		DriveFile:  repository.NewDriveFileRepository(sqlDB, logger),
	}, nil
}

// ProvideGenerator creates the model backend selected by cfg.Provider,
// rate limited when cfg.RatePerMinute is positive.
func ProvideGenerator(ctx context.Context, cfg *LLMConfig, logger *zap.Logger) (port.Generator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("llm config is required")
	}

	var gen port.Generator
	switch cfg.Provider {
	case "gemini":
		g, err := gemini.NewGenerator(ctx, cfg.APIKey, cfg.BaseURL, cfg.Model, logger)
		if err != nil {
			return nil, err
		}
		gen = g
	case "openai":
		gen = openai.NewGenerator(cfg.APIKey, cfg.BaseURL, cfg.Model, logger)
	case "anthropic":
		gen = anthropic.NewGenerator(cfg.APIKey, cfg.BaseURL, cfg.Model, logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}

	if l := limiter.PerMinute(cfg.RatePerMinute); l != nil {
		gen = limiter.NewGenerator(l, gen)
	}

	logger.Info("Model backend configured",
		zap.String("provider", cfg.Provider),
		zap.String("model", gen.Model()),
		zap.Int("rate_per_minute", cfg.RatePerMinute))

	return gen, nil
}

// ProvidePipeline wires both PDF extractors and the extraction client
// around gen.
func ProvidePipeline(llm *LLMConfig, pdfCfg *PDFConfig, gen port.Generator, logger *zap.Logger) (*extraction.Pipeline, error) {
	prompts, err := extraction.LoadPrompts(llm.PromptsPath)
	if err != nil {
		return nil, err
	}
	applyPromptOverrides(prompts, llm)

	client, err := extraction.NewClient(gen, prompts, logger)
	if err != nil {
		return nil, err
	}

	return extraction.NewPipeline(
		pdf.NewBlockExtractor(logger),
		pdf.NewTableExtractor(pdfCfg.CellGap, logger),
		client,
		llm.Timeout,
		logger,
	), nil
}

func applyPromptOverrides(prompts *extraction.PromptConfig, llm *LLMConfig) {
	if llm.Temperature != nil {
		prompts.InvoiceExtraction.Temperature = *llm.Temperature
	}
	if llm.MaxTokens > 0 {
		prompts.InvoiceExtraction.MaxTokens = llm.MaxTokens
	}
}

// ProvideDriveClient creates the Drive client. It returns nil when neither
// scheduled sync nor a credentials file is configured.
func ProvideDriveClient(ctx context.Context, cfg *DriveConfig, logger *zap.Logger) (port.DriveClient, error) {
	if !cfg.Enabled && cfg.CredentialsFile == "" {
		return nil, nil
	}
	client, err := gdrive.NewClient(ctx, cfg.CredentialsFile, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Pipeline  port.ExtractionPipeline
	Drive     port.DriveClient
	DriveCfg  *DriveConfig
	ExportCfg *ExportConfig
	Logger    *zap.Logger
}

// ProvideServices creates all application services. Without a Drive client
// the drive sync service still reconciles listings but cannot Sync.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	logger := &zapLoggerAdapter{logger: deps.Logger}
	stager := storage.NewTempStager(deps.DriveCfg.TempDir, deps.Logger)

	invoices := service.NewInvoiceService(
		deps.Repos.Invoice,
		deps.Repos.LaptopItem,
		deps.TxManager,
		logger,
	)

	bundle := &ServiceBundle{
		Invoice: invoices,
		Ingest:  service.NewIngestService(deps.Pipeline, invoices, logger),
		Export: service.NewExportService(
			deps.Repos.Invoice,
			deps.Repos.LaptopItem,
			storage.NewLocalFileStorage(deps.ExportCfg.OutputDir, deps.Logger),
			logger,
		),
		DriveSync: service.NewDriveSyncService(
			deps.Drive,
			deps.Repos.DriveFile,
			invoices,
			deps.Pipeline,
			stager,
			deps.TxManager,
			deps.DriveCfg.FolderID,
			logger,
		),
		Stager: stager,
	}

	return bundle, nil
}

// ProvideWorkers creates the worker manager and registers the drive sync
// worker when scheduled sync is enabled.
func ProvideWorkers(cfg *DriveConfig, services *ServiceBundle, logger *zap.Logger) (*worker.WorkerManager, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	manager := worker.NewWorkerManager(logger)

	if cfg.Enabled {
		if services == nil {
			return nil, fmt.Errorf("services are required")
		}

		workerCfg := worker.DefaultDriveSyncWorkerConfig()
		workerCfg.FolderID = cfg.FolderID
		if cfg.SyncInterval > 0 {
			workerCfg.Interval = cfg.SyncInterval
		}
		if cfg.SyncTimeout > 0 {
			workerCfg.RunTimeout = cfg.SyncTimeout
		}

		manager.Register(worker.NewDriveSyncWorker(workerCfg, services.DriveSync, logger))
	}

	return manager, nil
}
