package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/asset-tracker/internal/application/service"
	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

// Syncer runs one drive reconciliation pass
type Syncer interface {
	Sync(ctx context.Context, folderID string) (*entity.SyncReport, error)
}

// DriveSyncWorkerConfig holds configuration for the drive sync worker
type DriveSyncWorkerConfig struct {
	FolderID     string
	Interval     time.Duration
	RunTimeout   time.Duration
	RunOnStartup bool
}

// DefaultDriveSyncWorkerConfig returns default configuration
func DefaultDriveSyncWorkerConfig() DriveSyncWorkerConfig {
	return DriveSyncWorkerConfig{
		Interval:     15 * time.Minute,
		RunTimeout:   30 * time.Minute,
		RunOnStartup: true,
	}
}

// DriveSyncWorker periodically reconciles the configured Drive folder.
// Runs happen on one goroutine, so ticks that arrive during a run are dropped.
type DriveSyncWorker struct {
	config DriveSyncWorkerConfig
	syncer Syncer
	logger *zap.Logger

	mu        sync.RWMutex
	cancel    context.CancelFunc
	done      chan struct{}
	isRunning bool
	lastRun   time.Time
	runs      int
	lastError error
}

// NewDriveSyncWorker creates a new drive sync worker
func NewDriveSyncWorker(config DriveSyncWorkerConfig, syncer Syncer, logger *zap.Logger) *DriveSyncWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultDriveSyncWorkerConfig().Interval
	}
	return &DriveSyncWorker{
		config: config,
		syncer: syncer,
		logger: logger,
	}
}

// Start begins the sync loop
func (w *DriveSyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("drive sync worker already running")
	}

	var loopCtx context.Context
	loopCtx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("DriveSyncWorker started",
		zap.String("folder_id", w.config.FolderID),
		zap.Duration("interval", w.config.Interval))

	go w.loop(loopCtx)

	return nil
}

// Stop cancels the loop and waits for an in-flight run to return
func (w *DriveSyncWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	w.logger.Info("DriveSyncWorker stopped", zap.Int("runs", w.Status().Runs))
	return nil
}

// Name returns the worker name for identification
func (w *DriveSyncWorker) Name() string {
	return "DriveSyncWorker"
}

// Status reports the last run of the worker
func (w *DriveSyncWorker) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()

	s := Status{
		Name:    w.Name(),
		Running: w.isRunning,
		LastRun: w.lastRun,
		Runs:    w.runs,
	}
	if w.lastError != nil {
		s.LastError = w.lastError.Error()
	}
	return s
}

func (w *DriveSyncWorker) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	if w.config.RunOnStartup {
		w.runOnce(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Sync loop context cancelled")
			return

		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *DriveSyncWorker) runOnce(ctx context.Context) {
	runCtx := ctx
	if w.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, w.config.RunTimeout)
		defer cancel()
	}

	report, err := w.syncer.Sync(runCtx, w.config.FolderID)
	if errors.Is(err, service.ErrSyncInProgress) {
		w.logger.Info("Drive sync already in progress, skipping tick")
		return
	}

	w.mu.Lock()
	w.lastRun = time.Now()
	w.runs++
	w.lastError = err
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("Drive sync failed", zap.Error(err))
		return
	}

	w.logger.Info("Drive sync completed",
		zap.String("run_id", report.RunID),
		zap.Int("extracted", report.Extracted),
		zap.Int("removed", report.Removed),
		zap.Int("failed", report.Failed))
}
