package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/asset-tracker/internal/application/port"
	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

var (
	// ErrSyncInProgress is returned when a sync or reconcile is requested
	// while one is running
	ErrSyncInProgress = errors.New("drive sync already in progress")

	// ErrDriveNotConfigured is returned by Sync when no Drive client exists
	ErrDriveNotConfigured = errors.New("drive sync is not configured")
)

// DriveSyncService keeps the store in step with a Drive folder
type DriveSyncService interface {
	// ReconcileFiles brings the file snapshot in line with current and
	// returns the diff it applied. Removed files lose their invoices; changed
	// and added files are marked pending for the next Sync to extract.
	ReconcileFiles(ctx context.Context, current []entity.DriveFile) (entity.DriveDiff, error)
	// Sync lists folderID, re-extracts new and changed PDFs and drops data
	// for files that are gone. An empty folderID uses the configured folder.
	Sync(ctx context.Context, folderID string) (*entity.SyncReport, error)
}

type driveSyncServiceImpl struct {
	drive         port.DriveClient
	fileRepo      port.DriveFileRepository
	invoices      InvoiceService
	pipeline      port.ExtractionPipeline
	stager        port.TempStager
	txManager     port.TransactionManager
	defaultFolder string
	logger        Logger

	running sync.Mutex
}

// NewDriveSyncService creates a new DriveSyncService
func NewDriveSyncService(
	drive port.DriveClient,
	fileRepo port.DriveFileRepository,
	invoices InvoiceService,
	pipeline port.ExtractionPipeline,
	stager port.TempStager,
	txManager port.TransactionManager,
	defaultFolder string,
	logger Logger,
) DriveSyncService {
	return &driveSyncServiceImpl{
		drive:         drive,
		fileRepo:      fileRepo,
		invoices:      invoices,
		pipeline:      pipeline,
		stager:        stager,
		txManager:     txManager,
		defaultFolder: defaultFolder,
		logger:        logger,
	}
}

// ReconcileFiles diffs the full persisted snapshot against current and
// writes only the removed, changed and added rows
func (s *driveSyncServiceImpl) ReconcileFiles(ctx context.Context, current []entity.DriveFile) (entity.DriveDiff, error) {
	if !s.running.TryLock() {
		return entity.DriveDiff{}, ErrSyncInProgress
	}
	defer s.running.Unlock()

	var (
		diff     entity.DriveDiff
		invoices int
	)
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		persisted, err := s.fileRepo.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to load drive file snapshot: %w", err)
		}

		diff = entity.DiffDriveFiles(persisted, current)

		for _, f := range diff.Removed {
			n, err := s.invoices.DeleteBySourceFile(ctx, f.ID)
			if err != nil {
				return err
			}
			invoices += n
			if err := s.fileRepo.Delete(ctx, f.ID); err != nil {
				return err
			}
		}
		for _, f := range diff.Changed {
			f.Pending = true
			if err := s.fileRepo.Update(ctx, f); err != nil {
				return err
			}
		}
		for _, f := range diff.Added {
			f.Pending = true
			if err := s.fileRepo.Insert(ctx, f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to reconcile drive files", "error", err)
		return entity.DriveDiff{}, err
	}

	s.logger.Info("Drive files reconciled",
		"removed", len(diff.Removed),
		"invoices_removed", invoices,
		"changed", len(diff.Changed),
		"added", len(diff.Added),
		"unchanged", len(diff.Unchanged))

	return diff, nil
}

// Sync runs one reconciliation pass. Per-file failures are recorded in the
// report and leave that file's snapshot untouched so the next run retries it.
func (s *driveSyncServiceImpl) Sync(ctx context.Context, folderID string) (*entity.SyncReport, error) {
	if !s.running.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.running.Unlock()

	if s.drive == nil {
		return nil, ErrDriveNotConfigured
	}
	if folderID == "" {
		folderID = s.defaultFolder
	}
	if folderID == "" {
		return nil, fmt.Errorf("drive folder id is required")
	}

	report := &entity.SyncReport{
		RunID:     uuid.New().String(),
		FolderID:  folderID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Files:     []entity.FileOutcome{},
	}
	s.logger.Info("Starting drive sync", "run_id", report.RunID, "folder_id", folderID)

	current, err := s.drive.ListPDFs(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list drive folder: %w", err)
	}
	report.Listed = len(current)

	persisted, err := s.fileRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load drive file snapshot: %w", err)
	}

	diff := entity.DiffDriveFiles(persisted, current)

	// a pending row matches the listing but was never extracted
	pending := make(map[string]bool)
	for _, f := range persisted {
		if f.Pending {
			pending[f.ID] = true
		}
	}
	var unchanged []entity.DriveFile
	for _, f := range diff.Unchanged {
		if pending[f.ID] {
			diff.Changed = append(diff.Changed, f)
			continue
		}
		unchanged = append(unchanged, f)
	}
	diff.Unchanged = unchanged

	for _, f := range diff.Removed {
		if err := ctx.Err(); err != nil {
			return s.finish(report), err
		}
		report.Files = append(report.Files, s.removeFile(ctx, f))
	}

	for _, f := range diff.Unchanged {
		report.Files = append(report.Files, entity.FileOutcome{
			FileID: f.ID,
			Name:   f.Name,
			State:  entity.FileUnchanged.String(),
			Action: entity.ActionSkipped,
		})
	}

	for _, f := range diff.Changed {
		if err := ctx.Err(); err != nil {
			return s.finish(report), err
		}
		report.Files = append(report.Files, s.extractFile(ctx, f, entity.FileChanged))
	}
	for _, f := range diff.Added {
		if err := ctx.Err(); err != nil {
			return s.finish(report), err
		}
		report.Files = append(report.Files, s.extractFile(ctx, f, entity.FileNew))
	}

	return s.finish(report), nil
}

func (s *driveSyncServiceImpl) finish(report *entity.SyncReport) *entity.SyncReport {
	report.Extracted, report.Removed, report.Skipped, report.Failed = 0, 0, 0, 0
	for _, o := range report.Files {
		switch o.Action {
		case entity.ActionExtracted:
			report.Extracted++
		case entity.ActionRemoved:
			report.Removed++
		case entity.ActionSkipped:
			report.Skipped++
		case entity.ActionFailed:
			report.Failed++
		}
	}
	report.FinishedAt = time.Now().UTC().Format(time.RFC3339)

	s.logger.Info("Drive sync finished",
		"run_id", report.RunID,
		"listed", report.Listed,
		"extracted", report.Extracted,
		"removed", report.Removed,
		"skipped", report.Skipped,
		"failed", report.Failed)

	return report
}

func (s *driveSyncServiceImpl) removeFile(ctx context.Context, f entity.DriveFile) entity.FileOutcome {
	outcome := entity.FileOutcome{
		FileID: f.ID,
		Name:   f.Name,
		State:  entity.FileAbsent.String(),
	}

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.invoices.DeleteBySourceFile(ctx, f.ID); err != nil {
			return err
		}
		return s.fileRepo.Delete(ctx, f.ID)
	})
	if err != nil {
		s.logger.Error("Failed to remove drive file data", "file_id", f.ID, "name", f.Name, "error", err)
		outcome.Action = entity.ActionFailed
		outcome.Error = err.Error()
		return outcome
	}

	s.logger.Info("Removed data for deleted drive file", "file_id", f.ID, "name", f.Name)
	outcome.Action = entity.ActionRemoved
	return outcome
}

func (s *driveSyncServiceImpl) extractFile(ctx context.Context, f entity.DriveFile, state entity.FileState) entity.FileOutcome {
	outcome := entity.FileOutcome{
		FileID: f.ID,
		Name:   f.Name,
		State:  state.String(),
	}

	invoice, items, err := s.processFile(ctx, f, state)
	if err != nil {
		s.logger.Error("Failed to process drive file",
			"file_id", f.ID,
			"name", f.Name,
			"state", state.String(),
			"error", err)
		outcome.Action = entity.ActionFailed
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Action = entity.ActionExtracted
	outcome.InvoiceNumber = entity.String(invoice.InvoiceNumber)
	outcome.Items = items
	return outcome
}

func (s *driveSyncServiceImpl) processFile(ctx context.Context, f entity.DriveFile, state entity.FileState) (*entity.Invoice, int, error) {
	content, err := s.drive.Download(ctx, f.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to download file: %w", err)
	}

	path, cleanup, err := s.stager.Stage(ctx, f.ID, content)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to stage file: %w", err)
	}
	defer cleanup()

	rec, err := s.pipeline.Run(ctx, path)
	if err != nil {
		return nil, 0, err
	}

	var invoice *entity.Invoice
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		invoice, err = s.invoices.ReplaceSourceFile(ctx, f.ID, rec)
		if err != nil {
			return err
		}
		if state == entity.FileNew {
			return s.fileRepo.Insert(ctx, f)
		}
		return s.fileRepo.Update(ctx, f)
	})
	if err != nil {
		return nil, 0, err
	}

	units := 0
	for _, li := range rec.Laptops {
		units += li.Units()
	}
	return invoice, units, nil
}
