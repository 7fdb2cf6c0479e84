package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/asset-tracker/internal/application/port"
	"github.com/garyjia/asset-tracker/internal/domain/entity"
	"github.com/garyjia/asset-tracker/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// DriveFileRepository implements port.DriveFileRepository
type DriveFileRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDriveFileRepository creates a new drive file snapshot repository
func NewDriveFileRepository(db *sql.DB, logger *zap.Logger) port.DriveFileRepository {
	return &DriveFileRepository{
		db:     db,
		logger: logger,
	}
}

// List returns the full persisted snapshot ordered by ID
func (r *DriveFileRepository) List(ctx context.Context) ([]entity.DriveFile, error) {
	rows, err := r.getExecutor(ctx).QueryContext(ctx,
		`SELECT id, name, modified_time, pending_extraction FROM drive_files ORDER BY id`)
	if err != nil {
		r.logger.Error("Failed to list drive files", zap.Error(err))
		return nil, fmt.Errorf("failed to list drive files: %w", err)
	}
	defer rows.Close()

	var files []entity.DriveFile
	for rows.Next() {
		var f entity.DriveFile
		if err := rows.Scan(&f.ID, &f.Name, &f.ModifiedTime, &f.Pending); err != nil {
			return nil, fmt.Errorf("failed to scan drive file: %w", err)
		}
		files = append(files, f)
	}

	return files, rows.Err()
}

// Insert adds a snapshot row
func (r *DriveFileRepository) Insert(ctx context.Context, file entity.DriveFile) error {
	_, err := r.getExecutor(ctx).ExecContext(ctx,
		`INSERT INTO drive_files (id, name, modified_time, pending_extraction) VALUES (?, ?, ?, ?)`,
		file.ID, file.Name, file.ModifiedTime, file.Pending)
	if err != nil {
		r.logger.Error("Failed to insert drive file", zap.String("file_id", file.ID), zap.Error(err))
		return fmt.Errorf("failed to insert drive file: %w", sqlite.ConvertError("drive_file="+file.ID, err))
	}
	return nil
}

// Update rewrites the name, modification time and pending flag of a snapshot row
func (r *DriveFileRepository) Update(ctx context.Context, file entity.DriveFile) error {
	_, err := r.getExecutor(ctx).ExecContext(ctx,
		`UPDATE drive_files SET name = ?, modified_time = ?, pending_extraction = ? WHERE id = ?`,
		file.Name, file.ModifiedTime, file.Pending, file.ID)
	if err != nil {
		r.logger.Error("Failed to update drive file", zap.String("file_id", file.ID), zap.Error(err))
		return fmt.Errorf("failed to update drive file: %w", sqlite.ConvertError("drive_file="+file.ID, err))
	}
	return nil
}

// Delete removes a snapshot row
func (r *DriveFileRepository) Delete(ctx context.Context, id string) error {
	_, err := r.getExecutor(ctx).ExecContext(ctx, `DELETE FROM drive_files WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete drive file", zap.String("file_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete drive file: %w", sqlite.ConvertError("drive_file="+id, err))
	}
	return nil
}

func (r *DriveFileRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

// Verify interface compliance
var _ port.DriveFileRepository = (*DriveFileRepository)(nil)
