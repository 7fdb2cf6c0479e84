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

const laptopItemColumns = `id, invoice_id, laptop_model, processor, ram, storage, model_color,
	screen_size, laptop_os, laptop_os_version, laptop_serial_number, warranty_months,
	laptop_price, quantity, is_retired, created_at`

// LaptopItemRepository implements port.LaptopItemRepository
type LaptopItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLaptopItemRepository creates a new laptop item repository
func NewLaptopItemRepository(db *sql.DB, logger *zap.Logger) port.LaptopItemRepository {
	return &LaptopItemRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a laptop unit and sets its ID
func (r *LaptopItemRepository) Create(ctx context.Context, item *entity.LaptopItem) error {
	query := `
		INSERT INTO laptop_items (
			invoice_id, laptop_model, processor, ram, storage, model_color,
			screen_size, laptop_os, laptop_os_version, laptop_serial_number,
			warranty_months, laptop_price, quantity, is_retired
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		item.InvoiceID,
		item.Model,
		item.Processor,
		item.RAM,
		item.Storage,
		item.Color,
		item.ScreenSize,
		item.OS,
		item.OSVersion,
		item.SerialNumber,
		item.WarrantyMonths,
		item.Price,
		item.Quantity,
		item.IsRetired,
	)
	if err != nil {
		r.logger.Error("Failed to create laptop item",
			zap.String("serial", entity.String(item.SerialNumber)),
			zap.Error(err))
		return fmt.Errorf("failed to create laptop item: %w",
			sqlite.ConvertError("laptop_serial_number="+entity.String(item.SerialNumber), err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	item.ID = id
	return nil
}

// GetBySerial retrieves the unit with the given serial number
func (r *LaptopItemRepository) GetBySerial(ctx context.Context, serial string) (*entity.LaptopItem, error) {
	query := `SELECT ` + laptopItemColumns + ` FROM laptop_items WHERE laptop_serial_number = ?`

	item, err := scanLaptopItem(r.getExecutor(ctx).QueryRowContext(ctx, query, serial))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get laptop item by serial",
			zap.String("serial", serial),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get laptop item: %w", err)
	}

	return item, nil
}

// ListByInvoice returns the units linked to an invoice
func (r *LaptopItemRepository) ListByInvoice(ctx context.Context, invoiceID int64) ([]*entity.LaptopItem, error) {
	query := `SELECT ` + laptopItemColumns + ` FROM laptop_items WHERE invoice_id = ? ORDER BY id`
	return r.list(ctx, query, invoiceID)
}

// List returns every unit in insertion order
func (r *LaptopItemRepository) List(ctx context.Context) ([]*entity.LaptopItem, error) {
	query := `SELECT ` + laptopItemColumns + ` FROM laptop_items ORDER BY id`
	return r.list(ctx, query)
}

func (r *LaptopItemRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.LaptopItem, error) {
	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list laptop items", zap.Error(err))
		return nil, fmt.Errorf("failed to list laptop items: %w", err)
	}
	defer rows.Close()

	var items []*entity.LaptopItem
	for rows.Next() {
		item, err := scanLaptopItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan laptop item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// Update rewrites every column of an existing unit
func (r *LaptopItemRepository) Update(ctx context.Context, item *entity.LaptopItem) error {
	query := `
		UPDATE laptop_items
		SET invoice_id = ?, laptop_model = ?, processor = ?, ram = ?, storage = ?,
			model_color = ?, screen_size = ?, laptop_os = ?, laptop_os_version = ?,
			laptop_serial_number = ?, warranty_months = ?, laptop_price = ?,
			quantity = ?, is_retired = ?
		WHERE id = ?
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		item.InvoiceID,
		item.Model,
		item.Processor,
		item.RAM,
		item.Storage,
		item.Color,
		item.ScreenSize,
		item.OS,
		item.OSVersion,
		item.SerialNumber,
		item.WarrantyMonths,
		item.Price,
		item.Quantity,
		item.IsRetired,
		item.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update laptop item", zap.Int64("id", item.ID), zap.Error(err))
		return fmt.Errorf("failed to update laptop item: %w",
			sqlite.ConvertError("laptop_serial_number="+entity.String(item.SerialNumber), err))
	}

	return nil
}

// DeleteByInvoice removes every unit linked to an invoice
func (r *LaptopItemRepository) DeleteByInvoice(ctx context.Context, invoiceID int64) error {
	_, err := r.getExecutor(ctx).ExecContext(ctx, `DELETE FROM laptop_items WHERE invoice_id = ?`, invoiceID)
	if err != nil {
		r.logger.Error("Failed to delete laptop items",
			zap.Int64("invoice_id", invoiceID),
			zap.Error(err))
		return fmt.Errorf("failed to delete laptop items: %w",
			sqlite.ConvertError(fmt.Sprintf("invoice_id=%d", invoiceID), err))
	}
	return nil
}

func scanLaptopItem(row rowScanner) (*entity.LaptopItem, error) {
	var item entity.LaptopItem
	err := row.Scan(
		&item.ID,
		&item.InvoiceID,
		&item.Model,
		&item.Processor,
		&item.RAM,
		&item.Storage,
		&item.Color,
		&item.ScreenSize,
		&item.OS,
		&item.OSVersion,
		&item.SerialNumber,
		&item.WarrantyMonths,
		&item.Price,
		&item.Quantity,
		&item.IsRetired,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *LaptopItemRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

// Verify interface compliance
var _ port.LaptopItemRepository = (*LaptopItemRepository)(nil)
