package port

import (
	"context"

	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

// InvoiceRepository defines persistence operations for Invoice
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id int64) (*entity.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*entity.Invoice, error)
	ListBySourceFile(ctx context.Context, fileID string) ([]*entity.Invoice, error)
	List(ctx context.Context) ([]*entity.Invoice, error)
	Delete(ctx context.Context, id int64) error
}

// LaptopItemRepository defines persistence operations for LaptopItem
type LaptopItemRepository interface {
	Create(ctx context.Context, item *entity.LaptopItem) error
	GetBySerial(ctx context.Context, serial string) (*entity.LaptopItem, error)
	ListByInvoice(ctx context.Context, invoiceID int64) ([]*entity.LaptopItem, error)
	List(ctx context.Context) ([]*entity.LaptopItem, error)
	Update(ctx context.Context, item *entity.LaptopItem) error
	DeleteByInvoice(ctx context.Context, invoiceID int64) error
}

// DriveFileRepository defines persistence operations for the drive file snapshot
type DriveFileRepository interface {
	List(ctx context.Context) ([]entity.DriveFile, error)
	Insert(ctx context.Context, file entity.DriveFile) error
	Update(ctx context.Context, file entity.DriveFile) error
	Delete(ctx context.Context, id string) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
