package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/garyjia/asset-tracker/internal/application/port"
	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

// Logger is the key/value logger the services write to
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// InvoiceService persists extracted invoices and reads them back
type InvoiceService interface {
	// Upsert replaces any invoice with the same number and stores its units.
	Upsert(ctx context.Context, rec *entity.InvoiceRecord, sourceFileID string) (*entity.Invoice, error)
	// ReplaceSourceFile drops every invoice extracted from fileID, then upserts rec.
	ReplaceSourceFile(ctx context.Context, fileID string, rec *entity.InvoiceRecord) (*entity.Invoice, error)
	DeleteBySourceFile(ctx context.Context, fileID string) (int, error)
	Get(ctx context.Context, number string) (*entity.InvoiceRecord, error)
	List(ctx context.Context) ([]*entity.InvoiceRecord, error)
}

type invoiceServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	itemRepo    port.LaptopItemRepository
	txManager   port.TransactionManager
	logger      Logger

	// all writes go through one writer
	mu sync.Mutex
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo port.InvoiceRepository,
	itemRepo port.LaptopItemRepository,
	txManager port.TransactionManager,
	logger Logger,
) InvoiceService {
	return &invoiceServiceImpl{
		invoiceRepo: invoiceRepo,
		itemRepo:    itemRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// Upsert stores rec inside one transaction
func (s *invoiceServiceImpl) Upsert(ctx context.Context, rec *entity.InvoiceRecord, sourceFileID string) (*entity.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var invoice *entity.Invoice
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		invoice, err = s.upsert(ctx, rec, sourceFileID)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to upsert invoice",
			"invoice_number", entity.String(rec.InvoiceNumber),
			"error", err)
		return nil, err
	}

	return invoice, nil
}

// ReplaceSourceFile swaps the data tied to a Drive file in one transaction
func (s *invoiceServiceImpl) ReplaceSourceFile(ctx context.Context, fileID string, rec *entity.InvoiceRecord) (*entity.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var invoice *entity.Invoice
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.deleteBySourceFile(ctx, fileID); err != nil {
			return err
		}
		var err error
		invoice, err = s.upsert(ctx, rec, fileID)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to replace invoices for source file",
			"file_id", fileID,
			"error", err)
		return nil, err
	}

	return invoice, nil
}

// DeleteBySourceFile removes every invoice extracted from fileID and
// returns how many were removed
func (s *invoiceServiceImpl) DeleteBySourceFile(ctx context.Context, fileID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		removed, err = s.deleteBySourceFile(ctx, fileID)
		return err
	})
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.logger.Info("Removed invoices for source file", "file_id", fileID, "count", removed)
	}
	return removed, nil
}

func (s *invoiceServiceImpl) upsert(ctx context.Context, rec *entity.InvoiceRecord, sourceFileID string) (*entity.Invoice, error) {
	if rec.InvoiceNumber != nil {
		existing, err := s.invoiceRepo.GetByNumber(ctx, *rec.InvoiceNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to look up invoice: %w", err)
		}
		if existing != nil {
			if err := s.removeInvoice(ctx, existing.ID); err != nil {
				return nil, err
			}
			s.logger.Info("Replacing existing invoice",
				"invoice_number", *rec.InvoiceNumber,
				"previous_id", existing.ID)
		}
	}

	invoice := entity.NewInvoice(rec, sourceFileID)
	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}

	var inserted, relinked int
	for _, li := range rec.Laptops {
		for i := 0; i < li.Units(); i++ {
			serial := li.SerialNumbers.ForUnit(i)

			if serial != nil {
				existing, err := s.itemRepo.GetBySerial(ctx, *serial)
				if err != nil {
					return nil, fmt.Errorf("failed to look up laptop item: %w", err)
				}
				if existing != nil {
					existing.Apply(li)
					existing.InvoiceID = &invoice.ID
					if err := s.itemRepo.Update(ctx, existing); err != nil {
						return nil, err
					}
					relinked++
					continue
				}
			}

			if err := s.itemRepo.Create(ctx, entity.NewLaptopItem(invoice.ID, li, serial)); err != nil {
				return nil, err
			}
			inserted++
		}
	}

	s.logger.Info("Invoice stored",
		"invoice_id", invoice.ID,
		"invoice_number", entity.String(invoice.InvoiceNumber),
		"inserted_items", inserted,
		"relinked_items", relinked)

	return invoice, nil
}

func (s *invoiceServiceImpl) deleteBySourceFile(ctx context.Context, fileID string) (int, error) {
	invoices, err := s.invoiceRepo.ListBySourceFile(ctx, fileID)
	if err != nil {
		return 0, fmt.Errorf("failed to list invoices for source file: %w", err)
	}
	for _, inv := range invoices {
		if err := s.removeInvoice(ctx, inv.ID); err != nil {
			return 0, err
		}
	}
	return len(invoices), nil
}

func (s *invoiceServiceImpl) removeInvoice(ctx context.Context, id int64) error {
	if err := s.itemRepo.DeleteByInvoice(ctx, id); err != nil {
		return err
	}
	return s.invoiceRepo.Delete(ctx, id)
}

// Get returns the stored record for an invoice number, or nil when unknown
func (s *invoiceServiceImpl) Get(ctx context.Context, number string) (*entity.InvoiceRecord, error) {
	invoice, err := s.invoiceRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, nil
	}

	items, err := s.itemRepo.ListByInvoice(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	return entity.NewRecord(invoice, items), nil
}

// List returns every stored invoice as a record
func (s *invoiceServiceImpl) List(ctx context.Context) ([]*entity.InvoiceRecord, error) {
	invoices, err := s.invoiceRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.itemRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	byInvoice := make(map[int64][]*entity.LaptopItem)
	for _, item := range items {
		if item.InvoiceID != nil {
			byInvoice[*item.InvoiceID] = append(byInvoice[*item.InvoiceID], item)
		}
	}

	records := make([]*entity.InvoiceRecord, 0, len(invoices))
	for _, inv := range invoices {
		records = append(records, entity.NewRecord(inv, byInvoice[inv.ID]))
	}
	return records, nil
}
