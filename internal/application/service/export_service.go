package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/garyjia/asset-tracker/internal/application/port"
	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

// Export file names written by WriteFiles
const (
	ExportJSONFile = "laptop_invoices.json"
	ExportCSVFile  = "laptop_invoices.csv"
	ExportXLSXFile = "laptop_invoices_download.xlsx"
)

const exportSheet = "Laptops"

var csvHeader = []string{
	"invoice_number", "order_date", "invoice_date", "order_number", "supplier_name",
	"laptop_model", "processor", "ram", "storage", "model_color", "screen_size",
	"laptop_os", "laptop_os_version", "laptop_serial_number", "warranty_duration",
	"laptop_price", "quantity",
}

var xlsxHeader = []string{
	"Invoice Number", "Order Date", "Invoice Date", "Order Number", "Supplier Name",
	"Laptop Model", "Processor", "RAM", "Storage", "Color", "Screen Size", "OS",
	"OS Version", "Serial Number", "Warranty Duration", "Price", "Created At",
	"Warranty Expiry", "Is Retired",
}

// ExportService renders the stored inventory for downstream consumers
type ExportService interface {
	JSON(ctx context.Context, w io.Writer) error
	CSV(ctx context.Context, w io.Writer) error
	XLSX(ctx context.Context, w io.Writer) error
	// WriteFiles writes all three exports under dir and returns their paths.
	WriteFiles(ctx context.Context, dir string) ([]string, error)
}

type exportServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	itemRepo    port.LaptopItemRepository
	storage     port.FileStorage
	logger      Logger
}

// NewExportService creates a new ExportService
func NewExportService(
	invoiceRepo port.InvoiceRepository,
	itemRepo port.LaptopItemRepository,
	storage port.FileStorage,
	logger Logger,
) ExportService {
	return &exportServiceImpl{
		invoiceRepo: invoiceRepo,
		itemRepo:    itemRepo,
		storage:     storage,
		logger:      logger,
	}
}

type inventory struct {
	invoices []*entity.Invoice
	items    []*entity.LaptopItem
	byID     map[int64]*entity.Invoice
}

func (s *exportServiceImpl) load(ctx context.Context) (*inventory, error) {
	invoices, err := s.invoiceRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.itemRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	inv := &inventory{
		invoices: invoices,
		items:    items,
		byID:     make(map[int64]*entity.Invoice, len(invoices)),
	}
	for _, i := range invoices {
		inv.byID[i.ID] = i
	}
	return inv, nil
}

func (inv *inventory) itemsOf(invoiceID int64) []*entity.LaptopItem {
	var out []*entity.LaptopItem
	for _, item := range inv.items {
		if item.InvoiceID != nil && *item.InvoiceID == invoiceID {
			out = append(out, item)
		}
	}
	return out
}

// JSON writes every invoice with its laptops using the extraction record keys
func (s *exportServiceImpl) JSON(ctx context.Context, w io.Writer) error {
	inv, err := s.load(ctx)
	if err != nil {
		return err
	}

	records := make([]*entity.InvoiceRecord, 0, len(inv.invoices))
	for _, i := range inv.invoices {
		records = append(records, entity.NewRecord(i, inv.itemsOf(i.ID)))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode json export: %w", err)
	}
	return nil
}

// CSV writes one row per laptop joined with its invoice. Unlinked laptops
// are left out.
func (s *exportServiceImpl) CSV(ctx context.Context, w io.Writer) error {
	inv, err := s.load(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, i := range inv.invoices {
		for _, item := range inv.itemsOf(i.ID) {
			row := []string{
				entity.String(i.InvoiceNumber),
				entity.String(i.OrderDate),
				entity.String(i.InvoiceDate),
				entity.String(i.OrderNumber),
				entity.String(i.SupplierName),
				entity.String(item.Model),
				entity.String(item.Processor),
				entity.String(item.RAM),
				entity.String(item.Storage),
				entity.String(item.Color),
				entity.String(item.ScreenSize),
				entity.String(item.OS),
				entity.String(item.OSVersion),
				entity.String(item.SerialNumber),
				formatInt(item.WarrantyMonths),
				formatFloat(item.Price),
				strconv.Itoa(item.Quantity),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write csv row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// XLSX writes one row per laptop. Laptops without an invoice get blank
// invoice columns.
func (s *exportServiceImpl) XLSX(ctx context.Context, w io.Writer) error {
	inv, err := s.load(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for col, title := range xlsxHeader {
		if err := setCell(f, col, 1, title); err != nil {
			return err
		}
	}

	for idx, item := range inv.items {
		row := idx + 2

		var invoice entity.Invoice
		if item.InvoiceID != nil {
			if i, ok := inv.byID[*item.InvoiceID]; ok {
				invoice = *i
			}
		}

		var expiry interface{}
		if t := item.WarrantyExpiry(invoice.InvoiceDate); t != nil {
			expiry = t.Format(entity.DateLayout)
		}

		values := []interface{}{
			entity.String(invoice.InvoiceNumber),
			entity.String(invoice.OrderDate),
			entity.String(invoice.InvoiceDate),
			entity.String(invoice.OrderNumber),
			entity.String(invoice.SupplierName),
			entity.String(item.Model),
			entity.String(item.Processor),
			entity.String(item.RAM),
			entity.String(item.Storage),
			entity.String(item.Color),
			entity.String(item.ScreenSize),
			entity.String(item.OS),
			entity.String(item.OSVersion),
			entity.String(item.SerialNumber),
			cellInt(item.WarrantyMonths),
			cellFloat(item.Price),
			item.CreatedAt.Format("2006-01-02 15:04:05"),
			expiry,
			item.IsRetired,
		}
		for col, v := range values {
			if err := setCell(f, col, row, v); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx export: %w", err)
	}
	return nil
}

// WriteFiles renders each export into memory and saves it through the file storage
func (s *exportServiceImpl) WriteFiles(ctx context.Context, dir string) ([]string, error) {
	exports := []struct {
		name   string
		render func(context.Context, io.Writer) error
	}{
		{ExportJSONFile, s.JSON},
		{ExportCSVFile, s.CSV},
		{ExportXLSXFile, s.XLSX},
	}

	paths := make([]string, 0, len(exports))
	for _, e := range exports {
		var buf bytes.Buffer
		if err := e.render(ctx, &buf); err != nil {
			return nil, err
		}

		rel := path.Join(dir, e.name)
		if err := s.storage.Save(ctx, rel, buf.Bytes()); err != nil {
			return nil, err
		}
		paths = append(paths, s.storage.GetFullPath(rel))
	}

	s.logger.Info("Exports written", "dir", dir, "files", len(paths))
	return paths, nil
}

func setCell(f *excelize.File, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return fmt.Errorf("failed to resolve cell: %w", err)
	}
	if value == nil {
		return nil
	}
	if err := f.SetCellValue(exportSheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}

func cellInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func cellFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
