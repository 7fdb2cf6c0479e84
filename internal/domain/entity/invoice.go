package entity

import "time"

// DateLayout is the DD-MM-YYYY layout invoices are extracted in.
const DateLayout = "02-01-2006"

// Invoice is a persisted laptop purchase invoice
type Invoice struct {
	ID            int64     `json:"id"`
	InvoiceNumber *string   `json:"invoice_number"`
	OrderDate     *string   `json:"order_date"`
	InvoiceDate   *string   `json:"invoice_date"`
	OrderNumber   *string   `json:"order_number"`
	SupplierName  *string   `json:"supplier_name"`
	SourceFileID  *string   `json:"source_file_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// LaptopItem is one physical laptop unit
type LaptopItem struct {
	ID             int64     `json:"id"`
	InvoiceID      *int64    `json:"invoice_id"`
	Model          *string   `json:"laptop_model"`
	Processor      *string   `json:"processor"`
	RAM            *string   `json:"ram"`
	Storage        *string   `json:"storage"`
	Color          *string   `json:"model_color"`
	ScreenSize     *string   `json:"screen_size"`
	OS             *string   `json:"laptop_os"`
	OSVersion      *string   `json:"laptop_os_version"`
	SerialNumber   *string   `json:"laptop_serial_number"`
	WarrantyMonths *int      `json:"warranty_duration"`
	Price          *float64  `json:"laptop_price"`
	Quantity       int       `json:"quantity"`
	IsRetired      bool      `json:"is_retired"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewInvoice builds the invoice row for an extracted record.
func NewInvoice(rec *InvoiceRecord, sourceFileID string) *Invoice {
	return &Invoice{
		InvoiceNumber: rec.InvoiceNumber,
		OrderDate:     rec.OrderDate,
		InvoiceDate:   rec.InvoiceDate,
		OrderNumber:   rec.OrderNumber,
		SupplierName:  rec.SupplierName,
		SourceFileID:  StringPtr(sourceFileID),
	}
}

// NewLaptopItem builds one unit of a line item.
func NewLaptopItem(invoiceID int64, li LaptopLineItem, serial *string) *LaptopItem {
	item := &LaptopItem{
		InvoiceID:    &invoiceID,
		SerialNumber: serial,
		Quantity:     1,
	}
	item.Apply(li)
	return item
}

// Apply copies the descriptive fields of a line item. Serial, invoice link
// and retirement are left alone.
func (l *LaptopItem) Apply(li LaptopLineItem) {
	l.Model = li.Model
	l.Processor = li.Processor
	l.RAM = li.RAM
	l.Storage = li.Storage
	l.Color = li.Color
	l.ScreenSize = li.ScreenSize
	l.OS = li.OS
	l.OSVersion = li.OSVersion
	l.WarrantyMonths = li.WarrantyMonths
	l.Price = li.Price
}

// LineItem renders the unit back into the extraction record shape.
func (l *LaptopItem) LineItem() LaptopLineItem {
	li := LaptopLineItem{
		Model:          l.Model,
		Processor:      l.Processor,
		RAM:            l.RAM,
		Storage:        l.Storage,
		Color:          l.Color,
		ScreenSize:     l.ScreenSize,
		OS:             l.OS,
		OSVersion:      l.OSVersion,
		WarrantyMonths: l.WarrantyMonths,
		Price:          l.Price,
		Quantity:       1,
	}
	if l.SerialNumber != nil {
		li.SerialNumbers = SerialNumbers{*l.SerialNumber}
	}
	return li
}

// WarrantyExpiry derives the end of warranty from the invoice date.
// Returns nil when the date or duration is unknown.
func (l *LaptopItem) WarrantyExpiry(invoiceDate *string) *time.Time {
	if l.WarrantyMonths == nil || invoiceDate == nil {
		return nil
	}
	start, err := time.Parse(DateLayout, *invoiceDate)
	if err != nil {
		return nil
	}
	end := start.AddDate(0, *l.WarrantyMonths, 0)
	return &end
}

// NewRecord rebuilds an InvoiceRecord from persisted rows.
func NewRecord(inv *Invoice, items []*LaptopItem) *InvoiceRecord {
	rec := &InvoiceRecord{
		InvoiceNumber: inv.InvoiceNumber,
		OrderDate:     inv.OrderDate,
		InvoiceDate:   inv.InvoiceDate,
		OrderNumber:   inv.OrderNumber,
		SupplierName:  inv.SupplierName,
		Laptops:       make([]LaptopLineItem, 0, len(items)),
	}
	for _, item := range items {
		rec.Laptops = append(rec.Laptops, item.LineItem())
	}
	return rec
}
