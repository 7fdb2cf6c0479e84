package entity

import (
	"encoding/json"
	"fmt"
)

// InvoiceRecord is the structured result of extracting one vendor invoice.
// Field names in JSON are part of the downstream contract and must not change,
// including the "Lapotop Model" spelling.
type InvoiceRecord struct {
	InvoiceNumber *string          `json:"Invoice Number"`
	OrderDate     *string          `json:"Order Date"`
	InvoiceDate   *string          `json:"Invoice Date"`
	OrderNumber   *string          `json:"Order Number"`
	SupplierName  *string          `json:"Supplier (Vendor) Name"`
	Laptops       []LaptopLineItem `json:"Laptops"`

	// Warnings lists values discarded while coercing the model output
	Warnings []string `json:"-"`
}

// MaxUnitsPerLine bounds the units one line item may expand into.
const MaxUnitsPerLine = 500

// LaptopLineItem is one laptop row of an invoice. Quantity may describe
// several physical units.
type LaptopLineItem struct {
	Model          *string       `json:"Lapotop Model"`
	Processor      *string       `json:"Processor"`
	RAM            *string       `json:"RAM"`
	Storage        *string       `json:"Storage"`
	Color          *string       `json:"Model Color"`
	ScreenSize     *string       `json:"Screen Size"`
	OS             *string       `json:"Laptop OS"`
	OSVersion      *string       `json:"Laptop OS Version"`
	SerialNumbers  SerialNumbers `json:"Laptop Serial Number"`
	WarrantyMonths *int          `json:"Warranty Duration"`
	Price          *float64      `json:"Laptop Price"`
	Quantity       int           `json:"Quantity"`
}

// MarshalJSON keeps "Laptops" an array even when the record has no items.
func (r InvoiceRecord) MarshalJSON() ([]byte, error) {
	type plain InvoiceRecord
	p := plain(r)
	if p.Laptops == nil {
		p.Laptops = []LaptopLineItem{}
	}
	return json.Marshal(p)
}

// MarshalJSON normalizes a missing quantity to 1.
func (li LaptopLineItem) MarshalJSON() ([]byte, error) {
	type plain LaptopLineItem
	p := plain(li)
	if p.Quantity < 1 {
		p.Quantity = 1
	}
	return json.Marshal(p)
}

// Units returns the number of physical units the line item stands for,
// at most MaxUnitsPerLine.
func (li LaptopLineItem) Units() int {
	switch {
	case li.Quantity < 1:
		return 1
	case li.Quantity > MaxUnitsPerLine:
		return MaxUnitsPerLine
	default:
		return li.Quantity
	}
}

// SerialNumbers holds the serial(s) declared on a line item. Invoices either
// print one serial or enumerate one per unit.
type SerialNumbers []string

// ForUnit returns the serial for the i-th unit of the line item.
// A single declared serial belongs to the first unit only; an enumerated list
// maps by position and runs out as null.
func (s SerialNumbers) ForUnit(i int) *string {
	if i < 0 || i >= len(s) {
		return nil
	}
	v := s[i]
	return &v
}

// MarshalJSON encodes no serial as null, one serial as a string and several
// as a list.
func (s SerialNumbers) MarshalJSON() ([]byte, error) {
	switch len(s) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(s[0])
	default:
		return json.Marshal([]string(s))
	}
}

// UnmarshalJSON accepts null, a string or a list of strings.
func (s *SerialNumbers) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode serial number: %w", err)
	}
	*s = coerceSerials(raw)
	return nil
}

// String returns a printable form of an optional string.
func String(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
