package entity

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Keys of the model output object.
const (
	KeyInvoiceNumber = "Invoice Number"
	KeyOrderDate     = "Order Date"
	KeyInvoiceDate   = "Invoice Date"
	KeyOrderNumber   = "Order Number"
	KeySupplierName  = "Supplier (Vendor) Name"
	KeyLaptops       = "Laptops"

	KeyModel        = "Lapotop Model"
	KeyProcessor    = "Processor"
	KeyRAM          = "RAM"
	KeyStorage      = "Storage"
	KeyColor        = "Model Color"
	KeyScreenSize   = "Screen Size"
	KeyOS           = "Laptop OS"
	KeyOSVersion    = "Laptop OS Version"
	KeySerialNumber = "Laptop Serial Number"
	KeyWarranty     = "Warranty Duration"
	KeyPrice        = "Laptop Price"
	KeyQuantity     = "Quantity"
)

var (
	numberPattern   = regexp.MustCompile(`\d+(?:\.\d+)?`)
	durationPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(years?|yrs?|months?|mos?|m|y)?\b`)
)

// RecordFromMap builds an InvoiceRecord from a decoded model response.
// Values that cannot be coerced to the declared field type become null.
func RecordFromMap(m map[string]any) *InvoiceRecord {
	rec := &InvoiceRecord{
		InvoiceNumber: coerceString(m[KeyInvoiceNumber]),
		OrderDate:     coerceString(m[KeyOrderDate]),
		InvoiceDate:   coerceString(m[KeyInvoiceDate]),
		OrderNumber:   coerceString(m[KeyOrderNumber]),
		SupplierName:  coerceString(m[KeySupplierName]),
		Laptops:       []LaptopLineItem{},
	}

	items, _ := m[KeyLaptops].([]any)
	for _, raw := range items {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		li, ok := lineItemFromMap(obj)
		if !ok {
			rec.Warnings = append(rec.Warnings, fmt.Sprintf(
				"line %d: quantity %v outside 1..%d, using %d",
				len(rec.Laptops)+1, obj[KeyQuantity], MaxUnitsPerLine, li.Quantity))
		}
		rec.Laptops = append(rec.Laptops, li)
	}

	return rec
}

// lineItemFromMap reports false when the declared quantity was out of range
// and replaced by the number of declared serials.
func lineItemFromMap(m map[string]any) (LaptopLineItem, bool) {
	li := LaptopLineItem{
		Model:          coerceString(m[KeyModel]),
		Processor:      coerceString(m[KeyProcessor]),
		RAM:            coerceString(m[KeyRAM]),
		Storage:        coerceString(m[KeyStorage]),
		Color:          coerceString(m[KeyColor]),
		ScreenSize:     coerceString(m[KeyScreenSize]),
		OS:             coerceString(m[KeyOS]),
		OSVersion:      coerceString(m[KeyOSVersion]),
		SerialNumbers:  coerceSerials(m[KeySerialNumber]),
		WarrantyMonths: coerceMonths(m[KeyWarranty]),
		Price:          coercePrice(m[KeyPrice]),
	}

	n, ok := coerceQuantity(m[KeyQuantity])
	if !ok {
		n = min(max(len(li.SerialNumbers), 1), MaxUnitsPerLine)
	}
	li.Quantity = n
	return li, ok
}

func coerceString(v any) *string {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return nil
	}
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}

func coerceSerials(v any) SerialNumbers {
	switch t := v.(type) {
	case []any:
		var out SerialNumbers
		for _, e := range t {
			if s := coerceString(e); s != nil {
				out = append(out, *s)
			}
		}
		return out
	default:
		if s := coerceString(v); s != nil {
			return SerialNumbers{*s}
		}
		return nil
	}
}

func coerceMonths(v any) *int {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil
		}
		return wholeMonths(f)
	case float64:
		return wholeMonths(t)
	case string:
		match := durationPattern.FindStringSubmatch(t)
		if match == nil {
			return nil
		}
		f, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			return nil
		}
		unit := strings.ToLower(match[2])
		if strings.HasPrefix(unit, "y") {
			f *= 12
		}
		return wholeMonths(f)
	default:
		return nil
	}
}

func wholeMonths(f float64) *int {
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int(math.Round(f))
	return &n
}

func coercePrice(v any) *float64 {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil
		}
		return &f
	case float64:
		return &t
	case string:
		cleaned := strings.ReplaceAll(t, ",", "")
		match := numberPattern.FindString(cleaned)
		if match == "" {
			return nil
		}
		f, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// coerceQuantity returns the unit count of a quantity value. Missing or
// unparsable values count as 1; values above MaxUnitsPerLine are rejected.
func coerceQuantity(v any) (int, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		f, _ = t.Float64()
	case float64:
		f = t
	case string:
		if match := numberPattern.FindString(t); match != "" {
			f, _ = strconv.ParseFloat(match, 64)
		}
	}
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0) || f > MaxUnitsPerLine:
		return 0, false
	case f < 1:
		return 1, true
	default:
		return int(f), true
	}
}
