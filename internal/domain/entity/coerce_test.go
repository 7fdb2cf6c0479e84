package entity

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var m map[string]any
	require.NoError(t, dec.Decode(&m))
	return m
}

func TestRecordFromMap(t *testing.T) {
	t.Run("coerces a complete record", func(t *testing.T) {
		m := decode(t, `{
			"Invoice Number": " INV-001 ",
			"Order Date": "01-02-2024",
			"Invoice Date": "03-02-2024",
			"Order Number": 4455,
			"Supplier (Vendor) Name": "Acme Systems",
			"Laptops": [{
				"Lapotop Model": "ThinkPad T14",
				"Processor": "i7-1365U",
				"RAM": "16GB",
				"Storage": "512GB SSD",
				"Model Color": "Black",
				"Screen Size": "14 inch",
				"Laptop OS": "Windows",
				"Laptop OS Version": 11,
				"Laptop Serial Number": "SN1",
				"Warranty Duration": 36,
				"Laptop Price": "₹ 1,05,000.50",
				"Quantity": 2
			}]
		}`)

		rec := RecordFromMap(m)

		assert.Equal(t, "INV-001", String(rec.InvoiceNumber))
		assert.Equal(t, "4455", String(rec.OrderNumber))
		require.Len(t, rec.Laptops, 1)
		li := rec.Laptops[0]
		assert.Equal(t, "ThinkPad T14", String(li.Model))
		assert.Equal(t, "11", String(li.OSVersion))
		assert.Equal(t, SerialNumbers{"SN1"}, li.SerialNumbers)
		require.NotNil(t, li.WarrantyMonths)
		assert.Equal(t, 36, *li.WarrantyMonths)
		require.NotNil(t, li.Price)
		assert.InDelta(t, 105000.50, *li.Price, 0.001)
		assert.Equal(t, 2, li.Quantity)
	})

	t.Run("nulls out fields that fail to coerce", func(t *testing.T) {
		m := decode(t, `{
			"Invoice Number": "",
			"Order Date": null,
			"Supplier (Vendor) Name": {"name": "x"},
			"Laptops": [{
				"Lapotop Model": true,
				"Warranty Duration": "lifetime",
				"Laptop Price": "not quoted",
				"Quantity": null
			}, "garbage"]
		}`)

		rec := RecordFromMap(m)

		assert.Nil(t, rec.InvoiceNumber)
		assert.Nil(t, rec.OrderDate)
		assert.Nil(t, rec.SupplierName)
		require.Len(t, rec.Laptops, 1)
		li := rec.Laptops[0]
		assert.Nil(t, li.Model)
		assert.Nil(t, li.WarrantyMonths)
		assert.Nil(t, li.Price)
		assert.Equal(t, 1, li.Quantity)
	})

	t.Run("missing laptops yields empty list", func(t *testing.T) {
		rec := RecordFromMap(map[string]any{})
		assert.NotNil(t, rec.Laptops)
		assert.Empty(t, rec.Laptops)
	})
}

func TestCoerceMonths(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *int
	}{
		{name: "integer", in: json.Number("12"), want: intPtr(12)},
		{name: "months text", in: "24 months", want: intPtr(24)},
		{name: "one year", in: "1 Year", want: intPtr(12)},
		{name: "years onsite", in: "3 years onsite", want: intPtr(36)},
		{name: "no number", in: "standard", want: nil},
		{name: "negative", in: json.Number("-1"), want: nil},
		{name: "bool", in: true, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, coerceMonths(tt.in))
		})
	}
}

func TestCoerceQuantity(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   int
		wantOK bool
	}{
		{"missing", nil, 1, true},
		{"zero", json.Number("0"), 1, true},
		{"number", json.Number("3"), 3, true},
		{"text with unit", "5 Nos", 5, true},
		{"unparsable", "n/a", 1, true},
		{"at the cap", json.Number("500"), MaxUnitsPerLine, true},
		{"above the cap", "1000000000", 0, false},
		{"beyond int range", json.Number("1e30"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerceQuantity(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRecordFromMap_OversizedQuantity(t *testing.T) {
	rec := RecordFromMap(map[string]any{
		KeyLaptops: []any{
			map[string]any{KeyQuantity: "1000000000"},
			map[string]any{KeyQuantity: json.Number("1e30"), KeySerialNumber: []any{"SN1", "SN2"}},
			map[string]any{KeyQuantity: json.Number("4")},
		},
	})

	require.Len(t, rec.Laptops, 3)
	assert.Equal(t, 1, rec.Laptops[0].Units())
	assert.Equal(t, 2, rec.Laptops[1].Units())
	assert.Equal(t, 4, rec.Laptops[2].Units())
	require.Len(t, rec.Warnings, 2)
	assert.Contains(t, rec.Warnings[0], "line 1")
	assert.Contains(t, rec.Warnings[1], "line 2")

	assert.Equal(t, MaxUnitsPerLine, LaptopLineItem{Quantity: 1_000_000}.Units())
}

func TestCoerceSerials(t *testing.T) {
	assert.Nil(t, coerceSerials(nil))
	assert.Equal(t, SerialNumbers{"A1"}, coerceSerials("A1"))
	assert.Equal(t, SerialNumbers{"A1", "A2"}, coerceSerials([]any{"A1", "", nil, "A2"}))
}

func intPtr(n int) *int { return &n }
