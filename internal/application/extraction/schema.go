package extraction

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// invoiceRecordSchema describes the object the prompt asks for. It is only
// used to warn about drift; coercion decides what is kept.
const invoiceRecordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["Invoice Number", "Order Date", "Invoice Date", "Order Number", "Supplier (Vendor) Name", "Laptops"],
  "properties": {
    "Invoice Number": {"type": ["string", "null"]},
    "Order Date": {"type": ["string", "null"]},
    "Invoice Date": {"type": ["string", "null"]},
    "Order Number": {"type": ["string", "null"]},
    "Supplier (Vendor) Name": {"type": ["string", "null"]},
    "Laptops": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["Lapotop Model", "Laptop Serial Number", "Laptop Price", "Quantity"],
        "properties": {
          "Lapotop Model": {"type": ["string", "null"]},
          "Processor": {"type": ["string", "null"]},
          "RAM": {"type": ["string", "null"]},
          "Storage": {"type": ["string", "null"]},
          "Model Color": {"type": ["string", "null"]},
          "Screen Size": {"type": ["string", "null"]},
          "Laptop OS": {"type": ["string", "null"]},
          "Laptop OS Version": {"type": ["string", "null"]},
          "Laptop Serial Number": {"type": ["string", "array", "null"], "items": {"type": "string"}},
          "Warranty Duration": {"type": ["integer", "null"]},
          "Laptop Price": {"type": ["number", "null"]},
          "Quantity": {"type": ["integer", "null"], "minimum": 1}
        }
      }
    }
  }
}`

// compileRecordSchema compiles the advisory record schema.
func compileRecordSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("invoice_record.json", strings.NewReader(invoiceRecordSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("invoice_record.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
