package entity

import "fmt"

// DocumentOpenError is returned when a PDF is missing, corrupt or not a PDF.
type DocumentOpenError struct {
	Path string
	Err  error
}

func (e *DocumentOpenError) Error() string {
	return fmt.Sprintf("failed to open document %s: %v", e.Path, e.Err)
}

func (e *DocumentOpenError) Unwrap() error { return e.Err }

// PageExtractionError describes a page that was skipped.
type PageExtractionError struct {
	Path string
	Page int
	Err  error
}

func (e *PageExtractionError) Error() string {
	return fmt.Sprintf("failed to extract page %d of %s: %v", e.Page, e.Path, e.Err)
}

func (e *PageExtractionError) Unwrap() error { return e.Err }

// SchemaEnvelopeError is returned when a model response has no fenced JSON block.
type SchemaEnvelopeError struct {
	Response string
}

func (e *SchemaEnvelopeError) Error() string {
	return "model response did not contain a fenced JSON block"
}

// MalformedJSONError is returned when the fenced block is not valid JSON.
// Raw holds the block text.
type MalformedJSONError struct {
	Raw string
	Err error
}

func (e *MalformedJSONError) Error() string {
	return fmt.Sprintf("malformed JSON in model response: %v", e.Err)
}

func (e *MalformedJSONError) Unwrap() error { return e.Err }

// PersistenceConflictError is returned when a write hits a locked or
// duplicated key.
type PersistenceConflictError struct {
	Key string
	Err error
}

func (e *PersistenceConflictError) Error() string {
	return fmt.Sprintf("persistence conflict on %s: %v", e.Key, e.Err)
}

func (e *PersistenceConflictError) Unwrap() error { return e.Err }
