package entity

// Table is a row-major grid of cell strings. Missing cells are empty.
type Table [][]string

// Actions recorded per file in a SyncReport
const (
	ActionSkipped   = "skipped"
	ActionExtracted = "extracted"
	ActionRemoved   = "removed"
	ActionFailed    = "failed"
)

// SyncReport summarizes one drive reconciliation run
type SyncReport struct {
	RunID      string        `json:"run_id"`
	FolderID   string        `json:"folder_id"`
	StartedAt  string        `json:"started_at"`
	FinishedAt string        `json:"finished_at"`
	Listed     int           `json:"listed"`
	Extracted  int           `json:"extracted"`
	Removed    int           `json:"removed"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Files      []FileOutcome `json:"files"`
}

// FileOutcome is the result for one file of a batch
type FileOutcome struct {
	FileID        string `json:"file_id,omitempty"`
	Path          string `json:"path,omitempty"`
	Name          string `json:"name,omitempty"`
	State         string `json:"state,omitempty"`
	Action        string `json:"action,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	Items         int    `json:"items,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Failed reports whether the file could not be processed.
func (o FileOutcome) Failed() bool {
	return o.Error != ""
}

// IngestReport summarizes a local batch ingest
type IngestReport struct {
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Files     []FileOutcome `json:"files"`
}
