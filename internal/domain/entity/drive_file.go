package entity

import "time"

// MIME types returned by the Drive listing
const (
	MimeTypePDF    = "application/pdf"
	MimeTypeFolder = "application/vnd.google-apps.folder"
)

// DriveFile is a snapshot of one remote source file
type DriveFile struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	MimeType     string     `json:"mime_type,omitempty"`
	ModifiedTime *time.Time `json:"modified_time"`
	// Pending marks a snapshot recorded without extracting the file
	Pending bool `json:"-"`
}

// ParseModifiedTime parses a Drive modifiedTime value. Empty or invalid
// input yields nil.
func ParseModifiedTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	t = t.UTC().Truncate(time.Second)
	return &t
}

// SameVersion reports whether two snapshots of the same file carry the same
// name and modification time.
func (f DriveFile) SameVersion(other DriveFile) bool {
	if f.Name != other.Name {
		return false
	}
	switch {
	case f.ModifiedTime == nil && other.ModifiedTime == nil:
		return true
	case f.ModifiedTime == nil || other.ModifiedTime == nil:
		return false
	default:
		return f.ModifiedTime.Truncate(time.Second).Equal(other.ModifiedTime.Truncate(time.Second))
	}
}

// FileState is the re-extraction state of a source file
type FileState int

const (
	FileAbsent FileState = iota
	FileUnchanged
	FileChanged
	FileNew
)

func (s FileState) String() string {
	switch s {
	case FileAbsent:
		return "absent"
	case FileUnchanged:
		return "unchanged"
	case FileChanged:
		return "changed"
	case FileNew:
		return "new"
	default:
		return "unknown"
	}
}

// NeedsExtraction reports whether the pipeline must run for the file.
func (s FileState) NeedsExtraction() bool {
	return s == FileChanged || s == FileNew
}

// DriveDiff is the three-way split between persisted and listed files.
type DriveDiff struct {
	Removed   []DriveFile
	Changed   []DriveFile
	Added     []DriveFile
	Unchanged []DriveFile
}

// DiffDriveFiles compares the full persisted set against the current listing.
// Removed keeps persisted order; the other sets follow listing order. A file
// listed twice is considered once.
func DiffDriveFiles(persisted, current []DriveFile) DriveDiff {
	known := make(map[string]DriveFile, len(persisted))
	for _, f := range persisted {
		known[f.ID] = f
	}

	var diff DriveDiff
	seen := make(map[string]bool, len(current))
	for _, f := range current {
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true

		old, ok := known[f.ID]
		switch {
		case !ok:
			diff.Added = append(diff.Added, f)
		case old.SameVersion(f):
			diff.Unchanged = append(diff.Unchanged, f)
		default:
			diff.Changed = append(diff.Changed, f)
		}
	}

	for _, f := range persisted {
		if !seen[f.ID] {
			diff.Removed = append(diff.Removed, f)
		}
	}

	return diff
}

// Writes returns the number of store writes the diff implies.
func (d DriveDiff) Writes() int {
	return len(d.Removed) + len(d.Changed) + len(d.Added)
}
