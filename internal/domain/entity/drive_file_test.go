package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(files []DriveFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.ID)
	}
	return out
}

func TestParseModifiedTime(t *testing.T) {
	got := ParseModifiedTime("2024-05-01T10:20:30.123Z")
	require.NotNil(t, got)
	assert.Equal(t, "2024-05-01T10:20:30Z", got.Format("2006-01-02T15:04:05Z07:00"))

	offset := ParseModifiedTime("2024-05-01T12:20:30+02:00")
	require.NotNil(t, offset)
	assert.True(t, got.Equal(*offset))

	assert.Nil(t, ParseModifiedTime(""))
	assert.Nil(t, ParseModifiedTime("yesterday"))
}

func TestDiffDriveFiles(t *testing.T) {
	t.Run("three way split", func(t *testing.T) {
		persisted := []DriveFile{
			{ID: "f1", Name: "a.pdf", ModifiedTime: ParseModifiedTime("2024-01-01T00:00:00Z")},
			{ID: "f2", Name: "b.pdf", ModifiedTime: ParseModifiedTime("2024-01-01T00:00:00Z")},
		}
		current := []DriveFile{
			{ID: "f2", Name: "b.pdf", ModifiedTime: ParseModifiedTime("2024-02-01T00:00:00Z")},
			{ID: "f3", Name: "c.pdf", ModifiedTime: ParseModifiedTime("2024-02-01T00:00:00Z")},
		}

		diff := DiffDriveFiles(persisted, current)

		assert.Equal(t, []string{"f1"}, ids(diff.Removed))
		assert.Equal(t, []string{"f2"}, ids(diff.Changed))
		assert.Equal(t, []string{"f3"}, ids(diff.Added))
		assert.Empty(t, diff.Unchanged)
		assert.Equal(t, 3, diff.Writes())
	})

	t.Run("rename counts as change", func(t *testing.T) {
		ts := ParseModifiedTime("2024-01-01T00:00:00Z")
		diff := DiffDriveFiles(
			[]DriveFile{{ID: "f1", Name: "old.pdf", ModifiedTime: ts}},
			[]DriveFile{{ID: "f1", Name: "new.pdf", ModifiedTime: ts}},
		)
		assert.Equal(t, []string{"f1"}, ids(diff.Changed))
	})

	t.Run("identical listing writes nothing", func(t *testing.T) {
		files := []DriveFile{
			{ID: "f1", Name: "a.pdf", ModifiedTime: ParseModifiedTime("2024-01-01T00:00:00Z")},
			{ID: "f2", Name: "b.pdf"},
		}
		diff := DiffDriveFiles(files, files)
		assert.Equal(t, 0, diff.Writes())
		assert.Equal(t, []string{"f1", "f2"}, ids(diff.Unchanged))
	})

	t.Run("duplicate listing entries are considered once", func(t *testing.T) {
		f := DriveFile{ID: "f1", Name: "a.pdf"}
		diff := DiffDriveFiles(nil, []DriveFile{f, f})
		assert.Equal(t, []string{"f1"}, ids(diff.Added))
	})
}

func TestFileState(t *testing.T) {
	assert.False(t, FileAbsent.NeedsExtraction())
	assert.False(t, FileUnchanged.NeedsExtraction())
	assert.True(t, FileChanged.NeedsExtraction())
	assert.True(t, FileNew.NeedsExtraction())
	assert.Equal(t, "new", FileNew.String())
}
