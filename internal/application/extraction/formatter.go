// Package extraction turns PDF text and tables into structured invoice records
// with a generative model.
package extraction

import (
	"strconv"
	"strings"

	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

// FormatForLLM merges text blocks and tables into one prompt document.
// Blocks come first separated by blank lines, then each table labelled with
// its 1-based index, rows on separate lines and cells separated by tabs.
func FormatForLLM(blocks []string, tables []entity.Table) string {
	var b strings.Builder
	b.WriteString(strings.Join(blocks, "\n\n"))

	for i, table := range tables {
		b.WriteString("\n\nTable ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(":\n")
		for r, row := range table {
			if r > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(strings.Join(row, "\t"))
		}
	}

	return b.String()
}
