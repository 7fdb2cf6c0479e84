package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

func TestFormatForLLM(t *testing.T) {
	tests := []struct {
		name   string
		blocks []string
		tables []entity.Table
		want   string
	}{
		{
			name:   "text then numbered tables",
			blocks: []string{"A", "B"},
			tables: []entity.Table{{{"1", "2"}}},
			want:   "A\n\nB\n\nTable 1:\n1\t2",
		},
		{
			name:   "several tables and rows",
			blocks: []string{"Header"},
			tables: []entity.Table{
				{{"Model", "Qty"}, {"T14", "2"}},
				{{"Total", "", "90000"}},
			},
			want: "Header\n\nTable 1:\nModel\tQty\nT14\t2\n\nTable 2:\nTotal\t\t90000",
		},
		{
			name:   "text only",
			blocks: []string{"only text"},
			want:   "only text",
		},
		{
			name: "nothing",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatForLLM(tt.blocks, tt.tables))
		})
	}
}

func TestFormatForLLM_Deterministic(t *testing.T) {
	blocks := []string{"Invoice INV-1", "Acme\nMG Road"}
	tables := []entity.Table{{{"a", "b"}, {"c", ""}}, {{"x"}}}

	first := FormatForLLM(blocks, tables)
	second := FormatForLLM(blocks, tables)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"Invoice INV-1", "Acme\nMG Road"}, blocks)
}
