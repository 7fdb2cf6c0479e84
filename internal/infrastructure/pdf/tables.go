package pdf

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/garyjia/asset-tracker/internal/application/port"
	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

// DefaultCellGap is the horizontal gap in points that separates two cells.
const DefaultCellGap = 10.0

// textRun is a positioned piece of text on a page
type textRun struct {
	X, W     float64
	FontSize float64
	S        string
}

// textRow is a line of runs sharing a baseline
type textRow struct {
	Y    float64
	Runs []textRun
}

// rowDocument is the part of a PDF reader the table extractor reads.
// Pages are 1-based.
type rowDocument interface {
	NumPage() int
	Rows(page int) ([]textRow, error)
	Close() error
}

// TableExtractor implements port.TableExtractor by grouping positioned text
// rows into cell grids
type TableExtractor struct {
	open    func(path string) (rowDocument, error)
	cellGap float64
	logger  *zap.Logger
}

// NewTableExtractor creates a table extractor backed by ledongthuc/pdf.
// A non-positive cellGap uses DefaultCellGap.
func NewTableExtractor(cellGap float64, logger *zap.Logger) *TableExtractor {
	if cellGap <= 0 {
		cellGap = DefaultCellGap
	}
	return &TableExtractor{
		open:    openLedongthuc,
		cellGap: cellGap,
		logger:  logger,
	}
}

// ExtractTables returns every detected table in page order.
// Pages that fail are logged and contribute no tables.
func (e *TableExtractor) ExtractTables(ctx context.Context, path string) ([]entity.Table, error) {
	doc, err := e.open(path)
	if err != nil {
		e.logger.Error("Failed to open PDF for table extraction",
			zap.String("path", path),
			zap.Error(err))
		return nil, err
	}
	defer doc.Close()

	var tables []entity.Table
	for page := 1; page <= doc.NumPage(); page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var rows []textRow
		err := guardPage(path, page, func() error {
			var err error
			rows, err = doc.Rows(page)
			return err
		})
		if err != nil {
			e.logger.Warn("Skipping page during table extraction",
				zap.String("path", path),
				zap.Int("page", page),
				zap.Error(err))
			continue
		}

		tables = append(tables, e.detectTables(rows)...)
	}

	e.logger.Debug("Extracted tables",
		zap.String("path", path),
		zap.Int("tables", len(tables)))

	return tables, nil
}

// detectTables treats every run of two or more consecutive rows that each
// split into two or more cells as one table.
func (e *TableExtractor) detectTables(rows []textRow) []entity.Table {
	var tables []entity.Table
	var current [][]string

	flush := func() {
		if len(current) >= 2 {
			tables = append(tables, padRows(current))
		}
		current = nil
	}

	for _, row := range rows {
		cells := splitCells(row.Runs, e.cellGap)
		if len(cells) < 2 {
			flush()
			continue
		}
		current = append(current, cells)
	}
	flush()

	return tables
}

// splitCells orders runs left to right and starts a new cell wherever the
// gap to the previous visible run exceeds cellGap.
func splitCells(runs []textRun, cellGap float64) []string {
	sorted := make([]textRun, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var cells []string
	var cell strings.Builder
	prevEnd := 0.0
	started := false

	for _, r := range sorted {
		if strings.TrimSpace(r.S) == "" {
			continue
		}
		gap := r.X - prevEnd
		switch {
		case !started:
			started = true
		case gap > cellGap:
			cells = append(cells, normalizeCell(cell.String()))
			cell.Reset()
		case gap > spaceWidth(r.FontSize):
			cell.WriteByte(' ')
		}
		cell.WriteString(r.S)
		prevEnd = r.X + r.W
	}
	if started {
		cells = append(cells, normalizeCell(cell.String()))
	}

	return cells
}

func spaceWidth(fontSize float64) float64 {
	if fontSize <= 0 {
		return 1.0
	}
	return fontSize * 0.2
}

func normalizeCell(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// padRows fills short rows with empty cells up to the widest row.
func padRows(rows [][]string) entity.Table {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	table := make(entity.Table, len(rows))
	for i, r := range rows {
		padded := make([]string, width)
		copy(padded, r)
		table[i] = padded
	}
	return table
}

// ledongthucDocument adapts ledongthuc/pdf to rowDocument
type ledongthucDocument struct {
	file   *os.File
	reader *pdf.Reader
}

func openLedongthuc(path string) (rowDocument, error) {
	if err := checkPDF(path); err != nil {
		return nil, err
	}
	f, r, err := pdf.Open(path)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, &entity.DocumentOpenError{Path: path, Err: err}
	}
	return &ledongthucDocument{file: f, reader: r}, nil
}

func (d *ledongthucDocument) NumPage() int {
	return d.reader.NumPage()
}

func (d *ledongthucDocument) Rows(page int) ([]textRow, error) {
	p := d.reader.Page(page)
	if p.V.IsNull() {
		return nil, nil
	}

	rows, err := p.GetTextByRow()
	if err != nil {
		return nil, err
	}

	out := make([]textRow, 0, len(rows))
	for _, row := range rows {
		tr := textRow{Y: float64(row.Position)}
		for _, t := range row.Content {
			tr.Runs = append(tr.Runs, textRun{X: t.X, W: t.W, FontSize: t.FontSize, S: t.S})
		}
		out = append(out, tr)
	}

	// PDF space grows upward; read top to bottom.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Y > out[j].Y })
	return out, nil
}

func (d *ledongthucDocument) Close() error {
	return d.file.Close()
}

var _ port.TableExtractor = (*TableExtractor)(nil)
