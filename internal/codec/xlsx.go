package codec

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/unidoc/unioffice/spreadsheet"
	"github.com/unidoc/unioffice/spreadsheet/reference"

	"github.com/cleared-dev/monthsum/internal/model"
)

// XLSXOptions controls the cosmetic layout of encoded workbooks.
type XLSXOptions struct {
	SheetName   string
	MinColWidth int // in characters
	MaxColWidth int
}

// DefaultXLSXOptions returns the stock layout.
func DefaultXLSXOptions() XLSXOptions {
	return XLSXOptions{SheetName: "汇总数据", MinColWidth: 10, MaxColWidth: 30}
}

// XLSX reads and writes Office Open XML workbooks.
type XLSX struct {
	opts XLSXOptions
}

// NewXLSX creates an XLSX codec; zero option fields take the defaults.
func NewXLSX(opts XLSXOptions) *XLSX {
	def := DefaultXLSXOptions()
	if opts.SheetName == "" {
		opts.SheetName = def.SheetName
	}
	if opts.MinColWidth <= 0 {
		opts.MinColWidth = def.MinColWidth
	}
	if opts.MaxColWidth <= 0 {
		opts.MaxColWidth = def.MaxColWidth
	}
	return &XLSX{opts: opts}
}

// Format returns the codec name.
func (x *XLSX) Format() string { return "xlsx" }

// Extensions returns the handled file extensions.
func (x *XLSX) Extensions() []string { return []string{".xlsx", ".xlsm"} }

// Decode reads the first sheet. Rows and cells land at their sheet
// positions, so gaps become empty rows and empty cells.
func (x *XLSX) Decode(data []byte) (model.Table, error) {
	wb, err := spreadsheet.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reading workbook: %w", err)
	}
	sheets := wb.Sheets()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	var t model.Table
	for _, row := range sheets[0].Rows() {
		rowIdx := int(row.RowNumber()) - 1
		if rowIdx < 0 {
			continue
		}
		for len(t) <= rowIdx {
			t = append(t, nil)
		}

		var cells model.Row
		for _, cell := range row.Cells() {
			colName, err := cell.Column()
			if err != nil {
				continue
			}
			colIdx := int(reference.ColumnToIndex(colName))
			for len(cells) <= colIdx {
				cells = append(cells, model.Empty())
			}
			cells[colIdx] = decodeXLSXCell(cell)
		}
		t[rowIdx] = cells
	}
	return t, nil
}

func decodeXLSXCell(c spreadsheet.Cell) model.Cell {
	if c.IsEmpty() {
		return model.Empty()
	}
	if c.IsNumber() {
		if v, err := c.GetValueAsNumber(); err == nil {
			return model.Number(v)
		}
	}
	return model.Text(c.GetFormattedValue())
}

// Encode writes t as a single-sheet workbook with column widths sized to
// the content.
func (x *XLSX) Encode(t model.Table) ([]byte, error) {
	wb := spreadsheet.New()
	sheet := wb.AddSheet()
	sheet.SetName(x.opts.SheetName)

	for _, r := range t {
		row := sheet.AddRow()
		for _, c := range r {
			cell := row.AddCell()
			switch c.Kind() {
			case model.KindNumber:
				if v, ok := c.Float(); ok {
					cell.SetNumber(v)
				}
			case model.KindText:
				cell.SetString(c.String())
			}
		}
	}

	for i, w := range ColumnWidths(t, x.opts.MinColWidth, x.opts.MaxColWidth) {
		col := sheet.Column(uint32(i + 1)).X()
		width := float64(w)
		custom := true
		col.WidthAttr = &width
		col.CustomWidthAttr = &custom
	}

	var buf bytes.Buffer
	if err := wb.Save(&buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ColumnWidths sizes each column to twice its longest value plus two
// characters, clamped to [minWidth, maxWidth].
func ColumnWidths(t model.Table, minWidth, maxWidth int) []int {
	widths := make([]int, t.Width())
	for i := range widths {
		widths[i] = minWidth
	}
	for _, r := range t {
		for i, c := range r {
			w := utf8.RuneCountInString(c.String())*2 + 2
			if w > widths[i] {
				widths[i] = min(w, maxWidth)
			}
		}
	}
	return widths
}
