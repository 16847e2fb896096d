package model

import "strings"

// Row is one spreadsheet row. Rows in a Table may differ in length.
type Row []Cell

// Table is a 2-D grid of cells. Row 0, when present, holds the headers.
type Table []Row

// Cell returns the cell at (row, col), or an empty cell when out of range.
func (t Table) Cell(row, col int) Cell {
	if row < 0 || row >= len(t) {
		return Empty()
	}
	r := t[row]
	if col < 0 || col >= len(r) {
		return Empty()
	}
	return r[col]
}

// Headers returns the trimmed text of row 0.
func (t Table) Headers() []string {
	if len(t) == 0 {
		return nil
	}
	headers := make([]string, len(t[0]))
	for i, c := range t[0] {
		headers[i] = strings.TrimSpace(c.String())
	}
	return headers
}

// DataRows returns all rows after the header row.
func (t Table) DataRows() []Row {
	if len(t) <= 1 {
		return nil
	}
	return t[1:]
}

// Width returns the length of the longest row.
func (t Table) Width() int {
	w := 0
	for _, r := range t {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// TextRow builds a row of text cells.
func TextRow(values ...string) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = Text(v)
	}
	return row
}
