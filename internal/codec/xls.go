package codec

import (
	"fmt"
	"os"

	"github.com/shakinm/xlsReader/xls"

	"github.com/cleared-dev/monthsum/internal/model"
)

// XLS reads legacy BIFF workbooks. Cells come back as text; numeric text
// still counts as a number downstream.
type XLS struct{}

// Format returns the codec name.
func (x *XLS) Format() string { return "xls" }

// Extensions returns the handled file extensions.
func (x *XLS) Extensions() []string { return []string{".xls"} }

// Decode reads the first sheet. The reader only opens files by path, so
// the bytes are staged in a temp file.
func (x *XLS) Decode(data []byte) (model.Table, error) {
	tmp, err := os.CreateTemp("", "monthsum-*.xls")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("staging xls: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("staging xls: %w", err)
	}

	wb, err := xls.OpenFile(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("opening xls: %w", err)
	}
	if wb.GetNumberSheets() == 0 {
		return nil, ErrNoSheets
	}
	sheet, err := wb.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("reading first sheet: %w", err)
	}
	if sheet == nil {
		return nil, ErrNoSheets
	}

	// GetRow and GetCols pad missing rows and cells with blanks, so a row the
	// sheet never stored comes back as a single empty cell.
	var t model.Table
	for i := 0; i < sheet.GetNumberRows(); i++ {
		r, err := sheet.GetRow(i)
		if err != nil || r == nil {
			t = append(t, nil)
			continue
		}
		var row model.Row
		blank := true
		for _, col := range r.GetCols() {
			c := model.Empty()
			if col != nil {
				c = model.Text(col.GetString())
			}
			if !c.IsEmpty() {
				blank = false
			}
			row = append(row, c)
		}
		if blank {
			row = nil
		}
		t = append(t, row)
	}
	for len(t) > 0 && len(t[len(t)-1]) == 0 {
		t = t[:len(t)-1]
	}
	return t, nil
}
