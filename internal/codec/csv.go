package codec

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/cleared-dev/monthsum/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSV reads and writes comma-separated tables. Input that is not valid
// UTF-8 is decoded as GB18030, which covers GBK exports from Excel.
type CSV struct{}

// Format returns the codec name.
func (c *CSV) Format() string { return "csv" }

// Extensions returns the handled file extensions.
func (c *CSV) Extensions() []string { return []string{".csv", ".txt"} }

// Decode parses data. Ragged rows and stray quotes are tolerated.
func (c *CSV) Decode(data []byte) (model.Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var r io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		r = transform.NewReader(r, simplifiedchinese.GB18030.NewDecoder())
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	t := make(model.Table, 0, len(records))
	for _, rec := range records {
		row := make(model.Row, len(rec))
		for i, v := range rec {
			row[i] = model.Text(v)
		}
		t = append(t, row)
	}
	return t, nil
}

// Encode writes t as UTF-8 CSV with a byte order mark so spreadsheet
// applications pick the right encoding.
func (c *CSV) Encode(t model.Table) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	cw := csv.NewWriter(&buf)
	for i, r := range t {
		rec := make([]string, len(r))
		for j, cell := range r {
			rec[j] = cell.String()
		}
		if err := cw.Write(rec); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("writing CSV: %w", err)
	}
	return buf.Bytes(), nil
}
