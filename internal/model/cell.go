package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CellKind classifies the value held by a Cell.
type CellKind uint8

const (
	KindEmpty CellKind = iota
	KindNumber
	KindText
)

// Cell is a single spreadsheet value: empty, a number, or text.
type Cell struct {
	kind CellKind
	num  float64
	text string
}

// Empty returns an empty cell.
func Empty() Cell { return Cell{} }

// Number returns a numeric cell.
func Number(v float64) Cell { return Cell{kind: KindNumber, num: v} }

// Text returns a text cell. An empty string yields an empty cell.
func Text(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{kind: KindText, text: s}
}

// Kind returns the cell's kind.
func (c Cell) Kind() CellKind { return c.kind }

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool { return c.kind == KindEmpty }

// String renders the cell as it is used for headers and month keys.
// Numbers use their shortest decimal form, so 202501 renders as "202501".
func (c Cell) String() string {
	switch c.kind {
	case KindNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindText:
		return c.text
	default:
		return ""
	}
}

// Float returns the cell's value as a finite number.
// Text is trimmed and parsed as decimal notation. Blank text, hex literals,
// NaN and infinities are not numbers.
func (c Cell) Float() (float64, bool) {
	switch c.kind {
	case KindNumber:
		if math.IsNaN(c.num) || math.IsInf(c.num, 0) {
			return 0, false
		}
		return c.num, true
	case KindText:
		s := strings.TrimSpace(c.text)
		if s == "" || isHex(s) {
			return 0, false
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

func isHex(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// MarshalJSON encodes empty cells as null, numbers as JSON numbers and text as strings.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case KindNumber:
		if math.IsNaN(c.num) || math.IsInf(c.num, 0) {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(c.num, 'f', -1, 64)), nil
	case KindText:
		return json.Marshal(c.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, numbers and strings.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*c = Empty()
	case float64:
		*c = Number(t)
	case string:
		*c = Text(t)
	case bool:
		*c = Text(strconv.FormatBool(t))
	default:
		*c = Text(string(data))
	}
	return nil
}
