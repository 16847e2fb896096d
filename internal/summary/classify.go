package summary

import (
	"fmt"

	"github.com/cleared-dev/monthsum/internal/model"
)

// LocateMonthColumn returns the index of the first header that contains a
// month keyword, or -1 when there is none.
func LocateMonthColumn(headers []string, p Policy) int {
	for i, h := range headers {
		if _, ok := p.Matches(RoleMonth, h); ok {
			return i
		}
	}
	return -1
}

// Verdict is the outcome of classifying one candidate column.
type Verdict string

const (
	VerdictSelected   Verdict = "selected"
	VerdictExcluded   Verdict = "excluded"   // header matched an exclude rule
	VerdictIncidental Verdict = "incidental" // numeric data under a non-measure header
	VerdictNoNumbers  Verdict = "no-numbers" // nothing numeric in the sampled rows
)

// Column is a candidate column and the decision taken about it.
type Column struct {
	Index    int
	Header   string
	Label    string // Header, or the placeholder when Header is empty
	Verdict  Verdict
	Category string // category of the rule that decided, if any
}

// Classify decides, for every column right of monthIdx, whether it is
// aggregated. It returns all decisions in column order; callers filter on
// VerdictSelected.
func Classify(t model.Table, monthIdx int, opts Options) []Column {
	headers := t.Headers()
	var cols []Column
	for col := monthIdx + 1; col < len(headers); col++ {
		c := Column{Index: col, Header: headers[col], Label: headers[col]}
		if c.Label == "" {
			c.Label = fmt.Sprintf(opts.Placeholder, col+1)
		}

		if r, ok := opts.Policy.Matches(RoleExclude, c.Header); ok {
			c.Verdict = VerdictExcluded
			c.Category = r.Category
			cols = append(cols, c)
			continue
		}

		numeric := hasNumber(t, col, opts.SampleRows)
		rule, measure := opts.Policy.Matches(RoleInclude, c.Header)
		switch {
		case numeric && measure:
			c.Verdict = VerdictSelected
			c.Category = rule.Category
		case numeric:
			c.Verdict = VerdictIncidental
		default:
			c.Verdict = VerdictNoNumbers
		}
		cols = append(cols, c)
	}
	return cols
}

// Selected filters cols down to the aggregated ones.
func Selected(cols []Column) []Column {
	var out []Column
	for _, c := range cols {
		if c.Verdict == VerdictSelected {
			out = append(out, c)
		}
	}
	return out
}

// hasNumber reports whether any of the first limit data rows holds a
// finite number in col.
func hasNumber(t model.Table, col, limit int) bool {
	for row := 1; row < len(t) && row <= limit; row++ {
		if _, ok := t.Cell(row, col).Float(); ok {
			return true
		}
	}
	return false
}
