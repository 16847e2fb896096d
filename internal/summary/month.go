package summary

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	digitsRe    = regexp.MustCompile(`^\d+$`)
	yearMonthRe = regexp.MustCompile(`^\d{4}[-/]\d{1,2}$`)
	yearRe      = regexp.MustCompile(`^(\d{4})`)
)

// NormalizeMonth maps a raw month cell to its month key. An empty result
// means the row carries no month and is skipped.
//
// Digit-only values are period codes and stay as they are. "YYYY-M" and
// "YYYY/M" lose their separator without padding, so "2025-3" becomes "20253".
// Anything else is its own key.
func NormalizeMonth(raw string) string {
	s := strings.TrimSpace(raw)
	switch {
	case s == "":
		return ""
	case digitsRe.MatchString(s):
		return s
	case yearMonthRe.MatchString(s):
		return strings.NewReplacer("-", "", "/", "").Replace(s)
	default:
		return s
	}
}

// CompleteMonths expands sorted keys to YYYY01..YYYY12 when the first key
// starts with a four-digit year. Otherwise the keys are returned unchanged.
//
// Only the year of the first key is used: keys from other years, or keys
// that are not in YYYYMM form, are not part of the returned window.
func CompleteMonths(sorted []string) []string {
	if len(sorted) == 0 {
		return nil
	}
	m := yearRe.FindStringSubmatch(sorted[0])
	if m == nil {
		return sorted
	}
	months := make([]string, 0, 12)
	for i := 1; i <= 12; i++ {
		months = append(months, fmt.Sprintf("%s%02d", m[1], i))
	}
	return months
}

// droppedMonths lists observed keys missing from the emitted window.
func droppedMonths(observed, emitted []string) []string {
	in := make(map[string]bool, len(emitted))
	for _, k := range emitted {
		in[k] = true
	}
	var out []string
	for _, k := range observed {
		if !in[k] {
			out = append(out, k)
		}
	}
	return out
}
