// Package summary groups a spreadsheet's measure columns by accounting
// month and sums them.
package summary

import (
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/cleared-dev/monthsum/internal/model"
)

var (
	ErrInputEmpty            = errors.New("input is empty or malformed")
	ErrMonthColumnNotFound   = errors.New("accounting month column not found")
	ErrNoAggregatableColumns = errors.New("no aggregatable numeric columns found")
)

// SuccessMessage is the Result message of a successful run.
const SuccessMessage = "summarized"

// Options controls column detection and output shape.
type Options struct {
	Policy           Policy
	SampleRows       int    // data rows inspected for numeric presence
	FillCalendarYear bool   // expand to YYYY01..YYYY12 when a year is detectable
	MonthHeader      string // first header of the result table
	Placeholder      string // fmt pattern for empty headers, given the 1-based column
}

// DefaultOptions returns the stock options.
func DefaultOptions() Options {
	return Options{
		Policy:           DefaultPolicy(),
		SampleRows:       99,
		FillCalendarYear: true,
		MonthHeader:      "会计月",
		Placeholder:      "列%d",
	}
}

// Engine summarizes tables. It holds no per-call state and is safe for
// concurrent use.
type Engine struct {
	opts   Options
	logger *zap.Logger
}

// New creates an Engine. A nil logger discards diagnostics.
func New(opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SampleRows <= 0 {
		opts.SampleRows = DefaultOptions().SampleRows
	}
	if opts.Placeholder == "" {
		opts.Placeholder = DefaultOptions().Placeholder
	}
	return &Engine{opts: opts, logger: logger}
}

// Options returns the engine's options.
func (e *Engine) Options() Options { return e.opts }

// Analysis is the column layout detected for a table.
type Analysis struct {
	Headers    []string
	MonthIndex int
	Columns    []Column
	Aggregated []Column
	DataRows   int
}

// Analyze locates the month column and classifies the remaining columns.
func (e *Engine) Analyze(t model.Table) (Analysis, error) {
	if len(t) < 2 {
		return Analysis{}, ErrInputEmpty
	}
	a := Analysis{Headers: t.Headers(), DataRows: len(t) - 1}
	e.logger.Debug("table loaded", zap.Strings("headers", a.Headers), zap.Int("rows", a.DataRows))

	a.MonthIndex = LocateMonthColumn(a.Headers, e.opts.Policy)
	if a.MonthIndex < 0 {
		return a, ErrMonthColumnNotFound
	}
	e.logger.Debug("month column located",
		zap.Int("index", a.MonthIndex), zap.String("header", a.Headers[a.MonthIndex]))

	a.Columns = Classify(t, a.MonthIndex, e.opts)
	for _, c := range a.Columns {
		if c.Verdict == VerdictExcluded || c.Verdict == VerdictIncidental {
			e.logger.Debug("column dropped",
				zap.String("header", c.Header), zap.String("verdict", string(c.Verdict)),
				zap.String("category", c.Category))
		}
	}
	a.Aggregated = Selected(a.Columns)
	if len(a.Aggregated) == 0 {
		return a, ErrNoAggregatableColumns
	}
	labels := make([]string, len(a.Aggregated))
	for i, c := range a.Aggregated {
		labels[i] = c.Label
	}
	e.logger.Debug("columns selected", zap.Strings("labels", labels))
	return a, nil
}

// Summarize returns the per-month sums of t's measure columns.
func (e *Engine) Summarize(t model.Table) (model.Table, error) {
	a, err := e.Analyze(t)
	if err != nil {
		return nil, err
	}

	sums, counts := aggregate(t, a.MonthIndex, a.Aggregated)

	observed := make([]string, 0, len(sums))
	for k := range sums {
		observed = append(observed, k)
	}
	sort.Strings(observed)
	for _, k := range observed {
		e.logger.Debug("month rows", zap.String("month", k), zap.Int("rows", counts[k]))
	}

	months := observed
	if e.opts.FillCalendarYear {
		months = CompleteMonths(observed)
		if dropped := droppedMonths(observed, months); len(dropped) > 0 {
			e.logger.Warn("observed months outside the calendar year window",
				zap.Strings("dropped", dropped), zap.String("first", observed[0]))
		}
	}

	header := make(model.Row, 0, len(a.Aggregated)+1)
	header = append(header, model.Text(e.opts.MonthHeader))
	for _, c := range a.Aggregated {
		header = append(header, model.Text(c.Label))
	}

	out := model.Table{header}
	for _, m := range months {
		row := make(model.Row, 0, len(a.Aggregated)+1)
		row = append(row, model.Text(m))
		vec := sums[m]
		for i := range a.Aggregated {
			v := 0.0
			if vec != nil {
				v = Round2(vec[i])
			}
			row = append(row, model.Number(v))
		}
		out = append(out, row)
	}
	return out, nil
}

// Run is Summarize wrapped in a Result envelope.
func (e *Engine) Run(t model.Table) model.Result {
	out, err := e.Summarize(t)
	if err != nil {
		return model.Failed(err.Error())
	}
	return model.Succeeded(SuccessMessage, out)
}

// aggregate sums the selected columns per month key in one pass.
func aggregate(t model.Table, monthIdx int, cols []Column) (map[string][]float64, map[string]int) {
	sums := make(map[string][]float64)
	counts := make(map[string]int)
	for r, row := range t.DataRows() {
		if len(row) == 0 {
			continue
		}
		key := NormalizeMonth(t.Cell(r+1, monthIdx).String())
		if key == "" {
			continue
		}
		vec, ok := sums[key]
		if !ok {
			vec = make([]float64, len(cols))
			sums[key] = vec
		}
		counts[key]++
		for i, c := range cols {
			if v, ok := t.Cell(r+1, c.Index).Float(); ok {
				vec[i] += v
			}
		}
	}
	return sums, counts
}
