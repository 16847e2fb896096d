// Package pipeline ties decoding, summarizing and encoding together for
// the CLI, the HTTP server and the inbox watcher.
package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cleared-dev/monthsum/internal/codec"
	"github.com/cleared-dev/monthsum/internal/model"
	"github.com/cleared-dev/monthsum/internal/summary"
)

// Output formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ErrUnknownFormat is returned for an output format with no encoder.
var ErrUnknownFormat = errors.New("unknown output format")

// Service decodes uploaded spreadsheets, summarizes them and renders the result.
type Service struct {
	codecs *codec.Registry
	engine *summary.Engine
	logger *zap.Logger
}

// NewService creates a pipeline Service.
func NewService(codecs *codec.Registry, engine *summary.Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{codecs: codecs, engine: engine, logger: logger}
}

// Codecs returns the registry used for decoding and encoding.
func (s *Service) Codecs() *codec.Registry { return s.codecs }

// Engine returns the summary engine.
func (s *Service) Engine() *summary.Engine { return s.engine }

// Decode parses data, picking a decoder from name and content.
func (s *Service) Decode(name string, data []byte) (model.Table, error) {
	return s.codecs.Decode(name, data)
}

// Summarize decodes data and groups it by accounting month.
func (s *Service) Summarize(name string, data []byte) (model.Table, error) {
	t, err := s.Decode(name, data)
	if err != nil {
		return nil, err
	}
	out, err := s.engine.Summarize(t)
	if err != nil {
		return nil, err
	}
	s.logger.Info("summarized",
		zap.String("input", name),
		zap.Int("rows", len(t)-1),
		zap.Int("months", len(out)-1),
	)
	return out, nil
}

// Render encodes a summary table in format. The json format produces the
// result envelope.
func (s *Service) Render(t model.Table, format string) ([]byte, error) {
	format = strings.ToLower(format)
	if format == FormatJSON {
		return RenderResult(model.Succeeded(summary.SuccessMessage, t))
	}
	enc := s.codecs.Encoder(format)
	if enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	data, err := enc.Encode(t)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", format, err)
	}
	return data, nil
}

// Process summarizes data and renders it in one step.
func (s *Service) Process(name string, data []byte, format string) ([]byte, error) {
	t, err := s.Summarize(name, data)
	if err != nil {
		return nil, err
	}
	return s.Render(t, format)
}

// RenderResult marshals a result envelope as indented JSON.
func RenderResult(r model.Result) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return append(data, '\n'), nil
}

// IsEngineError reports whether err came from the summary engine rather
// than from reading or writing a spreadsheet.
func IsEngineError(err error) bool {
	return errors.Is(err, summary.ErrInputEmpty) ||
		errors.Is(err, summary.ErrMonthColumnNotFound) ||
		errors.Is(err, summary.ErrNoAggregatableColumns)
}

// ValidFormat reports whether format can be rendered.
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case FormatXLSX, FormatCSV, FormatJSON:
		return true
	}
	return false
}

// Extension returns the file extension for format, including the dot.
func Extension(format string) string {
	return "." + strings.ToLower(format)
}
