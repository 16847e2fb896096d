// Package codec converts spreadsheet bytes to and from model.Table.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/monthsum/internal/model"
)

// ErrNoSheets is returned when a workbook holds no worksheet.
var ErrNoSheets = errors.New("workbook has no sheets")

// Decoder turns a spreadsheet byte stream into a Table (first sheet only).
type Decoder interface {
	Format() string
	Extensions() []string
	Decode(data []byte) (model.Table, error)
}

// Encoder turns a Table into a spreadsheet byte stream.
type Encoder interface {
	Format() string
	Encode(t model.Table) ([]byte, error)
}

// Registry holds decoders and encoders by format name and file extension.
type Registry struct {
	decoders map[string]Decoder
	byExt    map[string]Decoder
	encoders map[string]Encoder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		decoders: make(map[string]Decoder),
		byExt:    make(map[string]Decoder),
		encoders: make(map[string]Encoder),
	}
}

// RegisterDecoder adds a decoder. Panics on a duplicate format or extension.
func (r *Registry) RegisterDecoder(d Decoder) {
	key := strings.ToLower(d.Format())
	if _, ok := r.decoders[key]; ok {
		panic("duplicate decoder format: " + key)
	}
	r.decoders[key] = d
	for _, ext := range d.Extensions() {
		ext = strings.ToLower(ext)
		if _, ok := r.byExt[ext]; ok {
			panic("duplicate decoder extension: " + ext)
		}
		r.byExt[ext] = d
	}
}

// RegisterEncoder adds an encoder. Panics on a duplicate format.
func (r *Registry) RegisterEncoder(e Encoder) {
	key := strings.ToLower(e.Format())
	if _, ok := r.encoders[key]; ok {
		panic("duplicate encoder format: " + key)
	}
	r.encoders[key] = e
}

// Decoder returns the decoder for format, or nil.
func (r *Registry) Decoder(format string) Decoder {
	return r.decoders[strings.ToLower(format)]
}

// Encoder returns the encoder for format, or nil.
func (r *Registry) Encoder(format string) Encoder {
	return r.encoders[strings.ToLower(format)]
}

// Supported reports whether name has an extension with a registered decoder.
func (r *Registry) Supported(name string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(name))]
	return ok
}

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Detect picks a decoder by file extension, then by content signature.
// Content that is neither a zip nor an OLE2 container is treated as csv.
func (r *Registry) Detect(name string, data []byte) (Decoder, error) {
	if d, ok := r.byExt[strings.ToLower(filepath.Ext(name))]; ok {
		return d, nil
	}
	var format string
	switch {
	case bytes.HasPrefix(data, zipMagic):
		format = "xlsx"
	case bytes.HasPrefix(data, oleMagic):
		format = "xls"
	case len(data) > 0:
		format = "csv"
	}
	if d := r.Decoder(format); d != nil {
		return d, nil
	}
	return nil, fmt.Errorf("unsupported spreadsheet %q", name)
}

// Decode detects the format of data and decodes it.
func (r *Registry) Decode(name string, data []byte) (model.Table, error) {
	d, err := r.Detect(name, data)
	if err != nil {
		return nil, err
	}
	t, err := d.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s as %s: %w", name, d.Format(), err)
	}
	return t, nil
}

// DefaultRegistry returns a registry with the built-in codecs.
func DefaultRegistry(opts XLSXOptions) *Registry {
	r := NewRegistry()
	x := NewXLSX(opts)
	c := &CSV{}
	r.RegisterDecoder(x)
	r.RegisterDecoder(&XLS{})
	r.RegisterDecoder(c)
	r.RegisterEncoder(x)
	r.RegisterEncoder(c)
	return r
}
