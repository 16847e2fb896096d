package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/monthsum/internal/codec"
	"github.com/cleared-dev/monthsum/internal/model"
	"github.com/cleared-dev/monthsum/internal/summary"
)

const sampleCSV = "会计月,产品编码,数量\n2025-01,A1,1\n2025-01,A2,2\n2025-02,A1,5\n"

func newService() *Service {
	return NewService(
		codec.DefaultRegistry(codec.DefaultXLSXOptions()),
		summary.New(summary.DefaultOptions(), nil),
		nil,
	)
}

func TestSummarize(t *testing.T) {
	got, err := newService().Summarize("in.csv", []byte(sampleCSV))
	require.NoError(t, err)
	require.Len(t, got, 13)
	assert.Equal(t, []string{"会计月", "数量"}, got.Headers())
	assert.Equal(t, "202501", got.Cell(1, 0).String())
	assert.Equal(t, "3", got.Cell(1, 1).String())
	assert.Equal(t, "5", got.Cell(2, 1).String())
}

func TestProcess_Formats(t *testing.T) {
	s := newService()

	xlsx, err := s.Process("in.csv", []byte(sampleCSV), FormatXLSX)
	require.NoError(t, err)
	back, err := s.Decode("out.xlsx", xlsx)
	require.NoError(t, err)
	assert.Equal(t, "数量", back.Cell(0, 1).String())

	csvOut, err := s.Process("in.csv", []byte(sampleCSV), "CSV")
	require.NoError(t, err)
	assert.Contains(t, string(csvOut), "202501,3")

	js, err := s.Process("in.csv", []byte(sampleCSV), FormatJSON)
	require.NoError(t, err)
	var res model.Result
	require.NoError(t, json.Unmarshal(js, &res))
	assert.True(t, res.Success)
	assert.Equal(t, summary.SuccessMessage, res.Message)
	assert.Len(t, res.Data, 13)
}

func TestProcess_UnknownFormat(t *testing.T) {
	_, err := newService().Process("in.csv", []byte(sampleCSV), "pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestIsEngineError(t *testing.T) {
	s := newService()

	_, err := s.Summarize("in.csv", []byte("名称,数量\nx,1\n"))
	require.Error(t, err)
	assert.True(t, IsEngineError(err))
	assert.ErrorIs(t, err, summary.ErrMonthColumnNotFound)

	_, err = s.Summarize("in.xlsx", []byte("not a workbook"))
	require.Error(t, err)
	assert.False(t, IsEngineError(err))
}

func TestValidFormatAndExtension(t *testing.T) {
	assert.True(t, ValidFormat("XLSX"))
	assert.True(t, ValidFormat("json"))
	assert.False(t, ValidFormat("xls"))
	assert.Equal(t, ".csv", Extension("CSV"))
}
