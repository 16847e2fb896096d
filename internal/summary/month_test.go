package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMonth(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2025-01", "202501"},
		{"2025/01", "202501"},
		{"202501", "202501"},
		{"2025-3", "20253"},
		{"2025/3", "20253"},
		{" 2025-12 ", "202512"},
		{"12", "12"},
		{"", ""},
		{"   ", ""},
		{"2025年3月", "2025年3月"},
		{"2025-03-01", "2025-03-01"},
		{"25-03", "25-03"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeMonth(tt.raw), "NormalizeMonth(%q)", tt.raw)
	}
}

func TestNormalizeMonth_SeparatorsAgree(t *testing.T) {
	assert.Equal(t, NormalizeMonth("2025-3"), NormalizeMonth("2025/3"))
	assert.Equal(t, "20253", NormalizeMonth("2025/3"))
}

func TestCompleteMonths(t *testing.T) {
	assert.Equal(t, []string{
		"202401", "202402", "202403", "202404", "202405", "202406",
		"202407", "202408", "202409", "202410", "202411", "202412",
	}, CompleteMonths([]string{"202403", "202407"}))

	assert.Equal(t, []string{"P01", "P02"}, CompleteMonths([]string{"P01", "P02"}))
	assert.Nil(t, CompleteMonths(nil))
	assert.Len(t, CompleteMonths([]string{"2025年3月"}), 12)
}

func TestDroppedMonths(t *testing.T) {
	emitted := CompleteMonths([]string{"202512", "202601"})
	assert.Equal(t, []string{"202601"}, droppedMonths([]string{"202512", "202601"}, emitted))
	assert.Nil(t, droppedMonths([]string{"202512"}, emitted))
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.005 + 1.004, 2.01},
		{0.125, 0.13},
		{-0.125, -0.13},
		{2.5, 2.5},
		{10.0 / 3, 3.33},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "Round2(%v)", tt.in)
	}
}
