package summary

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds v to two decimals as round(v*100)/100, with halves on the
// scaled value going away from zero.
func Round2(v float64) float64 {
	scaled := v * 100
	if math.IsNaN(scaled) || math.IsInf(scaled, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(scaled).Round(0).Div(hundred).Float64()
	return f
}
