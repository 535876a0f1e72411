// Package stats holds the small numeric helpers shared by the price aggregates.
package stats

import (
	"math"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// MeanStdDev returns the mean and the population standard deviation
// (N denominator, not Bessel-corrected) of values. Empty input yields 0, 0.
func MeanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	if len(values) == 1 {
		return mean, 0
	}

	sq := 0.0
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// Volatility is the population standard deviation of values, or null when
// there is nothing to measure.
func Volatility(values []float64) null.Float {
	if len(values) == 0 {
		return null.Float{}
	}
	_, std := MeanStdDev(values)
	return null.FloatFrom(std)
}

// PercentChange returns ((current - previous) / previous) * 100 rounded to two
// decimals. It is null when either side is absent or previous is zero.
func PercentChange(current, previous null.Float) null.Float {
	if !current.Valid || !previous.Valid || previous.Float64 == 0 {
		return null.Float{}
	}
	return null.FloatFrom(Round2((current.Float64 - previous.Float64) / previous.Float64 * 100))
}

// Ratio returns part / whole * 100 rounded to two decimals, or null when
// either side is absent or whole is zero.
func Ratio(part, whole null.Float) null.Float {
	if !part.Valid || !whole.Valid || whole.Float64 == 0 {
		return null.Float{}
	}
	return null.FloatFrom(Round2(part.Float64 / whole.Float64 * 100))
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
