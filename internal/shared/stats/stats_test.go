package stats

import (
	"math"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
)

func TestMeanStdDev(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		values   []float64
		wantMean float64
		wantStd  float64
	}{
		{name: "empty", values: nil, wantMean: 0, wantStd: 0},
		{name: "single value has zero dispersion", values: []float64{4200}, wantMean: 4200, wantStd: 0},
		{name: "population, not sample", values: []float64{10, 20, 30}, wantMean: 20, wantStd: math.Sqrt(200.0 / 3.0)},
		{name: "constant series", values: []float64{5, 5, 5, 5}, wantMean: 5, wantStd: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mean, std := MeanStdDev(tt.values)
			assert.InDelta(t, tt.wantMean, mean, 1e-9)
			assert.InDelta(t, tt.wantStd, std, 1e-9)
		})
	}

	_, std := MeanStdDev([]float64{10, 20, 30})
	assert.InDelta(t, 8.16, std, 0.005)
}

func TestVolatility(t *testing.T) {
	t.Parallel()

	assert.False(t, Volatility(nil).Valid)

	v := Volatility([]float64{3000})
	assert.True(t, v.Valid)
	assert.Equal(t, 0.0, v.Float64)
}

func TestPercentChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		current  null.Float
		previous null.Float
		want     null.Float
	}{
		{name: "increase", current: null.FloatFrom(110), previous: null.FloatFrom(100), want: null.FloatFrom(10)},
		{name: "decrease", current: null.FloatFrom(75), previous: null.FloatFrom(100), want: null.FloatFrom(-25)},
		{name: "rounded to two decimals", current: null.FloatFrom(2), previous: null.FloatFrom(3), want: null.FloatFrom(-33.33)},
		{name: "previous absent", current: null.FloatFrom(100), previous: null.Float{}, want: null.Float{}},
		{name: "current absent", current: null.Float{}, previous: null.FloatFrom(100), want: null.Float{}},
		{name: "previous zero", current: null.FloatFrom(100), previous: null.FloatFrom(0), want: null.Float{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := PercentChange(tt.current, tt.previous)
			assert.Equal(t, tt.want.Valid, got.Valid)
			if tt.want.Valid {
				assert.InDelta(t, tt.want.Float64, got.Float64, 1e-9)
			}
			assert.False(t, math.IsNaN(got.Float64))
		})
	}
}

func TestRatio(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10.0, Ratio(null.FloatFrom(20), null.FloatFrom(200)).Float64)
	assert.False(t, Ratio(null.FloatFrom(20), null.Float{}).Valid)
	assert.False(t, Ratio(null.Float{}, null.FloatFrom(200)).Valid)
}
