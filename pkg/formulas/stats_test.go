package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndStdDev(t *testing.T) {
	tests := []struct {
		name      string
		data      []float64
		mean      float64
		stdDev    float64
		tolerance float64
	}{
		{"empty", nil, 0, 0, 0},
		{"single", []float64{0.05}, 0.05, 0, 1e-12},
		{"constant", []float64{0.01, 0.01, 0.01}, 0.01, 0, 1e-12},
		// sample std of 1..5 = sqrt(2.5)
		{"sequence", []float64{1, 2, 3, 4, 5}, 3, math.Sqrt(2.5), 1e-12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.mean, Mean(tt.data), tt.tolerance)
			assert.InDelta(t, tt.stdDev, StdDev(tt.data), tt.tolerance)
		})
	}
}

func TestCovarianceAndCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}

	assert.InDelta(t, 5.0, Covariance(x, y), 1e-12)
	assert.InDelta(t, 1.0, Correlation(x, y), 1e-12)
	assert.Equal(t, 0.0, Covariance(x, y[:3]), "length mismatch")
	assert.Equal(t, 0.0, Correlation(x, []float64{1, 1, 1, 1, 1}), "zero variance")
}

func TestCumulativeReturn(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.03, -0.01, 0.02}
	expected := 1.01*0.98*1.03*0.99*1.02 - 1

	assert.InDelta(t, expected, CumulativeReturn(returns), 1e-12)

	path := CumulativeReturns(returns)
	assert.Len(t, path, 5)
	assert.InDelta(t, 0.01, path[0], 1e-12)
	assert.InDelta(t, expected, path[4], 1e-12)
	assert.Equal(t, 0.0, CumulativeReturn(nil))
}

func TestAnnualizeReturn(t *testing.T) {
	// One full year of periods leaves the cumulative return unchanged
	assert.InDelta(t, 0.10, AnnualizeReturn(0.10, 252, 252), 1e-12)
	// Half a year doubles the exponent
	assert.InDelta(t, 1.1*1.1-1, AnnualizeReturn(0.10, 126, 252), 1e-12)
	assert.Equal(t, 0.0, AnnualizeReturn(0.10, 0, 252))
	assert.Equal(t, -1.0, AnnualizeReturn(-1.0, 10, 252))
}

func TestAnnualizeVolatility(t *testing.T) {
	assert.InDelta(t, 0.01*math.Sqrt(252), AnnualizeVolatility(0.01, 252), 1e-12)
}

func TestDownsideDeviation(t *testing.T) {
	returns := []float64{0.02, -0.01, 0.03, -0.02}
	expected := math.Sqrt((0.0001 + 0.0004) / 4)

	assert.InDelta(t, expected, DownsideDeviation(returns), 1e-12)
	assert.Equal(t, 0.0, DownsideDeviation([]float64{0.01, 0.02}))
}

func TestSafeRatio(t *testing.T) {
	assert.Equal(t, 2.0, SafeRatio(4, 2, 1e-12))
	assert.Equal(t, 0.0, SafeRatio(4, 0, 1e-12))
	assert.Equal(t, 0.0, SafeRatio(4, 1e-15, 1e-12))
}
