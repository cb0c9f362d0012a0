package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawdownSeries(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.03, -0.01, 0.02}
	dd := DrawdownSeries(returns)

	require.Len(t, dd, len(returns))
	assert.InDelta(t, 0.0, dd[0], 1e-12)
	assert.InDelta(t, -0.02, dd[1], 1e-12)
	assert.InDelta(t, 0.0, dd[2], 1e-12)
	assert.InDelta(t, -0.01, dd[3], 1e-12)
	assert.InDelta(t, 0.0, dd[4], 1e-12)

	assert.InDelta(t, -0.02, DeepestDrawdown(dd), 1e-12)
}

func TestDrawdownSeries_FirstPeriodLoss(t *testing.T) {
	dd := DrawdownSeries([]float64{-0.10, 0.05})
	assert.InDelta(t, -0.10, dd[0], 1e-12)
	assert.InDelta(t, 0.9*1.05-1, dd[1], 1e-12)
}

func TestDeepestDrawdown_MatchesSeriesMinimum(t *testing.T) {
	returns := []float64{0.05, -0.03, -0.04, 0.02, 0.08, -0.10, 0.01, 0.03}
	dd := DrawdownSeries(returns)

	lowest := 0.0
	for _, v := range dd {
		assert.LessOrEqual(t, v, 0.0)
		if v < lowest {
			lowest = v
		}
	}
	assert.Equal(t, lowest, DeepestDrawdown(dd))
}

func TestDeepestDrawdown_MonotonicGains(t *testing.T) {
	assert.Equal(t, 0.0, DeepestDrawdown(DrawdownSeries([]float64{0.01, 0.02, 0.03})))
	assert.Equal(t, 0.0, DeepestDrawdown(nil))
}
