package optimization

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/analytics/internal/domain"
)

func TestFrontier_TracesMinVolToMaxReturn(t *testing.T) {
	m, benchmark := twoAssetUniverse(t)
	opt := newTestOptimizer()

	points, err := opt.Frontier(context.Background(), m, benchmark, zeroRiskFree, 5, Options{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(points), 4)

	minVol, err := opt.Optimize(context.Background(), m, benchmark, zeroRiskFree, MinVol, Options{})
	require.NoError(t, err)
	assert.InDeltaSlice(t, minVol.Weights, points[0].Weights, 1e-9)

	mu := m.Means()
	span := mu[0] - points[0].Return
	for i, pt := range points {
		assertFeasible(t, pt.Weights, DefaultBounds(2))
		assert.Equal(t, pt.Statistics.DailyVolatility, pt.PeriodicVolatility)
		assert.Equal(t, pt.Statistics.AnnualizedVolatility, pt.Volatility)
		assert.Equal(t, pt.Statistics.AnnualizedReturn, pt.AnnualizedReturn)
		assert.InDelta(t, pt.PeriodicVolatility*math.Sqrt(zeroRiskFree.PeriodsPerYear), pt.Volatility, 1e-12)
		assert.InDelta(t, pt.Target, pt.Return, frontierTargetTolerance*span+1e-12)
		if i > 0 {
			assert.Greater(t, pt.Target, points[i-1].Target)
			assert.GreaterOrEqual(t, pt.Volatility, points[i-1].Volatility-1e-3)
		}
	}
}

func TestFrontier_SinglePoint(t *testing.T) {
	m, benchmark := twoAssetUniverse(t)

	points, err := newTestOptimizer().Frontier(context.Background(), m, benchmark, zeroRiskFree, 1, Options{})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, points[0].Target, points[0].Return)
}

func TestFrontier_Errors(t *testing.T) {
	m, benchmark := twoAssetUniverse(t)

	_, err := newTestOptimizer().Frontier(context.Background(), m, benchmark, zeroRiskFree, 0, Options{})
	assert.True(t, errors.Is(err, domain.ErrInvalidParameter))

	_, err = newTestOptimizer().Frontier(context.Background(), m, benchmark, zeroRiskFree, 5, Options{Bounds: []Bound{{0, 0.1}, {0, 0.1}}})
	assert.True(t, errors.Is(err, domain.ErrInfeasibleConstraints))
}

func TestMaxAttainableReturn(t *testing.T) {
	mu := []float64{0.1, 0.3, 0.2}
	bounds := []Bound{{0.1, 0.5}, {0.1, 0.5}, {0.1, 0.5}}

	// Lower bounds first, then the best assets up to their caps: 0.1, 0.5, 0.4
	assert.InDelta(t, 0.24, maxAttainableReturn(mu, bounds), 1e-12)
	assert.InDelta(t, 0.3, maxAttainableReturn(mu, DefaultBounds(3)), 1e-12)
}
