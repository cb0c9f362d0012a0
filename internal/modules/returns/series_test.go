package returns

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/analytics/internal/domain"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func pricesFrom(values ...float64) []domain.PricePoint {
	points := make([]domain.PricePoint, len(values))
	for i, v := range values {
		points[i] = domain.PricePoint{Date: day0.AddDate(0, 0, i), AdjustedClose: v}
	}
	return points
}

func TestBuild_SimpleReturns(t *testing.T) {
	series, err := Build("AAPL", pricesFrom(100, 110, 99))
	require.NoError(t, err)

	assert.Equal(t, "AAPL", series.Symbol)
	require.Equal(t, 2, series.Len())
	assert.InDelta(t, 0.10, series.Returns[0], 1e-12)
	assert.InDelta(t, -0.10, series.Returns[1], 1e-12)
	assert.Equal(t, day0.AddDate(0, 0, 1), series.Start())
	assert.Equal(t, day0.AddDate(0, 0, 2), series.End())
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name     string
		prices   []domain.PricePoint
		expected error
	}{
		{"no prices", nil, domain.ErrInsufficientData},
		{"one price", pricesFrom(100), domain.ErrInsufficientData},
		{"zero price", pricesFrom(100, 0, 101), domain.ErrInvalidPrice},
		{"negative price", pricesFrom(100, -5), domain.ErrInvalidPrice},
		{"nan price", pricesFrom(100, math.NaN()), domain.ErrInvalidPrice},
		{"infinite price", pricesFrom(100, math.Inf(1)), domain.ErrInvalidPrice},
		{"duplicate timestamp", []domain.PricePoint{
			{Date: day0, AdjustedClose: 100},
			{Date: day0, AdjustedClose: 101},
		}, domain.ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build("X", tt.prices)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
		})
	}
}

func TestBuild_CompoundingRoundTrip(t *testing.T) {
	sequences := [][]float64{
		{100, 101},
		{100, 95, 97.5, 120, 80, 81.25},
		{0.5, 0.75, 0.6, 3.2, 1.1},
		{250.12, 250.12, 250.13, 249.99, 251.50, 260.01, 230.40},
	}

	for _, prices := range sequences {
		series, err := Build("X", pricesFrom(prices...))
		require.NoError(t, err)

		expected := prices[len(prices)-1]/prices[0] - 1
		assert.InDelta(t, expected, Compound(series.Returns), 1e-9)
	}
}

func TestBuild_DoesNotAliasInput(t *testing.T) {
	prices := pricesFrom(100, 110, 121)
	series, err := Build("X", prices)
	require.NoError(t, err)

	prices[2].AdjustedClose = 1
	assert.InDelta(t, 0.10, series.Returns[1], 1e-12)
}
