package yahoo

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wnjoon/go-yfinance/pkg/models"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/modules/returns"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func newTestClient(bars []models.Bar, err error) (*Client, *models.HistoryParams) {
	var captured models.HistoryParams
	c := NewClient(1000, zerolog.Nop())
	c.now = func() time.Time { return day(31) }
	c.history = func(symbol string, params models.HistoryParams) ([]models.Bar, error) {
		captured = params
		return bars, err
	}
	return c, &captured
}

func TestGetPriceHistory(t *testing.T) {
	bars := []models.Bar{
		{Date: day(5), Close: 10, AdjClose: 9.5},
		{Date: day(1), Close: 8, AdjClose: 7.5},
		{Date: day(4), Close: 9, AdjClose: 0},
		{Date: day(6), Close: math.NaN(), AdjClose: math.NaN()},
		{Date: day(20), Close: 11, AdjClose: 11},
	}
	c, params := newTestClient(bars, nil)

	prices, err := c.GetPriceHistory(context.Background(), " aapl ", day(2), day(6), domain.Interval1d)
	require.NoError(t, err)

	assert.Equal(t, []domain.PricePoint{
		{Date: day(4), AdjustedClose: 9},
		{Date: day(5), AdjustedClose: 9.5},
	}, prices)
	assert.Equal(t, "1mo", params.Period)
	assert.Equal(t, "1d", params.Interval)
	assert.True(t, params.AutoAdjust)
}

func TestGetPriceHistory_Errors(t *testing.T) {
	tests := []struct {
		name   string
		bars   []models.Bar
		err    error
		symbol string
		start  time.Time
		end    time.Time
		want   error
	}{
		{"provider failure", nil, errors.New("429 too many requests"), "AAPL", day(1), day(5), domain.ErrProvider},
		{"no prices in range", []models.Bar{{Date: day(20), Close: 1}}, nil, "AAPL", day(1), day(5), domain.ErrInsufficientData},
		{"empty symbol", nil, nil, "  ", day(1), day(5), domain.ErrInvalidParameter},
		{"inverted range", nil, nil, "AAPL", day(5), day(1), domain.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(tt.bars, tt.err)
			_, err := c.GetPriceHistory(context.Background(), tt.symbol, tt.start, tt.end, domain.Interval1d)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestGetPriceHistory_CancelledContext(t *testing.T) {
	c, _ := newTestClient(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetPriceHistory(ctx, "AAPL", day(1), day(5), domain.Interval1d)
	assert.Error(t, err)
}

func TestToPricePoints_DeduplicatesTimestamps(t *testing.T) {
	bars := []models.Bar{
		{Date: day(3), AdjClose: 1},
		{Date: day(3), AdjClose: 2},
		{Date: day(4), AdjClose: 3},
	}

	prices, skipped := toPricePoints(bars, day(1), day(10), domain.Interval1d)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, []domain.PricePoint{
		{Date: day(3), AdjustedClose: 2},
		{Date: day(4), AdjustedClose: 3},
	}, prices)
}

func sessionBars(hour, minute int, closes ...float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Date:     time.Date(2024, 3, 4+i, hour, minute, 0, 0, time.UTC),
			Close:    c,
			AdjClose: c,
		}
	}
	return bars
}

func TestToPricePoints_BucketsDailyBarsAcrossExchanges(t *testing.T) {
	// NYSE opens 14:30 UTC, XETRA 08:00 UTC
	nyse, _ := toPricePoints(sessionBars(14, 30, 100, 101, 102, 101, 103), day(1), day(10), domain.Interval1d)
	xetra, _ := toPricePoints(sessionBars(8, 0, 50, 51, 50, 52, 53), day(1), day(10), domain.Interval1d)

	require.Len(t, nyse, 5)
	require.Len(t, xetra, 5)
	for i := range nyse {
		assert.Equal(t, day(4+i), nyse[i].Date)
		assert.Equal(t, nyse[i].Date, xetra[i].Date)
	}

	spy, err := returns.Build("SPY", nyse)
	require.NoError(t, err)
	sap, err := returns.Build("SAP.DE", xetra)
	require.NoError(t, err)

	pair, err := returns.Align(sap, spy, returns.Intersect)
	require.NoError(t, err)
	assert.Equal(t, 4, pair.Len())
	assert.Len(t, returns.Union(sap, spy), 4)
}

func TestToPricePoints_BucketsIntradayBars(t *testing.T) {
	bars := []models.Bar{
		{Date: time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC), AdjClose: 1},
		{Date: time.Date(2024, 3, 5, 15, 30, 0, 0, time.UTC), AdjClose: 2},
	}

	prices, skipped := toPricePoints(bars, day(1), day(10), domain.Interval1h)
	assert.Zero(t, skipped)
	assert.Equal(t, []domain.PricePoint{
		{Date: time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC), AdjustedClose: 1},
		{Date: time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC), AdjustedClose: 2},
	}, prices)
}

func TestPeriodCovering(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		start time.Time
		want  string
	}{
		{now.AddDate(0, 0, -3), "5d"},
		{now.AddDate(0, 0, -20), "1mo"},
		{now.AddDate(0, -2, 0), "3mo"},
		{now.AddDate(0, -5, 0), "6mo"},
		{now.AddDate(-1, 0, 0), "1y"},
		{now.AddDate(-2, 0, 0), "2y"},
		{now.AddDate(-4, 0, 0), "5y"},
		{now.AddDate(-8, 0, 0), "10y"},
		{now.AddDate(-30, 0, 0), "max"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, periodCovering(tt.start, now))
		})
	}
}
