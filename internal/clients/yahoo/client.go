// Package yahoo provides adjusted-close price histories from Yahoo Finance.
package yahoo

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
	"golang.org/x/time/rate"

	"github.com/aristath/analytics/internal/domain"
)

// DefaultRequestsPerSecond keeps well below Yahoo's throttling threshold
const DefaultRequestsPerSecond = 2.0

// historyFunc fetches raw bars for one symbol
type historyFunc func(symbol string, params models.HistoryParams) ([]models.Bar, error)

// Client implements domain.PriceProvider on top of go-yfinance
type Client struct {
	limiter *rate.Limiter
	history historyFunc
	now     func() time.Time
	log     zerolog.Logger
}

// NewClient creates a rate limited Yahoo Finance client
func NewClient(requestsPerSecond float64, log zerolog.Logger) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultRequestsPerSecond
	}
	return &Client{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		history: fetchHistory,
		now:     time.Now,
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

func fetchHistory(symbol string, params models.HistoryParams) ([]models.Bar, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	return t.History(params)
}

// GetPriceHistory returns ascending adjusted closes for symbol between start
// and end (both inclusive, by calendar day)
func (c *Client) GetPriceHistory(ctx context.Context, symbol string, start, end time.Time, interval domain.Interval) ([]domain.PricePoint, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", domain.ErrInvalidParameter)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s before start %s", domain.ErrInvalidParameter, end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := models.HistoryParams{
		Period:     periodCovering(start, c.now()),
		Interval:   interval.String(),
		AutoAdjust: true,
	}

	bars, err := c.history(symbol, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s history: %v", domain.ErrProvider, symbol, err)
	}

	prices, skipped := toPricePoints(bars, start, end, interval)
	if skipped > 0 {
		c.log.Debug().Str("symbol", symbol).Int("skipped", skipped).Msg("Dropped bars without a usable price")
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: no prices for %s between %s and %s", domain.ErrInsufficientData, symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	c.log.Debug().
		Str("symbol", symbol).
		Str("period", params.Period).
		Str("interval", params.Interval).
		Int("prices", len(prices)).
		Msg("Fetched price history")

	return prices, nil
}

// toPricePoints buckets bar timestamps by interval, filters them to
// [start, end], drops missing prices and duplicate buckets, and sorts ascending
func toPricePoints(bars []models.Bar, start, end time.Time, interval domain.Interval) ([]domain.PricePoint, int) {
	from := start.UTC()
	until := end.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)

	prices := make([]domain.PricePoint, 0, len(bars))
	skipped := 0
	for _, bar := range bars {
		date := interval.BarStart(bar.Date)
		if date.Before(from) || !date.Before(until) {
			continue
		}
		price := bar.AdjClose
		if !(price > 0) || math.IsInf(price, 0) {
			price = bar.Close
		}
		if !(price > 0) || math.IsInf(price, 0) {
			skipped++
			continue
		}
		prices = append(prices, domain.PricePoint{Date: date, AdjustedClose: price})
	}

	sort.SliceStable(prices, func(i, j int) bool { return prices[i].Date.Before(prices[j].Date) })

	// Keep the last bar of any repeated bucket
	out := prices[:0]
	for i, p := range prices {
		if i+1 < len(prices) && prices[i+1].Date.Equal(p.Date) {
			skipped++
			continue
		}
		out = append(out, p)
	}
	return out, skipped
}

// periodCovering picks the shortest Yahoo range that reaches back to start
func periodCovering(start, now time.Time) string {
	age := now.Sub(start)
	day := 24 * time.Hour
	switch {
	case age <= 5*day:
		return "5d"
	case age <= 31*day:
		return "1mo"
	case age <= 92*day:
		return "3mo"
	case age <= 183*day:
		return "6mo"
	case age <= 366*day:
		return "1y"
	case age <= 2*366*day:
		return "2y"
	case age <= 5*366*day:
		return "5y"
	case age <= 10*366*day:
		return "10y"
	}
	return "max"
}
