package historical

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/analytics/internal/domain"
)

// countingProvider serves pricesBetween for the requested days and counts calls
type countingProvider struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
}

func newCountingProvider() *countingProvider {
	return &countingProvider{calls: make(map[string]int), fail: make(map[string]error)}
}

func (c *countingProvider) GetPriceHistory(_ context.Context, symbol string, start, end time.Time, _ domain.Interval) ([]domain.PricePoint, error) {
	c.mu.Lock()
	c.calls[symbol]++
	err := c.fail[symbol]
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var prices []domain.PricePoint
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		prices = append(prices, domain.PricePoint{Date: d, AdjustedClose: 100})
	}
	return prices, nil
}

func (c *countingProvider) count(symbol string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[symbol]
}

func newTestProvider(t *testing.T, now time.Time) (*CachingProvider, *countingProvider) {
	upstream := newCountingProvider()
	p := NewCachingProvider(upstream, newTestStore(t), time.Hour, zerolog.Nop())
	p.now = func() time.Time { return now }
	return p, upstream
}

func TestCachingProvider_HitsCoveredRanges(t *testing.T) {
	p, upstream := newTestProvider(t, day(30))
	ctx := context.Background()

	first, err := p.GetPriceHistory(ctx, "AAA", day(0), day(20), domain.Interval1d)
	require.NoError(t, err)
	assert.Len(t, first, 21)

	second, err := p.GetPriceHistory(ctx, "AAA", day(5), day(10), domain.Interval1d)
	require.NoError(t, err)
	assert.Len(t, second, 6)
	assert.Equal(t, 1, upstream.count("AAA"))

	// Earlier than the cached range goes upstream
	_, err = p.GetPriceHistory(ctx, "AAA", day(-5), day(10), domain.Interval1d)
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.count("AAA"))
}

func TestCachingProvider_FreshFetchCoversUntilNow(t *testing.T) {
	now := day(30).Add(10 * time.Hour)
	p, upstream := newTestProvider(t, now)
	ctx := context.Background()

	_, err := p.GetPriceHistory(ctx, "AAA", day(0), day(30), domain.Interval1d)
	require.NoError(t, err)

	// Asking up to now is still served from the cache
	_, err = p.GetPriceHistory(ctx, "AAA", day(0), now, domain.Interval1d)
	require.NoError(t, err)
	assert.Equal(t, 1, upstream.count("AAA"))

	// Once stale, the open end is refetched
	p.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = p.GetPriceHistory(ctx, "AAA", day(0), now.Add(90*time.Minute), domain.Interval1d)
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.count("AAA"))
}

func TestCachingProvider_PropagatesUpstreamErrors(t *testing.T) {
	p, upstream := newTestProvider(t, day(30))
	upstream.fail["BAD"] = domain.ErrProvider

	_, err := p.GetPriceHistory(context.Background(), "BAD", day(0), day(5), domain.Interval1d)
	assert.True(t, errors.Is(err, domain.ErrProvider))
}
