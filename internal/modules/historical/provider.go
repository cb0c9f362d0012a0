package historical

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/analytics/internal/domain"
)

// DefaultMaxAge is how long the most recent bars of a fetch are trusted
const DefaultMaxAge = 12 * time.Hour

// CachingProvider serves price histories from the history database when the
// requested range is covered, and from the upstream provider otherwise
type CachingProvider struct {
	upstream domain.PriceProvider
	store    *HistoryDB
	maxAge   time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewCachingProvider wraps upstream with the history cache
func NewCachingProvider(upstream domain.PriceProvider, store *HistoryDB, maxAge time.Duration, log zerolog.Logger) *CachingProvider {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &CachingProvider{
		upstream: upstream,
		store:    store,
		maxAge:   maxAge,
		now:      time.Now,
		log:      log.With().Str("component", "history_cache").Logger(),
	}
}

// GetPriceHistory implements domain.PriceProvider
func (p *CachingProvider) GetPriceHistory(ctx context.Context, symbol string, start, end time.Time, interval domain.Interval) ([]domain.PricePoint, error) {
	coverage, err := p.store.GetCoverage(ctx, symbol, interval)
	if err != nil {
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("Cache lookup failed, fetching upstream")
	}

	if coverage != nil && p.covers(coverage, start, end) {
		prices, err := p.store.GetPrices(ctx, symbol, interval, start, end)
		if err == nil && len(prices) > 0 {
			p.log.Debug().Str("symbol", symbol).Int("prices", len(prices)).Msg("History cache hit")
			return prices, nil
		}
		if err != nil {
			p.log.Warn().Err(err).Str("symbol", symbol).Msg("Cache read failed, fetching upstream")
		}
	}

	return p.Refresh(ctx, symbol, start, end, interval)
}

// Refresh fetches [start, end] upstream and stores it, bypassing the cache
func (p *CachingProvider) Refresh(ctx context.Context, symbol string, start, end time.Time, interval domain.Interval) ([]domain.PricePoint, error) {
	prices, err := p.upstream.GetPriceHistory(ctx, symbol, start, end, interval)
	if err != nil {
		return nil, err
	}

	now := p.now().UTC()
	// A range ending in the future is only complete up to now
	to := end
	if to.After(now) {
		to = now
	}
	if err := p.store.SavePrices(ctx, symbol, interval, prices, start, to, now); err != nil {
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache history")
	}

	return prices, nil
}

// covers reports whether the cached range satisfies [start, end]. Coverage
// reaching the fetch time extends to now while the fetch is fresh.
func (p *CachingProvider) covers(c *Coverage, start, end time.Time) bool {
	if start.Before(c.From) {
		return false
	}
	effectiveTo := c.To
	now := p.now().UTC()
	if now.Sub(c.FetchedAt) < p.maxAge && !c.To.Before(c.FetchedAt.Truncate(24*time.Hour)) {
		effectiveTo = now
	}
	return !end.After(effectiveTo)
}
