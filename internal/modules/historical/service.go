package historical

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/analytics/internal/domain"
)

// DefaultLookback is the history window kept warm by refreshes
const DefaultLookback = 5 * 365 * 24 * time.Hour

// RefreshReport summarizes a batch refresh
type RefreshReport struct {
	Refreshed []string          `json:"refreshed"`
	Failed    map[string]string `json:"failed"`
	Duration  time.Duration     `json:"duration_ns"`
}

// Service manages the history cache
type Service struct {
	provider    *CachingProvider
	store       *HistoryDB
	concurrency int
	now         func() time.Time
	log         zerolog.Logger
}

// NewService creates a history cache service
func NewService(provider *CachingProvider, store *HistoryDB, concurrency int, log zerolog.Logger) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		provider:    provider,
		store:       store,
		concurrency: concurrency,
		now:         time.Now,
		log:         log.With().Str("service", "historical").Logger(),
	}
}

// History returns prices through the cache
func (s *Service) History(ctx context.Context, symbol string, start, end time.Time, interval domain.Interval) ([]domain.PricePoint, error) {
	return s.provider.GetPriceHistory(ctx, symbol, start, end, interval)
}

// Coverage lists what the cache holds
func (s *Service) Coverage(ctx context.Context) ([]Coverage, error) {
	return s.store.ListCoverage(ctx)
}

// Delete evicts a symbol from the cache
func (s *Service) Delete(ctx context.Context, symbol string) (int64, error) {
	return s.store.DeleteSymbol(ctx, symbol)
}

// RefreshSymbols refetches the last lookback of every symbol. Individual
// failures are reported, not returned; only cancellation is an error.
func (s *Service) RefreshSymbols(ctx context.Context, symbols []string, interval domain.Interval, lookback time.Duration) (*RefreshReport, error) {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	started := s.now()
	end := started.UTC()
	start := end.Add(-lookback).Truncate(24 * time.Hour)

	report := &RefreshReport{Refreshed: make([]string, 0, len(symbols)), Failed: make(map[string]string)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			_, err := s.provider.Refresh(gctx, symbol, start, end, interval)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				report.Failed[symbol] = err.Error()
				s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to refresh history")
				return nil
			}
			report.Refreshed = append(report.Refreshed, symbol)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(report.Refreshed)
	report.Duration = s.now().Sub(started)

	s.log.Info().
		Int("refreshed", len(report.Refreshed)).
		Int("failed", len(report.Failed)).
		Dur("duration", report.Duration).
		Msg("History refresh complete")

	return report, nil
}
