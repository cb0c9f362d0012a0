package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/modules/historical"
)

// HistoryRefresher refreshes cached price histories
type HistoryRefresher interface {
	RefreshSymbols(ctx context.Context, symbols []string, interval domain.Interval, lookback time.Duration) (*historical.RefreshReport, error)
}

// RefreshHistoryJob keeps the history cache of a watchlist warm
type RefreshHistoryJob struct {
	JobBase
	refresher HistoryRefresher
	symbols   []string
	interval  domain.Interval
	lookback  time.Duration
	timeout   time.Duration
}

// NewRefreshHistoryJob creates a refresh job for symbols. timeout bounds one run.
func NewRefreshHistoryJob(refresher HistoryRefresher, symbols []string, interval domain.Interval, lookback, timeout time.Duration) *RefreshHistoryJob {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &RefreshHistoryJob{
		refresher: refresher,
		symbols:   symbols,
		interval:  interval,
		lookback:  lookback,
		timeout:   timeout,
	}
}

// Name returns the job name
func (j *RefreshHistoryJob) Name() string {
	return "refresh_history"
}

// Run refreshes every symbol. It fails only when nothing could be refreshed.
func (j *RefreshHistoryJob) Run() error {
	if len(j.symbols) == 0 {
		j.log.Debug().Msg("Watchlist is empty, nothing to refresh")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	report, err := j.refresher.RefreshSymbols(ctx, j.symbols, j.interval, j.lookback)
	if err != nil {
		return fmt.Errorf("history refresh failed: %w", err)
	}

	for symbol, reason := range report.Failed {
		j.log.Warn().Str("symbol", symbol).Str("reason", reason).Msg("Symbol not refreshed")
	}
	if len(report.Refreshed) == 0 {
		return fmt.Errorf("history refresh failed for all %d symbols", len(j.symbols))
	}
	return nil
}
