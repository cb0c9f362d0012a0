package main

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/utils"
)

var (
	refreshLookbackDays int
	refreshInterval     string
)

var refreshCmd = &cobra.Command{
	Use:   "refresh [SYMBOL...]",
	Short: "Refresh the history cache",
	Long: `Download the price histories of the given symbols, or of WATCHLIST when
none are given, into the local history cache.

Examples:
  analytics refresh
  analytics refresh AAPL MSFT --lookback-days 1825`,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().IntVar(&refreshLookbackDays, "lookback-days", 0, "Days of history to load (default DEFAULT_LOOKBACK_DAYS)")
	refreshCmd.Flags().StringVar(&refreshInterval, "interval", "1d", "Sampling interval")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}
	if noCache {
		return errors.New("refresh needs the history cache, drop --no-cache")
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	if s.container.HistoryService == nil {
		return errors.New("history cache is disabled (HISTORY_CACHE_ENABLED=false)")
	}

	var symbols []string
	for _, arg := range args {
		symbols = append(symbols, utils.SplitSymbols(arg)...)
	}
	if len(symbols) == 0 {
		symbols = s.cfg.Watchlist
	}
	if len(symbols) == 0 {
		return errors.New("no symbols given and WATCHLIST is empty")
	}

	interval, err := domain.ParseInterval(refreshInterval)
	if err != nil {
		return err
	}
	if refreshLookbackDays < 0 {
		return fmt.Errorf("%w: lookback days must not be negative", domain.ErrInvalidParameter)
	}
	lookback := s.cfg.DefaultLookback
	if refreshLookbackDays > 0 {
		lookback = time.Duration(refreshLookbackDays) * 24 * time.Hour
	}

	ctx, cancel := signalContext()
	defer cancel()

	report, err := s.container.HistoryService.RefreshSymbols(ctx, symbols, interval, lookback)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if wantJSON() {
		return writeJSON(out, report)
	}
	fmt.Fprintf(out, "Refreshed %d of %d symbols in %s\n", len(report.Refreshed), len(symbols), report.Duration.Round(time.Millisecond))
	failed := make([]string, 0, len(report.Failed))
	for symbol := range report.Failed {
		failed = append(failed, symbol)
	}
	sort.Strings(failed)
	for _, symbol := range failed {
		fmt.Fprintf(out, "  %s: %s\n", symbol, report.Failed[symbol])
	}
	return nil
}
