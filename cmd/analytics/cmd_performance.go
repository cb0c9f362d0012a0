package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/analytics/internal/modules/performance"
	"github.com/aristath/analytics/internal/modules/returns"
)

var (
	performanceSeries bool
	performanceAlign  string
)

var performanceCmd = &cobra.Command{
	Use:   "performance SYMBOL",
	Short: "Performance statistics of one security against a benchmark",
	Long: `Fetch the price history of a security and its benchmark, align the
returns on common timestamps and print the performance statistics.

Examples:
  analytics performance AAPL
  analytics performance MSFT --benchmark ^NDX --start 2023-01-01 --end 2024-01-01
  analytics performance BTC-USD --interval 1wk --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runPerformance,
}

func init() {
	rootCmd.AddCommand(performanceCmd)
	addWindowFlags(performanceCmd.Flags())
	performanceCmd.Flags().BoolVar(&performanceSeries, "series", false, "Include the return series in JSON output")
	performanceCmd.Flags().StringVar(&performanceAlign, "align", "intersect", "Calendar alignment: intersect or zero_fill")
}

func runPerformance(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}

	align, err := returns.ParseAlignMode(performanceAlign)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	win, err := resolveWindow(s.cfg, time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	tp, err := s.container.PerformanceService.TickerPerformance(ctx, performance.Request{
		Symbol:          strings.ToUpper(strings.TrimSpace(args[0])),
		Benchmark:       win.Benchmark,
		Start:           win.Start,
		End:             win.End,
		Interval:        win.Interval,
		ConfidenceLevel: win.ConfidenceLevel,
		RiskFreeRate:    win.RiskFreeRate,
		Align:           align,
	})
	if err != nil {
		return fmt.Errorf("performance failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if wantJSON() {
		if !performanceSeries {
			compact := *tp
			compact.Timestamps = nil
			compact.Prices = nil
			compact.Statistics = tp.Statistics.WithoutSeries()
			tp = &compact
		}
		return writeJSON(out, tp)
	}
	return writePerformance(out, tp)
}
