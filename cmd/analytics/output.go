package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/aristath/analytics/internal/modules/optimization"
	"github.com/aristath/analytics/internal/modules/performance"
	"github.com/aristath/analytics/internal/modules/portfolio"
)

func checkFormat() error {
	switch strings.ToLower(outputFormat) {
	case "table", "json":
		return nil
	}
	return fmt.Errorf("unsupported format %q (want table or json)", outputFormat)
}

func wantJSON() bool {
	return strings.EqualFold(outputFormat, "json")
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeStatistics prints the metric table of one statistics set
func writeStatistics(w io.Writer, s *performance.Statistics) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE")
	for _, row := range s.Table() {
		fmt.Fprintf(tw, "%s\t%s\n", row.Metric, row.Value)
	}
	return tw.Flush()
}

func writePerformance(w io.Writer, tp *performance.TickerPerformance) error {
	fmt.Fprintf(w, "%s vs %s  %s..%s  %s  (%d observations)\n\n",
		tp.Symbol, tp.Benchmark,
		tp.Start.Format("2006-01-02"), tp.End.Format("2006-01-02"),
		tp.Interval, tp.Observations)
	if tp.Statistics.IsDegenerate() {
		fmt.Fprintln(w, "Security returns have ~zero variance; ratios are reported as 0")
		fmt.Fprintln(w)
	}
	return writeStatistics(w, tp.Statistics)
}

func writePortfolio(w io.Writer, p *portfolio.Portfolio) error {
	fmt.Fprintf(w, "Portfolio %s  objective %s  benchmark %s  %s..%s\n\n",
		p.ID, p.Objective, p.Benchmark,
		p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tOPTIMAL\tEQUAL\tCUSTOM")
	for _, row := range p.WeightTable {
		custom := "-"
		if row.Custom != nil {
			custom = fmt.Sprintf("%.2f%%", *row.Custom*100)
		}
		fmt.Fprintf(tw, "%s\t%.2f%%\t%.2f%%\t%s\n", row.Symbol, row.Optimal*100, row.Equal*100, custom)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if p.Optimal != nil {
		fmt.Fprintf(w, "\nOptimal (%s, %d iterations, converged %t)\n",
			p.Optimal.Status, p.Optimal.Iterations, p.Optimal.Converged)
		if err := writeStatistics(w, p.Optimal.Statistics); err != nil {
			return err
		}
	}
	if p.EqualWeight != nil {
		fmt.Fprintln(w, "\nEqual weight")
		if err := writeStatistics(w, p.EqualWeight); err != nil {
			return err
		}
	}
	if p.CustomWeight != nil {
		fmt.Fprintln(w, "\nCustom weight")
		if err := writeStatistics(w, p.CustomWeight); err != nil {
			return err
		}
	}

	if len(p.HighCorrelations) > 0 {
		fmt.Fprintln(w, "\nHighly correlated pairs")
		for _, pair := range p.HighCorrelations {
			fmt.Fprintf(w, "  %s / %s  %.3f\n", pair.A, pair.B, pair.Correlation)
		}
	}
	writeFailures(w, p)
	return nil
}

func writeFrontier(w io.Writer, symbols []string, points []optimization.FrontierPoint) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ANNUAL RETURN\tVOLATILITY\tSHARPE\t%s\n", strings.Join(symbols, "\t"))
	for _, pt := range points {
		weights := make([]string, len(pt.Weights))
		for i, v := range pt.Weights {
			weights[i] = fmt.Sprintf("%.1f%%", v*100)
		}
		var sharpe float64
		if pt.Statistics != nil {
			sharpe = pt.Statistics.SharpeRatio
		}
		fmt.Fprintf(tw, "%.2f%%\t%.2f%%\t%.3f\t%s\n",
			pt.AnnualizedReturn*100, pt.Volatility*100, sharpe, strings.Join(weights, "\t"))
	}
	return tw.Flush()
}

func writeFailures(w io.Writer, p *portfolio.Portfolio) {
	if len(p.FailedSymbols) > 0 {
		symbols := make([]string, 0, len(p.FailedSymbols))
		for s := range p.FailedSymbols {
			symbols = append(symbols, s)
		}
		sort.Strings(symbols)
		fmt.Fprintln(w, "\nFailed symbols")
		for _, s := range symbols {
			fmt.Fprintf(w, "  %s: %s\n", s, p.FailedSymbols[s])
		}
	}
	if len(p.DroppedSymbols) > 0 {
		fmt.Fprintf(w, "\nDropped for short history: %s\n", strings.Join(p.DroppedSymbols, ", "))
	}
}
