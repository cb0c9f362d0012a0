package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/analytics/internal/modules/optimization"
	"github.com/aristath/analytics/internal/modules/portfolio"
	"github.com/aristath/analytics/internal/utils"
)

// Portfolio flags shared by optimize and frontier
var (
	objectiveFlag  string
	boundFlags     map[string]string
	weightFlags    map[string]string
	categoryFlags  []string
	frontierFlag   int
	iterationsFlag int
	seriesFlag     bool
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize SYMBOL [SYMBOL...]",
	Short: "Optimize portfolio weights for an objective",
	Long: `Fetch the histories of the given symbols, align their returns and search
for the long-only, fully invested weights that best serve the objective.
Symbols may also be passed comma separated.

Objectives: max_sharpe, min_vol, max_return, min_var, min_cvar, min_drawdown

Examples:
  analytics optimize AAPL MSFT GOOG AMZN
  analytics optimize AAPL,MSFT,TLT --objective min_vol --bound TLT=0.2:0.6
  analytics optimize AAPL MSFT XOM CVX --category energy=XOM,CVX:0:0.3
  analytics optimize AAPL MSFT GOOG --weight AAPL=0.5 --weight MSFT=0.5 --frontier 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOptimize,
}

var frontierCmd = &cobra.Command{
	Use:   "frontier SYMBOL [SYMBOL...]",
	Short: "Trace the efficient frontier",
	Long: `Trace minimum volatility portfolios for evenly spaced return targets,
from the minimum volatility portfolio up to the highest reachable return.

Examples:
  analytics frontier AAPL MSFT GOOG TLT GLD
  analytics frontier AAPL MSFT GOOG --points 30 --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFrontier,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(frontierCmd)

	for _, cmd := range []*cobra.Command{optimizeCmd, frontierCmd} {
		addWindowFlags(cmd.Flags())
		cmd.Flags().StringToStringVar(&boundFlags, "bound", nil, "Per-asset bound SYMBOL=LOWER:UPPER (repeatable)")
		cmd.Flags().StringArrayVar(&categoryFlags, "category", nil, "Category bound NAME=SYM1,SYM2:LOWER:UPPER (repeatable)")
		cmd.Flags().IntVar(&iterationsFlag, "max-iterations", 0, "Optimizer iteration cap (0 uses the configured default)")
	}

	optimizeCmd.Flags().StringVar(&objectiveFlag, "objective", "max_sharpe", "Optimization objective")
	optimizeCmd.Flags().StringToStringVar(&weightFlags, "weight", nil, "Custom baseline weight SYMBOL=WEIGHT (repeatable)")
	optimizeCmd.Flags().IntVar(&frontierFlag, "frontier", 0, "Also trace a frontier with this many points")
	optimizeCmd.Flags().BoolVar(&seriesFlag, "series", false, "Include the return series in JSON output")

	frontierCmd.Flags().IntVar(&frontierFlag, "points", 0, "Frontier points (default FRONTIER_POINTS)")
}

// portfolioRequest builds the builder request from the flags
func portfolioRequest(s *session, args []string, now time.Time) (portfolio.Request, error) {
	var req portfolio.Request

	win, err := resolveWindow(s.cfg, now)
	if err != nil {
		return req, err
	}

	var symbols []string
	for _, arg := range args {
		symbols = append(symbols, utils.SplitSymbols(arg)...)
	}

	req = portfolio.Request{
		Symbols:         symbols,
		Benchmark:       win.Benchmark,
		Start:           win.Start,
		End:             win.End,
		Interval:        win.Interval,
		ConfidenceLevel: win.ConfidenceLevel,
		RiskFreeRate:    win.RiskFreeRate,
		Objective:       optimization.MaxSharpe,
		FrontierPoints:  frontierFlag,
		MaxIterations:   iterationsFlag,
	}
	if objectiveFlag != "" {
		if req.Objective, err = optimization.ParseObjective(objectiveFlag); err != nil {
			return req, err
		}
	}
	if req.Constraints, err = parseBounds(boundFlags); err != nil {
		return req, err
	}
	if req.CustomWeights, err = parseWeights(weightFlags); err != nil {
		return req, err
	}
	if req.Categories, err = parseCategories(categoryFlags); err != nil {
		return req, err
	}

	req.Normalize()
	return req, req.Validate()
}

func runOptimize(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	req, err := portfolioRequest(s, args, time.Now())
	if err != nil {
		return err
	}

	p, err := build(s, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if wantJSON() {
		if !seriesFlag {
			p = p.Compact()
		}
		return writeJSON(out, p)
	}
	if err := writePortfolio(out, p); err != nil {
		return err
	}
	if len(p.Frontier) > 0 {
		fmt.Fprintln(out, "\nEfficient frontier")
		return writeFrontier(out, p.Symbols, p.Frontier)
	}
	return nil
}

func runFrontier(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if frontierFlag == 0 {
		frontierFlag = s.cfg.FrontierPoints
	}
	req, err := portfolioRequest(s, args, time.Now())
	if err != nil {
		return err
	}
	req.Objective = optimization.MinVol

	p, err := build(s, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	compact := p.Compact()
	if wantJSON() {
		return writeJSON(out, map[string]interface{}{
			"id":             p.ID,
			"symbols":        p.Symbols,
			"failed_symbols": p.FailedSymbols,
			"requested":      req.FrontierPoints,
			"points":         compact.Frontier,
		})
	}
	fmt.Fprintf(out, "Efficient frontier: %d of %d points\n\n", len(compact.Frontier), req.FrontierPoints)
	if err := writeFrontier(out, p.Symbols, compact.Frontier); err != nil {
		return err
	}
	writeFailures(out, p)
	return nil
}

// build runs the builder, logging progress to stderr
func build(s *session, req portfolio.Request) (*portfolio.Portfolio, error) {
	ctx, cancel := signalContext()
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 4*s.cfg.OptimizerTimeout)
	defer cancelTimeout()

	p, err := s.container.PortfolioBuilder.Build(ctx, req, func(pr portfolio.Progress) {
		ev := s.log.Debug()
		if pr.Error != "" {
			ev = s.log.Warn().Str("error", pr.Error)
		}
		ev.Str("stage", string(pr.Stage)).
			Str("symbol", pr.Symbol).
			Int("completed", pr.Completed).
			Int("total", pr.Total).
			Msg("Progress")
	})
	if err != nil {
		return nil, fmt.Errorf("optimization failed: %w", err)
	}
	return p, nil
}
