// Package main is the analytics command line: performance reports, portfolio
// optimization, the efficient frontier and history cache refreshes, printed
// as tables or JSON on stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aristath/analytics/internal/config"
	"github.com/aristath/analytics/internal/di"
	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/utils"
	"github.com/aristath/analytics/pkg/logger"
)

// Global flags
var (
	outputFormat string
	logLevel     string
	noCache      bool
)

// Window flags shared by the analysis commands
var (
	benchmarkFlag  string
	startFlag      string
	endFlag        string
	intervalFlag   string
	confidenceFlag float64
	riskFreeFlag   float64
)

var rootCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Portfolio analytics over Yahoo Finance price histories",
	Long: `analytics computes performance statistics for single securities,
optimizes portfolio weights for a chosen objective and traces the efficient
frontier. Price histories come from Yahoo Finance, through the local history
cache unless --no-cache is given.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format: table, json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Fetch directly from Yahoo Finance, bypassing the history cache")
}

// addWindowFlags registers the date window and statistics flags
func addWindowFlags(fs *pflag.FlagSet) {
	fs.StringVar(&benchmarkFlag, "benchmark", "", "Benchmark symbol (default DEFAULT_BENCHMARK)")
	fs.StringVar(&startFlag, "start", "", "Start date YYYY-MM-DD (default end minus DEFAULT_LOOKBACK_DAYS)")
	fs.StringVar(&endFlag, "end", "", "End date YYYY-MM-DD (default today)")
	fs.StringVar(&intervalFlag, "interval", "1d", "Sampling interval: 2m 5m 15m 30m 60m 90m 1h 1d 5d 1wk 1mo 3mo")
	fs.Float64Var(&confidenceFlag, "confidence", 0, "VaR confidence level in (0,1) (default DEFAULT_CONFIDENCE)")
	fs.Float64Var(&riskFreeFlag, "risk-free", -1, "Annual risk free rate (default DEFAULT_RISK_FREE_RATE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session is the wired application behind one command invocation
type session struct {
	cfg       *config.Config
	container *di.Container
	log       zerolog.Logger
}

func openSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if noCache {
		cfg.HistoryCacheEnabled = false
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr})
	logger.SetGlobalLogger(log)
	container, _, err := di.Wire(cfg, log)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, container: container, log: log}, nil
}

func (s *session) Close() {
	if err := s.container.Close(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to close container")
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// window holds the resolved window flags
type window struct {
	Benchmark       string
	Start           time.Time
	End             time.Time
	Interval        domain.Interval
	ConfidenceLevel float64
	RiskFreeRate    float64
}

// resolveWindow applies the configured defaults to the window flags
func resolveWindow(cfg *config.Config, now time.Time) (window, error) {
	w := window{
		Benchmark:       cfg.DefaultBenchmark,
		ConfidenceLevel: cfg.DefaultConfidenceLevel,
		RiskFreeRate:    cfg.DefaultRiskFreeRate,
		End:             now.UTC().Truncate(24 * time.Hour),
	}
	if benchmarkFlag != "" {
		w.Benchmark = strings.ToUpper(strings.TrimSpace(benchmarkFlag))
	}
	if confidenceFlag != 0 {
		w.ConfidenceLevel = confidenceFlag
	}
	if riskFreeFlag >= 0 {
		w.RiskFreeRate = riskFreeFlag
	}

	var err error
	if w.Interval, err = domain.ParseInterval(intervalFlag); err != nil {
		return w, err
	}
	if endFlag != "" {
		if w.End, err = utils.ParseDate(endFlag); err != nil {
			return w, err
		}
	}
	w.Start = w.End.Add(-cfg.DefaultLookback)
	if startFlag != "" {
		if w.Start, err = utils.ParseDate(startFlag); err != nil {
			return w, err
		}
	}
	return w, nil
}
