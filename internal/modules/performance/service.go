package performance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/modules/returns"
)

// Request describes a single-security performance report
type Request struct {
	Symbol          string          `json:"symbol"`
	Benchmark       string          `json:"benchmark"`
	Start           time.Time       `json:"start"`
	End             time.Time       `json:"end"`
	Interval        domain.Interval `json:"interval"`
	ConfidenceLevel float64         `json:"confidence_level"`
	RiskFreeRate    float64         `json:"risk_free_rate"`
	// Align joins the security and benchmark calendars, Intersect by default
	Align returns.AlignMode `json:"align"`
}

// Params returns the statistics parameters implied by the request
func (r Request) Params() Params {
	return Params{
		ConfidenceLevel: r.ConfidenceLevel,
		RiskFreeRate:    r.RiskFreeRate,
		PeriodsPerYear:  r.Interval.PeriodsPerYear(),
	}
}

// Validate checks the request before any data is fetched
func (r Request) Validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", domain.ErrInvalidParameter)
	}
	if strings.TrimSpace(r.Benchmark) == "" {
		return fmt.Errorf("%w: benchmark is required", domain.ErrInvalidParameter)
	}
	if !r.End.After(r.Start) {
		return fmt.Errorf("%w: end %s must be after start %s", domain.ErrInvalidParameter,
			r.End.Format("2006-01-02"), r.Start.Format("2006-01-02"))
	}
	return r.Params().Validate()
}

// TickerPerformance is the performance report of one security
type TickerPerformance struct {
	Symbol       string              `json:"symbol"`
	Benchmark    string              `json:"benchmark"`
	Interval     domain.Interval     `json:"interval"`
	Start        time.Time           `json:"start"`
	End          time.Time           `json:"end"`
	Timestamps   []time.Time         `json:"timestamps"`
	Prices       []domain.PricePoint `json:"prices"`
	Statistics   *Statistics         `json:"statistics"`
	Observations int                 `json:"observations"`
}

// Service fetches price histories and computes performance reports
type Service struct {
	provider domain.PriceProvider
	log      zerolog.Logger
}

// NewService creates a performance service over a price provider
func NewService(provider domain.PriceProvider, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		log:      log.With().Str("component", "performance_service").Logger(),
	}
}

// TickerPerformance fetches the security and benchmark histories, aligns their
// returns on common timestamps and computes the statistics
func (s *Service) TickerPerformance(ctx context.Context, req Request) (*TickerPerformance, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var securityPrices, benchmarkPrices []domain.PricePoint
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		securityPrices, err = s.provider.GetPriceHistory(gctx, req.Symbol, req.Start, req.End, req.Interval)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", req.Symbol, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		benchmarkPrices, err = s.provider.GetPriceHistory(gctx, req.Benchmark, req.Start, req.End, req.Interval)
		if err != nil {
			return fmt.Errorf("failed to fetch benchmark %s: %w", req.Benchmark, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	security, err := returns.Build(req.Symbol, securityPrices)
	if err != nil {
		return nil, err
	}
	benchmark, err := returns.Build(req.Benchmark, benchmarkPrices)
	if err != nil {
		return nil, err
	}

	pair, err := returns.Align(security, benchmark, req.Align)
	if err != nil {
		return nil, err
	}

	stats, err := Compute(pair.Security, pair.Benchmark, req.Params())
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics for %s: %w", req.Symbol, err)
	}

	s.log.Info().
		Str("symbol", req.Symbol).
		Str("benchmark", req.Benchmark).
		Str("interval", req.Interval.String()).
		Str("align", req.Align.String()).
		Int("observations", pair.Len()).
		Float64("sharpe", stats.SharpeRatio).
		Msg("Computed ticker performance")

	return &TickerPerformance{
		Symbol:       req.Symbol,
		Benchmark:    req.Benchmark,
		Interval:     req.Interval,
		Start:        req.Start,
		End:          req.End,
		Timestamps:   pair.Timestamps,
		Prices:       securityPrices,
		Statistics:   stats,
		Observations: pair.Len(),
	}, nil
}
