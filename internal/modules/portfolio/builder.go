package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/modules/optimization"
	"github.com/aristath/analytics/internal/modules/performance"
	"github.com/aristath/analytics/internal/modules/returns"
)

// DefaultConcurrency is the number of price histories fetched in parallel
const DefaultConcurrency = 4

// BuilderConfig tunes the builder
type BuilderConfig struct {
	Concurrency int
	// MinCoverage is passed to optimization.BuildMatrix
	MinCoverage float64
}

// Builder builds portfolios from a price provider
type Builder struct {
	provider  domain.PriceProvider
	optimizer *optimization.Optimizer
	cfg       BuilderConfig
	now       func() time.Time
	log       zerolog.Logger
}

// NewBuilder creates a portfolio builder
func NewBuilder(provider domain.PriceProvider, optimizer *optimization.Optimizer, cfg BuilderConfig, log zerolog.Logger) *Builder {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.MinCoverage == 0 {
		cfg.MinCoverage = optimization.DefaultMinCoverage
	}
	return &Builder{
		provider:  provider,
		optimizer: optimizer,
		cfg:       cfg,
		now:       time.Now,
		log:       log.With().Str("component", "portfolio_builder").Logger(),
	}
}

// fetched holds the return series of one batch fetch
type fetched struct {
	series    map[string]*returns.ReturnSeries
	benchmark *returns.ReturnSeries
	failed    map[string]string
}

// Build fetches every symbol and the benchmark, optimizes the weights and
// evaluates the equal-weight and custom baselines. Symbols that fail to
// fetch are listed in FailedSymbols; the benchmark failing is an error.
// progress may be nil.
func (b *Builder) Build(ctx context.Context, req Request, progress ProgressFunc) (*Portfolio, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	report := newReporter(progress)
	started := b.now()

	data, err := b.fetchAll(ctx, req, report)
	if err != nil {
		return nil, err
	}

	m, err := optimization.BuildMatrix(data.series, optimization.MatrixOptions{
		Order:       req.Symbols,
		MinCoverage: b.cfg.MinCoverage,
	})
	if err != nil {
		return nil, fmt.Errorf("no usable symbols (%d failed): %w", len(data.failed), err)
	}
	for _, sym := range m.Dropped {
		b.log.Warn().Str("symbol", sym).Float64("min_coverage", b.cfg.MinCoverage).Msg("Dropped symbol with insufficient history overlap")
	}
	benchmark := returns.Reindex(data.benchmark, m.Timestamps)

	params := req.Params()
	opts := optimization.Options{
		Bounds:        req.boundsFor(m.Symbols),
		Categories:    req.Categories,
		MaxIterations: req.MaxIterations,
	}

	report.send(Progress{Stage: StageOptimizing, Completed: 0, Total: 1})
	result, err := b.optimizer.Optimize(ctx, m, benchmark, params, req.Objective, opts)
	if err != nil {
		return nil, err
	}

	equal := optimization.EqualWeights(m.Assets())
	equalStats, err := performance.Compute(optimization.PortfolioReturns(m, equal), benchmark, params)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate equal weights: %w", err)
	}

	p := &Portfolio{
		ID:             uuid.New().String(),
		CreatedAt:      started.UTC(),
		Symbols:        m.Symbols,
		Benchmark:      req.Benchmark,
		Interval:       req.Interval,
		Start:          req.Start,
		End:            req.End,
		Objective:      req.Objective,
		FailedSymbols:  data.failed,
		DroppedSymbols: m.Dropped,
		Optimal:        result,
		EqualWeight:    equalStats,
		Weights:        make(map[string]float64, m.Assets()),
		Timestamps:     m.Timestamps,
		Returns:        result.Statistics.Returns,

		CumulativeReturns: result.Statistics.CumulativeReturns,
	}
	if p.DroppedSymbols == nil {
		p.DroppedSymbols = []string{}
	}

	custom, hasCustom, err := req.customWeightsFor(m.Symbols)
	if err != nil {
		return nil, err
	}
	if hasCustom {
		p.CustomWeight, err = performance.Compute(optimization.PortfolioReturns(m, custom), benchmark, params)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate custom weights: %w", err)
		}
	}

	p.WeightTable = make([]WeightRow, m.Assets())
	for i, sym := range m.Symbols {
		p.Weights[sym] = result.Weights[i]
		row := WeightRow{Symbol: sym, Optimal: result.Weights[i], Equal: equal[i]}
		if hasCustom {
			c := custom[i]
			row.Custom = &c
		}
		p.WeightTable[i] = row
	}

	p.HighCorrelations = []optimization.CorrelationPair{}
	if m.Assets() >= 2 {
		corr, err := optimization.Correlation(m)
		if err != nil {
			return nil, err
		}
		p.Correlation = optimization.CorrelationRows(corr)
		p.HighCorrelations = optimization.HighCorrelations(m.Symbols, corr, optimization.HighCorrelationThreshold)
	}

	if req.FrontierPoints > 0 && m.Assets() >= 2 {
		report.send(Progress{Stage: StageFrontier, Completed: 0, Total: req.FrontierPoints})
		frontier, err := b.optimizer.Frontier(ctx, m, benchmark, params, req.FrontierPoints, optimization.Options{
			Bounds:     opts.Bounds,
			Categories: opts.Categories,
		})
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, err
		case err != nil:
			b.log.Warn().Err(err).Msg("Frontier failed, returning portfolio without it")
		default:
			p.Frontier = frontier
		}
	}

	report.send(Progress{Stage: StageDone, Completed: 1, Total: 1})

	b.log.Info().
		Str("id", p.ID).
		Str("objective", req.Objective.String()).
		Int("assets", m.Assets()).
		Int("failed", len(p.FailedSymbols)).
		Int("dropped", len(p.DroppedSymbols)).
		Int("periods", m.Periods()).
		Float64("value", result.Value).
		Dur("duration", b.now().Sub(started)).
		Msg("Portfolio built")

	return p, nil
}

// fetchAll loads the benchmark and every symbol concurrently
func (b *Builder) fetchAll(ctx context.Context, req Request, report *reporter) (*fetched, error) {
	out := &fetched{
		series: make(map[string]*returns.ReturnSeries, len(req.Symbols)),
		failed: make(map[string]string),
	}
	total := len(req.Symbols) + 1
	completed := 0
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)

	g.Go(func() error {
		series, err := b.load(gctx, req.Benchmark, req)
		mu.Lock()
		defer mu.Unlock()
		completed++
		if err != nil {
			report.send(Progress{Stage: StageFetching, Symbol: req.Benchmark, Completed: completed, Total: total, Error: err.Error()})
			return fmt.Errorf("failed to fetch benchmark %s: %w", req.Benchmark, err)
		}
		out.benchmark = series
		report.send(Progress{Stage: StageFetching, Symbol: req.Benchmark, Completed: completed, Total: total})
		return nil
	})

	for _, symbol := range req.Symbols {
		symbol := symbol
		g.Go(func() error {
			series, err := b.load(gctx, symbol, req)
			mu.Lock()
			defer mu.Unlock()
			completed++
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
					return err
				}
				out.failed[symbol] = err.Error()
				b.log.Warn().Err(err).Str("symbol", symbol).Msg("Skipping symbol")
				report.send(Progress{Stage: StageFetching, Symbol: symbol, Completed: completed, Total: total, Error: err.Error()})
				return nil
			}
			out.series[symbol] = series
			report.send(Progress{Stage: StageFetching, Symbol: symbol, Completed: completed, Total: total})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(out.series) == 0 {
		failed := make([]string, 0, len(out.failed))
		for s := range out.failed {
			failed = append(failed, s)
		}
		sort.Strings(failed)
		return nil, fmt.Errorf("%w: every symbol failed to load (%v)", domain.ErrInsufficientAssets, failed)
	}
	return out, nil
}

func (b *Builder) load(ctx context.Context, symbol string, req Request) (*returns.ReturnSeries, error) {
	prices, err := b.provider.GetPriceHistory(ctx, symbol, req.Start, req.End, req.Interval)
	if err != nil {
		return nil, err
	}
	return returns.Build(symbol, prices)
}

// reporter serializes progress callbacks
type reporter struct {
	mu sync.Mutex
	fn ProgressFunc
}

func newReporter(fn ProgressFunc) *reporter {
	return &reporter{fn: fn}
}

func (r *reporter) send(p Progress) {
	if r.fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fn(p)
}
