package optimization

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/modules/performance"
)

const (
	// frontierPenaltyWeight scales the squared normalized target miss
	frontierPenaltyWeight = 100.0
	// frontierTargetTolerance is the allowed target miss as a fraction of the span
	frontierTargetTolerance = 0.01
	minFrontierSpan         = 1e-12
)

// FrontierPoint is one minimum volatility portfolio for a target mean return.
// Target, Return and PeriodicVolatility are per period; AnnualizedReturn and
// Volatility are annualized, so either pair plots on matching axes.
type FrontierPoint struct {
	Target             float64                 `json:"target"`
	Return             float64                 `json:"return"`
	PeriodicVolatility float64                 `json:"periodic_volatility"`
	AnnualizedReturn   float64                 `json:"annualized_return"`
	Volatility         float64                 `json:"volatility"`
	Weights            []float64               `json:"weights"`
	Statistics         *performance.Statistics `json:"statistics"`
}

// Frontier traces the efficient frontier with nPoints evenly spaced periodic
// mean return targets between the minimum volatility portfolio and the
// highest return reachable within the bounds. Points that fail or miss
// their target are dropped.
func (o *Optimizer) Frontier(
	ctx context.Context,
	m *ReturnsMatrix,
	benchmark []float64,
	p performance.Params,
	nPoints int,
	opts Options,
) ([]FrontierPoint, error) {
	if nPoints < 1 {
		return nil, fmt.Errorf("%w: frontier needs at least 1 point, got %d", domain.ErrInvalidParameter, nPoints)
	}

	anchor, err := o.Optimize(ctx, m, benchmark, p, MinVol, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to anchor frontier: %w", err)
	}

	pr, err := o.prepare(m, benchmark, p, opts)
	if err != nil {
		return nil, err
	}

	mu := m.Means()
	low := floats.Dot(anchor.Weights, mu)
	high := maxAttainableReturn(mu, pr.bounds)
	span := high - low

	if nPoints == 1 || span < minFrontierSpan {
		return []FrontierPoint{pointFrom(low, anchor.Weights, mu, anchor.Statistics)}, nil
	}

	targets := make([]float64, nPoints)
	for k := range targets {
		targets[k] = low + span*float64(k)/float64(nPoints-1)
	}

	points := make([]*FrontierPoint, nPoints)
	points[0] = ptr(pointFrom(low, anchor.Weights, mu, anchor.Statistics))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for k := 1; k < nPoints; k++ {
		k, target := k, targets[k]
		g.Go(func() error {
			cost := func(w []float64, s *performance.Statistics) float64 {
				miss := (floats.Dot(w, mu) - target) / span
				return s.AnnualizedVolatility + frontierPenaltyWeight*miss*miss
			}
			// Each goroutine owns its problem buffers
			local := *pr
			local.proj = newProjector(pr.bounds)

			found, err := o.run(gctx, &local, append([]float64(nil), anchor.Weights...), cost, opts)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				o.log.Warn().Err(err).Int("point", k).Float64("target", target).Msg("Dropping frontier point")
				return nil
			}

			achieved := floats.Dot(found.weights, mu)
			if math.Abs(achieved-target) > frontierTargetTolerance*span {
				o.log.Warn().
					Int("point", k).
					Float64("target", target).
					Float64("achieved", achieved).
					Msg("Dropping frontier point that missed its target")
				return nil
			}

			points[k] = ptr(pointFrom(target, found.weights, mu, found.stats))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("frontier cancelled: %w", err)
	}

	frontier := make([]FrontierPoint, 0, nPoints)
	for _, pt := range points {
		if pt != nil {
			frontier = append(frontier, *pt)
		}
	}
	sort.SliceStable(frontier, func(i, j int) bool { return frontier[i].Target < frontier[j].Target })

	o.log.Info().
		Int("requested", nPoints).
		Int("returned", len(frontier)).
		Float64("low", low).
		Float64("high", high).
		Msg("Frontier generated")

	return frontier, nil
}

// maxAttainableReturn solves max Σw·μ subject to the bounds and full
// investment: start from the lower bounds and fill the best assets first
func maxAttainableReturn(mu []float64, bounds []Bound) float64 {
	order := make([]int, len(mu))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return mu[order[a]] > mu[order[b]] })

	w := make([]float64, len(mu))
	remaining := 1.0
	for i, b := range bounds {
		w[i] = b.Lower
		remaining -= b.Lower
	}
	for _, i := range order {
		if remaining <= 0 {
			break
		}
		add := math.Min(bounds[i].Upper-w[i], remaining)
		w[i] += add
		remaining -= add
	}
	return floats.Dot(w, mu)
}

func pointFrom(target float64, w, mu []float64, s *performance.Statistics) FrontierPoint {
	return FrontierPoint{
		Target:             target,
		Return:             floats.Dot(w, mu),
		PeriodicVolatility: s.DailyVolatility,
		AnnualizedReturn:   s.AnnualizedReturn,
		Volatility:         s.AnnualizedVolatility,
		Weights:            append([]float64(nil), w...),
		Statistics:         s,
	}
}

func ptr[T any](v T) *T {
	return &v
}
