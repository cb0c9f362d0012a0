// Package portfolio assembles optimized portfolios from price histories:
// fetch, align, optimize, compare against baselines and trace the frontier.
package portfolio

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/modules/optimization"
	"github.com/aristath/analytics/internal/modules/performance"
)

// Request describes a portfolio to build
type Request struct {
	Symbols         []string
	Benchmark       string
	Start           time.Time
	End             time.Time
	Interval        domain.Interval
	ConfidenceLevel float64
	RiskFreeRate    float64
	Objective       optimization.Objective
	// Constraints bounds individual assets; symbols without an entry get [0,1].
	// Entries for symbols that could not be fetched are ignored.
	Constraints map[string]optimization.Bound
	Categories  []optimization.CategoryConstraint
	// CustomWeights is an optional caller allocation evaluated as a baseline.
	// Missing symbols weigh 0; the rest is normalized to sum to 1.
	CustomWeights map[string]float64
	// FrontierPoints > 0 also traces the efficient frontier
	FrontierPoints int
	MaxIterations  int
}

// Params returns the statistics parameters implied by the request
func (r Request) Params() performance.Params {
	return performance.Params{
		ConfidenceLevel: r.ConfidenceLevel,
		RiskFreeRate:    r.RiskFreeRate,
		PeriodsPerYear:  r.Interval.PeriodsPerYear(),
	}
}

// Normalize upper-cases and de-duplicates symbols, keeping their order
func (r *Request) Normalize() {
	seen := make(map[string]struct{}, len(r.Symbols))
	symbols := make([]string, 0, len(r.Symbols))
	for _, s := range r.Symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		symbols = append(symbols, s)
	}
	r.Symbols = symbols
	r.Benchmark = strings.ToUpper(strings.TrimSpace(r.Benchmark))

	if len(r.Constraints) > 0 {
		constraints := make(map[string]optimization.Bound, len(r.Constraints))
		for s, b := range r.Constraints {
			constraints[strings.ToUpper(strings.TrimSpace(s))] = b
		}
		r.Constraints = constraints
	}
	if len(r.CustomWeights) > 0 {
		weights := make(map[string]float64, len(r.CustomWeights))
		for s, w := range r.CustomWeights {
			weights[strings.ToUpper(strings.TrimSpace(s))] += w
		}
		r.CustomWeights = weights
	}
}

// Validate checks the request before any data is fetched
func (r Request) Validate() error {
	if len(r.Symbols) == 0 {
		return fmt.Errorf("%w: at least one symbol is required", domain.ErrInvalidParameter)
	}
	if r.Benchmark == "" {
		return fmt.Errorf("%w: benchmark is required", domain.ErrInvalidParameter)
	}
	if !r.End.After(r.Start) {
		return fmt.Errorf("%w: end %s must be after start %s", domain.ErrInvalidParameter,
			r.End.Format("2006-01-02"), r.Start.Format("2006-01-02"))
	}
	if r.FrontierPoints < 0 {
		return fmt.Errorf("%w: frontier points must not be negative", domain.ErrInvalidParameter)
	}
	if r.MaxIterations < 0 {
		return fmt.Errorf("%w: max iterations must not be negative", domain.ErrInvalidParameter)
	}
	for s, w := range r.CustomWeights {
		if math.IsNaN(w) || w < 0 {
			return fmt.Errorf("%w: custom weight for %s is %v", domain.ErrInvalidParameter, s, w)
		}
	}
	return r.Params().Validate()
}

// boundsFor lines the per-asset constraints up with symbols
func (r Request) boundsFor(symbols []string) []optimization.Bound {
	bounds := optimization.DefaultBounds(len(symbols))
	for i, s := range symbols {
		if b, ok := r.Constraints[s]; ok {
			bounds[i] = b
		}
	}
	return bounds
}

// customWeightsFor returns the custom allocation over symbols, normalized.
// ok is false when no custom weights were given.
func (r Request) customWeightsFor(symbols []string) (w []float64, ok bool, err error) {
	if len(r.CustomWeights) == 0 {
		return nil, false, nil
	}
	w = make([]float64, len(symbols))
	var total float64
	for i, s := range symbols {
		w[i] = r.CustomWeights[s]
		total += w[i]
	}
	if total <= 0 {
		return nil, true, fmt.Errorf("%w: custom weights do not cover any fetched symbol", domain.ErrInvalidParameter)
	}
	for i := range w {
		w[i] /= total
	}
	return w, true, nil
}
