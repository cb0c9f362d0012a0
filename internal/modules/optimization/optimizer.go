package optimization

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/modules/performance"
	"github.com/aristath/analytics/internal/utils"
	"github.com/aristath/analytics/pkg/formulas"
)

const (
	// DefaultTolerance is the relative objective improvement below which the
	// search is considered converged
	DefaultTolerance = 1e-6
	// DefaultTimeout caps the wall-clock time of one search
	DefaultTimeout = 30 * time.Second

	minIterations       = 500
	iterationsPerAsset  = 200
	stallIterations     = 50
	failedEvaluation    = 1e10
	benchmarkVarianceEp = 1e-12
)

// Settings are the optimizer-wide defaults. Zero values fall back to the
// package defaults; MaxIterations 0 scales the cap with the asset count.
type Settings struct {
	MaxIterations int
	Tolerance     float64
	Timeout       time.Duration
}

// Options tune a single optimization run
type Options struct {
	Bounds     []Bound              `json:"bounds,omitempty"`
	Categories []CategoryConstraint `json:"categories,omitempty"`
	// WarmStart replaces the equal-weight starting point
	WarmStart     []float64     `json:"warm_start,omitempty"`
	MaxIterations int           `json:"max_iterations,omitempty"`
	Tolerance     float64       `json:"tolerance,omitempty"`
	Timeout       time.Duration `json:"-"`
}

// Result is the outcome of an optimization run
type Result struct {
	Symbols     []string                `json:"symbols"`
	Weights     []float64               `json:"weights"`
	Statistics  *performance.Statistics `json:"statistics"`
	Objective   Objective               `json:"objective"`
	Value       float64                 `json:"value"`
	Iterations  int                     `json:"iterations"`
	Evaluations int                     `json:"evaluations"`
	Converged   bool                    `json:"converged"`
	Status      string                  `json:"status"`
	Duration    time.Duration           `json:"duration_ns"`
}

// Optimizer runs derivative-free weight searches over a returns matrix
type Optimizer struct {
	settings Settings
	log      zerolog.Logger
}

// NewOptimizer creates an optimizer
func NewOptimizer(settings Settings, log zerolog.Logger) *Optimizer {
	return &Optimizer{
		settings: settings,
		log:      log.With().Str("component", "optimizer").Logger(),
	}
}

// EqualWeights returns 1/n for every asset
func EqualWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w
}

// problem is a validated optimization input
type problem struct {
	m          *ReturnsMatrix
	benchmark  []float64
	params     performance.Params
	bounds     []Bound
	categories []category
	proj       *projector
}

// costFunc scores projected weights and their statistics; lower is better
type costFunc func(w []float64, s *performance.Statistics) float64

// search is the best point found by one run
type search struct {
	weights     []float64
	stats       *performance.Statistics
	iterations  int
	evaluations int
	status      optimize.Status
}

// Optimize finds fully invested weights within the bounds that optimize obj.
// Reaching the iteration or time cap returns the best point found with
// Converged false; only an infeasible best point is an error.
func (o *Optimizer) Optimize(
	ctx context.Context,
	m *ReturnsMatrix,
	benchmark []float64,
	p performance.Params,
	obj Objective,
	opts Options,
) (*Result, error) {
	if _, ok := objectiveNames[obj]; !ok {
		return nil, fmt.Errorf("%w: unknown objective %d", domain.ErrInvalidParameter, int(obj))
	}

	pr, err := o.prepare(m, benchmark, p, opts)
	if err != nil {
		return nil, err
	}

	timer := utils.NewTimer("optimize_"+obj.String(), o.log)

	start := o.startingPoint(pr, obj, opts)
	found, err := o.run(ctx, pr, start, func(_ []float64, s *performance.Statistics) float64 {
		return obj.Value(s)
	}, opts)
	if err != nil {
		return nil, err
	}

	duration := timer.StopWithContext(map[string]interface{}{
		"assets":     m.Assets(),
		"iterations": found.iterations,
	})

	result := &Result{
		Symbols:     append([]string(nil), m.Symbols...),
		Weights:     found.weights,
		Statistics:  found.stats,
		Objective:   obj,
		Value:       obj.Score(found.stats),
		Iterations:  found.iterations,
		Evaluations: found.evaluations,
		Converged:   converged(found.status),
		Status:      found.status.String(),
		Duration:    duration,
	}

	event := o.log.Info()
	if !result.Converged {
		event = o.log.Warn()
	}
	event.
		Str("objective", obj.String()).
		Int("assets", m.Assets()).
		Float64("value", result.Value).
		Int("iterations", result.Iterations).
		Int("evaluations", result.Evaluations).
		Str("status", result.Status).
		Dur("duration", duration).
		Msg("Optimization finished")

	return result, nil
}

func (o *Optimizer) prepare(m *ReturnsMatrix, benchmark []float64, p performance.Params, opts Options) (*problem, error) {
	if m == nil || m.Assets() == 0 {
		return nil, fmt.Errorf("%w: returns matrix has no assets", domain.ErrInsufficientAssets)
	}
	if len(benchmark) != m.Periods() {
		return nil, fmt.Errorf("%w: benchmark has %d periods, matrix has %d", domain.ErrMisaligned, len(benchmark), m.Periods())
	}
	if m.Periods() < 2 {
		return nil, fmt.Errorf("%w: need at least 2 periods, got %d", domain.ErrInsufficientData, m.Periods())
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if formulas.Variance(benchmark) < benchmarkVarianceEp {
		return nil, fmt.Errorf("%w: benchmark returns are constant", domain.ErrDegenerateVariance)
	}

	bounds := opts.Bounds
	if bounds == nil {
		bounds = DefaultBounds(m.Assets())
	}
	if len(bounds) != m.Assets() {
		return nil, fmt.Errorf("%w: %d bounds for %d assets", domain.ErrInfeasibleConstraints, len(bounds), m.Assets())
	}
	if err := ValidateBounds(bounds); err != nil {
		return nil, err
	}

	categories, err := resolveCategories(m.Symbols, bounds, opts.Categories)
	if err != nil {
		return nil, err
	}

	if opts.WarmStart != nil && len(opts.WarmStart) != m.Assets() {
		return nil, fmt.Errorf("%w: warm start has %d weights for %d assets", domain.ErrInvalidParameter, len(opts.WarmStart), m.Assets())
	}

	return &problem{
		m:          m,
		benchmark:  benchmark,
		params:     p,
		bounds:     bounds,
		categories: categories,
		proj:       newProjector(bounds),
	}, nil
}

// startingPoint is the projected warm start, the closed-form minimum
// variance weights when they already satisfy every constraint, or equal weights
func (o *Optimizer) startingPoint(pr *problem, obj Objective, opts Options) []float64 {
	n := pr.m.Assets()
	start := make([]float64, n)

	if opts.WarmStart != nil {
		pr.proj.project(start, opts.WarmStart)
		return start
	}

	if obj == MinVol && len(pr.categories) == 0 {
		if w, ok := minVarianceWeights(pr.m); ok && withinBounds(w, pr.bounds) {
			o.log.Debug().Msg("Using closed-form minimum variance weights as starting point")
			copy(start, w)
			return start
		}
	}

	pr.proj.project(start, EqualWeights(n))
	return start
}

// minVarianceWeights solves Σw = 1 and normalizes, falling back to the
// shrunk covariance when the sample covariance is not positive definite
func minVarianceWeights(m *ReturnsMatrix) ([]float64, bool) {
	cov, err := Covariance(m)
	if err != nil {
		return nil, false
	}

	var chol mat.Cholesky
	if !chol.Factorize(cov) {
		shrunk, _, err := ShrunkCovariance(m)
		if err != nil || !chol.Factorize(shrunk) {
			return nil, false
		}
	}

	n := m.Assets()
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, mat.NewVecDense(n, ones)); err != nil {
		return nil, false
	}

	w := mat.Col(nil, 0, &x)
	sum := floats.Sum(w)
	if sum == 0 || math.IsNaN(sum) {
		return nil, false
	}
	floats.Scale(1/sum, w)
	return w, true
}

func withinBounds(w []float64, bounds []Bound) bool {
	for i, v := range w {
		if v < bounds[i].Lower || v > bounds[i].Upper {
			return false
		}
	}
	return true
}

// evaluate computes the statistics of the portfolio with weights w
func (pr *problem) evaluate(w []float64) (*performance.Statistics, error) {
	return performance.Compute(PortfolioReturns(pr.m, w), pr.benchmark, pr.params)
}

// run minimizes cost over the projected feasible set with Nelder-Mead
func (o *Optimizer) run(ctx context.Context, pr *problem, start []float64, cost costFunc, opts Options) (*search, error) {
	n := pr.m.Assets()

	// Nothing to search: a single asset or bounds that pin every weight
	if n == 1 || pr.proj.fixed() {
		return o.finish(pr, start, &search{status: optimize.Success, evaluations: 1})
	}

	w := make([]float64, n)
	portfolio := make([]float64, pr.m.Periods())
	best := math.Inf(1)
	bestWeights := make([]float64, n)

	fn := func(x []float64) float64 {
		pr.proj.project(w, x)
		portfolioReturnsInto(portfolio, pr.m, w)
		s, err := performance.Compute(portfolio, pr.benchmark, pr.params)
		if err != nil {
			return failedEvaluation
		}
		f := cost(w, s) + categoryPenalty(w, pr.categories)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return failedEvaluation
		}
		if f < best {
			best = f
			copy(bestWeights, w)
		}
		return f
	}

	problem := optimize.Problem{
		Func: fn,
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}

	tolerance := o.tolerance(opts)
	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   tolerance * 1e-3,
			Relative:   tolerance,
			Iterations: stallIterations,
		},
		MajorIterations: o.maxIterations(opts, n),
		Runtime:         o.timeout(opts),
	}

	result, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("optimization cancelled: %w", ctxErr)
	}
	if math.IsInf(best, 1) {
		if err == nil {
			err = fmt.Errorf("no candidate evaluated")
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrDidNotConverge, err)
	}

	found := &search{status: optimize.Failure}
	if result != nil {
		found.iterations = result.Stats.MajorIterations
		found.evaluations = result.Stats.FuncEvaluations
		found.status = result.Status
	}
	if err != nil {
		o.log.Warn().Err(err).Msg("Search stopped early, using best point found")
	}

	return o.finish(pr, bestWeights, found)
}

// finish checks feasibility and computes the full statistics at w
func (o *Optimizer) finish(pr *problem, w []float64, found *search) (*search, error) {
	if err := checkFeasible(w, pr.bounds, pr.categories); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDidNotConverge, err)
	}
	stats, err := pr.evaluate(w)
	if err != nil {
		return nil, err
	}
	found.weights = append([]float64(nil), w...)
	found.stats = stats
	return found, nil
}

func (o *Optimizer) maxIterations(opts Options, n int) int {
	if opts.MaxIterations > 0 {
		return opts.MaxIterations
	}
	if o.settings.MaxIterations > 0 {
		return o.settings.MaxIterations
	}
	if iterationsPerAsset*n > minIterations {
		return iterationsPerAsset * n
	}
	return minIterations
}

func (o *Optimizer) tolerance(opts Options) float64 {
	if opts.Tolerance > 0 {
		return opts.Tolerance
	}
	if o.settings.Tolerance > 0 {
		return o.settings.Tolerance
	}
	return DefaultTolerance
}

func (o *Optimizer) timeout(opts Options) time.Duration {
	if opts.Timeout > 0 {
		return opts.Timeout
	}
	if o.settings.Timeout > 0 {
		return o.settings.Timeout
	}
	return DefaultTimeout
}

func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.FunctionConvergence, optimize.MethodConverge, optimize.GradientThreshold:
		return true
	}
	return false
}
