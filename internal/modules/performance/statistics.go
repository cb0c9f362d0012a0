// Package performance computes risk and return statistics for a return
// series measured against a benchmark.
package performance

import (
	"fmt"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/pkg/formulas"
)

// varianceEpsilon is the variance below which a series is treated as constant
const varianceEpsilon = 1e-12

// ratioEpsilon guards every ratio denominator; below it the ratio is 0
const ratioEpsilon = 1e-12

// Params are the risk parameters of a statistics computation
type Params struct {
	ConfidenceLevel float64 `json:"confidence_level"`
	RiskFreeRate    float64 `json:"risk_free_rate"`
	PeriodsPerYear  float64 `json:"periods_per_year"`
}

// DefaultParams returns 95% confidence, 2% risk-free rate, daily bars
func DefaultParams() Params {
	return Params{
		ConfidenceLevel: 0.95,
		RiskFreeRate:    0.02,
		PeriodsPerYear:  domain.TradingDaysPerYear,
	}
}

// Validate checks the parameter ranges
func (p Params) Validate() error {
	if !(p.ConfidenceLevel > 0 && p.ConfidenceLevel < 1) {
		return fmt.Errorf("%w: confidence level %v must be in (0,1)", domain.ErrInvalidParameter, p.ConfidenceLevel)
	}
	if !(p.PeriodsPerYear > 0) {
		return fmt.Errorf("%w: periods per year %v must be positive", domain.ErrInvalidParameter, p.PeriodsPerYear)
	}
	return nil
}

// Statistics holds the performance statistics of one series against a
// benchmark. All values are decimal fractions; Table converts to percent.
// Ratios whose denominator is ~0 (constant series, no downside, no drawdown)
// are reported as 0.
type Statistics struct {
	DailyReturn          float64 `json:"daily_return"`
	DailyVolatility      float64 `json:"daily_volatility"`
	CumulativeReturn     float64 `json:"cumulative_return"`
	AnnualizedReturn     float64 `json:"annualized_return"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	Alpha                float64 `json:"alpha"`
	Beta                 float64 `json:"beta"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	SortinoRatio         float64 `json:"sortino_ratio"`
	ActiveReturn         float64 `json:"active_return"`
	ActiveRisk           float64 `json:"active_risk"`
	InformationRatio     float64 `json:"information_ratio"`
	CalmarRatio          float64 `json:"calmar_ratio"`
	MaximumDrawdown      float64 `json:"maximum_drawdown"`
	ValueAtRisk          float64 `json:"value_at_risk"`
	ExpectedShortfall    float64 `json:"expected_shortfall"`

	BenchmarkAnnualizedReturn float64 `json:"benchmark_annualized_return"`

	ConfidenceLevel float64 `json:"confidence_level"`
	RiskFreeRate    float64 `json:"risk_free_rate"`
	PeriodsPerYear  float64 `json:"periods_per_year"`

	Returns           []float64 `json:"returns,omitempty"`
	BenchmarkReturns  []float64 `json:"benchmark_returns,omitempty"`
	CumulativeReturns []float64 `json:"cumulative_returns,omitempty"`
	Drawdowns         []float64 `json:"drawdowns,omitempty"`
}

// Compute calculates the statistics of security against benchmark.
// Both series must be aligned (equal length, same timestamps). The inputs are
// copied; the returned value shares no memory with the caller.
func Compute(security, benchmark []float64, p Params) (*Statistics, error) {
	if len(security) == 0 || len(benchmark) == 0 {
		return nil, fmt.Errorf("%w: security has %d returns, benchmark has %d", domain.ErrEmptySeries, len(security), len(benchmark))
	}
	if len(security) != len(benchmark) {
		return nil, fmt.Errorf("%w: security has %d returns, benchmark has %d", domain.ErrMisaligned, len(security), len(benchmark))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	benchVariance := formulas.Variance(benchmark)
	if len(benchmark) < 2 || benchVariance < varianceEpsilon {
		return nil, fmt.Errorf("%w: benchmark variance %g over %d periods", domain.ErrDegenerateVariance, benchVariance, len(benchmark))
	}

	n := len(security)
	s := &Statistics{
		ConfidenceLevel:  p.ConfidenceLevel,
		RiskFreeRate:     p.RiskFreeRate,
		PeriodsPerYear:   p.PeriodsPerYear,
		Returns:          append([]float64(nil), security...),
		BenchmarkReturns: append([]float64(nil), benchmark...),
	}

	s.DailyReturn = formulas.Mean(security)
	s.DailyVolatility = formulas.StdDev(security)
	s.CumulativeReturns = formulas.CumulativeReturns(security)
	s.CumulativeReturn = s.CumulativeReturns[n-1]
	s.AnnualizedReturn = formulas.AnnualizeReturn(s.CumulativeReturn, n, p.PeriodsPerYear)
	s.AnnualizedVolatility = formulas.AnnualizeVolatility(s.DailyVolatility, p.PeriodsPerYear)

	s.BenchmarkAnnualizedReturn = formulas.AnnualizeReturn(formulas.CumulativeReturn(benchmark), n, p.PeriodsPerYear)
	s.Beta = formulas.Covariance(security, benchmark) / benchVariance
	s.Alpha = s.AnnualizedReturn - p.RiskFreeRate - s.Beta*(s.BenchmarkAnnualizedReturn-p.RiskFreeRate)

	excess := s.AnnualizedReturn - p.RiskFreeRate
	s.SharpeRatio = formulas.SafeRatio(excess, s.AnnualizedVolatility, ratioEpsilon)
	downside := formulas.AnnualizeVolatility(formulas.DownsideDeviation(security), p.PeriodsPerYear)
	s.SortinoRatio = formulas.SafeRatio(excess, downside, ratioEpsilon)

	s.ActiveReturn = s.AnnualizedReturn - s.BenchmarkAnnualizedReturn
	s.ActiveRisk = formulas.AnnualizeVolatility(formulas.StdDev(formulas.Difference(security, benchmark)), p.PeriodsPerYear)
	s.InformationRatio = formulas.SafeRatio(s.ActiveReturn, s.ActiveRisk, ratioEpsilon)

	s.Drawdowns = formulas.DrawdownSeries(security)
	s.MaximumDrawdown = formulas.DeepestDrawdown(s.Drawdowns)
	s.CalmarRatio = formulas.SafeRatio(s.AnnualizedReturn, -s.MaximumDrawdown, ratioEpsilon)

	s.ValueAtRisk, s.ExpectedShortfall = formulas.TailRisk(security, p.ConfidenceLevel)

	return s, nil
}

// IsDegenerate reports whether the security series itself had ~zero variance,
// in which case the ratio fields hold the 0 sentinel
func (s *Statistics) IsDegenerate() bool {
	return s.DailyVolatility*s.DailyVolatility < varianceEpsilon
}
