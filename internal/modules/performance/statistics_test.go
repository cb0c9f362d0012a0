package performance

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/analytics/internal/domain"
)

var (
	scenarioSecurity  = []float64{0.01, -0.02, 0.03, -0.01, 0.02}
	scenarioBenchmark = []float64{0.005, -0.01, 0.02, -0.005, 0.01}
	scenarioParams    = Params{ConfidenceLevel: 0.95, RiskFreeRate: 0.0, PeriodsPerYear: 252}
)

func TestCompute_ConcreteScenario(t *testing.T) {
	stats, err := Compute(scenarioSecurity, scenarioBenchmark, scenarioParams)
	require.NoError(t, err)

	expectedCumulative := 1.01*0.98*1.03*0.99*1.02 - 1
	assert.InDelta(t, expectedCumulative, stats.CumulativeReturn, 1e-12)
	assert.InDelta(t, 0.0294850412, stats.CumulativeReturn, 1e-9)

	// Deepest decline: peak after step 1 (1.01) to trough after step 2 (0.9898)
	assert.InDelta(t, -0.02, stats.MaximumDrawdown, 1e-12)

	assert.InDelta(t, 0.006, stats.DailyReturn, 1e-12)
	assert.InDelta(t, math.Sqrt(4.3e-4), stats.DailyVolatility, 1e-12)
	assert.InDelta(t, math.Pow(1+expectedCumulative, 252.0/5)-1, stats.AnnualizedReturn, 1e-9)
	assert.InDelta(t, math.Sqrt(4.3e-4)*math.Sqrt(252), stats.AnnualizedVolatility, 1e-12)

	// Benchmark is exactly half the security
	assert.InDelta(t, 2.0, stats.Beta, 1e-9)
	assert.InDelta(t, stats.AnnualizedReturn/stats.AnnualizedVolatility, stats.SharpeRatio, 1e-9)
	assert.InDelta(t, stats.AnnualizedVolatility/2, stats.ActiveRisk, 1e-12)
	assert.InDelta(t, stats.AnnualizedReturn-stats.BenchmarkAnnualizedReturn, stats.ActiveReturn, 1e-12)
	assert.InDelta(t, stats.ActiveReturn/stats.ActiveRisk, stats.InformationRatio, 1e-9)
	assert.InDelta(t, stats.AnnualizedReturn/0.02, stats.CalmarRatio, 1e-6)
	assert.InDelta(t, stats.AnnualizedReturn-2*stats.BenchmarkAnnualizedReturn, stats.Alpha, 1e-9)

	// floor(0.05 * 4) = 0: the worst return
	assert.InDelta(t, -0.02, stats.ValueAtRisk, 1e-12)
	assert.InDelta(t, -0.02, stats.ExpectedShortfall, 1e-12)

	assert.Equal(t, 0.95, stats.ConfidenceLevel)
	assert.Equal(t, 0.0, stats.RiskFreeRate)
}

func TestCompute_SortinoUsesDownsideOnly(t *testing.T) {
	stats, err := Compute(scenarioSecurity, scenarioBenchmark, scenarioParams)
	require.NoError(t, err)

	downside := math.Sqrt((0.02*0.02+0.01*0.01)/5) * math.Sqrt(252)
	assert.InDelta(t, stats.AnnualizedReturn/downside, stats.SortinoRatio, 1e-9)
	assert.Greater(t, stats.SortinoRatio, stats.SharpeRatio)
}

func TestCompute_DrawdownSeriesAgreesWithMaximum(t *testing.T) {
	inputs := [][]float64{
		scenarioSecurity,
		{-0.05, -0.05, 0.2, -0.3, 0.1, 0.05},
		{0.01, 0.01, 0.01, 0.02},
		{-0.01, 0.03, -0.04, 0.01, -0.02, 0.06, -0.01},
	}

	for _, security := range inputs {
		benchmark := make([]float64, len(security))
		for i := range benchmark {
			benchmark[i] = 0.001 * float64(i%3-1)
		}

		stats, err := Compute(security, benchmark, scenarioParams)
		require.NoError(t, err)
		require.Len(t, stats.Drawdowns, len(security))

		lowest := 0.0
		for _, d := range stats.Drawdowns {
			if d < lowest {
				lowest = d
			}
		}
		assert.Equal(t, lowest, stats.MaximumDrawdown)
	}
}

func TestCompute_Errors(t *testing.T) {
	tests := []struct {
		name      string
		security  []float64
		benchmark []float64
		params    Params
		expected  error
	}{
		{"empty security", nil, []float64{0.01}, scenarioParams, domain.ErrEmptySeries},
		{"empty benchmark", []float64{0.01}, []float64{}, scenarioParams, domain.ErrEmptySeries},
		{"length mismatch", []float64{0.01, 0.02}, []float64{0.01}, scenarioParams, domain.ErrMisaligned},
		{"constant benchmark", scenarioSecurity, []float64{0.01, 0.01, 0.01, 0.01, 0.01}, scenarioParams, domain.ErrDegenerateVariance},
		{"single observation", []float64{0.01}, []float64{0.02}, scenarioParams, domain.ErrDegenerateVariance},
		{"confidence of one", scenarioSecurity, scenarioBenchmark, Params{ConfidenceLevel: 1, PeriodsPerYear: 252}, domain.ErrInvalidParameter},
		{"zero periods", scenarioSecurity, scenarioBenchmark, Params{ConfidenceLevel: 0.95}, domain.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.security, tt.benchmark, tt.params)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
		})
	}
}

func TestCompute_ConstantSecurityUsesZeroSentinel(t *testing.T) {
	security := []float64{0.001, 0.001, 0.001, 0.001, 0.001}

	stats, err := Compute(security, scenarioBenchmark, scenarioParams)
	require.NoError(t, err)

	assert.True(t, stats.IsDegenerate())
	assert.Equal(t, 0.0, stats.SharpeRatio)
	assert.Equal(t, 0.0, stats.SortinoRatio)
	assert.Equal(t, 0.0, stats.CalmarRatio)
	assert.Equal(t, 0.0, stats.MaximumDrawdown)
	assert.InDelta(t, 0.0, stats.Beta, 1e-12)
	assert.False(t, math.IsNaN(stats.InformationRatio))
}

func TestCompute_AllZeroSecurityDoesNotFail(t *testing.T) {
	security := make([]float64, 5)

	stats, err := Compute(security, scenarioBenchmark, scenarioParams)
	require.NoError(t, err)

	assert.Equal(t, 0.0, stats.CumulativeReturn)
	assert.Equal(t, 0.0, stats.SharpeRatio)
	assert.Equal(t, 0.0, stats.ValueAtRisk)
}

func TestCompute_CopiesInputs(t *testing.T) {
	security := append([]float64(nil), scenarioSecurity...)
	stats, err := Compute(security, scenarioBenchmark, scenarioParams)
	require.NoError(t, err)

	security[0] = 0.5
	assert.Equal(t, 0.01, stats.Returns[0])
}

func TestParams_Defaults(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())
	assert.Equal(t, 0.95, p.ConfidenceLevel)
	assert.Equal(t, 0.02, p.RiskFreeRate)
	assert.Equal(t, 252.0, p.PeriodsPerYear)
}
