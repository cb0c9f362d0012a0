// Package formulas provides the numeric kernels behind the performance
// statistics: moments, compounding, annualization, tail risk and drawdown.
// All inputs and outputs are decimal fractions (0.01 = 1%).
package formulas

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation (n-1 denominator).
// Returns 0 for fewer than two observations.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance (n-1 denominator)
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Covariance calculates the sample covariance between two equal-length datasets
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// Correlation calculates the Pearson correlation coefficient.
// Returns 0 when either series has no variance.
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	if Variance(x) == 0 || Variance(y) == 0 {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// Difference returns a[i] - b[i] for equal-length inputs
func Difference(a, b []float64) []float64 {
	out := make([]float64, len(a))
	floats.SubTo(out, a, b)
	return out
}

// CumulativeReturn compounds periodic returns: prod(1+r) - 1
func CumulativeReturn(returns []float64) float64 {
	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r
	}
	return growth - 1
}

// CumulativeReturns returns the running compounded return after each period
func CumulativeReturns(returns []float64) []float64 {
	out := make([]float64, len(returns))
	growth := 1.0
	for i, r := range returns {
		growth *= 1 + r
		out[i] = growth - 1
	}
	return out
}

// AnnualizeReturn converts a cumulative return over n periods to a yearly rate:
// (1+cumulative)^(periodsPerYear/n) - 1
func AnnualizeReturn(cumulative float64, n int, periodsPerYear float64) float64 {
	if n <= 0 {
		return 0
	}
	growth := 1 + cumulative
	if growth <= 0 {
		// Total loss cannot be annualized by a real power
		return -1
	}
	return math.Pow(growth, periodsPerYear/float64(n)) - 1
}

// AnnualizeVolatility scales a periodic standard deviation by sqrt(periodsPerYear)
func AnnualizeVolatility(periodic, periodsPerYear float64) float64 {
	return periodic * math.Sqrt(periodsPerYear)
}

// DownsideDeviation is the target semideviation below zero:
// sqrt(sum(min(r,0)^2) / n), taken over all observations
func DownsideDeviation(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range returns {
		if r < 0 {
			sum += r * r
		}
	}
	return math.Sqrt(sum / float64(len(returns)))
}

// SafeRatio divides num by den, returning 0 when |den| is below eps or the
// result is not finite
func SafeRatio(num, den, eps float64) float64 {
	if math.Abs(den) < eps {
		return 0
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
