package optimization

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/analytics/internal/domain"
)

// HighCorrelationThreshold is the absolute correlation reported as "high"
const HighCorrelationThreshold = 0.80

// CorrelationPair is the correlation between two assets
type CorrelationPair struct {
	A           string  `json:"a"`
	B           string  `json:"b"`
	Correlation float64 `json:"correlation"`
}

// Covariance returns the sample covariance matrix (N-1 denominator) of the
// asset returns
func Covariance(m *ReturnsMatrix) (*mat.SymDense, error) {
	if m.Periods() < 2 {
		return nil, fmt.Errorf("%w: need at least 2 periods, got %d", domain.ErrInsufficientData, m.Periods())
	}

	cov := mat.NewSymDense(m.Assets(), nil)
	// stat treats rows as observations
	stat.CovarianceMatrix(cov, m.Data.T(), nil)
	return cov, nil
}

// Correlation returns the correlation matrix of the asset returns.
// Pairs involving a constant asset are reported as 0.
func Correlation(m *ReturnsMatrix) (*mat.SymDense, error) {
	if m.Assets() < 2 {
		return nil, fmt.Errorf("%w: correlation needs at least 2 assets", domain.ErrInsufficientAssets)
	}
	cov, err := Covariance(m)
	if err != nil {
		return nil, err
	}
	return correlationFromCovariance(cov), nil
}

func correlationFromCovariance(cov *mat.SymDense) *mat.SymDense {
	n := cov.SymmetricDim()
	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		corr.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			vi, vj := cov.At(i, i), cov.At(j, j)
			if vi <= 0 || vj <= 0 {
				continue
			}
			corr.SetSym(i, j, cov.At(i, j)/math.Sqrt(vi*vj))
		}
	}
	return corr
}

// ShrunkCovariance shrinks the sample covariance towards a constant
// correlation target (Ledoit-Wolf style). The returned intensity is in [0, 0.5].
func ShrunkCovariance(m *ReturnsMatrix) (*mat.SymDense, float64, error) {
	sample, err := Covariance(m)
	if err != nil {
		return nil, 0, err
	}

	n := sample.SymmetricDim()
	if n < 2 {
		return sample, 0, nil
	}

	var avgVar, avgCov float64
	for i := 0; i < n; i++ {
		avgVar += sample.At(i, i)
		for j := 0; j < n; j++ {
			if i != j {
				avgCov += sample.At(i, j)
			}
		}
	}
	avgVar /= float64(n)
	avgCov /= float64(n * (n - 1))
	if avgVar <= 0 {
		return sample, 0, nil
	}

	// Intensity from the dispersion of the sample entries relative to their
	// distance from the target
	var sumSqDiff, sum, sumSq float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := sample.At(i, j)
			t := avgCov
			if i == j {
				t = avgVar
			}
			sumSqDiff += (v - t) * (v - t)
			sum += v
			sumSq += v * v
		}
	}
	count := float64(n * n)
	meanSqDiff := sumSqDiff / count
	mean := sum / count
	dispersion := sumSq/count - mean*mean

	intensity := 0.2
	if dispersion > 0 && meanSqDiff > 0 {
		intensity = math.Min(0.5, math.Max(0, dispersion/(dispersion+meanSqDiff)))
	}

	shrunk := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			t := avgCov
			if i == j {
				t = avgVar
			}
			shrunk.SetSym(i, j, (1-intensity)*sample.At(i, j)+intensity*t)
		}
	}
	return shrunk, intensity, nil
}

// HighCorrelations lists the pairs whose absolute correlation is at least
// threshold, strongest first
func HighCorrelations(symbols []string, corr mat.Symmetric, threshold float64) []CorrelationPair {
	pairs := make([]CorrelationPair, 0)
	n := corr.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := corr.At(i, j)
			if math.Abs(c) >= threshold {
				pairs = append(pairs, CorrelationPair{A: symbols[i], B: symbols[j], Correlation: c})
			}
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return math.Abs(pairs[a].Correlation) > math.Abs(pairs[b].Correlation)
	})
	return pairs
}

// CorrelationRows converts a symmetric matrix to nested slices for encoding
func CorrelationRows(corr mat.Symmetric) [][]float64 {
	n := corr.SymmetricDim()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		for j := range rows[i] {
			rows[i][j] = corr.At(i, j)
		}
	}
	return rows
}
