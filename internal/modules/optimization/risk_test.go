package optimization

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/analytics/internal/domain"
)

func TestCovariance_MatchesPairwiseSample(t *testing.T) {
	a := synthetic(1, 60, 0.001, 0.01)
	b := synthetic(2, 60, 0.0005, 0.02)
	m := mustMatrix(t, []string{"A", "B"}, a, b)

	cov, err := Covariance(m)
	require.NoError(t, err)

	assert.InDelta(t, stat.Variance(a, nil), cov.At(0, 0), 1e-15)
	assert.InDelta(t, stat.Variance(b, nil), cov.At(1, 1), 1e-15)
	assert.InDelta(t, stat.Covariance(a, b, nil), cov.At(0, 1), 1e-15)
	assert.Equal(t, cov.At(0, 1), cov.At(1, 0))
}

func TestCovariance_SingleAsset(t *testing.T) {
	m := mustMatrix(t, []string{"A"}, []float64{0.01, -0.01, 0.02})
	cov, err := Covariance(m)
	require.NoError(t, err)
	assert.Equal(t, 1, cov.SymmetricDim())
}

func TestCorrelation(t *testing.T) {
	a := synthetic(3, 40, 0, 0.01)
	doubled := make([]float64, len(a))
	for i, v := range a {
		doubled[i] = 2 * v
	}
	constant := make([]float64, len(a))

	m := mustMatrix(t, []string{"A", "B", "C"}, a, doubled, constant)
	corr, err := Correlation(m)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 1.0, corr.At(i, i))
	}
	assert.InDelta(t, 1.0, corr.At(0, 1), 1e-12)
	assert.Equal(t, 0.0, corr.At(0, 2))
	assert.Equal(t, 0.0, corr.At(1, 2))

	pairs := HighCorrelations(m.Symbols, corr, HighCorrelationThreshold)
	require.Len(t, pairs, 1)
	assert.Equal(t, "A", pairs[0].A)
	assert.Equal(t, "B", pairs[0].B)

	rows := CorrelationRows(corr)
	assert.Len(t, rows, 3)
	assert.Equal(t, corr.At(0, 1), rows[1][0])
}

func TestCorrelation_NeedsTwoAssets(t *testing.T) {
	m := mustMatrix(t, []string{"A"}, []float64{0.01, 0.02})
	_, err := Correlation(m)
	assert.True(t, errors.Is(err, domain.ErrInsufficientAssets))
}

func TestShrunkCovariance(t *testing.T) {
	m := mustMatrix(t, []string{"A", "B", "C"},
		synthetic(4, 80, 0, 0.01),
		synthetic(5, 80, 0, 0.02),
		synthetic(6, 80, 0, 0.03),
	)

	sample, err := Covariance(m)
	require.NoError(t, err)
	shrunk, intensity, err := ShrunkCovariance(m)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, intensity, 0.0)
	assert.LessOrEqual(t, intensity, 0.5)

	avgVar := (sample.At(0, 0) + sample.At(1, 1) + sample.At(2, 2)) / 3
	for i := 0; i < 3; i++ {
		expected := (1-intensity)*sample.At(i, i) + intensity*avgVar
		assert.InDelta(t, expected, shrunk.At(i, i), 1e-15)
	}
}

func TestCovariance_NeedsTwoPeriods(t *testing.T) {
	m := mustMatrix(t, []string{"A", "B"}, []float64{0.01}, []float64{0.02})
	_, err := Covariance(m)
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))
}
