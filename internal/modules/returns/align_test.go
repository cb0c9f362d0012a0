package returns

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/analytics/internal/domain"
)

func seriesAt(symbol string, days []int, values []float64) *ReturnSeries {
	s := &ReturnSeries{Symbol: symbol}
	for i, d := range days {
		s.Timestamps = append(s.Timestamps, day0.AddDate(0, 0, d))
		s.Returns = append(s.Returns, values[i])
	}
	return s
}

func TestAlign_Intersect(t *testing.T) {
	a := seriesAt("A", []int{1, 2, 3, 5}, []float64{0.01, 0.02, 0.03, 0.05})
	b := seriesAt("B", []int{2, 3, 4, 5}, []float64{-0.02, -0.03, -0.04, -0.05})

	pair, err := Align(a, b, Intersect)
	require.NoError(t, err)

	require.Equal(t, 3, pair.Len())
	assert.Equal(t, []float64{0.02, 0.03, 0.05}, pair.Security)
	assert.Equal(t, []float64{-0.02, -0.03, -0.05}, pair.Benchmark)
	assert.Equal(t, day0.AddDate(0, 0, 2), pair.Timestamps[0])
}

func TestAlign_ZeroFill(t *testing.T) {
	a := seriesAt("A", []int{1, 3}, []float64{0.01, 0.03})
	b := seriesAt("B", []int{2, 3}, []float64{-0.02, -0.03})

	pair, err := Align(a, b, ZeroFill)
	require.NoError(t, err)

	require.Equal(t, 3, pair.Len())
	assert.Equal(t, []float64{0.01, 0, 0.03}, pair.Security)
	assert.Equal(t, []float64{0, -0.02, -0.03}, pair.Benchmark)
	assert.Len(t, pair.Benchmark, len(pair.Security))
}

func TestAlign_Disjoint(t *testing.T) {
	a := seriesAt("A", []int{1}, []float64{0.01})
	b := seriesAt("B", []int{2}, []float64{0.02})

	_, err := Align(a, b, Intersect)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmptySeries))
}

func TestAlign_NormalizesTimeZones(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	instant := day0.Add(21 * time.Hour)

	a := &ReturnSeries{Symbol: "A", Timestamps: []time.Time{instant}, Returns: []float64{0.01}}
	b := &ReturnSeries{Symbol: "B", Timestamps: []time.Time{instant.In(ny)}, Returns: []float64{0.02}}

	pair, err := Align(a, b, Intersect)
	require.NoError(t, err)
	assert.Equal(t, 1, pair.Len())
}

func TestParseAlignMode(t *testing.T) {
	mode, err := ParseAlignMode("zero-fill")
	require.NoError(t, err)
	assert.Equal(t, ZeroFill, mode)

	mode, err = ParseAlignMode("INTERSECT")
	require.NoError(t, err)
	assert.Equal(t, Intersect, mode)

	_, err = ParseAlignMode("outer")
	assert.True(t, errors.Is(err, domain.ErrInvalidParameter))
}

func TestAlignMode_TextMarshaling(t *testing.T) {
	text, err := ZeroFill.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "zero_fill", string(text))

	var mode AlignMode
	require.NoError(t, mode.UnmarshalText([]byte("zero_fill")))
	assert.Equal(t, ZeroFill, mode)
	assert.Error(t, mode.UnmarshalText([]byte("outer")))
}

func TestCoverage(t *testing.T) {
	a := seriesAt("A", []int{1, 2}, []float64{0.01, 0.02})
	b := seriesAt("B", []int{1, 2, 3, 4}, []float64{0, 0, 0, 0})
	index := Union(a, b)

	assert.Equal(t, 0.5, Coverage(a, index))
	assert.Equal(t, 1.0, Coverage(b, index))
	assert.Equal(t, 0.0, Coverage(a, nil))
}
