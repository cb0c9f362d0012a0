package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	tests := []struct {
		input    string
		expected Interval
	}{
		{"1d", Interval1d},
		{"1WK", Interval1wk},
		{" 1mo ", Interval1mo},
		{"3mo", Interval3mo},
		{"5m", Interval5m},
		{"1h", Interval1h},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseInterval(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseInterval_Unknown(t *testing.T) {
	_, err := ParseInterval("2y")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestInterval_StringRoundTrip(t *testing.T) {
	for iv, name := range intervalNames {
		parsed, err := ParseInterval(iv.String())
		require.NoError(t, err, name)
		assert.Equal(t, iv, parsed)
	}
}

func TestInterval_PeriodsPerYear(t *testing.T) {
	assert.Equal(t, 252.0, Interval1d.PeriodsPerYear())
	assert.InDelta(t, 50.4, Interval5d.PeriodsPerYear(), 1e-12)
	assert.Equal(t, 52.0, Interval1wk.PeriodsPerYear())
	assert.Equal(t, 12.0, Interval1mo.PeriodsPerYear())
	assert.Equal(t, 4.0, Interval3mo.PeriodsPerYear())
	assert.InDelta(t, 252*6.5, Interval1h.PeriodsPerYear(), 1e-9)
	assert.InDelta(t, Interval1h.PeriodsPerYear(), Interval60m.PeriodsPerYear(), 1e-9)
	assert.InDelta(t, 252*6.5*12, Interval5m.PeriodsPerYear(), 1e-6)
}

func TestInterval_BarStart(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	ts := time.Date(2024, 3, 5, 14, 37, 42, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Interval1d.BarStart(ts))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Interval1wk.BarStart(ts))
	assert.Equal(t, time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC), Interval1h.BarStart(ts))
	assert.Equal(t, time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC), Interval90m.BarStart(ts))
	assert.Equal(t, time.Date(2024, 3, 5, 14, 37, 0, 0, time.UTC), Interval5m.BarStart(ts))

	// 09:00 in Berlin is 08:00 UTC on the same day
	local := time.Date(2024, 3, 5, 9, 0, 0, 0, berlin)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Interval1d.BarStart(local))
	assert.Equal(t, time.UTC, Interval1d.BarStart(local).Location())
}

func TestInterval_TextMarshaling(t *testing.T) {
	var iv Interval
	require.NoError(t, iv.UnmarshalText([]byte("1wk")))
	assert.Equal(t, Interval1wk, iv)

	text, err := iv.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1wk", string(text))

	assert.Error(t, iv.UnmarshalText([]byte("weekly")))
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsValidationError(ErrInfeasibleConstraints))
	assert.False(t, IsDataError(ErrInfeasibleConstraints))
	assert.True(t, IsDataError(ErrDegenerateVariance))
	assert.False(t, IsValidationError(ErrProvider))
	assert.False(t, IsDataError(ErrProvider))
}
