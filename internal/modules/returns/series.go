// Package returns builds periodic return series from price histories and
// aligns them on a common timestamp index.
package returns

import (
	"fmt"
	"math"
	"time"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/pkg/formulas"
)

// ReturnSeries is an ordered sequence of simple periodic returns for one symbol.
// Timestamps[i] is the timestamp of the price that closes Returns[i].
// A series is never mutated after Build.
type ReturnSeries struct {
	Symbol     string      `json:"symbol" msgpack:"symbol"`
	Timestamps []time.Time `json:"timestamps" msgpack:"timestamps"`
	Returns    []float64   `json:"returns" msgpack:"returns"`
}

// Build converts an ascending adjusted-close history to simple returns
// r_t = p_t/p_{t-1} - 1. The first price only serves as reference.
func Build(symbol string, prices []domain.PricePoint) (*ReturnSeries, error) {
	if len(prices) < 2 {
		return nil, fmt.Errorf("%w: %s has %d price(s), need at least 2", domain.ErrInsufficientData, symbol, len(prices))
	}

	for i, p := range prices {
		if !(p.AdjustedClose > 0) || math.IsInf(p.AdjustedClose, 0) {
			return nil, fmt.Errorf("%w: %s price %v at index %d", domain.ErrInvalidPrice, symbol, p.AdjustedClose, i)
		}
		if i > 0 && !p.Date.After(prices[i-1].Date) {
			return nil, fmt.Errorf("%w: %s timestamps not strictly increasing at index %d", domain.ErrInvalidPrice, symbol, i)
		}
	}

	series := &ReturnSeries{
		Symbol:     symbol,
		Timestamps: make([]time.Time, len(prices)-1),
		Returns:    make([]float64, len(prices)-1),
	}
	for i := 1; i < len(prices); i++ {
		series.Timestamps[i-1] = prices[i].Date
		series.Returns[i-1] = prices[i].AdjustedClose/prices[i-1].AdjustedClose - 1
	}

	return series, nil
}

// Len returns the number of returns in the series
func (s *ReturnSeries) Len() int {
	return len(s.Returns)
}

// Start returns the first timestamp, or the zero time for an empty series
func (s *ReturnSeries) Start() time.Time {
	if len(s.Timestamps) == 0 {
		return time.Time{}
	}
	return s.Timestamps[0]
}

// End returns the last timestamp, or the zero time for an empty series
func (s *ReturnSeries) End() time.Time {
	if len(s.Timestamps) == 0 {
		return time.Time{}
	}
	return s.Timestamps[len(s.Timestamps)-1]
}

// Compound returns prod(1+r) - 1 over the whole series
func Compound(returns []float64) float64 {
	return formulas.CumulativeReturn(returns)
}
