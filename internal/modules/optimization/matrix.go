package optimization

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/modules/returns"
)

// DefaultMinCoverage is the fraction of the union calendar an asset must
// cover to stay in the matrix
const DefaultMinCoverage = 0.5

// ReturnsMatrix holds aligned periodic returns: one row per asset, one
// column per timestamp
type ReturnsMatrix struct {
	Symbols    []string
	Timestamps []time.Time
	Data       *mat.Dense
	// Dropped lists assets excluded for insufficient coverage
	Dropped []string
}

// MatrixOptions controls how series are stacked
type MatrixOptions struct {
	// Order fixes the row order; symbols not in series are ignored.
	// Defaults to lexicographic order.
	Order []string
	// MinCoverage in [0,1]; assets observed on fewer than
	// MinCoverage*len(index) timestamps are dropped. Negative disables the check.
	MinCoverage float64
}

// BuildMatrix stacks return series on the union of their timestamps,
// zero-filling periods where an asset has no observation
func BuildMatrix(series map[string]*returns.ReturnSeries, opts MatrixOptions) (*ReturnsMatrix, error) {
	symbols := opts.Order
	if len(symbols) == 0 {
		for sym := range series {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)
	}

	candidates := make([]*returns.ReturnSeries, 0, len(symbols))
	for _, sym := range symbols {
		if s, ok := series[sym]; ok && s != nil && s.Len() > 0 {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no return series supplied", domain.ErrInsufficientAssets)
	}

	index := returns.Union(candidates...)

	kept := candidates[:0:0]
	var dropped []string
	for _, s := range candidates {
		if opts.MinCoverage > 0 && returns.Coverage(s, index) < opts.MinCoverage {
			dropped = append(dropped, s.Symbol)
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: every asset is below %.0f%% coverage", domain.ErrInsufficientAssets, opts.MinCoverage*100)
	}

	// Dropping assets can shrink the calendar
	if len(dropped) > 0 {
		index = returns.Union(kept...)
	}

	data := mat.NewDense(len(kept), len(index), nil)
	out := &ReturnsMatrix{
		Symbols:    make([]string, len(kept)),
		Timestamps: index,
		Data:       data,
		Dropped:    dropped,
	}
	for i, s := range kept {
		out.Symbols[i] = s.Symbol
		data.SetRow(i, returns.Reindex(s, index))
	}

	return out, nil
}

// NewReturnsMatrix builds a matrix from already aligned rows
func NewReturnsMatrix(symbols []string, timestamps []time.Time, rows [][]float64) (*ReturnsMatrix, error) {
	if len(symbols) == 0 || len(rows) != len(symbols) {
		return nil, fmt.Errorf("%w: %d symbols for %d rows", domain.ErrInsufficientAssets, len(symbols), len(rows))
	}
	periods := len(rows[0])
	if periods == 0 {
		return nil, fmt.Errorf("%w: rows have no periods", domain.ErrEmptySeries)
	}
	if timestamps != nil && len(timestamps) != periods {
		return nil, fmt.Errorf("%w: %d timestamps for %d periods", domain.ErrMisaligned, len(timestamps), periods)
	}

	data := mat.NewDense(len(rows), periods, nil)
	for i, row := range rows {
		if len(row) != periods {
			return nil, fmt.Errorf("%w: row %s has %d periods, expected %d", domain.ErrMisaligned, symbols[i], len(row), periods)
		}
		data.SetRow(i, row)
	}

	return &ReturnsMatrix{
		Symbols:    append([]string(nil), symbols...),
		Timestamps: timestamps,
		Data:       data,
	}, nil
}

// Assets returns the number of rows
func (m *ReturnsMatrix) Assets() int {
	r, _ := m.Data.Dims()
	return r
}

// Periods returns the number of columns
func (m *ReturnsMatrix) Periods() int {
	_, c := m.Data.Dims()
	return c
}

// Row returns a copy of the returns of asset i
func (m *ReturnsMatrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.Data)
}

// Means returns the periodic mean return of every asset
func (m *ReturnsMatrix) Means() []float64 {
	means := make([]float64, m.Assets())
	for i := range means {
		means[i] = floats.Sum(m.Data.RawRowView(i)) / float64(m.Periods())
	}
	return means
}

// PortfolioReturns computes p_t = sum_i w_i * r_{i,t}
func PortfolioReturns(m *ReturnsMatrix, weights []float64) []float64 {
	out := make([]float64, m.Periods())
	portfolioReturnsInto(out, m, weights)
	return out
}

func portfolioReturnsInto(dst []float64, m *ReturnsMatrix, weights []float64) {
	for t := range dst {
		dst[t] = 0
	}
	for i, w := range weights {
		if w == 0 {
			continue
		}
		floats.AddScaled(dst, w, m.Data.RawRowView(i))
	}
}
