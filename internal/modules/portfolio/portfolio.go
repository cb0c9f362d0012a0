package portfolio

import (
	"time"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/modules/optimization"
	"github.com/aristath/analytics/internal/modules/performance"
)

// Stage names reported through Progress
const (
	StageFetching   = "fetching"
	StageOptimizing = "optimizing"
	StageFrontier   = "frontier"
	StageDone       = "done"
)

// Progress is reported while a portfolio is built
type Progress struct {
	Stage     string `json:"stage"`
	Symbol    string `json:"symbol,omitempty"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Error     string `json:"error,omitempty"`
}

// ProgressFunc receives progress updates. Calls are serialized.
type ProgressFunc func(Progress)

// WeightRow compares the weight of one asset across allocations
type WeightRow struct {
	Symbol  string   `json:"symbol"`
	Optimal float64  `json:"optimal"`
	Equal   float64  `json:"equal"`
	Custom  *float64 `json:"custom,omitempty"`
}

// Portfolio is the result of one build
type Portfolio struct {
	ID        string                 `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	Symbols   []string               `json:"symbols"`
	Benchmark string                 `json:"benchmark"`
	Interval  domain.Interval        `json:"interval"`
	Start     time.Time              `json:"start"`
	End       time.Time              `json:"end"`
	Objective optimization.Objective `json:"objective"`

	// FailedSymbols maps symbols that could not be used to the reason
	FailedSymbols map[string]string `json:"failed_symbols"`
	// DroppedSymbols were fetched but had too little history overlap
	DroppedSymbols []string `json:"dropped_symbols"`

	Optimal      *optimization.Result    `json:"optimal"`
	EqualWeight  *performance.Statistics `json:"equal_weight"`
	CustomWeight *performance.Statistics `json:"custom_weight,omitempty"`
	Weights      map[string]float64      `json:"weights"`
	WeightTable  []WeightRow             `json:"weight_table"`

	Correlation      [][]float64                    `json:"correlation,omitempty"`
	HighCorrelations []optimization.CorrelationPair `json:"high_correlations"`
	Frontier         []optimization.FrontierPoint   `json:"frontier,omitempty"`

	Timestamps        []time.Time `json:"timestamps,omitempty"`
	Returns           []float64   `json:"returns,omitempty"`
	CumulativeReturns []float64   `json:"cumulative_returns,omitempty"`
}

// Compact returns a shallow copy without the per-period series
func (p *Portfolio) Compact() *Portfolio {
	out := *p
	out.Timestamps = nil
	out.Returns = nil
	out.CumulativeReturns = nil
	if p.Optimal != nil {
		optimal := *p.Optimal
		optimal.Statistics = optimal.Statistics.WithoutSeries()
		out.Optimal = &optimal
	}
	out.EqualWeight = p.EqualWeight.WithoutSeries()
	if p.CustomWeight != nil {
		out.CustomWeight = p.CustomWeight.WithoutSeries()
	}
	if len(p.Frontier) > 0 {
		out.Frontier = make([]optimization.FrontierPoint, len(p.Frontier))
		for i, pt := range p.Frontier {
			pt.Statistics = pt.Statistics.WithoutSeries()
			out.Frontier[i] = pt
		}
	}
	return &out
}
