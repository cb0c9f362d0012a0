package returns

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aristath/analytics/internal/domain"
)

// AlignMode selects how two series with different calendars are joined
type AlignMode int

const (
	// Intersect keeps only timestamps present in both series
	Intersect AlignMode = iota
	// ZeroFill keeps the union of timestamps and fills gaps with a 0.0 return
	ZeroFill
)

// String returns the mode name
func (m AlignMode) String() string {
	switch m {
	case Intersect:
		return "intersect"
	case ZeroFill:
		return "zero_fill"
	default:
		return fmt.Sprintf("AlignMode(%d)", int(m))
	}
}

// ParseAlignMode parses "intersect" or "zero_fill"
func ParseAlignMode(s string) (AlignMode, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "intersect":
		return Intersect, nil
	case "zero_fill", "zerofill":
		return ZeroFill, nil
	}
	return 0, fmt.Errorf("%w: unknown alignment mode %q", domain.ErrInvalidParameter, s)
}

// MarshalText implements encoding.TextMarshaler
func (m AlignMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *AlignMode) UnmarshalText(text []byte) error {
	parsed, err := ParseAlignMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// AlignedPair holds a security and a benchmark series on one shared index
type AlignedPair struct {
	Timestamps []time.Time `json:"timestamps"`
	Security   []float64   `json:"security"`
	Benchmark  []float64   `json:"benchmark"`
}

// Len returns the shared length of the pair
func (p *AlignedPair) Len() int {
	return len(p.Timestamps)
}

// Align joins security a and benchmark b on a common index
func Align(a, b *ReturnSeries, mode AlignMode) (*AlignedPair, error) {
	var index []time.Time
	switch mode {
	case Intersect:
		index = intersection(a.Timestamps, b.Timestamps)
	case ZeroFill:
		index = Union(a, b)
	default:
		return nil, fmt.Errorf("%w: unknown alignment mode %d", domain.ErrInvalidParameter, int(mode))
	}

	if len(index) == 0 {
		return nil, fmt.Errorf("%w: %s and %s share no timestamps", domain.ErrEmptySeries, a.Symbol, b.Symbol)
	}

	return &AlignedPair{
		Timestamps: index,
		Security:   Reindex(a, index),
		Benchmark:  Reindex(b, index),
	}, nil
}

// Union returns the sorted union of the timestamps of all series
func Union(series ...*ReturnSeries) []time.Time {
	seen := make(map[int64]time.Time)
	for _, s := range series {
		for _, ts := range s.Timestamps {
			seen[ts.UnixNano()] = ts
		}
	}

	index := make([]time.Time, 0, len(seen))
	for _, ts := range seen {
		index = append(index, ts)
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })
	return index
}

// Reindex projects a series onto index. Timestamps missing from the series
// get a 0.0 return; series timestamps absent from index are dropped.
func Reindex(s *ReturnSeries, index []time.Time) []float64 {
	byTime := make(map[int64]float64, len(s.Timestamps))
	for i, ts := range s.Timestamps {
		byTime[ts.UnixNano()] = s.Returns[i]
	}

	out := make([]float64, len(index))
	for i, ts := range index {
		out[i] = byTime[ts.UnixNano()]
	}
	return out
}

// Coverage returns the fraction of index timestamps observed by the series
func Coverage(s *ReturnSeries, index []time.Time) float64 {
	if len(index) == 0 {
		return 0
	}
	present := make(map[int64]struct{}, len(s.Timestamps))
	for _, ts := range s.Timestamps {
		present[ts.UnixNano()] = struct{}{}
	}

	hits := 0
	for _, ts := range index {
		if _, ok := present[ts.UnixNano()]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(index))
}

func intersection(a, b []time.Time) []time.Time {
	inB := make(map[int64]struct{}, len(b))
	for _, ts := range b {
		inB[ts.UnixNano()] = struct{}{}
	}

	out := make([]time.Time, 0, len(a))
	for _, ts := range a {
		if _, ok := inB[ts.UnixNano()]; ok {
			out = append(out, ts)
		}
	}
	return out
}
