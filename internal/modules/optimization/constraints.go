// Package optimization searches for portfolio weights that optimize a
// performance statistic under bound and category constraints.
package optimization

import (
	"fmt"
	"math"

	"github.com/aristath/analytics/internal/domain"
)

const (
	// sumTolerance is the allowed deviation of the weight sum from 1
	sumTolerance = 1e-6
	// boundTolerance is the allowed bound violation after projection
	boundTolerance = 1e-9
	// categoryTolerance is the allowed category violation after the penalty search
	categoryTolerance = 1e-3
	// categoryPenaltyWeight scales the squared category violation
	categoryPenaltyWeight = 1e4
)

// Bound is the inclusive weight range of one asset
type Bound struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// DefaultBounds returns [0,1] for every asset (long only, fully invested)
func DefaultBounds(n int) []Bound {
	bounds := make([]Bound, n)
	for i := range bounds {
		bounds[i] = Bound{Lower: 0, Upper: 1}
	}
	return bounds
}

// CategoryConstraint caps the combined weight of a group of assets
type CategoryConstraint struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
	Lower   float64  `json:"lower"`
	Upper   float64  `json:"upper"`
}

// category is a CategoryConstraint resolved against a matrix
type category struct {
	name   string
	assets []int
	lower  float64
	upper  float64
}

// ValidateBounds checks that every bound is well formed and that a fully
// invested portfolio exists within them. Negative lower bounds (short
// positions) and upper bounds above 1 (leverage) are allowed.
func ValidateBounds(bounds []Bound) error {
	var lower, upper float64
	for i, b := range bounds {
		if !finite(b.Lower) || !finite(b.Upper) {
			return fmt.Errorf("%w: bound %d [%v, %v] is not finite", domain.ErrInvalidParameter, i, b.Lower, b.Upper)
		}
		if b.Lower > b.Upper {
			return fmt.Errorf("%w: bound %d has lower %v above upper %v", domain.ErrInfeasibleConstraints, i, b.Lower, b.Upper)
		}
		lower += b.Lower
		upper += b.Upper
	}
	if lower > 1+sumTolerance {
		return fmt.Errorf("%w: lower bounds sum to %.6f > 1", domain.ErrInfeasibleConstraints, lower)
	}
	if upper < 1-sumTolerance {
		return fmt.Errorf("%w: upper bounds sum to %.6f < 1", domain.ErrInfeasibleConstraints, upper)
	}
	return nil
}

// resolveCategories maps category members to matrix rows. Members that are
// not in the matrix are ignored; categories left empty are skipped.
func resolveCategories(symbols []string, bounds []Bound, constraints []CategoryConstraint) ([]category, error) {
	index := make(map[string]int, len(symbols))
	for i, s := range symbols {
		index[s] = i
	}

	resolved := make([]category, 0, len(constraints))
	for _, c := range constraints {
		if !finite(c.Lower) || !finite(c.Upper) || c.Lower > c.Upper {
			return nil, fmt.Errorf("%w: category %q range [%v, %v]", domain.ErrInvalidParameter, c.Name, c.Lower, c.Upper)
		}

		cat := category{name: c.Name, lower: c.Lower, upper: c.Upper}
		var minWeight, maxWeight float64
		for _, member := range c.Members {
			i, ok := index[member]
			if !ok {
				continue
			}
			cat.assets = append(cat.assets, i)
			minWeight += bounds[i].Lower
			maxWeight += bounds[i].Upper
		}
		if len(cat.assets) == 0 {
			continue
		}
		if minWeight > c.Upper+categoryTolerance || maxWeight < c.Lower-categoryTolerance {
			return nil, fmt.Errorf("%w: category %q range [%v, %v] unreachable within asset bounds [%v, %v]",
				domain.ErrInfeasibleConstraints, c.Name, c.Lower, c.Upper, minWeight, maxWeight)
		}
		resolved = append(resolved, cat)
	}
	return resolved, nil
}

// categoryPenalty is the weighted squared violation of every category
func categoryPenalty(w []float64, categories []category) float64 {
	var penalty float64
	for _, c := range categories {
		v := c.violation(w)
		penalty += categoryPenaltyWeight * v * v
	}
	return penalty
}

func (c category) weight(w []float64) float64 {
	var total float64
	for _, i := range c.assets {
		total += w[i]
	}
	return total
}

func (c category) violation(w []float64) float64 {
	total := c.weight(w)
	switch {
	case total < c.lower:
		return c.lower - total
	case total > c.upper:
		return total - c.upper
	}
	return 0
}

// projector maps unconstrained search points onto the feasible set
// {sum w = 1, lower <= w <= upper}
type projector struct {
	lower    []float64
	upper    []float64
	longOnly bool
}

func newProjector(bounds []Bound) *projector {
	p := &projector{
		lower:    make([]float64, len(bounds)),
		upper:    make([]float64, len(bounds)),
		longOnly: true,
	}
	for i, b := range bounds {
		p.lower[i] = b.Lower
		p.upper[i] = b.Upper
		if b.Lower < 0 {
			p.longOnly = false
		}
	}
	return p
}

// project writes the feasible point nearest in spirit to x into dst:
// clip, normalize (long only), clip again, then spread the remaining gap
// over the available headroom. repair alone is exact for any box with
// sum lower <= 1 <= sum upper.
func (p *projector) project(dst, x []float64) {
	var sum float64
	for i, v := range x {
		if math.IsNaN(v) {
			v = p.lower[i]
		}
		dst[i] = clamp(v, p.lower[i], p.upper[i])
		sum += dst[i]
	}

	if p.longOnly && sum > 0 && sum != 1 {
		for i := range dst {
			dst[i] = clamp(dst[i]/sum, p.lower[i], p.upper[i])
		}
	}

	p.repair(dst)
}

func (p *projector) repair(w []float64) {
	var sum float64
	for _, v := range w {
		sum += v
	}
	gap := 1 - sum
	if gap == 0 {
		return
	}

	var room float64
	for i, v := range w {
		if gap > 0 {
			room += p.upper[i] - v
		} else {
			room += v - p.lower[i]
		}
	}
	if room <= 0 {
		return
	}

	for i, v := range w {
		var share float64
		if gap > 0 {
			share = (p.upper[i] - v) / room
		} else {
			share = (v - p.lower[i]) / room
		}
		w[i] = clamp(v+gap*share, p.lower[i], p.upper[i])
	}
}

// fixed reports whether the bounds pin every weight
func (p *projector) fixed() bool {
	for i := range p.lower {
		if p.upper[i]-p.lower[i] > boundTolerance {
			return false
		}
	}
	return true
}

// checkFeasible verifies the final weights against every constraint
func checkFeasible(w []float64, bounds []Bound, categories []category) error {
	var sum float64
	for i, v := range w {
		if v < bounds[i].Lower-boundTolerance || v > bounds[i].Upper+boundTolerance {
			return fmt.Errorf("weight %d = %v outside [%v, %v]", i, v, bounds[i].Lower, bounds[i].Upper)
		}
		sum += v
	}
	if math.Abs(sum-1) > sumTolerance {
		return fmt.Errorf("weights sum to %v", sum)
	}
	for _, c := range categories {
		if v := c.violation(w); v > categoryTolerance {
			return fmt.Errorf("category %q weight %.4f outside [%v, %v]", c.name, c.weight(w), c.lower, c.upper)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
