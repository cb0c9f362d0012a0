package formulas

import (
	"math"
	"sort"
)

// TailRisk returns the historical VaR and expected shortfall of returns.
// VaR is the (1-confidence) quantile by historical simulation: the sorted
// return at index floor((1-confidence)*(n-1)). Expected shortfall is the mean
// of all returns at or below it. Losses are negative.
func TailRisk(returns []float64, confidence float64) (valueAtRisk, shortfall float64) {
	if len(returns) == 0 {
		return 0, 0
	}
	sorted := sortedCopy(returns)
	idx := varIndex(len(sorted), confidence)
	valueAtRisk = sorted[idx]

	sum := 0.0
	count := 0
	for _, r := range sorted {
		if r > valueAtRisk {
			break
		}
		sum += r
		count++
	}
	return valueAtRisk, sum / float64(count)
}

func varIndex(n int, confidence float64) int {
	idx := int(math.Floor((1 - confidence) * float64(n-1)))
	if idx < 0 {
		return 0
	}
	if idx > n-1 {
		return n - 1
	}
	return idx
}

func sortedCopy(data []float64) []float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return sorted
}
