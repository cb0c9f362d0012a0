package formulas

// DrawdownSeries returns the drawdown after each period of a compounded
// return path. The curve starts at 1.0 before the first return, so a loss in
// the first period counts as a drawdown. Every value is <= 0.
func DrawdownSeries(returns []float64) []float64 {
	drawdowns := make([]float64, len(returns))
	value := 1.0
	peak := 1.0
	for i, r := range returns {
		value *= 1 + r
		if value > peak {
			peak = value
		}
		drawdowns[i] = value/peak - 1
	}
	return drawdowns
}

// DeepestDrawdown returns the maximum drawdown of a drawdown series as a
// non-positive decimal (-0.25 = 25% below the peak)
func DeepestDrawdown(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		if v < m {
			m = v
		}
	}
	return m
}
