package performance

import "fmt"

// Row is one metric of the flat key-value table rendered by CLIs and web pages
type Row struct {
	Metric string `json:"metric"`
	Value  string `json:"value"`
}

type metricFormat int

const (
	percent metricFormat = iota
	ratio
)

type metric struct {
	key    string
	label  string
	format metricFormat
	value  func(*Statistics) float64
}

// metrics lists the scalar statistics in presentation order
var metrics = []metric{
	{"daily_return", "Daily Return", percent, func(s *Statistics) float64 { return s.DailyReturn }},
	{"daily_volatility", "Daily Volatility", percent, func(s *Statistics) float64 { return s.DailyVolatility }},
	{"cumulative_return", "Cumulative Return", percent, func(s *Statistics) float64 { return s.CumulativeReturn }},
	{"annualized_return", "Annualized Return", percent, func(s *Statistics) float64 { return s.AnnualizedReturn }},
	{"annualized_volatility", "Annualized Volatility", percent, func(s *Statistics) float64 { return s.AnnualizedVolatility }},
	{"alpha", "Alpha", percent, func(s *Statistics) float64 { return s.Alpha }},
	{"beta", "Beta", ratio, func(s *Statistics) float64 { return s.Beta }},
	{"sharpe_ratio", "Sharpe Ratio", ratio, func(s *Statistics) float64 { return s.SharpeRatio }},
	{"sortino_ratio", "Sortino Ratio", ratio, func(s *Statistics) float64 { return s.SortinoRatio }},
	{"active_return", "Active Return", percent, func(s *Statistics) float64 { return s.ActiveReturn }},
	{"active_risk", "Active Risk", percent, func(s *Statistics) float64 { return s.ActiveRisk }},
	{"information_ratio", "Information Ratio", ratio, func(s *Statistics) float64 { return s.InformationRatio }},
	{"calmar_ratio", "Calmar Ratio", ratio, func(s *Statistics) float64 { return s.CalmarRatio }},
	{"maximum_drawdown", "Maximum Drawdown", percent, func(s *Statistics) float64 { return s.MaximumDrawdown }},
	{"value_at_risk", "Value at Risk", percent, func(s *Statistics) float64 { return s.ValueAtRisk }},
	{"expected_shortfall", "Expected Shortfall", percent, func(s *Statistics) float64 { return s.ExpectedShortfall }},
	{"confidence_level", "Confidence Level", percent, func(s *Statistics) float64 { return s.ConfidenceLevel }},
	{"risk_free_rate", "Risk Free Rate", percent, func(s *Statistics) float64 { return s.RiskFreeRate }},
}

// Table renders the scalar statistics as rows. Percent metrics are scaled by
// 100 here and nowhere else.
func (s *Statistics) Table() []Row {
	rows := make([]Row, 0, len(metrics))
	for _, m := range metrics {
		v := m.value(s)
		var text string
		switch m.format {
		case percent:
			text = fmt.Sprintf("%.2f%%", v*100)
		default:
			text = fmt.Sprintf("%.4f", v)
		}
		rows = append(rows, Row{Metric: m.label, Value: text})
	}
	return rows
}

// Fields returns the scalar statistics keyed by snake_case name, in decimal
func (s *Statistics) Fields() map[string]float64 {
	fields := make(map[string]float64, len(metrics))
	for _, m := range metrics {
		fields[m.key] = m.value(s)
	}
	return fields
}

// WithoutSeries returns a copy of the statistics without the per-period series
func (s *Statistics) WithoutSeries() *Statistics {
	if s == nil {
		return nil
	}
	trimmed := *s
	trimmed.Returns = nil
	trimmed.BenchmarkReturns = nil
	trimmed.CumulativeReturns = nil
	trimmed.Drawdowns = nil
	return &trimmed
}
