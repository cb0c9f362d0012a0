package optimization

import (
	"fmt"
	"strings"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/modules/performance"
)

// Objective selects the statistic the optimizer improves
type Objective int

const (
	MaxSharpe Objective = iota
	MinVol
	MaxReturn
	MinVaR
	MinCVaR
	MinDrawdown
)

var objectiveNames = map[Objective]string{
	MaxSharpe:   "max_sharpe",
	MinVol:      "min_vol",
	MaxReturn:   "max_return",
	MinVaR:      "min_var",
	MinCVaR:     "min_cvar",
	MinDrawdown: "min_drawdown",
}

// Objectives lists every objective in declaration order
func Objectives() []Objective {
	return []Objective{MaxSharpe, MinVol, MaxReturn, MinVaR, MinCVaR, MinDrawdown}
}

func (o Objective) String() string {
	if name, ok := objectiveNames[o]; ok {
		return name
	}
	return fmt.Sprintf("objective(%d)", int(o))
}

// ParseObjective accepts the snake_case names plus a few common aliases
func ParseObjective(s string) (Objective, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	switch key {
	case "sharpe", "max_sharpe_ratio":
		return MaxSharpe, nil
	case "min_volatility", "volatility", "min_variance":
		return MinVol, nil
	case "return":
		return MaxReturn, nil
	case "var":
		return MinVaR, nil
	case "cvar", "expected_shortfall", "min_expected_shortfall":
		return MinCVaR, nil
	case "drawdown", "min_max_drawdown":
		return MinDrawdown, nil
	}
	for o, name := range objectiveNames {
		if name == key {
			return o, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown objective %q", domain.ErrInvalidParameter, s)
}

// Value maps statistics onto the scalar being minimized. VaR, expected
// shortfall and drawdown are signed (losses negative), so minimizing the
// loss means maximizing the signed value.
func (o Objective) Value(s *performance.Statistics) float64 {
	switch o {
	case MaxSharpe:
		return -s.SharpeRatio
	case MinVol:
		return s.AnnualizedVolatility
	case MaxReturn:
		return -s.AnnualizedReturn
	case MinVaR:
		return -s.ValueAtRisk
	case MinCVaR:
		return -s.ExpectedShortfall
	case MinDrawdown:
		return -s.MaximumDrawdown
	}
	return 0
}

// Score is the statistic in its natural sign, as a caller reports it
func (o Objective) Score(s *performance.Statistics) float64 {
	switch o {
	case MaxSharpe:
		return s.SharpeRatio
	case MinVol:
		return s.AnnualizedVolatility
	case MaxReturn:
		return s.AnnualizedReturn
	case MinVaR:
		return s.ValueAtRisk
	case MinCVaR:
		return s.ExpectedShortfall
	case MinDrawdown:
		return s.MaximumDrawdown
	}
	return 0
}

func (o Objective) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Objective) UnmarshalText(text []byte) error {
	parsed, err := ParseObjective(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
