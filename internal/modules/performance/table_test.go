package performance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatistics_Table(t *testing.T) {
	stats, err := Compute(scenarioSecurity, scenarioBenchmark, scenarioParams)
	require.NoError(t, err)

	rows := stats.Table()
	require.Len(t, rows, len(metrics))

	byLabel := make(map[string]string, len(rows))
	for _, r := range rows {
		byLabel[r.Metric] = r.Value
	}

	assert.Equal(t, "2.95%", byLabel["Cumulative Return"])
	assert.Equal(t, "-2.00%", byLabel["Maximum Drawdown"])
	assert.Equal(t, "2.0000", byLabel["Beta"])
	assert.Equal(t, "95.00%", byLabel["Confidence Level"])
	assert.Equal(t, "Daily Return", rows[0].Metric)
}

func TestStatistics_Fields(t *testing.T) {
	stats, err := Compute(scenarioSecurity, scenarioBenchmark, scenarioParams)
	require.NoError(t, err)

	fields := stats.Fields()
	assert.Len(t, fields, len(metrics))
	assert.Equal(t, stats.SharpeRatio, fields["sharpe_ratio"])
	assert.Equal(t, stats.MaximumDrawdown, fields["maximum_drawdown"])
	assert.Equal(t, stats.ExpectedShortfall, fields["expected_shortfall"])
}
