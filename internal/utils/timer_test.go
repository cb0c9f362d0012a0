package utils

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestTimer_StopWithContext(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	d := NewTimer("optimize_max_sharpe", log).StopWithContext(map[string]interface{}{
		"assets":    3,
		"converged": true,
	})

	assert.GreaterOrEqual(t, int64(d), int64(0))
	out := buf.String()
	assert.Contains(t, out, `"operation":"optimize_max_sharpe"`)
	assert.Contains(t, out, `"assets":3`)
	assert.Contains(t, out, `"converged":true`)
	assert.Contains(t, out, "Performance measurement")
}

func TestMeasureDBQuery(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	done := MeasureDBQuery("save_prices", log)
	done(42)

	assert.Contains(t, buf.String(), `"query":"save_prices"`)
	assert.Contains(t, buf.String(), `"rows_affected":42`)
}
