package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// SlowOperationThreshold is the duration above which timed operations are
// logged at warn level
const SlowOperationThreshold = 10 * time.Second

// slowQueryThreshold is the same for database queries
const slowQueryThreshold = 2 * time.Second

// Timer measures the duration of one operation
type Timer struct {
	start time.Time
	name  string
	log   zerolog.Logger
}

// NewTimer starts a timer
func NewTimer(name string, log zerolog.Logger) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
		log:   log,
	}
}

// Stop logs and returns the elapsed time
func (t *Timer) Stop() time.Duration {
	return t.StopWithContext(nil)
}

// StopWithContext logs the elapsed time together with the given fields
func (t *Timer) StopWithContext(fields map[string]interface{}) time.Duration {
	duration := time.Since(t.start)

	event := t.log.Debug()
	if duration > SlowOperationThreshold {
		event = t.log.Warn()
	}
	event = event.
		Str("operation", t.name).
		Dur("duration_ms", duration)

	for key, value := range fields {
		switch v := value.(type) {
		case string:
			event = event.Str(key, v)
		case int:
			event = event.Int(key, v)
		case int64:
			event = event.Int64(key, v)
		case float64:
			event = event.Float64(key, v)
		case bool:
			event = event.Bool(key, v)
		default:
			event = event.Interface(key, v)
		}
	}

	if duration > SlowOperationThreshold {
		event.Msg("Slow operation detected")
	} else {
		event.Msg("Performance measurement")
	}
	return duration
}

// MeasureDBQuery returns a func to call when the query is done
//
// Usage:
//
//	done := utils.MeasureDBQuery("save_prices", log)
//	defer func() { done(rows) }()
func MeasureDBQuery(queryName string, log zerolog.Logger) func(rowsAffected int64) {
	start := time.Now()

	return func(rowsAffected int64) {
		duration := time.Since(start)

		event := log.Debug()
		if duration > slowQueryThreshold {
			event = log.Warn()
		}
		event.
			Str("query", queryName).
			Dur("duration_ms", duration).
			Int64("rows_affected", rowsAffected).
			Msg("Database query completed")
	}
}
