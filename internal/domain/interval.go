package domain

import (
	"fmt"
	"strings"
	"time"
)

// TradingDaysPerYear is the annualization base for daily and coarser bars
const TradingDaysPerYear = 252.0

// tradingHoursPerDay is used to annualize intraday bars
const tradingHoursPerDay = 6.5

// Interval is the bar size of a price history
type Interval int

const (
	Interval2m Interval = iota
	Interval5m
	Interval15m
	Interval30m
	Interval60m
	Interval90m
	Interval1h
	Interval1d
	Interval5d
	Interval1wk
	Interval1mo
	Interval3mo
)

var intervalNames = map[Interval]string{
	Interval2m:  "2m",
	Interval5m:  "5m",
	Interval15m: "15m",
	Interval30m: "30m",
	Interval60m: "60m",
	Interval90m: "90m",
	Interval1h:  "1h",
	Interval1d:  "1d",
	Interval5d:  "5d",
	Interval1wk: "1wk",
	Interval1mo: "1mo",
	Interval3mo: "3mo",
}

// ParseInterval converts a Yahoo-style interval string ("1d", "1wk", ...) to an Interval
func ParseInterval(s string) (Interval, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for iv, name := range intervalNames {
		if name == key {
			return iv, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown interval %q", ErrInvalidParameter, s)
}

// String returns the provider representation of the interval
func (i Interval) String() string {
	if name, ok := intervalNames[i]; ok {
		return name
	}
	return fmt.Sprintf("Interval(%d)", int(i))
}

// IsIntraday reports whether bars are shorter than one trading day
func (i Interval) IsIntraday() bool {
	return i < Interval1d
}

// minutes returns the bar length of intraday intervals
func (i Interval) minutes() float64 {
	switch i {
	case Interval2m:
		return 2
	case Interval5m:
		return 5
	case Interval15m:
		return 15
	case Interval30m:
		return 30
	case Interval60m, Interval1h:
		return 60
	case Interval90m:
		return 90
	}
	return 0
}

// BarStart truncates t to the UTC bucket of the interval: the calendar day
// for daily and coarser bars, the hour for hourly bars and the minute below
// that. Bars of one interval from different exchanges then share timestamps.
func (i Interval) BarStart(t time.Time) time.Time {
	t = t.UTC()
	switch {
	case !i.IsIntraday():
		return t.Truncate(24 * time.Hour)
	case i.minutes() >= 60:
		return t.Truncate(time.Hour)
	}
	return t.Truncate(time.Minute)
}

// PeriodsPerYear returns the number of bars in one year, used to annualize
// returns and volatility.
func (i Interval) PeriodsPerYear() float64 {
	switch i {
	case Interval1d:
		return TradingDaysPerYear
	case Interval5d:
		return TradingDaysPerYear / 5
	case Interval1wk:
		return 52
	case Interval1mo:
		return 12
	case Interval3mo:
		return 4
	}
	if m := i.minutes(); m > 0 {
		return TradingDaysPerYear * tradingHoursPerDay * 60 / m
	}
	return TradingDaysPerYear
}

// MarshalText implements encoding.TextMarshaler
func (i Interval) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (i *Interval) UnmarshalText(text []byte) error {
	parsed, err := ParseInterval(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
