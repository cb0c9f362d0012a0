package domain

import (
	"context"
	"time"
)

// PricePoint is one adjusted-close observation
type PricePoint struct {
	Date          time.Time `json:"date" msgpack:"date"`
	AdjustedClose float64   `json:"adjusted_close" msgpack:"adjusted_close"`
}

// PriceProvider supplies price histories.
// Implementations guarantee ascending unique timestamps within [start, end]
// and strictly positive adjusted closes.
type PriceProvider interface {
	GetPriceHistory(ctx context.Context, symbol string, start, end time.Time, interval Interval) ([]PricePoint, error)
}

// PriceProviderFunc adapts a function to the PriceProvider interface
type PriceProviderFunc func(ctx context.Context, symbol string, start, end time.Time, interval Interval) ([]PricePoint, error)

// GetPriceHistory calls f
func (f PriceProviderFunc) GetPriceHistory(ctx context.Context, symbol string, start, end time.Time, interval Interval) ([]PricePoint, error) {
	return f(ctx, symbol, start, end, interval)
}
