// Package historical caches price histories in SQLite in front of a remote
// price provider.
package historical

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/analytics/internal/database"
	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/utils"
)

// Coverage is the date range known to be complete for one symbol and interval
type Coverage struct {
	Symbol    string    `json:"symbol"`
	Interval  string    `json:"interval"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	FetchedAt time.Time `json:"fetched_at"`
	Prices    int       `json:"prices"`
}

// HistoryDB stores adjusted closes and their coverage
type HistoryDB struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryDB creates a history repository over a migrated history database
func NewHistoryDB(db *sql.DB, log zerolog.Logger) *HistoryDB {
	return &HistoryDB{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// GetPrices returns the cached prices in [start, end], ascending
func (h *HistoryDB) GetPrices(ctx context.Context, symbol string, interval domain.Interval, start, end time.Time) ([]domain.PricePoint, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT ts, adjusted_close
		FROM price_history
		WHERE symbol = ? AND bar_interval = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC
	`, symbol, interval.String(), start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query prices for %s: %w", symbol, err)
	}
	defer rows.Close()

	var prices []domain.PricePoint
	for rows.Next() {
		var ts int64
		var p domain.PricePoint
		if err := rows.Scan(&ts, &p.AdjustedClose); err != nil {
			return nil, fmt.Errorf("failed to scan price for %s: %w", symbol, err)
		}
		p.Date = time.Unix(ts, 0).UTC()
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// SavePrices upserts prices and records [from, to] as covered. Coverage that
// overlaps the existing range is merged; a disjoint range replaces it.
func (h *HistoryDB) SavePrices(ctx context.Context, symbol string, interval domain.Interval, prices []domain.PricePoint, from, to, fetchedAt time.Time) error {
	existing, err := h.GetCoverage(ctx, symbol, interval)
	if err != nil {
		return err
	}
	if existing != nil && !from.After(existing.To) && !to.Before(existing.From) {
		if existing.From.Before(from) {
			from = existing.From
		}
		if existing.To.After(to) {
			to = existing.To
		}
	}

	done := utils.MeasureDBQuery("save_prices", h.log)
	defer func() { done(int64(len(prices))) }()

	return database.WithTransaction(h.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO price_history (symbol, bar_interval, ts, adjusted_close)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, p := range prices {
			if _, err := stmt.ExecContext(ctx, symbol, interval.String(), p.Date.Unix(), p.AdjustedClose); err != nil {
				return fmt.Errorf("failed to insert price for %s at %s: %w", symbol, p.Date.Format(time.RFC3339), err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO history_coverage (symbol, bar_interval, covered_from, covered_to, fetched_at)
			VALUES (?, ?, ?, ?, ?)
		`, symbol, interval.String(), from.Unix(), to.Unix(), fetchedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to record coverage for %s: %w", symbol, err)
		}
		return nil
	})
}

// GetCoverage returns the recorded coverage, or nil when the symbol was never fetched
func (h *HistoryDB) GetCoverage(ctx context.Context, symbol string, interval domain.Interval) (*Coverage, error) {
	var from, to, fetched int64
	err := h.db.QueryRowContext(ctx, `
		SELECT covered_from, covered_to, fetched_at
		FROM history_coverage
		WHERE symbol = ? AND bar_interval = ?
	`, symbol, interval.String()).Scan(&from, &to, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get coverage for %s: %w", symbol, err)
	}

	return &Coverage{
		Symbol:    symbol,
		Interval:  interval.String(),
		From:      time.Unix(from, 0).UTC(),
		To:        time.Unix(to, 0).UTC(),
		FetchedAt: time.Unix(fetched, 0).UTC(),
	}, nil
}

// ListCoverage returns every cached (symbol, interval) with its price count
func (h *HistoryDB) ListCoverage(ctx context.Context) ([]Coverage, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT c.symbol, c.bar_interval, c.covered_from, c.covered_to, c.fetched_at,
			(SELECT COUNT(*) FROM price_history p WHERE p.symbol = c.symbol AND p.bar_interval = c.bar_interval)
		FROM history_coverage c
		ORDER BY c.symbol, c.bar_interval
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list coverage: %w", err)
	}
	defer rows.Close()

	coverage := make([]Coverage, 0)
	for rows.Next() {
		var c Coverage
		var from, to, fetched int64
		if err := rows.Scan(&c.Symbol, &c.Interval, &from, &to, &fetched, &c.Prices); err != nil {
			return nil, fmt.Errorf("failed to scan coverage: %w", err)
		}
		c.From = time.Unix(from, 0).UTC()
		c.To = time.Unix(to, 0).UTC()
		c.FetchedAt = time.Unix(fetched, 0).UTC()
		coverage = append(coverage, c)
	}
	return coverage, rows.Err()
}

// DeleteSymbol drops every cached price of symbol, returning the rows removed
func (h *HistoryDB) DeleteSymbol(ctx context.Context, symbol string) (int64, error) {
	var removed int64
	err := database.WithTransaction(h.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM price_history WHERE symbol = ?`, symbol)
		if err != nil {
			return err
		}
		removed, _ = res.RowsAffected()
		_, err = tx.ExecContext(ctx, `DELETE FROM history_coverage WHERE symbol = ?`, symbol)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete history for %s: %w", symbol, err)
	}

	h.log.Info().Str("symbol", symbol).Int64("rows", removed).Msg("Deleted cached history")
	return removed, nil
}
