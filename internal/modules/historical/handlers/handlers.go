// Package handlers provides HTTP handlers for the price history cache.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/modules/historical"
	"github.com/aristath/analytics/internal/utils"
)

// HistoryService is the subset of historical.Service used by the handlers
type HistoryService interface {
	History(ctx context.Context, symbol string, start, end time.Time, interval domain.Interval) ([]domain.PricePoint, error)
	Coverage(ctx context.Context) ([]historical.Coverage, error)
	Delete(ctx context.Context, symbol string) (int64, error)
	RefreshSymbols(ctx context.Context, symbols []string, interval domain.Interval, lookback time.Duration) (*historical.RefreshReport, error)
}

// RefreshRequest is the body of POST /api/history/refresh
type RefreshRequest struct {
	Symbols      []string `json:"symbols"`
	Interval     string   `json:"interval"`
	LookbackDays int      `json:"lookback_days"`
}

// Handler handles history cache HTTP requests
type Handler struct {
	service  HistoryService
	lookback time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewHandler creates a new history handler. lookback is the default window
// for price queries and refreshes.
func NewHandler(service HistoryService, lookback time.Duration, log zerolog.Logger) *Handler {
	if lookback <= 0 {
		lookback = historical.DefaultLookback
	}
	return &Handler{
		service:  service,
		lookback: lookback,
		now:      time.Now,
		log:      log.With().Str("handler", "historical").Logger(),
	}
}

// HandleListCoverage handles GET /api/history
func (h *Handler) HandleListCoverage(w http.ResponseWriter, r *http.Request) {
	coverage, err := h.service.Coverage(r.Context())
	if err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	utils.WriteResponse(w, r, http.StatusOK, utils.Envelope(map[string]interface{}{
		"coverage": coverage,
		"count":    len(coverage),
	}), h.log)
}

// HandleGetPrices handles GET /api/history/{symbol}
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request, symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	q := r.URL.Query()

	end, err := utils.QueryDate(q, "end", h.now().UTC())
	if err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}
	start, err := utils.QueryDate(q, "start", end.Add(-h.lookback).Truncate(24*time.Hour))
	if err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}
	if end.Before(start) {
		utils.WriteError(w, r, fmt.Errorf("%w: end %s is before start %s", domain.ErrInvalidParameter,
			end.Format(utils.DateLayout), start.Format(utils.DateLayout)), h.log)
		return
	}
	interval, err := queryInterval(q.Get("interval"))
	if err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	prices, err := h.service.History(r.Context(), symbol, start, end, interval)
	if err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	utils.WriteResponse(w, r, http.StatusOK, utils.Envelope(map[string]interface{}{
		"symbol":   symbol,
		"interval": interval.String(),
		"prices":   prices,
		"count":    len(prices),
	}), h.log)
}

// HandleDeleteSymbol handles DELETE /api/history/{symbol}
func (h *Handler) HandleDeleteSymbol(w http.ResponseWriter, r *http.Request, symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	removed, err := h.service.Delete(r.Context(), symbol)
	if err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	utils.WriteResponse(w, r, http.StatusOK, utils.Envelope(map[string]interface{}{
		"symbol":  symbol,
		"removed": removed,
	}), h.log)
}

// HandleRefresh handles POST /api/history/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	symbols := utils.SplitSymbols(strings.Join(req.Symbols, ","))
	if len(symbols) == 0 {
		utils.WriteError(w, r, fmt.Errorf("%w: no symbols to refresh", domain.ErrInvalidParameter), h.log)
		return
	}
	if req.LookbackDays < 0 {
		utils.WriteError(w, r, fmt.Errorf("%w: lookback_days must be positive", domain.ErrInvalidParameter), h.log)
		return
	}
	interval, err := queryInterval(req.Interval)
	if err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	lookback := h.lookback
	if req.LookbackDays > 0 {
		lookback = time.Duration(req.LookbackDays) * 24 * time.Hour
	}

	report, err := h.service.RefreshSymbols(r.Context(), symbols, interval, lookback)
	if err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	utils.WriteResponse(w, r, http.StatusOK, utils.Envelope(report), h.log)
}

func queryInterval(raw string) (domain.Interval, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.Interval1d, nil
	}
	return domain.ParseInterval(raw)
}
