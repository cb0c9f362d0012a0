// Package handlers provides HTTP handlers for single-security performance reports.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/modules/performance"
	"github.com/aristath/analytics/internal/modules/returns"
	"github.com/aristath/analytics/internal/utils"
)

// ReportService computes ticker performance reports
type ReportService interface {
	TickerPerformance(ctx context.Context, req performance.Request) (*performance.TickerPerformance, error)
}

// Defaults are the request values used when a query parameter is absent
type Defaults struct {
	Benchmark       string
	ConfidenceLevel float64
	RiskFreeRate    float64
	Lookback        time.Duration
}

// Handler handles performance HTTP requests
type Handler struct {
	service  ReportService
	defaults Defaults
	now      func() time.Time
	log      zerolog.Logger
}

// NewHandler creates a new performance handler
func NewHandler(service ReportService, defaults Defaults, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		defaults: defaults,
		now:      time.Now,
		log:      log.With().Str("handler", "performance").Logger(),
	}
}

// HandleGetPerformance handles GET /api/performance/{symbol}
func (h *Handler) HandleGetPerformance(w http.ResponseWriter, r *http.Request, symbol string) {
	req, err := h.parseRequest(r, symbol)
	if err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	report, err := h.service.TickerPerformance(r.Context(), req)
	if err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	if r.URL.Query().Get("series") != "true" {
		report.Statistics = report.Statistics.WithoutSeries()
		report.Prices = nil
		report.Timestamps = nil
	}

	utils.WriteResponse(w, r, http.StatusOK, utils.Envelope(map[string]interface{}{
		"symbol":       report.Symbol,
		"benchmark":    report.Benchmark,
		"interval":     report.Interval.String(),
		"start":        report.Start.Format(utils.DateLayout),
		"end":          report.End.Format(utils.DateLayout),
		"observations": report.Observations,
		"align":        req.Align.String(),
		"degenerate":   report.Statistics.IsDegenerate(),
		"statistics":   report.Statistics,
		"table":        report.Statistics.Table(),
		"timestamps":   report.Timestamps,
		"prices":       report.Prices,
	}), h.log)
}

func (h *Handler) parseRequest(r *http.Request, symbol string) (performance.Request, error) {
	q := r.URL.Query()
	now := h.now().UTC().Truncate(24 * time.Hour)

	req := performance.Request{
		Symbol:    strings.ToUpper(strings.TrimSpace(symbol)),
		Benchmark: h.defaults.Benchmark,
		Interval:  domain.Interval1d,
	}
	if b := strings.TrimSpace(q.Get("benchmark")); b != "" {
		req.Benchmark = strings.ToUpper(b)
	}

	var err error
	if req.End, err = utils.QueryDate(q, "end", now); err != nil {
		return req, err
	}
	if req.Start, err = utils.QueryDate(q, "start", req.End.Add(-h.defaults.Lookback)); err != nil {
		return req, err
	}
	if iv := q.Get("interval"); iv != "" {
		if req.Interval, err = domain.ParseInterval(iv); err != nil {
			return req, err
		}
	}
	if req.ConfidenceLevel, err = utils.QueryFloat(q, "confidence", h.defaults.ConfidenceLevel); err != nil {
		return req, err
	}
	if req.RiskFreeRate, err = utils.QueryFloat(q, "risk_free_rate", h.defaults.RiskFreeRate); err != nil {
		return req, err
	}
	if a := q.Get("align"); a != "" {
		if req.Align, err = returns.ParseAlignMode(a); err != nil {
			return req, err
		}
	}

	return req, req.Validate()
}
