// Package handlers exposes the optimizer over HTTP for callers that already
// hold aligned return series.
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/modules/optimization"
	"github.com/aristath/analytics/internal/modules/performance"
	"github.com/aristath/analytics/internal/utils"
)

// Engine runs optimizations over an in-memory returns matrix
type Engine interface {
	Optimize(ctx context.Context, m *optimization.ReturnsMatrix, benchmark []float64, p performance.Params, obj optimization.Objective, opts optimization.Options) (*optimization.Result, error)
	Frontier(ctx context.Context, m *optimization.ReturnsMatrix, benchmark []float64, p performance.Params, nPoints int, opts optimization.Options) ([]optimization.FrontierPoint, error)
}

// Request is the body of both optimizer endpoints. Returns holds one row per
// symbol; every row and the benchmark must have the same length.
type Request struct {
	Symbols         []string                          `json:"symbols"`
	Returns         [][]float64                       `json:"returns"`
	Benchmark       []float64                         `json:"benchmark"`
	Objective       string                            `json:"objective,omitempty"`
	Interval        string                            `json:"interval,omitempty"`
	ConfidenceLevel *float64                          `json:"confidence_level,omitempty"`
	RiskFreeRate    *float64                          `json:"risk_free_rate,omitempty"`
	Bounds          []optimization.Bound              `json:"bounds,omitempty"`
	Categories      []optimization.CategoryConstraint `json:"categories,omitempty"`
	WarmStart       []float64                         `json:"warm_start,omitempty"`
	MaxIterations   int                               `json:"max_iterations,omitempty"`
	Points          int                               `json:"points,omitempty"`
}

// Defaults fill absent request fields
type Defaults struct {
	ConfidenceLevel float64
	RiskFreeRate    float64
	FrontierPoints  int
}

// Handler handles optimizer HTTP requests
type Handler struct {
	engine   Engine
	defaults Defaults
	log      zerolog.Logger
}

// NewHandler creates a new optimizer handler
func NewHandler(engine Engine, defaults Defaults, log zerolog.Logger) *Handler {
	return &Handler{
		engine:   engine,
		defaults: defaults,
		log:      log.With().Str("handler", "optimizer").Logger(),
	}
}

// HandleRun handles POST /api/optimizer/run
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	m, params, opts, err := h.prepare(req)
	if err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	objective := optimization.MaxSharpe
	if req.Objective != "" {
		if objective, err = optimization.ParseObjective(req.Objective); err != nil {
			utils.WriteError(w, r, err, h.log)
			return
		}
	}

	result, err := h.engine.Optimize(r.Context(), m, req.Benchmark, params, objective, opts)
	if err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	weights := make(map[string]float64, len(result.Symbols))
	for i, sym := range result.Symbols {
		weights[sym] = result.Weights[i]
	}

	utils.WriteResponse(w, r, http.StatusOK, utils.Envelope(map[string]interface{}{
		"objective":   result.Objective.String(),
		"value":       result.Value,
		"weights":     weights,
		"converged":   result.Converged,
		"status":      result.Status,
		"iterations":  result.Iterations,
		"evaluations": result.Evaluations,
		"statistics":  result.Statistics.WithoutSeries(),
		"table":       result.Statistics.Table(),
	}), h.log)
}

// HandleFrontier handles POST /api/optimizer/frontier
func (h *Handler) HandleFrontier(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	m, params, opts, err := h.prepare(req)
	if err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	points := req.Points
	if points == 0 {
		points = h.defaults.FrontierPoints
	}

	frontier, err := h.engine.Frontier(r.Context(), m, req.Benchmark, params, points, opts)
	if err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	for i := range frontier {
		frontier[i].Statistics = frontier[i].Statistics.WithoutSeries()
	}

	utils.WriteResponse(w, r, http.StatusOK, utils.Envelope(map[string]interface{}{
		"symbols":   m.Symbols,
		"requested": points,
		"points":    frontier,
	}), h.log)
}

func (h *Handler) prepare(req Request) (*optimization.ReturnsMatrix, performance.Params, optimization.Options, error) {
	params := performance.Params{
		ConfidenceLevel: h.defaults.ConfidenceLevel,
		RiskFreeRate:    h.defaults.RiskFreeRate,
		PeriodsPerYear:  domain.TradingDaysPerYear,
	}
	if req.ConfidenceLevel != nil {
		params.ConfidenceLevel = *req.ConfidenceLevel
	}
	if req.RiskFreeRate != nil {
		params.RiskFreeRate = *req.RiskFreeRate
	}
	if req.Interval != "" {
		interval, err := domain.ParseInterval(req.Interval)
		if err != nil {
			return nil, params, optimization.Options{}, err
		}
		params.PeriodsPerYear = interval.PeriodsPerYear()
	}
	if err := params.Validate(); err != nil {
		return nil, params, optimization.Options{}, err
	}

	if len(req.Symbols) == 0 {
		return nil, params, optimization.Options{}, fmt.Errorf("%w: symbols are required", domain.ErrInsufficientAssets)
	}
	m, err := optimization.NewReturnsMatrix(req.Symbols, nil, req.Returns)
	if err != nil {
		return nil, params, optimization.Options{}, err
	}

	opts := optimization.Options{
		Bounds:        req.Bounds,
		Categories:    req.Categories,
		WarmStart:     req.WarmStart,
		MaxIterations: req.MaxIterations,
	}
	return m, params, opts, nil
}
