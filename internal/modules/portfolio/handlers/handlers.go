// Package handlers provides HTTP and websocket handlers for portfolio builds.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/modules/optimization"
	"github.com/aristath/analytics/internal/modules/portfolio"
	"github.com/aristath/analytics/internal/utils"
)

// Builder builds portfolios
type Builder interface {
	Build(ctx context.Context, req portfolio.Request, progress portfolio.ProgressFunc) (*portfolio.Portfolio, error)
}

// Defaults fill request fields the caller left out
type Defaults struct {
	Benchmark       string
	ConfidenceLevel float64
	RiskFreeRate    float64
	Lookback        time.Duration
	FrontierPoints  int
}

// Request is the JSON body of the portfolio endpoints
type Request struct {
	Symbols         []string                          `json:"symbols"`
	Benchmark       string                            `json:"benchmark"`
	Start           string                            `json:"start"`
	End             string                            `json:"end"`
	Interval        string                            `json:"interval"`
	Objective       string                            `json:"objective"`
	ConfidenceLevel *float64                          `json:"confidence_level"`
	RiskFreeRate    *float64                          `json:"risk_free_rate"`
	Constraints     map[string]optimization.Bound     `json:"constraints"`
	Categories      []optimization.CategoryConstraint `json:"categories"`
	CustomWeights   map[string]float64                `json:"custom_weights"`
	FrontierPoints  int                               `json:"frontier_points"`
	MaxIterations   int                               `json:"max_iterations"`
	// Series includes the per-period return series in the response
	Series bool `json:"series"`
}

// Handler handles portfolio requests
type Handler struct {
	builder  Builder
	defaults Defaults
	// origins are extra host patterns allowed to open the stream
	origins []string
	now     func() time.Time
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(builder Builder, defaults Defaults, log zerolog.Logger) *Handler {
	return &Handler{
		builder:  builder,
		defaults: defaults,
		now:      time.Now,
		log:      log.With().Str("handler", "portfolio").Logger(),
	}
}

// AllowOrigins lets browsers on the given host patterns ("example.com",
// "*.example.com") open the websocket stream. Same-origin requests are
// always accepted.
func (h *Handler) AllowOrigins(patterns ...string) *Handler {
	h.origins = append(h.origins, patterns...)
	return h
}

// HandleOptimize handles POST /api/portfolio/optimize
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var body Request
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	req, err := h.toRequest(body)
	if err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	p, err := h.builder.Build(r.Context(), req, nil)
	if err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	utils.WriteResponse(w, r, http.StatusOK, utils.Envelope(h.present(p, body.Series)), h.log)
}

// HandleFrontier handles POST /api/portfolio/frontier. The frontier is
// always traced, with the default point count when none is given.
func (h *Handler) HandleFrontier(w http.ResponseWriter, r *http.Request) {
	var body Request
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}
	if body.FrontierPoints == 0 {
		body.FrontierPoints = h.defaults.FrontierPoints
	}

	req, err := h.toRequest(body)
	if err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}
	req.Objective = optimization.MinVol

	p, err := h.builder.Build(r.Context(), req, nil)
	if err != nil {
		utils.WriteError(w, r, err, h.log)
		return
	}

	compact := p.Compact()
	utils.WriteResponse(w, r, http.StatusOK, utils.Envelope(map[string]interface{}{
		"id":             p.ID,
		"symbols":        p.Symbols,
		"failed_symbols": p.FailedSymbols,
		"requested":      req.FrontierPoints,
		"points":         compact.Frontier,
	}), h.log)
}

// toRequest applies the defaults and parses the string fields
func (h *Handler) toRequest(body Request) (portfolio.Request, error) {
	req := portfolio.Request{
		Symbols:         body.Symbols,
		Benchmark:       body.Benchmark,
		Interval:        domain.Interval1d,
		ConfidenceLevel: h.defaults.ConfidenceLevel,
		RiskFreeRate:    h.defaults.RiskFreeRate,
		Objective:       optimization.MaxSharpe,
		Constraints:     body.Constraints,
		Categories:      body.Categories,
		CustomWeights:   body.CustomWeights,
		FrontierPoints:  body.FrontierPoints,
		MaxIterations:   body.MaxIterations,
	}
	if req.Benchmark == "" {
		req.Benchmark = h.defaults.Benchmark
	}
	if body.ConfidenceLevel != nil {
		req.ConfidenceLevel = *body.ConfidenceLevel
	}
	if body.RiskFreeRate != nil {
		req.RiskFreeRate = *body.RiskFreeRate
	}

	var err error
	if body.Interval != "" {
		if req.Interval, err = domain.ParseInterval(body.Interval); err != nil {
			return req, err
		}
	}
	if body.Objective != "" {
		if req.Objective, err = optimization.ParseObjective(body.Objective); err != nil {
			return req, err
		}
	}

	req.End = h.now().UTC().Truncate(24 * time.Hour)
	if body.End != "" {
		if req.End, err = utils.ParseDate(body.End); err != nil {
			return req, err
		}
	}
	req.Start = req.End.Add(-h.defaults.Lookback)
	if body.Start != "" {
		if req.Start, err = utils.ParseDate(body.Start); err != nil {
			return req, err
		}
	}

	req.Normalize()
	return req, req.Validate()
}

func (h *Handler) present(p *portfolio.Portfolio, series bool) map[string]interface{} {
	out := p
	if !series {
		out = p.Compact()
	}
	return map[string]interface{}{
		"portfolio": out,
		"table":     out.Optimal.Statistics.Table(),
	}
}
