package handlers

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/analytics/internal/modules/optimization"
)

func wave(n int, amplitude, freq, phase, drift float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = drift + amplitude*math.Sin(freq*float64(i)+phase)
	}
	return out
}

func validRequest() Request {
	return Request{
		Symbols: []string{"AAA", "BBB"},
		Returns: [][]float64{
			wave(60, 0.02, 0.9, 0, 0.002),
			wave(60, 0.005, 1.7, 0.5, 0.0005),
		},
		Benchmark: wave(60, 0.01, 0.6, 1, 0.001),
	}
}

func newTestRouter() *chi.Mux {
	log := zerolog.Nop()
	h := NewHandler(optimization.NewOptimizer(optimization.Settings{}, log), Defaults{
		ConfidenceLevel: 0.95,
		RiskFreeRate:    0.02,
		FrontierPoints:  4,
	}, log)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func post(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if raw, ok := body.(string); ok {
		buf.WriteString(raw)
	} else {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleRun(t *testing.T) {
	req := validRequest()
	req.Objective = "min_vol"
	req.Bounds = []optimization.Bound{{Lower: 0.1, Upper: 0.9}, {Lower: 0.1, Upper: 0.9}}

	w := post(t, newTestRouter(), "/optimizer/run", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Objective  string             `json:"objective"`
			Weights    map[string]float64 `json:"weights"`
			Statistics map[string]interface{}
			Table      []map[string]string `json:"table"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "min_vol", resp.Data.Objective)
	require.Len(t, resp.Data.Weights, 2)
	assert.InDelta(t, 1.0, resp.Data.Weights["AAA"]+resp.Data.Weights["BBB"], 1e-6)
	assert.GreaterOrEqual(t, resp.Data.Weights["AAA"], 0.1-1e-9)
	assert.NotContains(t, resp.Data.Statistics, "returns")
	assert.NotEmpty(t, resp.Data.Table)
}

func TestHandleFrontier(t *testing.T) {
	w := post(t, newTestRouter(), "/optimizer/frontier", validRequest())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Requested int                          `json:"requested"`
			Points    []optimization.FrontierPoint `json:"points"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 4, resp.Data.Requested)
	assert.NotEmpty(t, resp.Data.Points)
}

func TestHandlers_Errors(t *testing.T) {
	misaligned := validRequest()
	misaligned.Returns[1] = misaligned.Returns[1][:10]

	badObjective := validRequest()
	badObjective.Objective = "max_luck"

	infeasible := validRequest()
	infeasible.Bounds = []optimization.Bound{{Lower: 0.7, Upper: 1}, {Lower: 0.7, Upper: 1}}

	constantBenchmark := validRequest()
	constantBenchmark.Benchmark = make([]float64, 60)

	badInterval := validRequest()
	badInterval.Interval = "7m"

	tests := []struct {
		name string
		path string
		body interface{}
		code int
		kind string
	}{
		{"malformed json", "/optimizer/run", "{", http.StatusBadRequest, "invalid_parameter"},
		{"unknown field", "/optimizer/run", `{"symbols":["A"],"nope":1}`, http.StatusBadRequest, "invalid_parameter"},
		{"no symbols", "/optimizer/run", Request{}, http.StatusUnprocessableEntity, "insufficient_assets"},
		{"misaligned rows", "/optimizer/run", misaligned, http.StatusBadRequest, "misaligned"},
		{"unknown objective", "/optimizer/run", badObjective, http.StatusBadRequest, "invalid_parameter"},
		{"infeasible bounds", "/optimizer/run", infeasible, http.StatusBadRequest, "infeasible_constraints"},
		{"constant benchmark", "/optimizer/frontier", constantBenchmark, http.StatusUnprocessableEntity, "degenerate_variance"},
		{"unknown interval", "/optimizer/frontier", badInterval, http.StatusBadRequest, "invalid_parameter"},
	}

	router := newTestRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, router, tt.path, tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())

			var resp struct {
				Error struct {
					Kind string `json:"kind"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.kind, resp.Error.Kind)
		})
	}
}
