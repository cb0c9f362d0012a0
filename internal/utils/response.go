package utils

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/analytics/internal/domain"
)

// ContentTypeMsgpack is served when the client asks for it in Accept
const ContentTypeMsgpack = "application/msgpack"

// Envelope wraps every API response: {"data": ..., "metadata": {...}}
func Envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

// WantsMsgpack reports whether the request prefers a msgpack body
func WantsMsgpack(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), ContentTypeMsgpack)
}

// WriteResponse encodes body as msgpack or JSON depending on the Accept header.
// msgpack uses the json struct tags so both encodings share field names.
func WriteResponse(w http.ResponseWriter, r *http.Request, status int, body interface{}, log zerolog.Logger) {
	if r != nil && WantsMsgpack(r) {
		enc := msgpack.GetEncoder()
		defer msgpack.PutEncoder(enc)

		w.Header().Set("Content-Type", ContentTypeMsgpack)
		w.WriteHeader(status)
		enc.Reset(w)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(body); err != nil {
			log.Error().Err(err).Msg("Failed to encode msgpack response")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// StatusForError maps an error kind to an HTTP status code
func StatusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	case domain.IsDataError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrProvider):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorKind returns the name of the error kind wrapped by err
func ErrorKind(err error) string {
	kinds := []struct {
		kind error
		name string
	}{
		{domain.ErrInsufficientData, "insufficient_data"},
		{domain.ErrInvalidPrice, "invalid_price"},
		{domain.ErrEmptySeries, "empty_series"},
		{domain.ErrMisaligned, "misaligned"},
		{domain.ErrDegenerateVariance, "degenerate_variance"},
		{domain.ErrInsufficientAssets, "insufficient_assets"},
		{domain.ErrInfeasibleConstraints, "infeasible_constraints"},
		{domain.ErrDidNotConverge, "did_not_converge"},
		{domain.ErrInvalidParameter, "invalid_parameter"},
		{domain.ErrProvider, "provider_error"},
	}
	for _, k := range kinds {
		if errors.Is(err, k.kind) {
			return k.name
		}
	}
	return "internal"
}

// WriteError writes {"error": {"kind", "message"}} with the mapped status
func WriteError(w http.ResponseWriter, r *http.Request, err error, log zerolog.Logger) {
	status := StatusForError(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("Request failed")
	} else {
		log.Warn().Err(err).Int("status", status).Msg("Request rejected")
	}

	WriteResponse(w, r, status, map[string]interface{}{
		"error": map[string]string{
			"kind":    ErrorKind(err),
			"message": err.Error(),
		},
	}, log)
}
