package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/analytics/internal/domain"
)

// DateLayout is the query-string date format
const DateLayout = "2006-01-02"

// QueryFloat reads a float query parameter, returning def when absent
func QueryFloat(q url.Values, key string, def float64) (float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", domain.ErrInvalidParameter, key, raw)
	}
	return v, nil
}

// QueryInt reads an integer query parameter, returning def when absent
func QueryInt(q url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", domain.ErrInvalidParameter, key, raw)
	}
	return v, nil
}

// QueryDate reads a YYYY-MM-DD query parameter, returning def when absent
func QueryDate(q url.Values, key string, def time.Time) (time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	return ParseDate(raw)
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight
func ParseDate(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", domain.ErrInvalidParameter, raw)
	}
	return t, nil
}

// SplitSymbols splits a comma-separated symbol list, trimming blanks and
// upper-casing. Duplicates are removed, order is kept.
func SplitSymbols(raw string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		s := strings.ToUpper(strings.TrimSpace(part))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// DecodeJSON decodes a request body, rejecting unknown fields
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidParameter, err)
	}
	return nil
}
