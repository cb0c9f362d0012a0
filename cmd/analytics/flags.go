package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/modules/optimization"
)

// parseBounds parses SYMBOL=LOWER:UPPER pairs
func parseBounds(raw map[string]string) (map[string]optimization.Bound, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	bounds := make(map[string]optimization.Bound, len(raw))
	for symbol, spec := range raw {
		lower, upper, err := parseRange(spec)
		if err != nil {
			return nil, fmt.Errorf("%w: bound for %s: %v", domain.ErrInvalidParameter, symbol, err)
		}
		bounds[strings.ToUpper(strings.TrimSpace(symbol))] = optimization.Bound{Lower: lower, Upper: upper}
	}
	return bounds, nil
}

// parseWeights parses SYMBOL=WEIGHT pairs
func parseWeights(raw map[string]string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	weights := make(map[string]float64, len(raw))
	for symbol, spec := range raw {
		w, err := strconv.ParseFloat(strings.TrimSpace(spec), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: weight for %s: %q is not a number", domain.ErrInvalidParameter, symbol, spec)
		}
		weights[strings.ToUpper(strings.TrimSpace(symbol))] = w
	}
	return weights, nil
}

// parseCategories parses NAME=SYM1,SYM2:LOWER:UPPER entries
func parseCategories(raw []string) ([]optimization.CategoryConstraint, error) {
	categories := make([]optimization.CategoryConstraint, 0, len(raw))
	for _, entry := range raw {
		name, rest, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: category %q must look like NAME=SYM1,SYM2:LOWER:UPPER", domain.ErrInvalidParameter, entry)
		}
		members, limits, ok := strings.Cut(rest, ":")
		if !ok {
			return nil, fmt.Errorf("%w: category %q has no limits", domain.ErrInvalidParameter, entry)
		}
		lower, upper, err := parseRange(limits)
		if err != nil {
			return nil, fmt.Errorf("%w: category %s: %v", domain.ErrInvalidParameter, name, err)
		}

		c := optimization.CategoryConstraint{Name: strings.TrimSpace(name), Lower: lower, Upper: upper}
		for _, m := range strings.Split(members, ",") {
			if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
				c.Members = append(c.Members, m)
			}
		}
		if len(c.Members) == 0 {
			return nil, fmt.Errorf("%w: category %s has no members", domain.ErrInvalidParameter, name)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func parseRange(spec string) (float64, float64, error) {
	lo, hi, ok := strings.Cut(spec, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%q must be LOWER:UPPER", spec)
	}
	lower, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("lower %q is not a number", lo)
	}
	upper, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("upper %q is not a number", hi)
	}
	return lower, upper, nil
}
