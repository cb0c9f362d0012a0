package domain

import "errors"

// Error kinds returned by the analytics engine. Callers match them with
// errors.Is; every returned error wraps exactly one kind with context.
var (
	// ErrInsufficientData - fewer than 2 price points for return computation
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidPrice - non-positive price or out-of-order timestamp from the provider
	ErrInvalidPrice = errors.New("invalid price")
	// ErrEmptySeries - zero-length return series passed to statistics
	ErrEmptySeries = errors.New("empty series")
	// ErrMisaligned - security and benchmark series of different lengths
	ErrMisaligned = errors.New("misaligned series")
	// ErrDegenerateVariance - benchmark return series has ~zero variance
	ErrDegenerateVariance = errors.New("degenerate variance")
	// ErrInsufficientAssets - fewer than 2 assets for correlation
	ErrInsufficientAssets = errors.New("insufficient assets")
	// ErrInfeasibleConstraints - contradictory weight bounds
	ErrInfeasibleConstraints = errors.New("infeasible constraints")
	// ErrDidNotConverge - best candidate violates feasibility after the iteration cap
	ErrDidNotConverge = errors.New("optimization did not converge")
	// ErrInvalidParameter - malformed caller input (confidence, interval, objective name)
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrProvider - upstream price provider failure
	ErrProvider = errors.New("price provider error")
)

// IsValidationError reports whether err stems from caller input rather than
// from the numerical properties of the data.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidParameter) ||
		errors.Is(err, ErrInfeasibleConstraints) ||
		errors.Is(err, ErrMisaligned)
}

// IsDataError reports whether err describes data that cannot support the
// requested computation.
func IsDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrEmptySeries) ||
		errors.Is(err, ErrDegenerateVariance) ||
		errors.Is(err, ErrInsufficientAssets) ||
		errors.Is(err, ErrDidNotConverge)
}
