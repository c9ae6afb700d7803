package auth

import "errors"

// Token errors. The middleware reports ErrExpiredToken distinctly so
// clients know to fetch a new token; the rest are all "invalid token".
var (
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")
	ErrMissingToken     = errors.New("authentication token is missing")

	// ErrNotStaff is returned for admin routes called without the staff claim.
	ErrNotStaff = errors.New("staff access required")
)
