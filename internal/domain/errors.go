package domain

import "errors"

// Failure taxonomy shared by the store, the services and the HTTP layer.
// Callers wrap these with fmt.Errorf("...: %w", err) and match with errors.Is.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrNotFound            = errors.New("not found")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrInvalidCredentials  = errors.New("invalid email or password")
)

// IsRetryable reports whether err is a store-side failure the caller may retry.
// Validation failures are never retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrConstraintViolation)
}
