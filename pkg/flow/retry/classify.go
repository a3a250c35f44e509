package retry

import (
	"errors"
	"fmt"
)

// ErrRateLimited is the sentinel matched by IsRateLimited.
var ErrRateLimited = errors.New("rate limited")

// rateLimitedError marks an error as rate-limit-class while preserving the
// original error for errors.Is/As.
type rateLimitedError struct {
	err error
}

// Error implements the error interface.
func (e *rateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: %v", e.err)
}

// Unwrap returns the underlying error.
func (e *rateLimitedError) Unwrap() error {
	return e.err
}

// Is reports ErrRateLimited as a match.
func (e *rateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// RateLimited wraps err as a rate-limit-class error, making it eligible for
// automatic retry. Returns nil if err is nil.
func RateLimited(err error) error {
	if err == nil {
		return nil
	}
	return &rateLimitedError{err: err}
}

// IsRateLimited reports whether err is rate-limit-class.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
