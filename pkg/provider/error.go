package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Error wraps provider failures with status metadata. Usage carries any
// tokens the backend billed before failing (e.g. a completion cut off by
// a content filter) so callers can reconcile their accounting.
type Error struct {
	Status    int
	Temporary bool
	Usage     *Usage
	Err       error
}

func (e *Error) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("provider error (status=%d)", e.Status)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsTransient reports whether an error is safe to retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var provErr *Error
	if errors.As(err, &provErr) {
		if provErr.Temporary {
			return true
		}
		if provErr.Status == 429 || (provErr.Status >= 500 && provErr.Status <= 599) {
			return true
		}
	}
	return false
}

// BilledUsage extracts partial usage attached to a failed call, if any.
func BilledUsage(err error) *Usage {
	var provErr *Error
	if errors.As(err, &provErr) && provErr.Usage != nil {
		u := provErr.Usage.Normalize()
		return &u
	}
	return nil
}
