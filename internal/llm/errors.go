package llm

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/api/googleapi"
)

// TransientError is a retryable provider failure: network errors, timeouts,
// rate limits, or provider 5xx responses.
type TransientError struct {
	Op    string
	Cause error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient provider error during %s: %v", e.Op, e.Cause)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// FatalError is a non-retryable provider failure: bad credentials, invalid
// requests, or anything else retrying cannot fix.
type FatalError struct {
	Op    string
	Cause error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal provider error during %s: %v", e.Op, e.Cause)
}

func (e *FatalError) Unwrap() error {
	return e.Cause
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// classify wraps a raw provider error as transient or fatal.
// Context cancellation is passed through unwrapped so callers can
// distinguish a cancelled turn from a provider failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientError{Op: op, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &TransientError{Op: op, Cause: err}
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code >= 500 {
			return &TransientError{Op: op, Cause: err}
		}
		return &FatalError{Op: op, Cause: err}
	}
	return &FatalError{Op: op, Cause: err}
}
