package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSafeRoute means routes exist between the points but none avoided every unsafe location.
	ErrNoSafeRoute = errors.New("no safe route found")
	// ErrRoutingUnavailable means no travel option produced a route: every call failed or answered empty.
	ErrRoutingUnavailable = errors.New("routing service unavailable")

	ErrNotFound        = errors.New("not found")
	ErrUserExists      = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrMissingFields   = errors.New("all fields are required")

	// ErrCredentialsUnavailable means the pinned credentials record could not be read.
	ErrCredentialsUnavailable = errors.New("error retrieving user data from IPFS")
)

// ServiceUnavailableError is returned by a routing call that failed or
// answered with a non-success status.
type ServiceUnavailableError struct {
	Option TravelOption
	Status string
	Err    error
}

func (e *ServiceUnavailableError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("routing %s: status %s: %v", e.Option, e.Status, e.Err)
	}
	return fmt.Sprintf("routing %s: %v", e.Option, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Err }

// DecodeError reports a malformed encoded path.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode path: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SearchError ends a safe-route search that found nothing. Err is either
// ErrNoSafeRoute or ErrRoutingUnavailable; Cause holds the last routing failure.
type SearchError struct {
	Err      error
	Cause    error
	Attempts []SearchAttempt
}

func (e *SearchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v after %d attempts: %v", e.Err, len(e.Attempts), e.Cause)
	}
	return fmt.Sprintf("%v after %d attempts", e.Err, len(e.Attempts))
}

func (e *SearchError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}
