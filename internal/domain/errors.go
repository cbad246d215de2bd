package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business-level failures, NOT HTTP errors.
// They are infrastructure-agnostic and can be mapped to HTTP/SSE/terminal output by adapters.

// ErrFetchFailed is the sentinel for every failed quote fetch, for use with errors.Is().
// Transport failures, non-success statuses and undecodable bodies all collapse into it.
var ErrFetchFailed = errors.New("quote fetch failed")

// FetchError provides context for a failed quote fetch.
type FetchError struct {
	// Service names the quote source that failed.
	Service string

	// Reason is a human-readable description of the failure.
	Reason string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Service == "" {
		return "fetch quote failed: " + e.Reason
	}

	return fmt.Sprintf("fetch quote from %q failed: %s", e.Service, e.Reason)
}

// Unwrap returns the sentinel and the cause for errors.Is() and errors.As() support.
func (e *FetchError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrFetchFailed}
	}

	return []error{ErrFetchFailed, e.Cause}
}

// NewFetchError creates a fetch error with a reason.
func NewFetchError(service, reason string) error {
	return &FetchError{Service: service, Reason: reason}
}

// NewFetchErrorWithCause creates a fetch error wrapping the underlying cause.
// The cause's message is used as the reason when reason is empty.
func NewFetchErrorWithCause(service, reason string, cause error) error {
	if reason == "" && cause != nil {
		reason = cause.Error()
	}

	return &FetchError{Service: service, Reason: reason, Cause: cause}
}

// IsFetchFailed checks if an error is a fetch error.
func IsFetchFailed(err error) bool {
	return errors.Is(err, ErrFetchFailed)
}

// ErrorInfo is the opaque error descriptor surfaced to the presentation layer.
// Presentation code shows Message and never inspects the error further.
type ErrorInfo struct {
	Message string
}

// NewErrorInfo describes err for display. A nil error yields an empty descriptor.
func NewErrorInfo(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{}
	}

	return ErrorInfo{Message: err.Error()}
}
