// Package clients provides the instrumented HTTP client used to reach quote
// sources.
package clients

import "errors"

// Client errors are infrastructure failures. Callers translate them into
// domain errors.
var (
	// ErrCircuitOpen is returned without touching the network while the
	// breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrRequestFailed wraps the last transport error once every attempt has
	// been used.
	ErrRequestFailed = errors.New("downstream request failed")
)
