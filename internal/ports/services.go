// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (domain.FetchError)
//   - Keep interfaces small and focused (one capability per port)
package ports

import (
	"context"

	"github.com/jsamuelsen/quote-viewmodel/internal/domain"
)

// QuoteFetcher retrieves one random quote per call.
// It is the only fallible collaborator of the quote view-model and is
// injected at construction so tests can substitute a double.
//
// Key considerations:
//   - Each call performs exactly one fetch and returns either a quote or an error, never both
//   - Implementations must return promptly once ctx is canceled
//   - Failures are reported as *domain.FetchError (transport, status and decode failures alike)
//   - Implementations are shared between concurrent fetches and must hold no per-call state
type QuoteFetcher interface {
	// FetchRandomQuote fetches a random quote from the configured source.
	FetchRandomQuote(ctx context.Context) (*domain.Quote, error)
}
