package acl

import (
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/quote-viewmodel/internal/adapters/clients"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/config"
	"github.com/jsamuelsen/quote-viewmodel/internal/ports"
)

// Source is a configured quote source: it fetches quotes and reports its
// own health.
type Source interface {
	ports.QuoteFetcher
	ports.HealthChecker
}

// NewSource builds the fetcher selected by svc.Source on a client configured
// by clientCfg.
func NewSource(svc config.QuoteSourceConfig, clientCfg config.ClientConfig, userAgent string, logger *slog.Logger) (Source, error) {
	client, err := clients.New(&clients.Config{
		BaseURL:     svc.Endpoint(),
		ServiceName: svc.Name,
		UserAgent:   userAgent,
		Timeout:     clientCfg.Timeout,
		Retry:       clientCfg.Retry,
		Circuit:     clientCfg.CircuitBreaker,
		Transport:   clientCfg.Transport,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", svc.Name, err)
	}

	switch svc.Source {
	case config.SourceQuotable:
		return NewQuotableFetcher(client, svc.Name, logger), nil
	case config.SourceFeed:
		return NewFeedFetcher(client, svc.Name, logger), nil
	default:
		return nil, fmt.Errorf("unknown quote source %q", svc.Source)
	}
}
