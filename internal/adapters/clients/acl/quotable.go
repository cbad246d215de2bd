package acl

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/quote-viewmodel/internal/adapters/clients"
	"github.com/jsamuelsen/quote-viewmodel/internal/domain"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/logging"
	"github.com/jsamuelsen/quote-viewmodel/internal/ports"
)

// randomPath is the quotable endpoint returning one random quote.
const randomPath = "/random"

var (
	_ ports.QuoteFetcher  = (*QuotableFetcher)(nil)
	_ ports.HealthChecker = (*QuotableFetcher)(nil)
)

// QuotableFetcher fetches random quotes from the quotable API.
type QuotableFetcher struct {
	BaseAdapter
}

// NewQuotableFetcher creates a fetcher whose client points at the quotable
// base URL. Panics if client is nil.
func NewQuotableFetcher(client *clients.Client, serviceName string, logger *slog.Logger) *QuotableFetcher {
	return &QuotableFetcher{
		BaseAdapter: NewBaseAdapter(client, serviceName, randomPath, logger),
	}
}

// quotableResponse is the quotable DTO. Only content and author matter.
type quotableResponse struct {
	ID      string   `json:"_id"`
	Content string   `json:"content"`
	Author  string   `json:"author"`
	Tags    []string `json:"tags"`
}

// FetchRandomQuote performs one GET /random.
func (f *QuotableFetcher) FetchRandomQuote(ctx context.Context) (*domain.Quote, error) {
	body, err := f.Get(ctx, randomPath)
	if err != nil {
		return nil, err
	}

	ext, err := DecodeResponse[quotableResponse](body)
	if err != nil {
		return nil, f.Fail("", err)
	}

	quote, err := translateQuotable(ext)
	if err != nil {
		return nil, f.Fail("", err)
	}

	logging.FromContext(ctx).Log(ctx, logging.LevelTrace, "translated quotable DTO",
		slog.String("quote_id", ext.ID),
		slog.String("author", quote.Author))

	return quote, nil
}

var _ Translator[quotableResponse, domain.Quote] = translateQuotable

func translateQuotable(ext *quotableResponse) (*domain.Quote, error) {
	content := strings.TrimSpace(ext.Content)
	if content == "" {
		return nil, errors.New("decoding response: missing content")
	}

	return &domain.Quote{
		Content: content,
		Author:  strings.TrimSpace(ext.Author),
	}, nil
}
