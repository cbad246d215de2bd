package acl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/jsamuelsen/quote-viewmodel/internal/adapters/clients"
	"github.com/jsamuelsen/quote-viewmodel/internal/domain"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/logging"
	"github.com/jsamuelsen/quote-viewmodel/internal/ports"
)

var (
	_ ports.QuoteFetcher  = (*FeedFetcher)(nil)
	_ ports.HealthChecker = (*FeedFetcher)(nil)
)

// errEmptyFeed is the cause when a feed has no usable item.
var errEmptyFeed = errors.New("feed has no quotes")

// FeedFetcher picks a random item from an RSS or Atom quote feed. The
// client's base URL is the feed document itself.
type FeedFetcher struct {
	BaseAdapter

	parser *gofeed.Parser

	// pick returns an index in [0, n). Replaced in tests.
	pick func(n int) int
}

// NewFeedFetcher creates a feed-backed fetcher. Panics if client is nil.
func NewFeedFetcher(client *clients.Client, serviceName string, logger *slog.Logger) *FeedFetcher {
	return &FeedFetcher{
		BaseAdapter: NewBaseAdapter(client, serviceName, "", logger),
		parser:      gofeed.NewParser(),
		pick:        rand.IntN, //nolint:gosec // Quote choice needs no crypto randomness
	}
}

// FetchRandomQuote downloads and parses the feed, then translates one
// randomly chosen item.
func (f *FeedFetcher) FetchRandomQuote(ctx context.Context) (*domain.Quote, error) {
	body, err := f.Get(ctx, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	feed, err := f.parser.Parse(body)
	if err != nil {
		return nil, f.Fail(fmt.Sprintf("decoding response: %v", err), err)
	}

	quotes := make([]*domain.Quote, 0, len(feed.Items))
	for _, item := range feed.Items {
		if q, err := translateFeedItem(item); err == nil {
			quotes = append(quotes, q)
		}
	}

	if len(quotes) == 0 {
		return nil, f.Fail(errEmptyFeed.Error(), errEmptyFeed)
	}

	quote := quotes[f.pick(len(quotes))]

	logging.FromContext(ctx).Log(ctx, logging.LevelTrace, "picked feed item",
		slog.String("feed", feed.Title),
		slog.Int("items", len(quotes)),
		slog.String("author", quote.Author))

	return quote, nil
}

var _ Translator[gofeed.Item, domain.Quote] = translateFeedItem

// translateFeedItem maps a feed item onto a quote. Quote-of-the-day feeds put
// the text in the description and the speaker in the title; feeds without a
// description carry the text in the title.
func translateFeedItem(item *gofeed.Item) (*domain.Quote, error) {
	content := plainText(item.Description)
	title := plainText(item.Title)
	author := itemAuthor(item)

	switch {
	case content == "" && title == "":
		return nil, errEmptyFeed
	case content == "":
		content = title
	case author == "":
		author = title
	}

	return &domain.Quote{
		Content: strings.Trim(content, "\"“” "),
		Author:  author,
	}, nil
}

func itemAuthor(item *gofeed.Item) string {
	for _, p := range item.Authors {
		if p != nil && strings.TrimSpace(p.Name) != "" {
			return strings.TrimSpace(p.Name)
		}
	}

	if item.Author != nil { //nolint:staticcheck // Older gofeed parsers only populate Author
		return strings.TrimSpace(item.Author.Name) //nolint:staticcheck // see above
	}

	return ""
}

// plainText strips markup from feed HTML and collapses whitespace.
func plainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if strings.ContainsRune(s, '<') {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}

	return strings.Join(strings.Fields(s), " ")
}
