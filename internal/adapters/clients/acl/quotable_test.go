package acl

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-viewmodel/internal/domain"
)

func TestNewQuotableFetcher_PanicsWithoutClient(t *testing.T) {
	assert.PanicsWithValue(t, "acl: client is required", func() {
		NewQuotableFetcher(nil, testService, nil)
	})
}

func TestQuotableFetcher_FetchRandomQuote(t *testing.T) {
	var gotPath string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"_id":"abc","content":"  Stay hungry.  ","author":"Steve Jobs","tags":["life"],"length":12}`))
	}, "")

	f := NewQuotableFetcher(client, testService, nil)

	quote, err := f.FetchRandomQuote(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/random", gotPath)
	assert.Equal(t, &domain.Quote{Content: "Stay hungry.", Author: "Steve Jobs"}, quote)
}

func TestQuotableFetcher_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		reason  string
	}{
		{
			name:    "server error",
			handler: respond(http.StatusInternalServerError, "", ""),
			reason:  "HTTP 500: Internal Server Error",
		},
		{
			name:    "rate limited",
			handler: respond(http.StatusTooManyRequests, "application/json", `{"statusCode":429,"statusMessage":"Too many requests"}`),
			reason:  "rate limit exceeded",
		},
		{
			name:    "malformed body",
			handler: respond(http.StatusOK, "application/json", `{"content":`),
			reason:  "decoding response",
		},
		{
			name:    "missing content",
			handler: respond(http.StatusOK, "application/json", `{"author":"Anonymous"}`),
			reason:  "missing content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewQuotableFetcher(newTestClient(t, tt.handler, ""), testService, nil)

			quote, err := f.FetchRandomQuote(context.Background())
			require.Error(t, err)
			assert.Nil(t, quote)

			var fetchErr *domain.FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, testService, fetchErr.Service)
			assert.Contains(t, fetchErr.Reason, tt.reason)
		})
	}
}

func TestQuotableFetcher_Unreachable(t *testing.T) {
	f := NewQuotableFetcher(newClientFor(t, "http://127.0.0.1:1"), testService, nil)

	_, err := f.FetchRandomQuote(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsFetchFailed(err))
	assert.Contains(t, err.Error(), "request failed")
}

func TestQuotableFetcher_ContextCanceled(t *testing.T) {
	f := NewQuotableFetcher(newTestClient(t, respond(http.StatusOK, "", `{}`), ""), testService, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.FetchRandomQuote(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQuotableFetcher_HealthCheck(t *testing.T) {
	healthy := NewQuotableFetcher(newTestClient(t, respond(http.StatusOK, "", `{}`), ""), testService, nil)
	assert.Equal(t, testService, healthy.Name())
	assert.NoError(t, healthy.Check(context.Background()))

	down := NewQuotableFetcher(newTestClient(t, respond(http.StatusServiceUnavailable, "", ""), ""), testService, nil)
	assert.Error(t, down.Check(context.Background()))
}
