package acl

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-viewmodel/internal/adapters/clients"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/config"
)

const testService = "quote-service"

// newTestClient returns a client pointed at a server running handler.
func newTestClient(t *testing.T, handler http.HandlerFunc, path string) *clients.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return newClientFor(t, srv.URL+path)
}

func newClientFor(t *testing.T, baseURL string) *clients.Client {
	t.Helper()

	client, err := clients.New(&clients.Config{
		BaseURL:     baseURL,
		ServiceName: testService,
		Timeout:     2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: time.Millisecond,
			MaxInterval:     time.Millisecond,
			Multiplier:      2,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   10,
			Timeout:       time.Second,
			HalfOpenLimit: 1,
		},
	})
	require.NoError(t, err)

	return client
}

func respond(status int, contentType, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}
