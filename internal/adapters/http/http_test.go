package http

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-viewmodel/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-viewmodel/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-viewmodel/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-viewmodel/internal/domain"
	"github.com/jsamuelsen/quote-viewmodel/internal/mocks"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serverConfig(host string, port int, maxBody int64) *config.ServerConfig {
	return &config.ServerConfig{
		Host:            host,
		Port:            port,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     30 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		MaxRequestSize:  maxBody,
	}
}

func TestServerNew(t *testing.T) {
	cfg := serverConfig("127.0.0.1", 8080, 1<<20)
	logger := discardLogger()

	srv := New(cfg, logger)

	require.NotNil(t, srv)
	assert.IsType(t, &gin.Engine{}, srv.Engine())
	assert.Equal(t, cfg, srv.Config())
	assert.Equal(t, logger, srv.logger)
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		name         string
		host         string
		port         int
		expectedAddr string
	}{
		{name: "localhost", host: "localhost", port: 8080, expectedAddr: "localhost:8080"},
		{name: "all interfaces", host: "0.0.0.0", port: 3000, expectedAddr: "0.0.0.0:3000"},
		{name: "ipv6", host: "::1", port: 9000, expectedAddr: "[::1]:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(serverConfig(tt.host, tt.port, 1<<20), discardLogger())
			assert.Equal(t, tt.expectedAddr, srv.Addr())
		})
	}
}

func TestServerStartShutdown(t *testing.T) {
	srv := New(serverConfig("127.0.0.1", 0, 1<<20), discardLogger())
	errCh := srv.Start()

	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err, ok := <-errCh:
		assert.NoError(t, err)
		assert.False(t, ok, "error channel should be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for server to stop")
	}
}

func TestServerShutdownEndsStreams(t *testing.T) {
	fetcher := mocks.NewMockQuoteFetcher(t)
	fetcher.EXPECT().FetchRandomQuote(mock.Anything).
		Return(&domain.Quote{Content: "Done is better than perfect.", Author: "Unknown"}, nil).Maybe()

	sessions := handlers.NewSessionRegistry(5, nil)
	srv := New(serverConfig("127.0.0.1", 0, 1<<20), discardLogger())
	SetupRouter(srv.Engine(), RouterConfig{
		Logger:        discardLogger(),
		AppConfig:     &config.AppConfig{Name: "quote-viewmodel"},
		StreamHandler: handlers.NewStreamHandler(handlers.StreamHandlerConfig{Fetcher: fetcher, Sessions: sessions}),
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := srv.Serve(ln)

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/v1/quotes/stream")
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event:session\n", line)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, srv.Shutdown(ctx))
	assert.Equal(t, 0, sessions.Len())

	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for server to stop")
	}
}

func TestSetupRouter(t *testing.T) {
	registry := mocks.NewMockHealthRegistry(t)
	fetcher := mocks.NewMockQuoteFetcher(t)

	engine := gin.New()
	SetupRouter(engine, RouterConfig{
		Logger:        discardLogger(),
		AppConfig:     &config.AppConfig{Name: "test-service"},
		HealthHandler: handlers.NewHealthHandler(registry, handlers.BuildInfo{}),
		StreamHandler: handlers.NewStreamHandler(handlers.StreamHandlerConfig{
			Fetcher:  fetcher,
			Sessions: handlers.NewSessionRegistry(1, nil),
		}),
	})

	routes := make(map[string]bool)
	for _, r := range engine.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	for _, expected := range []string{
		"GET /-/live",
		"GET /-/ready",
		"GET /api/v1/quotes/stream",
		"POST /api/v1/quotes/stream/:session/intents",
	} {
		assert.True(t, routes[expected], "missing route: %s", expected)
	}

	t.Run("ids echoed on probes", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/live", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
		assert.NotEmpty(t, w.Header().Get(middleware.HeaderCorrelationID))
	})

	t.Run("unknown session uses error envelope", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes/stream/missing/intents",
			strings.NewReader(`{"intent":"refresh_requested"}`))
		engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusNotFound, w.Code)

		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrorCodeNotFound, resp.Error.Code)
	})
}

func TestSetupRouterWithoutHandlers(t *testing.T) {
	engine := gin.New()

	require.NotPanics(t, func() {
		SetupRouter(engine, RouterConfig{AppConfig: &config.AppConfig{Name: "test-service"}})
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/live", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMaxBodySizeMiddleware(t *testing.T) {
	srv := New(serverConfig("127.0.0.1", 0, 16), discardLogger())
	srv.Engine().POST("/test", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}

		c.JSON(http.StatusOK, gin.H{"received": len(body)})
	})

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "under limit", body: `{"intent":"x"}`, want: http.StatusOK},
		{name: "over limit", body: strings.Repeat("x", 64), want: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
