package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_DefaultValues tests that hardcoded defaults are applied correctly.
func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "quote-viewmodel", cfg.App.Name)
	assert.Equal(t, "dev", cfg.App.Version)
	assert.Equal(t, "local", cfg.App.Environment)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, DefaultClientRetryMaxAttempts, cfg.Client.Retry.MaxAttempts)
	assert.Equal(t, DefaultClientCircuitMaxFailures, cfg.Client.CircuitBreaker.MaxFailures)
	assert.Equal(t, "quote-service", cfg.Services.Quote.Name)
	assert.Equal(t, SourceQuotable, cfg.Services.Quote.Source)
	assert.Equal(t, "https://api.quotable.io", cfg.Services.Quote.BaseURL)
	assert.Equal(t, DefaultStreamMaxSessions, cfg.Stream.MaxSessions)
	assert.Equal(t, 15*time.Second, cfg.Stream.Heartbeat)

	require.NoError(t, cfg.Validate())
}

// TestLoad_NoRetriesByDefault pins the single-attempt fetch behaviour.
func TestLoad_NoRetriesByDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Client.Retry.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
}

// TestLoad_EnvVarOverrides tests that environment variables override defaults.
func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("APP_LOG_LEVEL", "warn")
	t.Setenv("APP_SERVICES_QUOTE_SOURCE", "feed")
	t.Setenv("APP_SERVICES_QUOTE_FEED_URL", "https://example.com/qotd.rss")
	t.Setenv("APP_CLIENT_RETRY_MAX_ATTEMPTS", "3")
	t.Setenv("APP_STREAM_MAX_SESSIONS", "7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, SourceFeed, cfg.Services.Quote.Source)
	assert.Equal(t, "https://example.com/qotd.rss", cfg.Services.Quote.FeedURL)
	assert.Equal(t, 3, cfg.Client.Retry.MaxAttempts)
	assert.Equal(t, 7, cfg.Stream.MaxSessions)
}

// TestLoad_BoolEnvVar tests that boolean environment variables are parsed correctly.
func TestLoad_BoolEnvVar(t *testing.T) {
	t.Setenv("APP_TELEMETRY_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Telemetry.Enabled)
}

// TestLoad_DurationParsing tests that duration strings are parsed correctly.
func TestLoad_DurationParsing(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Client.Retry.InitialInterval)
	assert.Equal(t, 5*time.Second, cfg.Client.Retry.MaxInterval)
	assert.Equal(t, 30*time.Second, cfg.Client.CircuitBreaker.Timeout)
	assert.Equal(t, 90*time.Second, cfg.Client.Transport.IdleConnTimeout)
}

// TestLoad_ProfileFile tests that a profile YAML overrides defaults.
func TestLoad_ProfileFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "test.yaml"), []byte(`
app:
  environment: test
log:
  format: pretty
services:
  quote:
    base_url: http://localhost:9999
`), 0o600))

	t.Chdir(dir)

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Environment)
	assert.Equal(t, "pretty", cfg.Log.Format)
	assert.Equal(t, "http://localhost:9999", cfg.Services.Quote.BaseURL)
}

// TestLoad_NonExistentProfile tests that a missing profile file doesn't cause errors.
func TestLoad_NonExistentProfile(t *testing.T) {
	cfg, err := Load("nonexistent")
	require.NoError(t, err)

	assert.Equal(t, "quote-viewmodel", cfg.App.Name)
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		env      string
		expected string
	}{
		{env: "APP_SERVER_PORT", expected: "server.port"},
		{env: "APP_SERVER_SHUTDOWN_TIMEOUT", expected: "server.shutdown_timeout"},
		{env: "APP_LOG_FILE_MAX_SIZE", expected: "log.file.max_size"},
		{env: "APP_CLIENT_CIRCUIT_BREAKER_HALF_OPEN_LIMIT", expected: "client.circuit_breaker.half_open_limit"},
		{env: "APP_CLIENT_TRANSPORT_MAX_IDLE_CONNS_PER_HOST", expected: "client.transport.max_idle_conns_per_host"},
		{env: "APP_CLIENT_TRANSPORT_MAX_IDLE_CONNS", expected: "client.transport.max_idle_conns"},
		{env: "APP_SERVICES_QUOTE_BASE_URL", expected: "services.quote.base_url"},
		{env: "APP_TELEMETRY_SAMPLING_RATE", expected: "telemetry.sampling_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			assert.Equal(t, tt.expected, envKey(tt.env))
		})
	}
}

func TestQuoteSourceConfig_Endpoint(t *testing.T) {
	tests := []struct {
		name string
		cfg  QuoteSourceConfig
		want string
	}{
		{
			name: "quotable uses base url",
			cfg:  QuoteSourceConfig{Source: SourceQuotable, BaseURL: "https://api.quotable.io", FeedURL: "https://example.com/rss"},
			want: "https://api.quotable.io",
		},
		{
			name: "feed uses feed url",
			cfg:  QuoteSourceConfig{Source: SourceFeed, BaseURL: "https://api.quotable.io", FeedURL: "https://example.com/rss"},
			want: "https://example.com/rss",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.Endpoint())
		})
	}
}
