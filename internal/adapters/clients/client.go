package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-viewmodel/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/config"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/logging"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/telemetry"
)

const (
	// defaultTimeout is the per-attempt timeout if none is configured.
	defaultTimeout = 30 * time.Second

	// httpStatusCategoryDivisor divides status code to get category (2xx, 4xx, 5xx).
	httpStatusCategoryDivisor = 100
)

// Config configures an HTTP client instance.
type Config struct {
	// BaseURL is prepended to request paths. It may itself be a full
	// document URL, such as an RSS feed, fetched with an empty path.
	BaseURL string

	// ServiceName identifies the downstream service for logging and tracing.
	ServiceName string

	// UserAgent is sent on every request when set.
	UserAgent string

	// Timeout is the per-attempt request timeout.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// Logger is an optional logger. If nil, slog.Default is used.
	Logger *slog.Logger
}

// Client is an instrumented HTTP client for quote sources. Every request
// passes a circuit breaker, is traced, and carries the caller's request and
// correlation IDs. Retries only happen when Retry.MaxAttempts is above one.
type Client struct {
	http        *http.Client
	baseURL     string
	serviceName string
	userAgent   string
	retry       config.RetryConfig
	breaker     *Breaker
	logger      *slog.Logger

	tracer          trace.Tracer
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
}

// New creates a new instrumented HTTP client.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	retry := cfg.Retry
	retry.MaxAttempts = max(retry.MaxAttempts, 1)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(
		slog.String("component", "clients.Client"),
		slog.String("downstream", cfg.ServiceName),
	)

	breaker := NewBreaker(BreakerConfig{
		MaxFailures: cfg.Circuit.MaxFailures,
		Cooldown:    cfg.Circuit.Timeout,
		Probes:      cfg.Circuit.HalfOpenLimit,
	})
	breaker.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	meter := telemetry.Meter()

	requestDuration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of HTTP client requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	requestTotal, err := meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Total number of HTTP client requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Transport.MaxIdleConns > 0 {
		transport.MaxIdleConns = cfg.Transport.MaxIdleConns
	}

	if cfg.Transport.MaxIdleConnsPerHost > 0 {
		transport.MaxIdleConnsPerHost = cfg.Transport.MaxIdleConnsPerHost
	}

	if cfg.Transport.IdleConnTimeout > 0 {
		transport.IdleConnTimeout = cfg.Transport.IdleConnTimeout
	}

	return &Client{
		http:            &http.Client{Timeout: timeout, Transport: transport},
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceName:     cfg.ServiceName,
		userAgent:       cfg.UserAgent,
		retry:           retry,
		breaker:         breaker,
		logger:          logger,
		tracer:          telemetry.Tracer(),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}, nil
}

// Get performs an HTTP GET against BaseURL joined with path.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	return c.Do(ctx, req)
}

// Do executes req through the breaker with tracing and optional retries.
//
// A 5xx response on the final attempt is returned as a response, not an
// error, so callers can report the status. Retrying requires a request
// without a body or with GetBody set.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With(
		slog.String("downstream", c.serviceName),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.breaker.Allow() {
		c.recordMetrics(ctx, req.Method, 0, time.Since(start), "circuit_open")
		logger.Warn("request blocked by circuit breaker")

		return nil, ErrCircuitOpen
	}

	c.injectHeaders(ctx, req)

	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+c.serviceName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("peer.service", c.serviceName),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.attempt(ctx, req, logger)
	duration := time.Since(start)

	if err != nil {
		result := "error"
		if ctx.Err() != nil {
			// The caller gave up; say nothing about upstream health.
			c.breaker.Release()
			result = "context_canceled"
		} else {
			c.breaker.Report(false)
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		c.recordMetrics(ctx, req.Method, 0, duration, result)
		logger.Warn("request failed", slog.Duration("duration", duration), slog.Any("error", err))

		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	c.breaker.Report(resp.StatusCode < http.StatusInternalServerError)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	c.recordMetrics(ctx, req.Method, resp.StatusCode, duration,
		fmt.Sprintf("%dxx", resp.StatusCode/httpStatusCategoryDivisor))
	logger.Debug("request completed",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", duration),
	)

	return resp, nil
}

// attempt runs the request up to retry.MaxAttempts times, backing off
// exponentially with jitter between attempts.
func (c *Client) attempt(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, error) {
	bo := &backoff.ExponentialBackOff{
		InitialInterval:     c.retry.InitialInterval,
		RandomizationFactor: c.retry.JitterFactor,
		Multiplier:          c.retry.Multiplier,
		MaxInterval:         c.retry.MaxInterval,
	}
	bo.Reset()

	for n := 1; ; n++ {
		resp, err := c.http.Do(req.WithContext(ctx))

		last := n >= c.retry.MaxAttempts
		switch {
		case err != nil && (last || !isRetryableError(err)):
			return nil, err
		case err == nil && (last || resp.StatusCode < http.StatusInternalServerError):
			return resp, nil
		}

		if err == nil {
			logger.Debug("retrying after server error", slog.Int("attempt", n), slog.Int("status", resp.StatusCode))
			_ = resp.Body.Close()
		} else {
			logger.Debug("retrying after transport error", slog.Int("attempt", n), slog.Any("error", err))
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			wait = c.retry.MaxInterval
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}

			req.Body = body
		}
	}
}

// CircuitState returns the current state of the circuit breaker.
func (c *Client) CircuitState() State {
	return c.breaker.State()
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// injectHeaders propagates request and correlation IDs and sets the user agent.
func (c *Client) injectHeaders(ctx context.Context, req *http.Request) {
	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(middleware.HeaderRequestID, requestID)
	}

	if correlationID := middleware.CorrelationIDFromContext(ctx); correlationID != "" {
		req.Header.Set(middleware.HeaderCorrelationID, correlationID)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// buildURL joins path onto the base URL. An empty path addresses the base
// URL itself.
func (c *Client) buildURL(path string) string {
	if path == "" {
		return c.baseURL
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}

func (c *Client) recordMetrics(ctx context.Context, method string, statusCode int, duration time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.serviceName),
		attribute.String("result", result),
	}

	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	c.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	c.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// isRetryableError reports whether a transport error is worth another attempt.
// Cancellation never is; timeouts and connection-level failures are.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}
