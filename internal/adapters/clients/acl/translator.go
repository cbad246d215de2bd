package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jsamuelsen/quote-viewmodel/internal/adapters/clients"
	"github.com/jsamuelsen/quote-viewmodel/internal/domain"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/logging"
)

// maxBody caps a quote or feed document.
const maxBody = 1 << 20

// BaseAdapter is embedded by quote source adapters. It owns the client,
// maps failures to domain errors, and provides the health check.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
	probePath   string
	logger      *slog.Logger
}

// NewBaseAdapter creates a base adapter. probePath is requested by Check.
// Panics if client is nil.
func NewBaseAdapter(client *clients.Client, serviceName, probePath string, logger *slog.Logger) BaseAdapter {
	if client == nil {
		panic("acl: client is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return BaseAdapter{
		client:      client,
		serviceName: serviceName,
		probePath:   probePath,
		logger:      logger.With(slog.String("component", "acl"), slog.String("downstream", serviceName)),
	}
}

// ServiceName returns the name of the quote source.
func (a *BaseAdapter) ServiceName() string {
	return a.serviceName
}

// Name implements ports.HealthChecker.
func (a *BaseAdapter) Name() string {
	return a.serviceName
}

// Check implements ports.HealthChecker by requesting the probe path.
func (a *BaseAdapter) Check(ctx context.Context) error {
	body, err := a.Get(ctx, a.probePath)
	if err != nil {
		return err
	}

	return body.Close()
}

// Get requests path and returns the body of a 2xx response, capped at 1 MiB.
// Any other outcome is a *domain.FetchError and the body is already closed.
func (a *BaseAdapter) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	logger := logging.FromContext(ctx)
	logger.Log(ctx, logging.LevelTrace, "starting request",
		slog.String("downstream", a.serviceName),
		slog.String("path", path))

	resp, err := a.client.Get(ctx, path)
	if err != nil {
		return nil, MapHTTPError(nil, err, a.serviceName)
	}

	logger.Log(ctx, logging.LevelTrace, "request complete",
		slog.String("downstream", a.serviceName),
		slog.Int("status", resp.StatusCode))

	if mapped := MapHTTPError(resp, nil, a.serviceName); mapped != nil {
		_ = resp.Body.Close()

		a.logger.WarnContext(ctx, "quote source error", slog.Int("status_code", resp.StatusCode), slog.Any("error", mapped))

		return nil, mapped
	}

	return readCloser{Reader: io.LimitReader(resp.Body, maxBody), Closer: resp.Body}, nil
}

// Fail wraps a decode or translation problem as a fetch error for this source.
func (a *BaseAdapter) Fail(reason string, cause error) error {
	var fetchErr *domain.FetchError
	if errors.As(cause, &fetchErr) {
		return cause
	}

	return domain.NewFetchErrorWithCause(a.serviceName, reason, cause)
}

type readCloser struct {
	io.Reader
	io.Closer
}

// DecodeResponse reads and decodes a JSON response body into the target type.
// Closes the body after reading.
func DecodeResponse[T any](body io.ReadCloser) (*T, error) {
	if body == nil {
		return nil, errors.New("response body is nil")
	}
	defer func() { _ = body.Close() }()

	var result T
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// Translator converts an external DTO into a domain value, rejecting data the
// domain cannot represent.
type Translator[External any, Domain any] func(ext *External) (*Domain, error)
