package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quote-viewmodel/internal/adapters/clients"
	"github.com/jsamuelsen/quote-viewmodel/internal/domain"
)

// maxErrorBody caps how much of an error response is read for a message.
const maxErrorBody = 4 << 10

// ErrorResponse is an upstream error body. Quotable answers
// {"statusCode":404,"statusMessage":"..."}; other APIs nest
// {"error":{"message":"..."}} or use a flat {"message":"..."}.
type ErrorResponse struct {
	StatusCode    int         `json:"statusCode,omitempty"`
	StatusMessage string      `json:"statusMessage,omitempty"`
	Message       string      `json:"message,omitempty"`
	Error         ErrorDetail `json:"error"`
}

// ErrorDetail is the nested error object of an ErrorResponse.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GetMessage returns the first non-empty message in the body.
func (e *ErrorResponse) GetMessage() string {
	switch {
	case e.StatusMessage != "":
		return e.StatusMessage
	case e.Error.Message != "":
		return e.Error.Message
	default:
		return e.Message
	}
}

// ParseErrorResponse attempts to parse an error response body.
// Returns nil if the body is empty, not JSON, or carries no message.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.GetMessage() == "" {
		return nil
	}

	return &errResp
}

// MapHTTPError turns a client error or a non-2xx response into a
// *domain.FetchError for serviceName. It returns nil for a 2xx response.
// resp may be nil when clientErr is set.
func MapHTTPError(resp *http.Response, clientErr error, serviceName string) error {
	if clientErr != nil {
		return mapClientError(clientErr, serviceName)
	}

	if resp == nil {
		return domain.NewFetchError(serviceName, "no response received")
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	var errResp *ErrorResponse
	if resp.Body != nil {
		errResp = ParseErrorResponse(resp.Body)
	}

	return domain.NewFetchError(serviceName, statusReason(resp.StatusCode, errResp))
}

func mapClientError(err error, serviceName string) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewFetchErrorWithCause(serviceName, "circuit breaker open", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.NewFetchErrorWithCause(serviceName, "request canceled", err)
	default:
		return domain.NewFetchErrorWithCause(serviceName, "request failed: "+innermost(err).Error(), err)
	}
}

// innermost strips ErrRequestFailed so the reason names the transport fault.
func innermost(err error) error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			if !errors.Is(e, clients.ErrRequestFailed) {
				return e
			}
		}
	}

	return err
}

func statusReason(status int, errResp *ErrorResponse) string {
	switch status {
	case http.StatusTooManyRequests:
		return "rate limit exceeded"
	case http.StatusNotFound:
		return "HTTP 404: not found"
	}

	msg := http.StatusText(status)
	if errResp != nil {
		msg = errResp.GetMessage()
	}

	if msg == "" {
		return fmt.Sprintf("unexpected HTTP %d", status)
	}

	return fmt.Sprintf("HTTP %d: %s", status, msg)
}
