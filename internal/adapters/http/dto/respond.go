package dto

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// GetTraceID returns the trace ID of the request span, or "".
func GetTraceID(c *gin.Context) string {
	if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return ""
}

// RespondWithErrorCode writes the error envelope with the status for code.
func RespondWithErrorCode(c *gin.Context, code, message string) {
	c.JSON(HTTPStatusFromCode(code), NewErrorResponse(code, message).WithTraceID(GetTraceID(c)))
}

// RespondWithBindError writes a 400 for an error from BindAndValidate. Field
// failures are listed in details.
func RespondWithBindError(c *gin.Context, err error) {
	if !errors.Is(err, ErrValidation) {
		RespondWithErrorCode(c, ErrorCodeBadRequest, "malformed request body")
		return
	}

	resp := NewErrorResponseWithDetails(ErrorCodeValidation, "request validation failed", ValidationErrors(err))
	c.JSON(HTTPStatusFromCode(ErrorCodeValidation), resp.WithTraceID(GetTraceID(c)))
}
