package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-viewmodel/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/logging"
)

// Recovery returns middleware that turns a panic into a 500 with the standard
// error envelope. If the response has already started, as on an open stream,
// the request is only aborted. Install it first.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			ctx := c.Request.Context()

			var traceID string
			if sc := trace.SpanFromContext(ctx).SpanContext(); sc.HasTraceID() {
				traceID = sc.TraceID().String()
			}

			logging.FromContext(ctx).ErrorContext(ctx, "panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}

			resp := dto.NewErrorResponse(dto.ErrorCodeInternal, "an internal error occurred").WithTraceID(traceID)
			c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
		}()

		c.Next()
	}
}
