package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-viewmodel/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-viewmodel/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/config"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/logging"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/telemetry"
)

// RouterConfig contains the handlers and settings mounted by SetupRouter.
type RouterConfig struct {
	// Logger becomes the base context logger of every request.
	Logger *slog.Logger

	AppConfig *config.AppConfig

	// HealthHandler serves /-/. Optional.
	HealthHandler *handlers.HealthHandler

	// StreamHandler serves /api/v1/quotes/stream. Optional.
	StreamHandler *handlers.StreamHandler
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery
//  2. Request ID
//  3. Correlation ID
//  4. OpenTelemetry tracing, then request metrics and X-Trace-ID
//  5. Logging, skipping /-/ routes
//
// There is no request timeout: streams stay open until the client leaves.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		baseLogger(cfg.Logger),
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(cfg.AppConfig.Name),
		telemetry.Middleware(),
		middleware.Logging(),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	if cfg.StreamHandler != nil {
		cfg.StreamHandler.RegisterStreamRoutes(engine.Group("/api/v1"))
	}
}

// baseLogger puts logger into the request context for the middleware after it.
func baseLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if logger != nil {
			c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), logger))
		}

		c.Next()
	}
}
