// Package handlers serves the HTTP routes: quote streams, their intents, and
// the /-/ probe and metrics endpoints.
package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/quote-viewmodel/internal/ports"
)

// BuildInfo describes the running binary. Version, Commit and BuildTime are
// set with -ldflags in cmd/service.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// NewBuildInfo creates a BuildInfo for the running Go version.
func NewBuildInfo(version, commit, buildTime string) BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// HealthHandler serves the operational endpoints under /-/.
type HealthHandler struct {
	registry  ports.HealthRegistry
	buildInfo BuildInfo
	sessions  *SessionRegistry
}

// NewHealthHandler creates a health handler reporting the checks in registry.
func NewHealthHandler(registry ports.HealthRegistry, buildInfo BuildInfo) *HealthHandler {
	return &HealthHandler{
		registry:  registry,
		buildInfo: buildInfo,
	}
}

// WithSessions adds stream session usage to the readiness report.
func (h *HealthHandler) WithSessions(sessions *SessionRegistry) *HealthHandler {
	h.sessions = sessions
	return h
}

type livenessResponse struct {
	Status string `json:"status"`
}

type streamUsage struct {
	Active int `json:"active"`
	Max    int `json:"max"`
}

type readinessResponse struct {
	Status  string                        `json:"status"`
	Checks  map[string]*ports.CheckResult `json:"checks,omitempty"`
	Streams *streamUsage                  `json:"streams,omitempty"`
}

// Liveness handles GET /-/live. It reports 200 while the process runs and
// checks no dependencies.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, livenessResponse{Status: "ok"})
}

// Readiness handles GET /-/ready. It runs every registered check, the quote
// source among them, and reports 503 if any fails. A full session registry
// does not make the service unready: open streams keep working.
func (h *HealthHandler) Readiness(c *gin.Context) {
	result := h.registry.CheckAll(c.Request.Context())

	resp := readinessResponse{
		Status: string(result.Status),
		Checks: result.Checks,
	}

	if h.sessions != nil {
		resp.Streams = &streamUsage{Active: h.sessions.Len(), Max: h.sessions.Max()}
	}

	status := http.StatusOK
	if result.Status == ports.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, resp)
}

// BuildInfoHandler handles GET /-/build.
func (h *HealthHandler) BuildInfoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.buildInfo)
}

// MetricsHandler returns the Prometheus exposition handler, which includes
// the active stream session gauge.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RegisterHealthRoutesOnEngine registers /-/live, /-/ready, /-/build and
// /-/metrics.
func (h *HealthHandler) RegisterHealthRoutesOnEngine(engine *gin.Engine) {
	ops := engine.Group("/-")
	ops.GET("/live", h.Liveness)
	ops.GET("/ready", h.Readiness)
	ops.GET("/build", h.BuildInfoHandler)
	ops.GET("/metrics", gin.WrapH(MetricsHandler()))
}
