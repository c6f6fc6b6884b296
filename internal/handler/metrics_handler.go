package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/miqaat-rms-api/internal/service"
)

const readyTimeout = 2 * time.Second

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CacheChecker is the optional cache dependency. A disabled cache is
// reported but never makes the API unready.
type CacheChecker interface {
	Pinger
	Enabled() bool
}

// MetricsHandler serves the probe and scrape endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	db      Pinger
	cache   CacheChecker
}

// NewMetricsHandler wires the probes. db and cache may be nil.
func NewMetricsHandler(metrics *service.MetricsService, db Pinger, cache CacheChecker) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, db: db, cache: cache}
}

func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health is the liveness probe; it never touches dependencies.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready answers 503 when the database does not respond. The cache state is
// included for operators but does not affect the status code.
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	checks := gin.H{}
	status, code := "ready", http.StatusOK
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			status, code = "unavailable", http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}
	switch {
	case h.cache == nil || !h.cache.Enabled():
		checks["cache"] = "disabled"
	default:
		if err := h.cache.PingContext(ctx); err != nil {
			checks["cache"] = err.Error()
		} else {
			checks["cache"] = "ok"
		}
	}
	c.JSON(code, gin.H{"status": status, "checks": checks})
}
