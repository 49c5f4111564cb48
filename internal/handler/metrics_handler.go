package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/edu-markaz/center-api/internal/repository"
	"github.com/edu-markaz/center-api/internal/service"
)

// MetricsHandler exposes the observability endpoints: liveness, readiness
// and the Prometheus scrape target.
type MetricsHandler struct {
	metrics *service.MetricsService
	db      *sqlx.DB
	cache   *repository.CacheRepository
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, db *sqlx.DB, cache *repository.CacheRepository) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, db: db, cache: cache}
}

// Prometheus serves the metrics scrape endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health reports process liveness.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports readiness. The database is required; the cache is optional,
// so a Redis outage is reported without failing the probe.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.db == nil || h.db.PingContext(c.Request.Context()) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	payload := gin.H{"status": "ready"}
	if h.cache != nil {
		if err := h.cache.Ping(c.Request.Context()); err != nil {
			payload["cache"] = "unavailable"
		}
	}
	c.JSON(http.StatusOK, payload)
}
