package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"poolfinder/internal/service"
)

const readyTimeout = 2 * time.Second

// HealthHandler serves liveness and readiness probes. Readiness needs a
// reachable database; the sync service is optional and only reported.
type HealthHandler struct {
	DB   *gorm.DB
	Sync *service.PoolSyncService
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.live)
	r.GET("/readyz", h.ready)
}

// @Summary Liveness probe
// @Tags health
// @Success 200 {object} map[string]any
// @Router /healthz [get]
func (h *HealthHandler) live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

// @Summary Readiness probe
// @Tags health
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /readyz [get]
func (h *HealthHandler) ready(c *gin.Context) {
	status, ok := h.pingDB(c.Request.Context())
	body := gin.H{"status": status, "sync_running": h.Sync.Running()}
	if !ok {
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *HealthHandler) pingDB(ctx context.Context) (string, bool) {
	if h.DB == nil {
		return "db_missing", false
	}
	sqlDB, err := h.DB.DB()
	if err != nil {
		return "db_error", false
	}
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return "db_unreachable", false
	}
	return "ready", true
}
