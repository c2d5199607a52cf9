package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"poolfinder/internal/metrics"
	"poolfinder/internal/service"
)

// SyncHandler exposes the sync controls. Both routes sit behind a bearer
// token; /metrics stays open.
type SyncHandler struct {
	Service      *service.PoolSyncService
	Query        *service.DirectoryQueryService
	Defaults     service.SyncOptions
	Metrics      *metrics.SyncMetrics
	Logger       *zap.Logger
	Token        string
	AuthDisabled bool
}

func (h *SyncHandler) Register(r *gin.Engine) {
	group := r.Group("/api/sync", RequireBearer(h.Token, h.AuthDisabled))
	group.POST("", h.runSync)
	group.GET("/state", h.listSyncState)
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}
}

// @Summary Run pool sync
// @Tags sync
// @Param source query string false "national_facility|local_data|all"
// @Param natural_key query string false "slug|source_id"
// @Param max_pages query int false "page budget per resource"
// @Param skip_details query bool false "skip the facility detail join"
// @Security BearerAuth
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Failure 401 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Failure 502 {object} apiResponse
// @Router /api/sync [post]
func (h *SyncHandler) runSync(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	opts := h.Defaults
	if source := strings.TrimSpace(c.Query("source")); source != "" {
		opts.Source = source
	}
	if raw := c.Query("natural_key"); raw != "" {
		key, err := service.ParseNaturalKey(raw)
		if err != nil {
			Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		opts.NaturalKey = key
	}
	opts.MaxPages = intQuery(c, "max_pages", opts.MaxPages)
	opts.SkipDetails = boolQueryDefault(c, "skip_details", opts.SkipDetails)

	result, err := h.Service.Sync(c.Request.Context(), opts)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("pool sync failed", zap.String("source", opts.Source), zap.Error(err))
		}
		status := errorStatus(err)
		if status >= http.StatusInternalServerError {
			Error(c, http.StatusBadGateway, "pool sync failed", nil)
			return
		}
		Error(c, status, err.Error(), nil)
		return
	}
	h.Query.InvalidateCounts()
	Ok(c, result, nil)
}

// @Summary List sync states
// @Tags sync
// @Security BearerAuth
// @Success 200 {object} apiResponse
// @Failure 401 {object} apiResponse
// @Router /api/sync/state [get]
func (h *SyncHandler) listSyncState(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	states, err := h.Service.States(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list sync state failed", zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	Ok(c, states, map[string]any{"running": h.Service.Running()})
}
