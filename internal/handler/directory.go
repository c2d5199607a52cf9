package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"poolfinder/internal/repository"
	"poolfinder/internal/service"
)

type DirectoryHandler struct {
	Query  *service.DirectoryQueryService
	Logger *zap.Logger
}

func (h *DirectoryHandler) Register(r *gin.Engine) {
	group := r.Group("/api")
	group.GET("/regions", h.listRegions)
	group.GET("/regions/:sido", h.getSido)
	group.GET("/regions/:sido/:sigungu", h.getSigungu)
	group.GET("/pools", h.listPools)
	group.GET("/pools/:slug", h.getPool)
	group.GET("/search", h.search)
	group.GET("/popular", h.listPopular)
	group.GET("/free-swim", h.listFreeSwim)
}

func (h *DirectoryHandler) ready(c *gin.Context) bool {
	if h.Query == nil || h.Query.Repo == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return false
	}
	return true
}

func (h *DirectoryHandler) fail(c *gin.Context, op string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		if h.Logger != nil {
			h.Logger.Warn("directory query failed", zap.String("op", op), zap.Error(err))
		}
		Error(c, status, "internal error", nil)
		return
	}
	Error(c, status, err.Error(), nil)
}

// @Summary Pool counts per sido
// @Tags directory
// @Success 200 {object} apiResponse
// @Router /api/regions [get]
func (h *DirectoryHandler) listRegions(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	idx, err := h.Query.Regions(c.Request.Context())
	if err != nil {
		h.fail(c, "regions", err)
		return
	}
	Ok(c, idx, nil)
}

// @Summary Pools of a sido with sigungu counts
// @Tags directory
// @Param sido path string true "sido slug"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/regions/{sido} [get]
func (h *DirectoryHandler) getSido(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	limit := intQuery(c, "limit", 500)
	offset := intQuery(c, "offset", 0)
	page, err := h.Query.SidoPage(c.Request.Context(), c.Param("sido"), limit, offset)
	if err != nil {
		h.fail(c, "sido", err)
		return
	}
	Ok(c, page, paginationMeta(limit, offset, page.Total))
}

// @Summary Pools of a sigungu
// @Tags directory
// @Param sido path string true "sido slug"
// @Param sigungu path string true "sigungu slug"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/regions/{sido}/{sigungu} [get]
func (h *DirectoryHandler) getSigungu(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	page, err := h.Query.SigunguPage(c.Request.Context(), c.Param("sido"), c.Param("sigungu"))
	if err != nil {
		h.fail(c, "sigungu", err)
		return
	}
	Ok(c, page, nil)
}

// @Summary List pools
// @Description Without filters returns the 24 most recently updated operating pools.
// @Tags directory
// @Param sido query string false "sido slug"
// @Param sigungu query string false "sigungu slug"
// @Param include_closed query bool false "include pools no longer operating"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Param order_by query string false "updated|name|created"
// @Param ascending query bool false "ascending"
// @Success 200 {object} apiResponse
// @Router /api/pools [get]
func (h *DirectoryHandler) listPools(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	sido := strQueryPtr(c, "sido")
	sigungu := strQueryPtr(c, "sigungu")
	offset := intQuery(c, "offset", 0)
	orderBy := parseOrder(c.Query("order_by"), map[string]string{
		"updated": "updated_at",
		"name":    "name",
		"created": "created_at",
	})
	if sido == nil && sigungu == nil && offset == 0 && orderBy == "" && c.Query("include_closed") == "" {
		items, err := h.Query.RecentPools(c.Request.Context(), intQuery(c, "limit", 24))
		if err != nil {
			h.fail(c, "recent", err)
			return
		}
		Ok(c, items, nil)
		return
	}

	params := repository.ListPoolsParams{
		Limit:         intQuery(c, "limit", 50),
		Offset:        offset,
		SidoSlug:      sido,
		SigunguSlug:   sigungu,
		OperatingOnly: !boolQueryDefault(c, "include_closed", false),
		OrderBy:       orderBy,
		Asc:           boolQueryPtr(c, "ascending"),
	}
	result, err := h.Query.ListPools(c.Request.Context(), params)
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	Ok(c, result.Items, paginationMeta(params.Limit, params.Offset, result.Total))
}

// @Summary Pool detail
// @Description Schedules, prices, latest reviews, map tiles, map links and nearby pools.
// @Tags directory
// @Param slug path string true "pool slug"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/pools/{slug} [get]
func (h *DirectoryHandler) getPool(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	detail, err := h.Query.PoolDetail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, "detail", err)
		return
	}
	Ok(c, detail, nil)
}

// @Summary Search pools by name, then address
// @Tags directory
// @Param q query string true "query"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Router /api/search [get]
func (h *DirectoryHandler) search(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		Error(c, http.StatusBadRequest, "q is required", nil)
		return
	}
	res, err := h.Query.Search(c.Request.Context(), q)
	if err != nil {
		h.fail(c, "search", err)
		return
	}
	Ok(c, res, map[string]any{"total": len(res.Items)})
}

// @Summary Popular pools by review count
// @Tags directory
// @Param limit query int false "limit"
// @Success 200 {object} apiResponse
// @Router /api/popular [get]
func (h *DirectoryHandler) listPopular(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	items, err := h.Query.PopularPools(c.Request.Context(), intQuery(c, "limit", 8))
	if err != nil {
		h.fail(c, "popular", err)
		return
	}
	Ok(c, items, nil)
}

// @Summary Pools with free-swim sessions
// @Tags directory
// @Param sido query string false "sido slug"
// @Param limit query int false "limit"
// @Success 200 {object} apiResponse
// @Router /api/free-swim [get]
func (h *DirectoryHandler) listFreeSwim(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	items, err := h.Query.FreeSwimPools(c.Request.Context(), strQueryPtr(c, "sido"), intQuery(c, "limit", 100))
	if err != nil {
		h.fail(c, "free_swim", err)
		return
	}
	Ok(c, items, nil)
}
