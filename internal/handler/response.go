package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"poolfinder/internal/service"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// errorStatus picks the HTTP status for a service error.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSyncRunning):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnsupportedSource):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
