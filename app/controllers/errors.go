package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/commission-finder/app/middleware"
	"github.com/commission-finder/app/responses"
	"github.com/commission-finder/app/services"
	"github.com/commission-finder/internal/commission"
	"github.com/commission-finder/internal/search"
	"github.com/gin-gonic/gin"
)

// errorStatus maps domain errors to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, commission.ErrUnknownMarketplace):
		return http.StatusNotFound, "UNKNOWN_MARKETPLACE"
	case errors.Is(err, services.ErrRateNotFound):
		return http.StatusNotFound, "RATE_NOT_FOUND"
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, commission.ErrSchemaMismatch):
		return http.StatusUnprocessableEntity, "SCHEMA_MISMATCH"
	case errors.Is(err, commission.ErrEmptyDataset):
		return http.StatusUnprocessableEntity, "EMPTY_DATASET"
	case errors.Is(err, commission.ErrLoad):
		return http.StatusBadGateway, "LOAD_ERROR"
	case errors.Is(err, search.ErrMirrorDisabled):
		return http.StatusServiceUnavailable, "FUZZY_SEARCH_DISABLED"
	case errors.Is(err, services.ErrWatcherDisabled):
		return http.StatusServiceUnavailable, "WATCHER_DISABLED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func respondError(c *gin.Context, err error, details interface{}) {
	status, code := errorStatus(err)
	c.JSON(status, responses.ErrorResponse{
		Error:     code,
		Message:   err.Error(),
		Details:   details,
		Timestamp: time.Now().Format(time.RFC3339),
		RequestID: c.GetString(middleware.RequestIDKey),
	})
}

func respondInvalid(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, responses.ErrorResponse{
		Error:     "INVALID_REQUEST",
		Message:   "Invalid request: " + err.Error(),
		Timestamp: time.Now().Format(time.RFC3339),
		RequestID: c.GetString(middleware.RequestIDKey),
	})
}
