package controllers

import (
	"net/http"
	"time"

	"github.com/commission-finder/app/models"
	"github.com/commission-finder/app/requests"
	"github.com/commission-finder/app/responses"
	"github.com/commission-finder/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminController serves reloads, history and cache maintenance.
type AdminController struct {
	adminService *services.AdminService
	logger       *zap.Logger
}

func NewAdminController(adminService *services.AdminService, logger *zap.Logger) *AdminController {
	return &AdminController{
		adminService: adminService,
		logger:       logger,
	}
}

// Reload reloads one marketplace or all of them. A failed single reload
// answers with its error code and the report as details.
func (ac *AdminController) Reload(c *gin.Context) {
	var req requests.ReloadRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	if req.Async {
		if err := ac.adminService.TriggerReload(req.Marketplace); err != nil {
			respondError(c, err, nil)
			return
		}
		c.JSON(http.StatusAccepted, responses.SuccessResponse{
			Success:   true,
			Message:   "Reload scheduled",
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}

	startTime := time.Now()
	resp, err := ac.adminService.Reload(c.Request.Context(), req, models.TriggerAPI)
	if err != nil {
		ac.logger.Warn("Reload failed",
			zap.String("marketplace", req.Marketplace),
			zap.Error(err))
		respondError(c, err, resp)
		return
	}

	ac.logger.Info("Reload finished",
		zap.String("reload_id", resp.ReloadID),
		zap.String("marketplace", req.Marketplace),
		zap.Int("failed", resp.Failed),
		zap.Duration("duration", time.Since(startTime)))
	c.JSON(http.StatusOK, resp)
}

// ReloadStatus reports the watcher states, or one of them with ?marketplace=.
func (ac *AdminController) ReloadStatus(c *gin.Context) {
	var req requests.ReloadStatusRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	status, err := ac.adminService.ReloadStatus(req.Marketplace)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ReloadHistory lists persisted reload attempts, newest first.
func (ac *AdminController) ReloadHistory(c *gin.Context) {
	var req requests.HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	entries, err := ac.adminService.History(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, responses.ReloadHistoryResponse{Entries: entries, Total: len(entries)})
}

// InvalidateCache drops cached searches of ?marketplace=, or all of them.
// ?q= narrows it to a single search.
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	var req requests.InvalidateCacheRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	if err := ac.adminService.InvalidateCache(c.Request.Context(), req); err != nil {
		respondError(c, err, nil)
		return
	}

	message := "Search cache cleared"
	switch {
	case req.Q != "":
		message = "Search cache invalidated for " + req.Marketplace + " query " + req.Q
	case req.Marketplace != "":
		message = "Search cache invalidated for " + req.Marketplace
	}
	ac.logger.Info(message)
	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   message,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetSystemStats(c.Request.Context())
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, stats)
}
