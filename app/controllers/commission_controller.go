package controllers

import (
	"net/http"
	"time"

	"github.com/commission-finder/app/models"
	"github.com/commission-finder/app/requests"
	"github.com/commission-finder/app/responses"
	"github.com/commission-finder/app/services"
	"github.com/commission-finder/internal/commission"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version is reported by the health endpoints.
const Version = "1.0.0"

// CommissionController serves the marketplace lookups.
type CommissionController struct {
	commissionService *services.CommissionService
	cacheService      services.ICacheService
	logger            *zap.Logger
}

func NewCommissionController(commissionService *services.CommissionService, cacheService services.ICacheService, logger *zap.Logger) *CommissionController {
	return &CommissionController{
		commissionService: commissionService,
		cacheService:      cacheService,
		logger:            logger,
	}
}

// ListMarketplaces lists the registry with generation details.
func (cc *CommissionController) ListMarketplaces(c *gin.Context) {
	markets := cc.commissionService.Marketplaces()
	c.JSON(http.StatusOK, responses.MarketplacesResponse{
		Marketplaces: markets,
		Total:        len(markets),
	})
}

// Search answers a taxonomy search, from cache when the current generation
// has already seen the query.
func (cc *CommissionController) Search(c *gin.Context) {
	var req requests.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	id := c.Param("id")
	startTime := time.Now()
	ctx := c.Request.Context()

	key, cacheable, err := cc.commissionService.CacheKey(id, req.Q)
	if err != nil {
		respondError(c, err, nil)
		return
	}

	if cacheable {
		if cached, found, err := cc.cacheService.Get(ctx, key); err == nil && found {
			resp := searchResponse(req, cached, true, startTime)
			if ttl, err := cc.cacheService.GetTTL(ctx, key); err == nil {
				resp.CacheTTLSeconds = int64(ttl.Seconds())
			}
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	entry, err := cc.commissionService.Search(id, req)
	if err != nil {
		respondError(c, err, nil)
		return
	}

	if entry.Checksum != "" && entry.Query != "" {
		key = models.SearchCacheKey(entry.Marketplace, entry.Checksum, entry.Query)
		if err := cc.cacheService.Set(ctx, key, entry); err != nil {
			cc.logger.Warn("Cannot cache search", zap.String("marketplace", id), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, searchResponse(req, entry, false, startTime))
}

func searchResponse(req requests.SearchRequest, entry *models.SearchCacheEntry, hit bool, startTime time.Time) responses.SearchResponse {
	results := entry.Results
	if req.Limit > 0 && len(results) > req.Limit {
		results = results[:req.Limit]
	}
	return responses.SearchResponse{
		Marketplace:      entry.Marketplace,
		Query:            req.Q,
		Mode:             commission.Mode(entry.Mode),
		Generation:       entry.Generation,
		Results:          results,
		Total:            len(entry.Results),
		Suggestions:      entry.Suggestions,
		CacheHit:         hit,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
	}
}

// FuzzySearch runs a typo-tolerant query through the search mirror.
func (cc *CommissionController) FuzzySearch(c *gin.Context) {
	var req requests.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	id := c.Param("id")
	startTime := time.Now()

	results, err := cc.commissionService.FuzzySearch(id, req)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, responses.SearchResponse{
		Marketplace:      id,
		Query:            req.Q,
		Results:          results,
		Total:            len(results),
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
	})
}

func (cc *CommissionController) Categories(c *gin.Context) {
	id := c.Param("id")
	items, err := cc.commissionService.Categories(id)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, responses.ListResponse{Marketplace: id, Items: items, Total: len(items)})
}

func (cc *CommissionController) SubCategories(c *gin.Context) {
	var req requests.SubCategoriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	id := c.Param("id")
	items, err := cc.commissionService.SubCategories(id, req)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, responses.ListResponse{Marketplace: id, Items: items, Total: len(items)})
}

func (cc *CommissionController) ProductGroups(c *gin.Context) {
	var req requests.ProductGroupsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	id := c.Param("id")
	items, err := cc.commissionService.ProductGroups(id, req)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, responses.ListResponse{Marketplace: id, Items: items, Total: len(items)})
}

// Rate returns the resolved commission of one exact leaf.
func (cc *CommissionController) Rate(c *gin.Context) {
	var req requests.RateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	id := c.Param("id")
	rec, err := cc.commissionService.Rate(id, req)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, responses.RateResponse{
		Marketplace: id,
		Record:      rec,
		Display:     rec.DisplayCommission(),
	})
}

// HealthCheck reports liveness and what is loaded.
func (cc *CommissionController) HealthCheck(c *gin.Context) {
	uptime := time.Since(cc.commissionService.GetStartTime())

	components := map[string]string{}
	for _, m := range cc.commissionService.Marketplaces() {
		if m.Loaded {
			components[m.ID] = "loaded"
		} else {
			components[m.ID] = "empty"
		}
	}
	if _, err := cc.cacheService.GetStats(c.Request.Context()); err != nil {
		components["cache"] = "degraded"
	} else {
		components["cache"] = "healthy"
	}

	c.JSON(http.StatusOK, responses.HealthCheckResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    uptime.String(),
		Version:   Version,
		Services:  components,
	})
}

// Ready succeeds once at least one marketplace is loaded.
func (cc *CommissionController) Ready(c *gin.Context) {
	if !cc.commissionService.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (cc *CommissionController) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
