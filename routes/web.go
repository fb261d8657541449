package routes

import (
	"net/http"

	"github.com/commission-finder/app/controllers"
	"github.com/gin-gonic/gin"
)

// SetupWebRoutes registers the landing and docs pages.
func SetupWebRoutes(router *gin.Engine) {
	web := router.Group("/")
	{
		web.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "Marketplace Commission Service",
				"version": controllers.Version,
				"docs":    "/docs",
			})
		})

		web.GET("/docs", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"api": "Marketplace Commission API v1",
				"endpoints": map[string]string{
					"marketplaces":   "GET /v1/marketplaces",
					"search":         "GET /v1/marketplaces/:id/search?q=",
					"fuzzy_search":   "GET /v1/marketplaces/:id/search/fuzzy?q=&limit=",
					"categories":     "GET /v1/marketplaces/:id/categories",
					"subcategories":  "GET /v1/marketplaces/:id/subcategories?category=",
					"product_groups": "GET /v1/marketplaces/:id/product-groups?category=&subCategory=",
					"rate":           "GET /v1/marketplaces/:id/rate?category=&subCategory=&productGroup=",
					"calculate":      "POST /v1/calculate/:id",
					"kdv":            "POST /v1/calc/kdv",
					"desi":           "POST /v1/calc/desi",
					"carriers":       "GET /v1/calc/carriers",
					"reload":         "POST /v1/admin/reload?marketplace=&force=",
					"reload_status":  "GET /v1/admin/reload/status",
					"reload_history": "GET /v1/admin/reload/history?marketplace=&limit=",
					"cache":          "POST /v1/admin/cache/invalidate?marketplace=",
					"stats":          "GET /v1/admin/stats",
					"health":         "GET /health",
				},
			})
		})
	}
}
