package routes

import (
	"github.com/commission-finder/app/controllers"
	"github.com/commission-finder/app/middleware"
	"github.com/gin-gonic/gin"
)

// SetupAPIRoutes registers the /v1 API. limiter may be nil.
func SetupAPIRoutes(router *gin.Engine, commissionController *controllers.CommissionController, calculatorController *controllers.CalculatorController, adminController *controllers.AdminController, limiter *middleware.RateLimiter) {
	v1 := router.Group("/v1")
	if limiter != nil {
		v1.Use(limiter.Handler())
	}
	{
		v1.GET("/marketplaces", commissionController.ListMarketplaces)

		marketplace := v1.Group("/marketplaces/:id")
		{
			marketplace.GET("/search", commissionController.Search)
			marketplace.GET("/search/fuzzy", commissionController.FuzzySearch)
			marketplace.GET("/categories", commissionController.Categories)
			marketplace.GET("/subcategories", commissionController.SubCategories)
			marketplace.GET("/product-groups", commissionController.ProductGroups)
			marketplace.GET("/rate", commissionController.Rate)
		}

		v1.POST("/calculate/:id", calculatorController.CalculateCommission)

		calc := v1.Group("/calc")
		{
			calc.POST("/kdv", calculatorController.CalculateKDV)
			calc.POST("/desi", calculatorController.CalculateDesi)
			calc.GET("/carriers", calculatorController.Carriers)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/reload", adminController.Reload)
			admin.GET("/reload/status", adminController.ReloadStatus)
			admin.GET("/reload/history", adminController.ReloadHistory)
			admin.POST("/cache/invalidate", adminController.InvalidateCache)
			admin.GET("/stats", adminController.GetStats)
		}

		v1.GET("/health", commissionController.HealthCheck)
	}
}

// SetupHealthRoutes registers the health checks outside the rate limit.
func SetupHealthRoutes(router *gin.Engine, commissionController *controllers.CommissionController) {
	router.GET("/health", commissionController.HealthCheck)
	router.GET("/ready", commissionController.Ready)
	router.GET("/live", commissionController.Live)
}
