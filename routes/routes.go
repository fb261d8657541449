// Package routes wires the HTTP surface of the commission service.
//
//   - api.go: /v1 API and health checks
//   - web.go: / and /docs
//   - routes.go: SetupAllRoutes and shared middleware
package routes

import (
	"net/http"
	"time"

	"github.com/commission-finder/app/controllers"
	"github.com/commission-finder/app/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options configures the shared middleware.
type Options struct {
	// CORSOrigins lists allowed origins; empty allows all.
	CORSOrigins []string
	RateLimiter *middleware.RateLimiter
	Logger      *zap.Logger
}

// SetupAllRoutes installs middleware and every route.
func SetupAllRoutes(router *gin.Engine, commissionController *controllers.CommissionController, calculatorController *controllers.CalculatorController, adminController *controllers.AdminController, opts Options) {
	setupMiddleware(router, opts)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, commissionController)
	SetupAPIRoutes(router, commissionController, calculatorController, adminController, opts.RateLimiter)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "ROUTE_NOT_FOUND",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}

func setupMiddleware(router *gin.Engine, opts Options) {
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	if opts.Logger != nil {
		router.Use(middleware.Logger(opts.Logger))
	}

	corsCfg := cors.DefaultConfig()
	if len(opts.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = opts.CORSOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader}
	corsCfg.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsCfg))
}
