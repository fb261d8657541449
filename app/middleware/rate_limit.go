package middleware

import (
	"net/http"
	"time"

	"github.com/commission-finder/app/responses"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitConfig sets the per-client token bucket. Idle clients are
// forgotten after IdleTTL.
type RateLimitConfig struct {
	RPS     float64
	Burst   int
	IdleTTL time.Duration
}

// RateLimiter keeps one limiter per client IP.
type RateLimiter struct {
	limiters *cache.Cache
	limit    rate.Limit
	burst    int
	logger   *zap.Logger
}

func NewRateLimiter(config RateLimitConfig, logger *zap.Logger) *RateLimiter {
	if config.RPS <= 0 {
		config.RPS = 20
	}
	if config.Burst <= 0 {
		config.Burst = 40
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	return &RateLimiter{
		limiters: cache.New(config.IdleTTL, 2*config.IdleTTL),
		limit:    rate.Limit(config.RPS),
		burst:    config.Burst,
		logger:   logger,
	}
}

func (rl *RateLimiter) limiter(client string) *rate.Limiter {
	if l, ok := rl.limiters.Get(client); ok {
		// Touch to extend the idle window.
		rl.limiters.SetDefault(client, l)
		return l.(*rate.Limiter)
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	if err := rl.limiters.Add(client, l, cache.DefaultExpiration); err != nil {
		// Another request created it first.
		if existing, ok := rl.limiters.Get(client); ok {
			return existing.(*rate.Limiter)
		}
	}
	return l
}

// Handler rejects requests over the limit with 429 RATE_LIMITED.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter(c.ClientIP()).Allow() {
			rl.logger.Warn("Rate limit exceeded",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("client", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, responses.ErrorResponse{
				Error:     "RATE_LIMITED",
				Message:   "Too many requests, slow down",
				Timestamp: time.Now().Format(time.RFC3339),
				RequestID: c.GetString(RequestIDKey),
			})
			return
		}
		c.Next()
	}
}

// Clients returns the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	return rl.limiters.ItemCount()
}
