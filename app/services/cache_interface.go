package services

import (
	"context"
	"time"

	"github.com/commission-finder/app/models"
)

// CacheStats summarizes one cache layer.
type CacheStats struct {
	Layer      string  `json:"layer"`
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ICacheService caches search answers.
type ICacheService interface {
	Get(ctx context.Context, key string) (*models.SearchCacheEntry, bool, error)

	Set(ctx context.Context, key string, entry *models.SearchCacheEntry) error

	Delete(ctx context.Context, key string) error

	Clear(ctx context.Context) error

	// InvalidateMarketplace drops every entry of one marketplace.
	InvalidateMarketplace(ctx context.Context, marketplace string) error

	GetStats(ctx context.Context) (*CacheStats, error)

	// GetTTL returns the remaining lifetime of key, zero when unknown.
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	Close() error
}

func hitRate(hits, misses int64) float64 {
	if total := hits + misses; total > 0 {
		return float64(hits) / float64(total)
	}
	return 0
}
