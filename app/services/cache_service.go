package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/commission-finder/app/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUCacheService is the in-process search cache: a bounded LRU whose entries
// also expire after ttl.
type LRUCacheService struct {
	cache *expirable.LRU[string, *models.SearchCacheEntry]
	ttl   time.Duration

	mu     sync.Mutex
	stored map[string]time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// NewLRUCacheService creates a cache holding at most size entries.
func NewLRUCacheService(size int, ttl time.Duration) (*LRUCacheService, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid L1 cache size %d", size)
	}
	cs := &LRUCacheService{ttl: ttl, stored: make(map[string]time.Time)}
	cs.cache = expirable.NewLRU[string, *models.SearchCacheEntry](size, cs.onEvict, ttl)
	return cs, nil
}

func (cs *LRUCacheService) onEvict(key string, _ *models.SearchCacheEntry) {
	cs.mu.Lock()
	delete(cs.stored, key)
	cs.mu.Unlock()
}

func (cs *LRUCacheService) Get(ctx context.Context, key string) (*models.SearchCacheEntry, bool, error) {
	entry, ok := cs.cache.Get(key)
	if !ok {
		cs.misses.Add(1)
		return nil, false, nil
	}
	cs.hits.Add(1)
	return entry, true, nil
}

func (cs *LRUCacheService) Set(ctx context.Context, key string, entry *models.SearchCacheEntry) error {
	cs.mu.Lock()
	cs.stored[key] = time.Now()
	cs.mu.Unlock()
	cs.cache.Add(key, entry)
	return nil
}

func (cs *LRUCacheService) Delete(ctx context.Context, key string) error {
	cs.cache.Remove(key)
	return nil
}

func (cs *LRUCacheService) Clear(ctx context.Context) error {
	cs.cache.Purge()
	return nil
}

func (cs *LRUCacheService) InvalidateMarketplace(ctx context.Context, marketplace string) error {
	prefix := models.SearchCachePrefix(marketplace)
	for _, key := range cs.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			cs.cache.Remove(key)
		}
	}
	return nil
}

func (cs *LRUCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	hits, misses := cs.hits.Load(), cs.misses.Load()
	return &CacheStats{
		Layer:      "lru",
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: int64(cs.cache.Len()),
	}, nil
}

func (cs *LRUCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	if !cs.cache.Contains(key) || cs.ttl <= 0 {
		return 0, nil
	}
	cs.mu.Lock()
	at, ok := cs.stored[key]
	cs.mu.Unlock()
	if !ok {
		return 0, nil
	}
	if remaining := cs.ttl - time.Since(at); remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

// Size returns the number of live entries.
func (cs *LRUCacheService) Size() int {
	return cs.cache.Len()
}

func (cs *LRUCacheService) Close() error {
	return nil
}
