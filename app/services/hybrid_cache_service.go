package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/commission-finder/app/models"
	"go.uber.org/zap"
)

// HybridCacheService layers a fast local cache (L1) over a shared one (L2).
// L2 failures degrade to L1 only; they are logged, not returned, on reads.
type HybridCacheService struct {
	l1     ICacheService
	l2     ICacheService
	logger *zap.Logger
}

// NewHybridCacheService combines l1 and l2.
func NewHybridCacheService(l1, l2 ICacheService, logger *zap.Logger) *HybridCacheService {
	return &HybridCacheService{l1: l1, l2: l2, logger: logger}
}

func (hcs *HybridCacheService) Get(ctx context.Context, key string) (*models.SearchCacheEntry, bool, error) {
	entry, found, err := hcs.l1.Get(ctx, key)
	if err == nil && found {
		return entry, true, nil
	}

	entry, found, err = hcs.l2.Get(ctx, key)
	if err != nil {
		hcs.logger.Warn("L2 cache read failed", zap.Error(err), zap.String("key", key))
		return nil, false, nil
	}
	if !found {
		return nil, false, nil
	}

	// Promote to L1.
	if err := hcs.l1.Set(ctx, key, entry); err != nil {
		hcs.logger.Debug("L1 promote failed", zap.Error(err))
	}
	return entry, true, nil
}

func (hcs *HybridCacheService) Set(ctx context.Context, key string, entry *models.SearchCacheEntry) error {
	return hcs.both(func(c ICacheService) error { return c.Set(ctx, key, entry) }, "set")
}

func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	return hcs.both(func(c ICacheService) error { return c.Delete(ctx, key) }, "delete")
}

func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	if err := hcs.both(func(c ICacheService) error { return c.Clear(ctx) }, "clear"); err != nil {
		return err
	}
	hcs.logger.Info("Cleared hybrid cache")
	return nil
}

func (hcs *HybridCacheService) InvalidateMarketplace(ctx context.Context, marketplace string) error {
	return hcs.both(func(c ICacheService) error { return c.InvalidateMarketplace(ctx, marketplace) }, "invalidate")
}

// both runs op on the two layers in parallel and joins their errors.
func (hcs *HybridCacheService) both(op func(ICacheService) error, name string) error {
	errCh := make(chan error, 2)
	for _, layer := range []ICacheService{hcs.l1, hcs.l2} {
		go func(c ICacheService) {
			errCh <- op(c)
		}(layer)
	}

	var errs []error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			hcs.logger.Warn("Cache operation failed", zap.String("op", name), zap.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("cache %s: %w", name, errors.Join(errs...))
	}
	return nil
}

func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	s1, err1 := hcs.l1.GetStats(ctx)
	s2, err2 := hcs.l2.GetStats(ctx)

	switch {
	case err1 != nil && err2 != nil:
		return nil, fmt.Errorf("both cache layers failed: %w", errors.Join(err1, err2))
	case err2 != nil:
		return s1, nil
	case err1 != nil:
		return s2, nil
	}

	hits := s1.TotalHits + s2.TotalHits
	// An L1 miss answered by L2 is not a miss of the whole cache.
	misses := s2.TotalMiss
	return &CacheStats{
		Layer:      "hybrid",
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: s2.TotalItems,
	}, nil
}

// GetTTL prefers the L2 lifetime; L1 answers when Redis is down.
func (hcs *HybridCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := hcs.l2.GetTTL(ctx, key)
	if err != nil {
		return hcs.l1.GetTTL(ctx, key)
	}
	return ttl, nil
}

func (hcs *HybridCacheService) Close() error {
	return hcs.both(func(c ICacheService) error { return c.Close() }, "close")
}
