package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/commission-finder/app/models"
	"github.com/commission-finder/app/requests"
	"github.com/commission-finder/app/responses"
	"github.com/commission-finder/helpers/utils"
	"github.com/commission-finder/internal/commission"
	"github.com/commission-finder/internal/normalizer"
	"github.com/commission-finder/internal/reload"
	"go.uber.org/zap"
)

// ErrWatcherDisabled is returned for background reloads when no watcher runs.
var ErrWatcherDisabled = errors.New("reload watcher disabled")

// AdminService runs reloads and keeps their history.
type AdminService struct {
	registry  *commission.Registry
	history   IHistoryService
	cache     ICacheService
	watcher   *reload.Watcher
	startTime time.Time
	logger    *zap.Logger
}

func NewAdminService(registry *commission.Registry, history IHistoryService, cache ICacheService, logger *zap.Logger) *AdminService {
	return &AdminService{
		registry:  registry,
		history:   history,
		cache:     cache,
		startTime: time.Now(),
		logger:    logger,
	}
}

// AttachWatcher exposes the watcher states through ReloadStatus.
func (as *AdminService) AttachWatcher(w *reload.Watcher) {
	as.watcher = w
}

// Reload reloads one marketplace, or all of them when req.Marketplace is
// empty. The response is filled even when err is set so callers can show
// the failed report. A partial failure of a full reload is not an error.
func (as *AdminService) Reload(ctx context.Context, req requests.ReloadRequest, trigger string) (*responses.ReloadResponse, error) {
	resp := &responses.ReloadResponse{ReloadID: utils.GenerateUUID()}

	if req.Marketplace != "" {
		report, err := as.registry.Reload(ctx, req.Marketplace, req.Force)
		if report == nil {
			return nil, err
		}
		resp.Reports = []*commission.ReloadReport{report}
		if err != nil {
			resp.Failed = 1
		}
		as.record(ctx, resp.ReloadID, trigger, report)
		return resp, err
	}

	reports, err := as.registry.ReloadAll(ctx, req.Force)
	resp.Reports = reports
	for _, r := range reports {
		if r == nil {
			continue
		}
		if r.Error != "" {
			resp.Failed++
		}
		as.record(ctx, resp.ReloadID, trigger, r)
	}
	if err != nil {
		as.logger.Warn("Reload finished with failures",
			zap.String("reload_id", resp.ReloadID),
			zap.Int("failed", resp.Failed),
			zap.Error(err))
	}
	return resp, nil
}

// TriggerReload hands the reload of marketplace, or of all of them, to the
// watcher and returns without waiting. Triggers coalesce with checks already
// pending.
func (as *AdminService) TriggerReload(marketplace string) error {
	if as.watcher == nil {
		return ErrWatcherDisabled
	}
	if marketplace == "" {
		as.watcher.TriggerAll()
		return nil
	}
	return as.watcher.Trigger(marketplace)
}

// RecordReport stores a report produced outside Reload, such as a watcher
// check. Unchanged successful checks are not worth a history entry.
func (as *AdminService) RecordReport(trigger string, report *commission.ReloadReport, err error) {
	if report == nil || (!report.Changed && err == nil) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	as.record(ctx, utils.GenerateUUID(), trigger, report)
}

func (as *AdminService) record(ctx context.Context, reloadID, trigger string, report *commission.ReloadReport) {
	if as.history == nil {
		return
	}
	if err := as.history.Record(ctx, models.NewReloadHistory(reloadID, trigger, report)); err != nil {
		as.logger.Warn("Cannot record reload history",
			zap.String("marketplace", report.Marketplace),
			zap.Error(err))
	}
}

// CacheHook drops cached searches of a marketplace once a new generation is
// published.
func (as *AdminService) CacheHook() commission.PublishHook {
	return func(id string, gen *commission.Generation) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := as.cache.InvalidateMarketplace(ctx, id); err != nil {
				as.logger.Warn("Cannot invalidate search cache",
					zap.String("marketplace", id),
					zap.Uint64("generation", gen.Number),
					zap.Error(err))
			}
		}()
	}
}

// InvalidateCache drops the cached searches of marketplace, or all of them.
// With a query only that search of the current generation is dropped.
func (as *AdminService) InvalidateCache(ctx context.Context, req requests.InvalidateCacheRequest) error {
	if req.Marketplace == "" {
		if req.Q != "" {
			return fmt.Errorf("%w: q needs a marketplace", ErrInvalidInput)
		}
		return as.cache.Clear(ctx)
	}
	gen, err := as.registry.Current(req.Marketplace)
	if err != nil {
		return err
	}
	if req.Q == "" {
		return as.cache.InvalidateMarketplace(ctx, req.Marketplace)
	}
	q := normalizer.Normalize(req.Q)
	if gen == nil || q == "" {
		return nil
	}
	return as.cache.Delete(ctx, models.SearchCacheKey(req.Marketplace, gen.Signature.Checksum, q))
}

// History lists persisted reload attempts, newest first.
func (as *AdminService) History(ctx context.Context, req requests.HistoryRequest) ([]models.ReloadHistory, error) {
	if req.Marketplace != "" {
		if _, err := as.registry.Profile(req.Marketplace); err != nil {
			return nil, err
		}
	}
	if as.history == nil {
		return []models.ReloadHistory{}, nil
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	return as.history.List(ctx, req.Marketplace, limit)
}

// ReloadStatus lists the watcher states, or the state of one marketplace.
func (as *AdminService) ReloadStatus(marketplace string) (responses.ReloadStatusResponse, error) {
	if marketplace != "" {
		if _, err := as.registry.Profile(marketplace); err != nil {
			return responses.ReloadStatusResponse{}, err
		}
	}
	if as.watcher == nil {
		return responses.ReloadStatusResponse{Statuses: []reload.Status{}}, nil
	}
	if marketplace == "" {
		return responses.ReloadStatusResponse{Enabled: true, Statuses: as.watcher.Statuses()}, nil
	}
	st, err := as.watcher.StatusOf(marketplace)
	if err != nil {
		return responses.ReloadStatusResponse{}, err
	}
	return responses.ReloadStatusResponse{Enabled: true, Statuses: []reload.Status{st}}, nil
}

// GetSystemStats combines cache, registry and memory figures.
func (as *AdminService) GetSystemStats(ctx context.Context) (*responses.AdminStatsResponse, error) {
	var cacheStats interface{}
	stats, err := as.cache.GetStats(ctx)
	switch {
	case err == nil:
		cacheStats = stats
	case errors.Is(err, context.Canceled):
		return nil, err
	default:
		as.logger.Warn("Cannot read cache stats", zap.Error(err))
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &responses.AdminStatsResponse{
		Cache:         cacheStats,
		Marketplaces:  as.registry.ListMarketplaces(),
		UptimeSeconds: int64(time.Since(as.startTime).Seconds()),
		LastUpdated:   time.Now().Format(time.RFC3339),
		MemoryUsage: map[string]interface{}{
			"alloc_mb":       bToMb(m.Alloc),
			"total_alloc_mb": bToMb(m.TotalAlloc),
			"sys_mb":         bToMb(m.Sys),
			"num_gc":         m.NumGC,
			"goroutines":     runtime.NumGoroutine(),
		},
	}, nil
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
