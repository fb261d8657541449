package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/commission-finder/app/models"
	"github.com/commission-finder/app/requests"
	"github.com/commission-finder/internal/commission"
	"github.com/commission-finder/internal/reload"
	"github.com/commission-finder/internal/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAdminService(t *testing.T) (*AdminService, map[string]*tabular.MemorySource, *MemoryHistoryService, *LRUCacheService) {
	t.Helper()
	reg, sources := newLoadedRegistry(t)
	history := NewMemoryHistoryService(100)
	cache, err := NewLRUCacheService(100, time.Hour)
	require.NoError(t, err)
	return NewAdminService(reg, history, cache, zap.NewNop()), sources, history, cache
}

func TestAdminService_ReloadOne(t *testing.T) {
	as, _, history, _ := newTestAdminService(t)
	ctx := context.Background()

	resp, err := as.Reload(ctx, requests.ReloadRequest{Marketplace: "trendyol", Force: true}, models.TriggerAPI)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ReloadID)
	require.Len(t, resp.Reports, 1)
	assert.True(t, resp.Reports[0].Changed)
	assert.Equal(t, uint64(2), resp.Reports[0].Generation)
	assert.Zero(t, resp.Failed)

	entries, err := history.List(ctx, "trendyol", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, resp.ReloadID, entries[0].ReloadID)
	assert.Equal(t, models.TriggerAPI, entries[0].Trigger)
}

func TestAdminService_ReloadFailureKeepsReport(t *testing.T) {
	as, sources, history, _ := newTestAdminService(t)
	ctx := context.Background()

	sources["n11"].Fail(errors.New("disk gone"))

	resp, err := as.Reload(ctx, requests.ReloadRequest{Marketplace: "n11"}, models.TriggerAPI)
	assert.ErrorIs(t, err, commission.ErrLoad)
	require.NotNil(t, resp)
	assert.Equal(t, 1, resp.Failed)
	assert.Equal(t, uint64(1), resp.Reports[0].Generation)

	entries, _ := history.List(ctx, "n11", 10)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Failed())

	_, err = as.Reload(ctx, requests.ReloadRequest{Marketplace: "etsy"}, models.TriggerAPI)
	assert.ErrorIs(t, err, commission.ErrUnknownMarketplace)
}

func TestAdminService_ReloadAll(t *testing.T) {
	as, sources, history, _ := newTestAdminService(t)
	ctx := context.Background()

	sources["n11"].Fail(errors.New("disk gone"))

	resp, err := as.Reload(ctx, requests.ReloadRequest{Force: true}, models.TriggerAPI)
	require.NoError(t, err)
	require.Len(t, resp.Reports, 2)
	assert.Equal(t, 1, resp.Failed)

	entries, _ := history.List(ctx, "", 10)
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, resp.ReloadID, e.ReloadID)
	}
}

func TestAdminService_RecordReport(t *testing.T) {
	as, _, history, _ := newTestAdminService(t)

	as.RecordReport(models.TriggerWatcher, &commission.ReloadReport{Marketplace: "trendyol"}, nil)
	as.RecordReport(models.TriggerWatcher, nil, errors.New("x"))
	entries, _ := history.List(context.Background(), "", 10)
	assert.Empty(t, entries)

	as.RecordReport(models.TriggerWatcher, &commission.ReloadReport{Marketplace: "trendyol", Changed: true, Generation: 4}, nil)
	as.RecordReport(models.TriggerWatcher, &commission.ReloadReport{Marketplace: "n11", Error: "bad"}, errors.New("bad"))
	entries, _ = history.List(context.Background(), "", 10)
	require.Len(t, entries, 2)
	assert.Equal(t, models.TriggerWatcher, entries[0].Trigger)
}

func TestAdminService_CacheInvalidation(t *testing.T) {
	as, _, _, cache := newTestAdminService(t)
	reg := as.registry
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, models.SearchCacheKey("trendyol", "a", "x"), cacheEntry("trendyol", "x")))
	require.NoError(t, cache.Set(ctx, models.SearchCacheKey("n11", "a", "x"), cacheEntry("n11", "x")))

	reg.OnPublish(as.CacheHook())
	_, err := reg.Reload(ctx, "trendyol", true)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return cache.Size() == 1 }, time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, as.InvalidateCache(ctx, requests.InvalidateCacheRequest{Marketplace: "etsy"}), commission.ErrUnknownMarketplace)
	assert.ErrorIs(t, as.InvalidateCache(ctx, requests.InvalidateCacheRequest{Q: "x"}), ErrInvalidInput)
	require.NoError(t, as.InvalidateCache(ctx, requests.InvalidateCacheRequest{}))
	assert.Zero(t, cache.Size())
}

func TestAdminService_InvalidateSingleQuery(t *testing.T) {
	as, _, _, cache := newTestAdminService(t)
	ctx := context.Background()

	gen, err := as.registry.Current("trendyol")
	require.NoError(t, err)
	kept := models.SearchCacheKey("trendyol", gen.Signature.Checksum, "ses")
	require.NoError(t, cache.Set(ctx, models.SearchCacheKey("trendyol", gen.Signature.Checksum, "kulaklik"), cacheEntry("trendyol", "kulaklik")))
	require.NoError(t, cache.Set(ctx, kept, cacheEntry("trendyol", "ses")))

	require.NoError(t, as.InvalidateCache(ctx, requests.InvalidateCacheRequest{Marketplace: "trendyol", Q: "KULAKLIK"}))
	assert.Equal(t, 1, cache.Size())
	_, found, _ := cache.Get(ctx, kept)
	assert.True(t, found)
}

func TestAdminService_WatcherDisabled(t *testing.T) {
	as, _, _, _ := newTestAdminService(t)

	assert.ErrorIs(t, as.TriggerReload(""), ErrWatcherDisabled)
	assert.ErrorIs(t, as.TriggerReload("trendyol"), ErrWatcherDisabled)

	_, err := as.ReloadStatus("etsy")
	assert.ErrorIs(t, err, commission.ErrUnknownMarketplace)
	status, err := as.ReloadStatus("trendyol")
	require.NoError(t, err)
	assert.False(t, status.Enabled)
}

func TestAdminService_WatcherTriggers(t *testing.T) {
	as, _, history, _ := newTestAdminService(t)
	reg := as.registry

	w := reload.NewWatcher(reg, reg.IDs(), reload.Options{
		OnReport: func(report *commission.ReloadReport, err error) {
			as.RecordReport(models.TriggerWatcher, report, err)
		},
	}, zap.NewNop())
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()
	as.AttachWatcher(w)

	assert.ErrorIs(t, as.TriggerReload("etsy"), commission.ErrUnknownMarketplace)
	require.NoError(t, as.TriggerReload(""))

	require.Eventually(t, func() bool {
		status, err := as.ReloadStatus("")
		if err != nil || len(status.Statuses) != 2 {
			return false
		}
		for _, st := range status.Statuses {
			if st.Checks == 0 {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)

	status, err := as.ReloadStatus("n11")
	require.NoError(t, err)
	assert.True(t, status.Enabled)
	require.Len(t, status.Statuses, 1)
	assert.Equal(t, "n11", status.Statuses[0].Marketplace)
	assert.Equal(t, uint64(1), status.Statuses[0].Generation)

	// unchanged sources leave no history
	entries, _ := history.List(context.Background(), "", 10)
	assert.Empty(t, entries)
}

func TestAdminService_HistoryAndStats(t *testing.T) {
	as, _, _, _ := newTestAdminService(t)
	ctx := context.Background()

	_, err := as.History(ctx, requests.HistoryRequest{Marketplace: "etsy"})
	assert.ErrorIs(t, err, commission.ErrUnknownMarketplace)

	entries, err := as.History(ctx, requests.HistoryRequest{})
	require.NoError(t, err)
	assert.Empty(t, entries)

	status, err := as.ReloadStatus("")
	require.NoError(t, err)
	assert.False(t, status.Enabled)
	assert.Empty(t, status.Statuses)

	stats, err := as.GetSystemStats(ctx)
	require.NoError(t, err)
	assert.Len(t, stats.Marketplaces, 2)
	assert.NotNil(t, stats.Cache)
	assert.Contains(t, stats.MemoryUsage, "goroutines")
}
