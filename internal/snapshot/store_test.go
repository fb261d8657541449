package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/commission-finder/internal/commission"
	"github.com/commission-finder/internal/tabular"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var header = []string{"Kategori", "Alt Kategori", "Ürün Grubu", "Komisyon_%_KDV_Dahil"}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshots.db")
	store, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func newRegistry(t *testing.T, src tabular.Source) *commission.Registry {
	t.Helper()
	reg, err := commission.NewRegistry([]commission.Marketplace{{
		Profile: commission.Profile{ID: "trendyol", Schema: commission.DefaultSchema()},
		Source:  src,
	}}, zap.NewNop())
	require.NoError(t, err)
	return reg
}

func TestStore_SaveLoad(t *testing.T) {
	store, _ := newTestStore(t)

	snap := commission.Snapshot{
		Marketplace: "trendyol",
		Generation:  3,
		Records: []commission.Record{{
			Category:          "Elektronik",
			SubCategory:       "Ses",
			ProductGroup:      "Kulaklık",
			CommissionPercent: decimal.RequireFromString("12.5"),
			CommissionText:    "%12,5",
		}},
		Signature: tabular.Signature{Checksum: "abc"},
		SavedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(snap))

	got, err := store.Load("trendyol")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.Generation)
	assert.Equal(t, "abc", got.Signature.Checksum)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "Kulaklık", got.Records[0].ProductGroup)
	assert.True(t, got.Records[0].CommissionPercent.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, got.SavedAt.Equal(snap.SavedAt))

	ids, err := store.IDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"trendyol"}, ids)

	require.NoError(t, store.Delete("trendyol"))
	_, err = store.Load("trendyol")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Prune(t *testing.T) {
	store, _ := newTestStore(t)
	for _, id := range []string{"amazon", "n11", "trendyol"} {
		require.NoError(t, store.Save(commission.Snapshot{Marketplace: id, Generation: 1}))
	}

	pruned, err := store.Prune([]string{"trendyol", "hepsiburada"})
	require.NoError(t, err)
	assert.Equal(t, []string{"amazon", "n11"}, pruned)

	ids, err := store.IDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"trendyol"}, ids)

	pruned, err = store.Prune([]string{"trendyol"})
	require.NoError(t, err)
	assert.Empty(t, pruned)
}

func TestStore_RejectsAnonymousSnapshot(t *testing.T) {
	store, _ := newTestStore(t)
	assert.Error(t, store.Save(commission.Snapshot{}))
}

func TestStore_SurvivesReopen(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, store.Save(commission.Snapshot{Marketplace: "n11", Generation: 1}))
	require.NoError(t, store.Close())

	reopened, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load("n11")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.Generation)
}

func TestStore_HookAndWarmStart(t *testing.T) {
	store, _ := newTestStore(t)

	src := tabular.NewMemorySource("trendyol", header, [][]string{
		{"Elektronik", "Ses", "Kulaklık", "15"},
	})
	reg := newRegistry(t, src)
	reg.OnPublish(store.Hook())

	_, err := reg.Reload(context.Background(), "trendyol", false)
	require.NoError(t, err)

	snap, err := store.Load("trendyol")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Generation)
	require.Len(t, snap.Records, 1)

	// A fresh process whose source is broken still serves the snapshot.
	broken := tabular.NewMemorySource("trendyol", []string{"garbage"}, nil)
	fresh := newRegistry(t, broken)
	var mirrored []uint64
	fresh.OnPublish(func(id string, gen *commission.Generation) {
		if gen.Restored {
			mirrored = append(mirrored, gen.Number)
		}
	})
	fresh.OnPublish(store.Hook())

	restored := store.RestoreAll(fresh, []string{"trendyol", "n11"})
	assert.Equal(t, []string{"trendyol"}, restored)
	// hooks registered before the restore see the restored generation
	assert.Equal(t, []uint64{1}, mirrored)

	_, err = fresh.Reload(context.Background(), "trendyol", false)
	assert.ErrorIs(t, err, commission.ErrSchemaMismatch)

	r, ok, err := fresh.CommissionRate("trendyol", "Elektronik", "Ses", "Kulaklık")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, r.CommissionPercent.Equal(decimal.RequireFromString("15")))

	// The restored generation was not written back.
	again, err := store.Load("trendyol")
	require.NoError(t, err)
	assert.Equal(t, snap.SavedAt.UnixNano(), again.SavedAt.UnixNano())
}
