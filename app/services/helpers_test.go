package services

import (
	"context"
	"testing"

	"github.com/commission-finder/internal/commission"
	"github.com/commission-finder/internal/tabular"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testHeader = []string{"Kategori", "Alt Kategori", "Ürün Grubu", "Komisyon_%_KDV_Dahil"}

func testRows() [][]string {
	return [][]string{
		{"Elektronik", "Ses", "Kulaklık", "12,5"},
		{"Elektronik", "Ses", "Kulaklık", "15"},
		{"Elektronik", "Bilgisayar", "Dizüstü", "8"},
		{"Moda", "Giyim", "Elbise", "20"},
	}
}

// newLoadedRegistry registers trendyol (full-chain) and n11
// (product-group-only) and loads both.
func newLoadedRegistry(t *testing.T) (*commission.Registry, map[string]*tabular.MemorySource) {
	t.Helper()
	sources := map[string]*tabular.MemorySource{
		"trendyol": tabular.NewMemorySource("trendyol", testHeader, testRows()),
		"n11":      tabular.NewMemorySource("n11", testHeader, testRows()),
	}
	reg, err := commission.NewRegistry([]commission.Marketplace{
		{
			Profile: commission.Profile{ID: "trendyol", Label: "Trendyol", Schema: commission.DefaultSchema(), Policy: commission.PolicyMax, Mode: commission.ModeFullChain},
			Source:  sources["trendyol"],
		},
		{
			Profile: commission.Profile{ID: "n11", Label: "N11", Schema: commission.DefaultSchema(), Policy: commission.PolicyMax, Mode: commission.ModeProductGroupOnly},
			Source:  sources["n11"],
		},
	}, zap.NewNop())
	require.NoError(t, err)
	_, err = reg.ReloadAll(context.Background(), false)
	require.NoError(t, err)
	return reg, sources
}
