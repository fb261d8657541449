package services

import (
	"testing"

	"github.com/commission-finder/app/models"
	"github.com/commission-finder/app/requests"
	"github.com/commission-finder/internal/commission"
	"github.com/commission-finder/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCommissionService(t *testing.T) *CommissionService {
	reg, _ := newLoadedRegistry(t)
	return NewCommissionService(reg, NewCalculatorService(zap.NewNop()), nil, zap.NewNop())
}

func TestCommissionService_Search(t *testing.T) {
	cs := newTestCommissionService(t)

	entry, err := cs.Search("trendyol", requests.SearchRequest{Q: "KULAKLIK"})
	require.NoError(t, err)
	require.Len(t, entry.Results, 1)
	assert.Equal(t, "Elektronik → Ses → Kulaklık", entry.Results[0].DisplayProductGroup)
	assertDec(t, "15", entry.Results[0].CommissionPercent, "max rate")
	assert.Equal(t, "kulaklik", entry.Query)
	assert.Equal(t, uint64(1), entry.Generation)
	assert.NotEmpty(t, entry.Checksum)
	assert.Empty(t, entry.Suggestions)
	assert.Equal(t, string(commission.ModeFullChain), entry.Mode)

	// product-group-only matches names, not categories
	entry, err = cs.Search("n11", requests.SearchRequest{Q: "elektronik"})
	require.NoError(t, err)
	assert.Empty(t, entry.Results)

	entry, err = cs.Search("n11", requests.SearchRequest{Q: "elbise"})
	require.NoError(t, err)
	require.Len(t, entry.Results, 1)
	assert.Empty(t, entry.Results[0].Category)
	assert.Equal(t, string(commission.ModeProductGroupOnly), entry.Mode)
}

func TestCommissionService_SearchSuggestions(t *testing.T) {
	cs := newTestCommissionService(t)

	entry, err := cs.Search("trendyol", requests.SearchRequest{Q: "kulaklk"})
	require.NoError(t, err)
	assert.Empty(t, entry.Results)
	require.NotEmpty(t, entry.Suggestions)
	assert.Equal(t, "Kulaklık", entry.Suggestions[0].Text)

	entry, err = cs.Search("trendyol", requests.SearchRequest{Q: "   "})
	require.NoError(t, err)
	assert.Empty(t, entry.Results)
	assert.Empty(t, entry.Suggestions)
}

func TestCommissionService_UnknownMarketplace(t *testing.T) {
	cs := newTestCommissionService(t)

	_, err := cs.Search("etsy", requests.SearchRequest{Q: "x"})
	assert.ErrorIs(t, err, commission.ErrUnknownMarketplace)
	_, _, err = cs.CacheKey("etsy", "x")
	assert.ErrorIs(t, err, commission.ErrUnknownMarketplace)
	_, err = cs.FuzzySearch("etsy", requests.SearchRequest{Q: "x"})
	assert.ErrorIs(t, err, commission.ErrUnknownMarketplace)
	_, err = cs.Calculate("etsy", requests.CalculateCommissionRequest{})
	assert.ErrorIs(t, err, commission.ErrUnknownMarketplace)
}

func TestCommissionService_CacheKey(t *testing.T) {
	cs := newTestCommissionService(t)

	key, ok, err := cs.CacheKey("trendyol", "Kulaklık")
	require.NoError(t, err)
	require.True(t, ok)

	gen, err := cs.registry.Current("trendyol")
	require.NoError(t, err)
	assert.Equal(t, models.SearchCacheKey("trendyol", gen.Signature.Checksum, "kulaklik"), key)

	_, ok, err = cs.CacheKey("trendyol", " ")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCommissionService_FuzzyDisabled(t *testing.T) {
	cs := newTestCommissionService(t)
	_, err := cs.FuzzySearch("trendyol", requests.SearchRequest{Q: "kulaklk"})
	assert.ErrorIs(t, err, search.ErrMirrorDisabled)
}

func TestCommissionService_Listings(t *testing.T) {
	cs := newTestCommissionService(t)

	cats, err := cs.Categories("trendyol")
	require.NoError(t, err)
	assert.Equal(t, []string{"Elektronik", "Moda"}, cats)

	subs, err := cs.SubCategories("trendyol", requests.SubCategoriesRequest{Category: "Elektronik"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ses", "Bilgisayar"}, subs)

	groups, err := cs.ProductGroups("trendyol", requests.ProductGroupsRequest{Category: "Elektronik", SubCategory: "Ses"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kulaklık"}, groups)

	assert.True(t, cs.Ready())
	assert.Len(t, cs.Marketplaces(), 2)
}

func TestCommissionService_Rate(t *testing.T) {
	cs := newTestCommissionService(t)

	rec, err := cs.Rate("trendyol", requests.RateRequest{Category: "Elektronik", SubCategory: "Ses", ProductGroup: "Kulaklık"})
	require.NoError(t, err)
	assertDec(t, "15", rec.CommissionPercent, "rate")

	_, err = cs.Rate("trendyol", requests.RateRequest{Category: "Elektronik", SubCategory: "Ses", ProductGroup: "Hoparlör"})
	assert.ErrorIs(t, err, ErrRateNotFound)
}

func TestCommissionService_Calculate(t *testing.T) {
	cs := newTestCommissionService(t)

	res, err := cs.Calculate("trendyol", requests.CalculateCommissionRequest{
		SalePrice:    d("100"),
		Category:     "Moda",
		SubCategory:  "Giyim",
		ProductGroup: "Elbise",
	})
	require.NoError(t, err)
	assertDec(t, "20", res.CommissionPercent, "resolved percent")
	assertDec(t, "80", res.Payout, "payout")

	res, err = cs.Calculate("trendyol", requests.CalculateCommissionRequest{SalePrice: d("100"), CommissionPercent: dp("10")})
	require.NoError(t, err)
	assertDec(t, "90", res.Payout, "explicit percent")

	_, err = cs.Calculate("trendyol", requests.CalculateCommissionRequest{SalePrice: d("100")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = cs.Calculate("trendyol", requests.CalculateCommissionRequest{SalePrice: d("100"), ProductGroup: "Yok"})
	assert.ErrorIs(t, err, ErrRateNotFound)

	_, err = cs.Calculate("trendyol", requests.CalculateCommissionRequest{SalePrice: d("0"), CommissionPercent: dp("10")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = cs.Calculate("trendyol", requests.CalculateCommissionRequest{SalePrice: d("10"), CommissionPercent: dp("-1")})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
