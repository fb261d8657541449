package requests

import "github.com/shopspring/decimal"

// SearchRequest query of the search endpoints
type SearchRequest struct {
	Q     string `form:"q"`
	Limit int    `form:"limit,default=20" binding:"min=0,max=200"`
}

// SubCategoriesRequest query of the subcategory listing
type SubCategoriesRequest struct {
	Category string `form:"category" binding:"required"`
}

// ProductGroupsRequest query of the product group listing. SubCategory is
// empty for sources without a second level.
type ProductGroupsRequest struct {
	Category    string `form:"category"`
	SubCategory string `form:"subCategory"`
}

// RateRequest identifies one leaf exactly.
type RateRequest struct {
	Category     string `form:"category"`
	SubCategory  string `form:"subCategory"`
	ProductGroup string `form:"productGroup" binding:"required"`
}

// CalculateCommissionRequest body of the payout calculator. When
// CommissionPercent is omitted it is looked up from the leaf fields.
type CalculateCommissionRequest struct {
	SalePrice           decimal.Decimal  `json:"salePrice"`
	BuyPrice            decimal.Decimal  `json:"buyPrice"`
	CargoPrice          decimal.Decimal  `json:"cargoPrice"`
	VatPercent          decimal.Decimal  `json:"vatPercent"`
	CommissionPercent   *decimal.Decimal `json:"commissionPercent,omitempty"`
	ServicePercent      decimal.Decimal  `json:"servicePercent"`
	ExportPercent       decimal.Decimal  `json:"exportPercent"`
	IncludeVatDeduction bool             `json:"includeVatDeduction"`

	Category     string `json:"category,omitempty"`
	SubCategory  string `json:"subCategory,omitempty"`
	ProductGroup string `json:"productGroup,omitempty"`
}

// KDVRequest body of the VAT calculator.
type KDVRequest struct {
	Direction       string           `json:"direction"`
	Price           decimal.Decimal  `json:"price"`
	Rate            *decimal.Decimal `json:"rate,omitempty"`
	WithholdingRate interface{}      `json:"withholdingRate,omitempty"`
	Rounding        string           `json:"rounding,omitempty"`
}

// DesiRequest body of the volumetric weight calculator.
type DesiRequest struct {
	Width      decimal.Decimal  `json:"width"`
	Height     decimal.Decimal  `json:"height"`
	Length     decimal.Decimal  `json:"length"`
	DesiFactor *decimal.Decimal `json:"desiFactor,omitempty"`
	Carrier    string           `json:"carrier,omitempty"`
}

// ReloadRequest query of the admin reload endpoint. An empty marketplace
// reloads all of them.
type ReloadRequest struct {
	Marketplace string `form:"marketplace"`
	Force       bool   `form:"force"`
	// Async hands the reload to the watcher instead of waiting for it.
	Async bool `form:"async"`
}

// ReloadStatusRequest query of the watcher status endpoint.
type ReloadStatusRequest struct {
	Marketplace string `form:"marketplace"`
}

// InvalidateCacheRequest query of the cache invalidation endpoint. Q drops a
// single cached search and needs a marketplace.
type InvalidateCacheRequest struct {
	Marketplace string `form:"marketplace"`
	Q           string `form:"q"`
}

// HistoryRequest query of the reload history endpoint.
type HistoryRequest struct {
	Marketplace string `form:"marketplace"`
	Limit       int    `form:"limit,default=20" binding:"min=0,max=500"`
}
