package models

import "github.com/shopspring/decimal"

// CommissionCalculation is the payout breakdown of one sale. All amounts are
// rounded to two places.
type CommissionCalculation struct {
	Marketplace       string          `json:"marketplace"`
	CommissionPercent decimal.Decimal `json:"commissionPercent"`
	Payout            decimal.Decimal `json:"payout"`
	NetProfit         decimal.Decimal `json:"netProfit"`
	ProfitMargin      decimal.Decimal `json:"profitMargin"`
	CommissionAmount  decimal.Decimal `json:"commissionAmount"`
	ServiceAmount     decimal.Decimal `json:"serviceAmount"`
	ExportAmount      decimal.Decimal `json:"exportAmount"`
	CargoDeduction    decimal.Decimal `json:"cargoDeduction"`
	SaleVat           decimal.Decimal `json:"saleVat"`
	BuyVat            decimal.Decimal `json:"buyVat"`
	CommVat           decimal.Decimal `json:"commVat"`
	ServVat           decimal.Decimal `json:"servVat"`
	ExpVat            decimal.Decimal `json:"expVat"`
	InputVat          decimal.Decimal `json:"inputVat"`
	VatPayable        decimal.Decimal `json:"vatPayable"`
	Error             string          `json:"error,omitempty"`
}

// KDVResult is a VAT breakdown. Rates are fractions (0.20 for 20%).
type KDVResult struct {
	Direction         string          `json:"direction"`
	PriceExclVat      decimal.Decimal `json:"priceExclVat"`
	VatAmount         decimal.Decimal `json:"vatAmount"`
	PriceInclVat      decimal.Decimal `json:"priceInclVat"`
	VatRate           decimal.Decimal `json:"vatRate"`
	WithholdingRate   decimal.Decimal `json:"withholdingRate"`
	WithholdingAmount decimal.Decimal `json:"withholdingAmount"`
	PayableVat        decimal.Decimal `json:"payableVat"`
	Rounding          string          `json:"rounding"`
}

// DesiResult is the volumetric weight of a parcel.
type DesiResult struct {
	Width            decimal.Decimal `json:"width"`
	Height           decimal.Decimal `json:"height"`
	Length           decimal.Decimal `json:"length"`
	VolumeCm3        decimal.Decimal `json:"volumeCm3"`
	VolumeM3         decimal.Decimal `json:"volumeM3"`
	Desi             decimal.Decimal `json:"desi"`
	VolumetricWeight decimal.Decimal `json:"volumetricWeight"`
	DesiFactor       decimal.Decimal `json:"desiFactor"`
}
