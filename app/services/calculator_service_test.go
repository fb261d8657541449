package services

import (
	"testing"

	"github.com/commission-finder/app/requests"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func assertDec(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestCalculateCommission(t *testing.T) {
	cs := NewCalculatorService(zap.NewNop())
	req := requests.CalculateCommissionRequest{
		SalePrice:  d("100"),
		BuyPrice:   d("50"),
		CargoPrice: d("10"),
		VatPercent: d("20"),
	}

	res := cs.CalculateCommission("trendyol", req, d("20"))
	assert.Empty(t, res.Error)
	assert.Equal(t, "trendyol", res.Marketplace)
	assertDec(t, "20", res.CommissionAmount, "commission")
	assertDec(t, "70", res.Payout, "payout")
	assertDec(t, "20", res.NetProfit, "net")
	assertDec(t, "20", res.ProfitMargin, "margin")
	assertDec(t, "16.67", res.SaleVat, "sale vat")
	assertDec(t, "8.33", res.BuyVat, "buy vat")
	assertDec(t, "3.33", res.CommVat, "commission vat")
	assertDec(t, "8.33", res.InputVat, "input vat")
	assertDec(t, "8.33", res.VatPayable, "vat payable")

	req.IncludeVatDeduction = true
	res = cs.CalculateCommission("trendyol", req, d("20"))
	assertDec(t, "11.67", res.InputVat, "input vat with deduction")
	assertDec(t, "5", res.VatPayable, "vat payable with deduction")
}

func TestCalculateCommission_ServiceExportAndFloor(t *testing.T) {
	cs := NewCalculatorService(zap.NewNop())
	req := requests.CalculateCommissionRequest{
		SalePrice:           d("200"),
		BuyPrice:            d("190"),
		VatPercent:          d("20"),
		ServicePercent:      d("5"),
		ExportPercent:       d("2.5"),
		IncludeVatDeduction: true,
	}

	res := cs.CalculateCommission("n11", req, d("12.5"))
	assertDec(t, "25", res.CommissionAmount, "commission")
	assertDec(t, "10", res.ServiceAmount, "service")
	assertDec(t, "5", res.ExportAmount, "export")
	assertDec(t, "160", res.Payout, "payout")
	assertDec(t, "-30", res.NetProfit, "net")
	assertDec(t, "-15", res.ProfitMargin, "margin")
	// input vat exceeds sale vat
	assertDec(t, "0", res.VatPayable, "vat payable")
}

func TestCalculateCommission_NoVat(t *testing.T) {
	cs := NewCalculatorService(zap.NewNop())
	res := cs.CalculateCommission("amazon", requests.CalculateCommissionRequest{SalePrice: d("80"), BuyPrice: d("40")}, d("10"))
	assertDec(t, "0", res.SaleVat, "sale vat")
	assertDec(t, "0", res.VatPayable, "vat payable")
	assertDec(t, "72", res.Payout, "payout")
}

func TestCalculateCommission_NonPositiveSale(t *testing.T) {
	cs := NewCalculatorService(zap.NewNop())
	for _, sale := range []string{"0", "-5"} {
		res := cs.CalculateCommission("trendyol", requests.CalculateCommissionRequest{SalePrice: d(sale)}, d("20"))
		assert.NotEmpty(t, res.Error, sale)
		assert.True(t, res.Payout.IsZero())
	}
}

func TestCalculateKDV(t *testing.T) {
	cs := NewCalculatorService(zap.NewNop())
	tests := []struct {
		name                      string
		req                       requests.KDVRequest
		net, vat, gross, withheld string
		payable                   string
	}{
		{
			name: "add default rate",
			req:  requests.KDVRequest{Price: d("100")},
			net:  "100", vat: "20", gross: "120", withheld: "0", payable: "20",
		},
		{
			name: "remove",
			req:  requests.KDVRequest{Direction: "remove", Price: d("120"), Rate: dp("20")},
			net:  "100", vat: "20", gross: "120", withheld: "0", payable: "20",
		},
		{
			name: "remove uneven",
			req:  requests.KDVRequest{Direction: "remove", Price: d("100"), Rate: dp("18")},
			net:  "84.75", vat: "15.25", gross: "100", withheld: "0", payable: "15.25",
		},
		{
			name: "from vat amount",
			req:  requests.KDVRequest{Direction: "from_vat", Price: d("20"), Rate: dp("0.20")},
			net:  "100", vat: "20", gross: "120", withheld: "0", payable: "20",
		},
		{
			name: "fraction withholding",
			req:  requests.KDVRequest{Price: d("100"), WithholdingRate: "5/10"},
			net:  "100", vat: "20", gross: "120", withheld: "10", payable: "10",
		},
		{
			name: "percent withholding",
			req:  requests.KDVRequest{Price: d("100"), WithholdingRate: float64(70)},
			net:  "100", vat: "20", gross: "120", withheld: "14", payable: "6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := cs.CalculateKDV(tt.req)
			require.NoError(t, err)
			assertDec(t, tt.net, res.PriceExclVat, "net")
			assertDec(t, tt.vat, res.VatAmount, "vat")
			assertDec(t, tt.gross, res.PriceInclVat, "gross")
			assertDec(t, tt.withheld, res.WithholdingAmount, "withheld")
			assertDec(t, tt.payable, res.PayableVat, "payable")
		})
	}
}

func TestCalculateKDV_Rounding(t *testing.T) {
	cs := NewCalculatorService(zap.NewNop())
	tests := []struct {
		name     string
		req      requests.KDVRequest
		mode     string
		net, vat string
	}{
		{"default is even", requests.KDVRequest{Price: d("1.025"), Rate: dp("0")}, RoundingEven, "1.02", "0"},
		{"half up tie", requests.KDVRequest{Price: d("1.025"), Rate: dp("0"), Rounding: "half_up"}, RoundingHalfUp, "1.03", "0"},
		{"even vat", requests.KDVRequest{Price: d("10.001"), Rate: dp("20")}, RoundingEven, "10", "2"},
		{"up vat", requests.KDVRequest{Price: d("10.001"), Rate: dp("20"), Rounding: "up"}, RoundingUp, "10.01", "2.01"},
		{"down vat", requests.KDVRequest{Price: d("10.009"), Rate: dp("20"), Rounding: "down"}, RoundingDown, "10", "2"},
		{"up keeps exact cents", requests.KDVRequest{Price: d("100"), Rate: dp("20"), Rounding: "UP"}, RoundingUp, "100", "20"},
		{"half up below tie", requests.KDVRequest{Price: d("10.001"), Rate: dp("20"), Rounding: "half_up"}, RoundingHalfUp, "10", "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := cs.CalculateKDV(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.mode, res.Rounding)
			assertDec(t, tt.net, res.PriceExclVat, "net")
			assertDec(t, tt.vat, res.VatAmount, "vat")
		})
	}
}

func TestCalculateKDV_Errors(t *testing.T) {
	cs := NewCalculatorService(zap.NewNop())
	bad := []requests.KDVRequest{
		{Price: d("0")},
		{Price: d("-1")},
		{Price: d("10"), Rate: dp("150")},
		{Price: d("10"), Direction: "sideways"},
		{Price: d("10"), Rounding: "sideways"},
		{Price: d("10"), WithholdingRate: "abc"},
		{Price: d("10"), Direction: "from_vat", Rate: dp("0")},
	}
	for _, req := range bad {
		_, err := cs.CalculateKDV(req)
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", req)
	}
}

func TestParseWithholding(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, "0"},
		{"", "0"},
		{"7/10", "0.7"},
		{"3/0", "0"},
		{"12/10", "1"},
		{"0,9", "0.9"},
		{"50", "0.5"},
		{float64(0.2), "0.2"},
		{float64(-1), "0"},
		{90, "0.9"},
	}
	for _, tt := range tests {
		got, err := parseWithholding(tt.in)
		require.NoError(t, err, "%v", tt.in)
		assertDec(t, tt.want, got, "withholding")
	}

	_, err := parseWithholding([]int{1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCalculateDesi(t *testing.T) {
	cs := NewCalculatorService(zap.NewNop())

	res, err := cs.CalculateDesi(requests.DesiRequest{Width: d("30"), Height: d("20"), Length: d("10")})
	require.NoError(t, err)
	assertDec(t, "6000", res.VolumeCm3, "cm3")
	assertDec(t, "0.006", res.VolumeM3, "m3")
	assertDec(t, "2", res.Desi, "desi")
	assertDec(t, "2", res.VolumetricWeight, "weight")
	assertDec(t, "3000", res.DesiFactor, "factor")

	res, err = cs.CalculateDesi(requests.DesiRequest{Width: d("30"), Height: d("20"), Length: d("10"), Carrier: "UPS"})
	require.NoError(t, err)
	assertDec(t, "1.2", res.Desi, "ups desi")

	res, err = cs.CalculateDesi(requests.DesiRequest{Width: d("30"), Height: d("20"), Length: d("10"), Carrier: "ups", DesiFactor: dp("4000")})
	require.NoError(t, err)
	assertDec(t, "1.5", res.Desi, "explicit factor")
}

func TestCalculateDesi_Errors(t *testing.T) {
	cs := NewCalculatorService(zap.NewNop())
	bad := []requests.DesiRequest{
		{Width: d("0"), Height: d("1"), Length: d("1")},
		{Width: d("1"), Height: d("-1"), Length: d("1")},
		{Width: d("1"), Height: d("1"), Length: d("1"), DesiFactor: dp("0")},
		{Width: d("1"), Height: d("1"), Length: d("1"), Carrier: "pigeon"},
	}
	for _, req := range bad {
		_, err := cs.CalculateDesi(req)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestCarrierFactors(t *testing.T) {
	factors := CarrierFactors()
	require.Len(t, factors, 9)
	assert.Equal(t, "aras_kargo", factors[0].Carrier)
	for _, f := range factors {
		if f.Carrier == "dhl" {
			assert.Equal(t, 5000, f.Factor)
		}
	}
}
