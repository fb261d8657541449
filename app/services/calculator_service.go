package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/commission-finder/app/models"
	"github.com/commission-finder/app/requests"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrInvalidInput marks calculator input that cannot produce a result.
var ErrInvalidInput = errors.New("invalid input")

// KDV directions
const (
	DirectionAdd     = "add"
	DirectionRemove  = "remove"
	DirectionFromVat = "from_vat"
)

// Rounding modes of the KDV calculator. Up and down always move to the next
// cent; half-up rounds ties away from zero.
const (
	RoundingEven   = "even"
	RoundingUp     = "up"
	RoundingDown   = "down"
	RoundingHalfUp = "half_up"
)

// DefaultDesiFactor is the divisor used by domestic carriers.
const DefaultDesiFactor = 3000

// DefaultVatRate is the general Turkish VAT rate in percent.
const DefaultVatRate = 20

var (
	hundred = decimal.NewFromInt(100)
	million = decimal.NewFromInt(1_000_000)
)

// carrierFactors maps carrier names to their desi divisor.
var carrierFactors = map[string]int{
	"yurtici_kargo": 3000,
	"mng_kargo":     3000,
	"aras_kargo":    3000,
	"ptt_kargo":     3000,
	"ups":           5000,
	"fedex":         5000,
	"dhl":           5000,
	"tnt":           5000,
	"standard":      DefaultDesiFactor,
}

// CarrierFactor is one entry of the carrier table.
type CarrierFactor struct {
	Carrier string `json:"carrier"`
	Factor  int    `json:"factor"`
}

// CarrierFactors lists the known carriers by name.
func CarrierFactors() []CarrierFactor {
	out := make([]CarrierFactor, 0, len(carrierFactors))
	for name, f := range carrierFactors {
		out = append(out, CarrierFactor{Carrier: name, Factor: f})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Carrier < out[j].Carrier })
	return out
}

// CalculatorService runs the seller-side price calculations.
type CalculatorService struct {
	logger *zap.Logger
}

func NewCalculatorService(logger *zap.Logger) *CalculatorService {
	return &CalculatorService{logger: logger}
}

// CalculateCommission computes the payout of one sale at commissionPercent.
// A non-positive sale price yields a zero breakdown carrying an error text.
func (cs *CalculatorService) CalculateCommission(marketplace string, req requests.CalculateCommissionRequest, commissionPercent decimal.Decimal) models.CommissionCalculation {
	result := models.CommissionCalculation{
		Marketplace:       marketplace,
		CommissionPercent: commissionPercent,
	}
	sale := req.SalePrice
	if !sale.IsPositive() {
		result.Error = "sale price must be positive"
		return result
	}

	commissionAmount := pct(sale, commissionPercent)
	serviceAmount := pct(sale, req.ServicePercent)
	exportAmount := pct(sale, req.ExportPercent)
	cargo := req.CargoPrice

	payout := sale.Sub(commissionAmount.Add(serviceAmount).Add(exportAmount).Add(cargo))
	netProfit := payout.Sub(req.BuyPrice)
	margin := netProfit.Div(sale).Mul(hundred)

	saleVat := vatShare(sale, req.VatPercent)
	buyVat := vatShare(req.BuyPrice, req.VatPercent)
	commVat := vatShare(commissionAmount, req.VatPercent)
	servVat := vatShare(serviceAmount, req.VatPercent)
	expVat := vatShare(exportAmount, req.VatPercent)

	inputVat := buyVat
	if req.IncludeVatDeduction {
		inputVat = inputVat.Add(commVat).Add(servVat).Add(expVat)
	}
	vatPayable := decimal.Max(saleVat.Sub(inputVat), decimal.Zero)

	result.Payout = q2(payout)
	result.NetProfit = q2(netProfit)
	result.ProfitMargin = q2(margin)
	result.CommissionAmount = q2(commissionAmount)
	result.ServiceAmount = q2(serviceAmount)
	result.ExportAmount = q2(exportAmount)
	result.CargoDeduction = q2(cargo)
	result.SaleVat = q2(saleVat)
	result.BuyVat = q2(buyVat)
	result.CommVat = q2(commVat)
	result.ServVat = q2(servVat)
	result.ExpVat = q2(expVat)
	result.InputVat = q2(inputVat)
	result.VatPayable = q2(vatPayable)
	return result
}

// CalculateKDV splits or builds a VAT inclusive price.
//
// Rates of 1 and above are percentages, smaller ones fractions. The
// withholding rate is either a fraction string such as "7/10" or a number;
// numbers above 1 are percentages.
func (cs *CalculatorService) CalculateKDV(req requests.KDVRequest) (*models.KDVResult, error) {
	direction := strings.ToLower(strings.TrimSpace(req.Direction))
	if direction == "" {
		direction = DirectionAdd
	}
	if direction == "from_vat_amount" {
		direction = DirectionFromVat
	}

	if !req.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}

	rate := decimal.NewFromInt(DefaultVatRate)
	if req.Rate != nil {
		rate = *req.Rate
	}
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return nil, fmt.Errorf("%w: vat rate must be between 0 and 100", ErrInvalidInput)
	}
	if rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		rate = rate.Div(hundred)
	}

	withholding, err := parseWithholding(req.WithholdingRate)
	if err != nil {
		return nil, err
	}

	rounding, round, err := roundingMode(req.Rounding)
	if err != nil {
		return nil, err
	}

	var net, vat, gross decimal.Decimal
	switch direction {
	case DirectionAdd:
		net = round(req.Price)
		vat = round(req.Price.Mul(rate))
		gross = round(req.Price.Add(vat))
	case DirectionRemove:
		net = round(req.Price.Div(decimal.NewFromInt(1).Add(rate)))
		vat = round(req.Price.Sub(net))
		gross = round(req.Price)
	case DirectionFromVat:
		if rate.IsZero() {
			return nil, fmt.Errorf("%w: vat rate must be positive when computing from the vat amount", ErrInvalidInput)
		}
		vat = round(req.Price)
		net = round(vat.Div(rate))
		gross = round(net.Add(vat))
	default:
		return nil, fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, req.Direction)
	}

	withheld := round(vat.Mul(withholding))
	return &models.KDVResult{
		Direction:         direction,
		PriceExclVat:      net,
		VatAmount:         vat,
		PriceInclVat:      gross,
		VatRate:           rate,
		WithholdingRate:   withholding,
		WithholdingAmount: withheld,
		PayableVat:        round(vat.Sub(withheld)),
		Rounding:          rounding,
	}, nil
}

// CalculateDesi computes the volumetric weight of a parcel in centimetres.
// An explicit factor wins over the carrier's.
func (cs *CalculatorService) CalculateDesi(req requests.DesiRequest) (*models.DesiResult, error) {
	if !req.Width.IsPositive() || !req.Height.IsPositive() || !req.Length.IsPositive() {
		return nil, fmt.Errorf("%w: dimensions must be positive", ErrInvalidInput)
	}

	factor := decimal.NewFromInt(DefaultDesiFactor)
	if carrier := strings.ToLower(strings.TrimSpace(req.Carrier)); carrier != "" {
		f, ok := carrierFactors[carrier]
		if !ok {
			return nil, fmt.Errorf("%w: unknown carrier %q", ErrInvalidInput, req.Carrier)
		}
		factor = decimal.NewFromInt(int64(f))
	}
	if req.DesiFactor != nil {
		factor = *req.DesiFactor
	}
	if !factor.IsPositive() {
		return nil, fmt.Errorf("%w: desi factor must be positive", ErrInvalidInput)
	}

	volume := req.Width.Mul(req.Height).Mul(req.Length)
	desi := q2(volume.Div(factor))
	return &models.DesiResult{
		Width:            req.Width,
		Height:           req.Height,
		Length:           req.Length,
		VolumeCm3:        q2(volume),
		VolumeM3:         volume.Div(million).Round(6),
		Desi:             desi,
		VolumetricWeight: desi,
		DesiFactor:       factor,
	}, nil
}

func pct(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred)
}

// vatShare is the VAT contained in a gross amount.
func vatShare(gross, percent decimal.Decimal) decimal.Decimal {
	if !percent.IsPositive() {
		return decimal.Zero
	}
	return gross.Mul(percent).Div(hundred.Add(percent))
}

func q2(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

func roundingMode(s string) (string, func(decimal.Decimal) decimal.Decimal, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", RoundingEven, "half_even", "bankers":
		return RoundingEven, q2, nil
	case RoundingUp, "ceil":
		return RoundingUp, func(d decimal.Decimal) decimal.Decimal { return d.RoundCeil(2) }, nil
	case RoundingDown, "floor":
		return RoundingDown, func(d decimal.Decimal) decimal.Decimal { return d.RoundFloor(2) }, nil
	case RoundingHalfUp:
		return RoundingHalfUp, func(d decimal.Decimal) decimal.Decimal { return d.Round(2) }, nil
	default:
		return "", nil, fmt.Errorf("%w: unknown rounding %q", ErrInvalidInput, s)
	}
}

// parseWithholding accepts nil, numbers and "a/b" strings. The result is
// clamped to [0, 1]; a zero denominator means no withholding.
func parseWithholding(v interface{}) (decimal.Decimal, error) {
	var d decimal.Decimal
	switch t := v.(type) {
	case nil:
		return decimal.Zero, nil
	case float64:
		d = decimal.NewFromFloat(t)
	case int:
		d = decimal.NewFromInt(int64(t))
	case decimal.Decimal:
		d = t
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
		if s == "" {
			return decimal.Zero, nil
		}
		if num, den, ok := strings.Cut(s, "/"); ok {
			n, err := decimal.NewFromString(strings.TrimSpace(num))
			if err != nil {
				return decimal.Zero, fmt.Errorf("%w: withholding rate %q", ErrInvalidInput, t)
			}
			m, err := decimal.NewFromString(strings.TrimSpace(den))
			if err != nil {
				return decimal.Zero, fmt.Errorf("%w: withholding rate %q", ErrInvalidInput, t)
			}
			if m.IsZero() {
				return decimal.Zero, nil
			}
			return clampUnit(n.Div(m)), nil
		}
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: withholding rate %q", ErrInvalidInput, t)
		}
		d = parsed
	default:
		return decimal.Zero, fmt.Errorf("%w: withholding rate of type %T", ErrInvalidInput, v)
	}

	if d.GreaterThan(decimal.NewFromInt(1)) {
		d = d.Div(hundred)
	}
	return clampUnit(d), nil
}

func clampUnit(d decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(d, decimal.Zero), decimal.NewFromInt(1))
}
