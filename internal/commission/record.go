package commission

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Record is one canonical commission row.
type Record struct {
	Category          string          `json:"category"`
	SubCategory       string          `json:"subCategory"`
	ProductGroup      string          `json:"productGroup"`
	CommissionPercent decimal.Decimal `json:"commissionPercent"`
	CommissionText    string          `json:"commissionText"`
}

func (r Record) key() leafKey {
	return leafKey{r.Category, r.SubCategory, r.ProductGroup}
}

// DisplayCommission formats the percent the way sellers read it: "12,50%".
func (r Record) DisplayCommission() string {
	return FormatPercent(r.CommissionPercent)
}

type leafKey struct {
	category, subCategory, productGroup string
}

var reNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParsePercent extracts the first number of a free-text rate such as
// "%12,5", "12.5 + KDV" or "0,125". Decimal commas are accepted. The sign is
// ignored, so the result is never negative.
func ParsePercent(raw string) (decimal.Decimal, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	m := reNumber.FindString(s)
	if m == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatPercent renders d with two decimals, a decimal comma and a trailing
// percent sign.
func FormatPercent(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1) + "%"
}
