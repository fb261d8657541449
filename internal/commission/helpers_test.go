package commission

import (
	"github.com/shopspring/decimal"
)

var canonicalHeader = []string{"Kategori", "Alt Kategori", "Ürün Grubu", "Komisyon_%_KDV_Dahil"}

func testProfile(id string, mode Mode, policy Policy) Profile {
	return Profile{
		ID:     id,
		Label:  id,
		Schema: DefaultSchema(),
		Policy: policy,
		Mode:   mode,
	}
}

func rec(cat, sub, pg, pct string) Record {
	return Record{
		Category:          cat,
		SubCategory:       sub,
		ProductGroup:      pg,
		CommissionPercent: decimal.RequireFromString(pct),
		CommissionText:    pct,
	}
}

func pct(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
