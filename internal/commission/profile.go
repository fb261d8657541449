package commission

import (
	"errors"
	"fmt"
	"strings"
)

// Field is a canonical column.
type Field int

const (
	FieldCategory Field = iota
	FieldSubCategory
	FieldProductGroup
	FieldCommission
)

// Fields lists canonical fields in resolution order.
var Fields = []Field{FieldCategory, FieldSubCategory, FieldProductGroup, FieldCommission}

func (f Field) String() string {
	switch f {
	case FieldCategory:
		return "category"
	case FieldSubCategory:
		return "subCategory"
	case FieldProductGroup:
		return "productGroup"
	case FieldCommission:
		return "commissionPercent"
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// Schema holds, per canonical field, the accepted header aliases in priority
// order.
type Schema struct {
	Category     []string
	SubCategory  []string
	ProductGroup []string
	Commission   []string
}

// Aliases returns the alias list of f.
func (s Schema) Aliases(f Field) []string {
	switch f {
	case FieldCategory:
		return s.Category
	case FieldSubCategory:
		return s.SubCategory
	case FieldProductGroup:
		return s.ProductGroup
	case FieldCommission:
		return s.Commission
	}
	return nil
}

// DefaultSchema accepts the canonical interchange headers, both the Turkish
// and the English spelling.
func DefaultSchema() Schema {
	return Schema{
		Category:     []string{"Kategori", "Category"},
		SubCategory:  []string{"Alt Kategori", "SubCategory", "Kategori"},
		ProductGroup: []string{"Ürün Grubu", "ProductGroup"},
		Commission:   []string{"Komisyon_%_KDV_Dahil", "CommissionPercentWithTaxIncluded", "Komisyon"},
	}
}

// Policy decides which rate wins when one product group has several.
type Policy string

const (
	PolicyMax    Policy = "max"
	PolicyFirst  Policy = "first"
	PolicyConcat Policy = "concat"
)

// ParsePolicy accepts max, first and concat. Empty means max.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyMax, nil
	case PolicyMax, PolicyFirst, PolicyConcat:
		return p, nil
	}
	return "", fmt.Errorf("unknown resolution policy %q", s)
}

// Mode controls how search matches and how results are displayed.
type Mode string

const (
	ModeFullChain        Mode = "full-chain"
	ModeProductGroupOnly Mode = "product-group-only"
	ModePathDisplay      Mode = "path-display"
	ModeFlat             Mode = "flat"
)

// ParseMode accepts the four presentation modes. Empty means full-chain.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeFullChain, nil
	case ModeFullChain, ModeProductGroupOnly, ModePathDisplay, ModeFlat:
		return m, nil
	}
	return "", fmt.Errorf("unknown presentation mode %q", s)
}

// Profile is the immutable per-marketplace configuration.
type Profile struct {
	ID     string
	Label  string
	Schema Schema
	Policy Policy
	Mode   Mode
}

// Validate checks that the profile can be used to load data.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("profile id is empty")
	}
	if _, err := ParsePolicy(string(p.Policy)); err != nil {
		return fmt.Errorf("%s: %w", p.ID, err)
	}
	if _, err := ParseMode(string(p.Mode)); err != nil {
		return fmt.Errorf("%s: %w", p.ID, err)
	}
	for _, f := range Fields {
		if len(p.Schema.Aliases(f)) == 0 {
			return fmt.Errorf("%s: no aliases for %s", p.ID, f)
		}
	}
	return nil
}
