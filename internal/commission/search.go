package commission

import (
	"strings"

	"github.com/commission-finder/internal/normalizer"
	"github.com/shopspring/decimal"
)

// ChainSeparator joins taxonomy levels in display strings.
const ChainSeparator = " → "

// SearchResult is one search hit, derived from a leaf.
type SearchResult struct {
	Category            string          `json:"category"`
	SubCategory         string          `json:"subCategory"`
	ProductGroup        string          `json:"productGroup"`
	CommissionPercent   decimal.Decimal `json:"commissionPercent"`
	CommissionText      string          `json:"commissionText"`
	DisplayProductGroup string          `json:"displayProductGroup"`
}

// Search runs a substring query against the normalized taxonomy. Results come
// in traversal order; an empty query returns no results.
func (ix *Index) Search(query string, mode Mode) []SearchResult {
	q := normalizer.Normalize(query)
	if q == "" || ix == nil {
		return []SearchResult{}
	}

	switch mode {
	case ModeProductGroupOnly:
		return ix.searchProductGroups(q)
	case ModeFlat:
		return ix.collect(func(l *Leaf) bool {
			return strings.Contains(l.normLabel, q)
		}, func(l *Leaf) string {
			return l.label
		})
	case ModePathDisplay:
		return ix.collect(l3Match(q), func(l *Leaf) string {
			return strings.Join(l.path, ChainSeparator)
		})
	default:
		return ix.collect(l3Match(q), func(l *Leaf) string {
			return strings.Join(nonBlank([]string{l.Record.Category, l.Record.SubCategory, l.Record.ProductGroup}), ChainSeparator)
		})
	}
}

func l3Match(q string) func(*Leaf) bool {
	return func(l *Leaf) bool {
		return strings.Contains(l.normCategory, q) ||
			strings.Contains(l.normSubCategory, q) ||
			strings.Contains(l.normProductGroup, q)
	}
}

func (ix *Index) collect(match func(*Leaf) bool, display func(*Leaf) string) []SearchResult {
	results := []SearchResult{}
	for _, l := range ix.order {
		if !match(l) {
			continue
		}
		results = append(results, SearchResult{
			Category:            l.Record.Category,
			SubCategory:         l.Record.SubCategory,
			ProductGroup:        l.Record.ProductGroup,
			CommissionPercent:   l.Record.CommissionPercent,
			CommissionText:      l.Record.CommissionText,
			DisplayProductGroup: display(l),
		})
	}
	return results
}

// searchProductGroups merges same-named product groups across the whole
// taxonomy and resolves them again, so every name appears once.
func (ix *Index) searchProductGroups(q string) []SearchResult {
	var names []string
	byName := make(map[string][]Record)
	for _, l := range ix.order {
		name := l.Record.ProductGroup
		if name == "" || !strings.Contains(l.normProductGroup, q) {
			continue
		}
		if _, ok := byName[name]; !ok {
			names = append(names, name)
		}
		byName[name] = append(byName[name], l.Record)
	}

	results := make([]SearchResult, 0, len(names))
	for _, name := range names {
		r := Resolve(byName[name], ix.policy)
		results = append(results, SearchResult{
			ProductGroup:        name,
			CommissionPercent:   r.CommissionPercent,
			CommissionText:      r.CommissionText,
			DisplayProductGroup: name,
		})
	}
	return results
}
