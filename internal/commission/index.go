package commission

import (
	"strings"

	"github.com/commission-finder/internal/normalizer"
)

// Leaf is one resolved product group of the taxonomy.
type Leaf struct {
	Record  Record
	Sources int

	normCategory     string
	normSubCategory  string
	normProductGroup string
	label            string
	normLabel        string
	path             []string
}

// Index is the three-level taxonomy of one generation. Insertion order is
// kept at every level because source documents carry a meaningful order.
// It is never mutated after BuildIndex returns.
type Index struct {
	policy     Policy
	categories []string
	subs       map[string][]string
	groups     map[[2]string][]string
	leaves     map[leafKey]*Leaf
	order      []*Leaf
}

// BuildIndex groups records by their three text fields and resolves every
// group with policy.
func BuildIndex(records []Record, policy Policy) *Index {
	ix := &Index{
		policy: policy,
		subs:   make(map[string][]string),
		groups: make(map[[2]string][]string),
		leaves: make(map[leafKey]*Leaf),
	}

	raw := make(map[leafKey][]Record)
	for _, r := range records {
		k := r.key()
		if _, ok := raw[k]; !ok {
			if _, ok := ix.subs[k.category]; !ok {
				ix.categories = append(ix.categories, k.category)
				ix.subs[k.category] = nil
			}
			parent := [2]string{k.category, k.subCategory}
			if _, ok := ix.groups[parent]; !ok {
				ix.subs[k.category] = append(ix.subs[k.category], k.subCategory)
				ix.groups[parent] = nil
			}
			ix.groups[parent] = append(ix.groups[parent], k.productGroup)
		}
		raw[k] = append(raw[k], r)
	}

	for _, c := range ix.categories {
		for _, s := range ix.subs[c] {
			for _, g := range ix.groups[[2]string{c, s}] {
				k := leafKey{c, s, g}
				leaf := newLeaf(Resolve(raw[k], policy), len(raw[k]))
				ix.leaves[k] = leaf
				ix.order = append(ix.order, leaf)
			}
		}
	}
	return ix
}

func newLeaf(r Record, sources int) *Leaf {
	path := collapsePath(r.Category, r.SubCategory, r.ProductGroup)
	label := strings.Join(path, " ")
	return &Leaf{
		Record:           r,
		Sources:          sources,
		normCategory:     normalizer.Normalize(r.Category),
		normSubCategory:  normalizer.Normalize(r.SubCategory),
		normProductGroup: normalizer.Normalize(r.ProductGroup),
		label:            label,
		normLabel:        normalizer.Normalize(label),
		path:             path,
	}
}

// collapsePath drops blank levels and levels repeating the previous one.
func collapsePath(parts ...string) []string {
	out := make([]string, 0, len(parts))
	prev := ""
	for _, p := range parts {
		n := normalizer.Normalize(p)
		if n == "" || n == prev {
			continue
		}
		out = append(out, p)
		prev = n
	}
	return out
}

// Policy returns the resolution policy the index was built with.
func (ix *Index) Policy() Policy {
	return ix.policy
}

// Len returns the number of leaves.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.order)
}

// Categories returns non-blank categories in first-seen order.
func (ix *Index) Categories() []string {
	if ix == nil {
		return []string{}
	}
	return nonBlank(ix.categories)
}

// SubCategories returns non-blank subcategories of category. Unknown
// categories yield an empty slice.
func (ix *Index) SubCategories(category string) []string {
	if ix == nil {
		return []string{}
	}
	return nonBlank(ix.subs[category])
}

// ProductGroups returns the product groups under (category, subCategory).
// subCategory may be blank for sources without a second level.
func (ix *Index) ProductGroups(category, subCategory string) []string {
	if ix == nil {
		return []string{}
	}
	return nonBlank(ix.groups[[2]string{category, subCategory}])
}

// Rate returns the resolved record of a leaf. Unknown keys are not found;
// there is no default rate.
func (ix *Index) Rate(category, subCategory, productGroup string) (Record, bool) {
	if ix == nil {
		return Record{}, false
	}
	leaf, ok := ix.leaves[leafKey{category, subCategory, productGroup}]
	if !ok {
		return Record{}, false
	}
	return leaf.Record, true
}

// Leaves returns resolved records in traversal order.
func (ix *Index) Leaves() []Record {
	if ix == nil {
		return nil
	}
	out := make([]Record, len(ix.order))
	for i, l := range ix.order {
		out[i] = l.Record
	}
	return out
}

// ProductGroupCount counts distinct non-blank product group names.
func (ix *Index) ProductGroupCount() int {
	if ix == nil {
		return 0
	}
	seen := make(map[string]struct{})
	for _, l := range ix.order {
		if l.Record.ProductGroup != "" {
			seen[l.Record.ProductGroup] = struct{}{}
		}
	}
	return len(seen)
}

func nonBlank(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
