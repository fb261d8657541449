package commission

import (
	"fmt"
	"strings"

	"github.com/commission-finder/internal/normalizer"
)

// Mapping is the source column of every canonical field.
type Mapping struct {
	Columns [4]int    `json:"columns"`
	Headers [4]string `json:"headers"`
}

// Column returns the source column index of f.
func (m Mapping) Column(f Field) int {
	return m.Columns[f]
}

// SubCategoryShared reports whether subCategory resolved to the category
// column. Such sources have no real second level and the subCategory is
// left blank.
func (m Mapping) SubCategoryShared() bool {
	return m.Columns[FieldSubCategory] == m.Columns[FieldCategory]
}

// MapSchema resolves every canonical field to a header column.
//
// Aliases are tried in priority order; for each alias an exact match (after
// normalization, underscores read as spaces) beats a substring match. Columns
// already taken by an earlier field are skipped first and only reused when
// nothing else matches.
func MapSchema(header []string, schema Schema) (Mapping, error) {
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = normalizer.HeaderKey(h)
	}

	var m Mapping
	claimed := make(map[int]bool, len(Fields))
	for _, f := range Fields {
		aliases := schema.Aliases(f)
		col := matchColumn(keys, aliases, claimed)
		if col < 0 {
			col = matchColumn(keys, aliases, nil)
		}
		if col < 0 {
			return Mapping{}, fmt.Errorf("%w: no header for %s (aliases %s; header %s)",
				ErrSchemaMismatch, f, quoteAll(aliases), quoteAll(header))
		}
		m.Columns[f] = col
		m.Headers[f] = header[col]
		claimed[col] = true
	}
	return m, nil
}

func matchColumn(keys, aliases []string, skip map[int]bool) int {
	for _, alias := range aliases {
		a := normalizer.HeaderKey(alias)
		if a == "" {
			continue
		}
		partial := -1
		for i, k := range keys {
			if k == "" || skip[i] {
				continue
			}
			if k == a {
				return i
			}
			if partial < 0 && strings.Contains(k, a) {
				partial = i
			}
		}
		if partial >= 0 {
			return partial
		}
	}
	return -1
}

func quoteAll(ss []string) string {
	q := make([]string, len(ss))
	for i, s := range ss {
		q[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(q, ", ") + "]"
}
