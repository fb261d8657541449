package commission

import (
	"fmt"
	"sort"

	"github.com/commission-finder/internal/tabular"
	"github.com/shopspring/decimal"
)

const maxMalformedSamples = 20

var (
	hundred      = decimal.NewFromInt(100)
	one          = decimal.NewFromInt(1)
	scaleQuantil = decimal.RequireFromString("0.95")
)

// LoadStats counts what happened to the rows of one load.
type LoadStats struct {
	Rows       int            `json:"rows"`
	Kept       int            `json:"kept"`
	Dropped    int            `json:"dropped"`
	Blank      int            `json:"blank"`
	Duplicates int            `json:"duplicates"`
	Scaled     bool           `json:"scaled"`
	Malformed  []MalformedRow `json:"malformed,omitempty"`
	Mapping    Mapping        `json:"mapping"`
}

// RecordSet is the immutable result of one load.
type RecordSet struct {
	records []Record
	Stats   LoadStats
}

// NewRecordSet wraps already canonical records, e.g. from a snapshot.
func NewRecordSet(records []Record) *RecordSet {
	rs := &RecordSet{records: append([]Record(nil), records...)}
	rs.Stats.Rows = len(records)
	rs.Stats.Kept = len(records)
	return rs
}

// Len returns the number of records; nil sets are empty.
func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.records)
}

// Records returns a copy of the records in source order.
func (rs *RecordSet) Records() []Record {
	if rs == nil {
		return nil
	}
	return append([]Record(nil), rs.records...)
}

// Load maps the table header with the profile schema and converts rows to
// records. Rows with all three text cells empty are skipped, rows without a
// parsable commission are dropped and counted, exact duplicates are skipped.
// Fractional datasets (95th percentile <= 1) are scaled to percent.
//
// On ErrEmptyDataset the returned set is non-nil and carries the counts.
func Load(profile Profile, table *tabular.Table) (*RecordSet, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: no table", ErrEmptyDataset)
	}
	m, err := MapSchema(table.Header, profile.Schema)
	if err != nil {
		return nil, err
	}

	set := &RecordSet{records: make([]Record, 0, len(table.Rows))}
	set.Stats.Mapping = m
	set.Stats.Rows = len(table.Rows)

	seen := make(map[string]struct{}, len(table.Rows))
	for i, row := range table.Rows {
		line := i + 2

		category := tabular.Cell(row, m.Column(FieldCategory))
		subCategory := ""
		if !m.SubCategoryShared() {
			subCategory = tabular.Cell(row, m.Column(FieldSubCategory))
		}
		productGroup := tabular.Cell(row, m.Column(FieldProductGroup))
		raw := tabular.Cell(row, m.Column(FieldCommission))

		if category == "" && subCategory == "" && productGroup == "" {
			set.Stats.Blank++
			continue
		}

		percent, ok := ParsePercent(raw)
		if !ok {
			set.Stats.Dropped++
			if len(set.Stats.Malformed) < maxMalformedSamples {
				reason := "commission is empty"
				if raw != "" {
					reason = fmt.Sprintf("no number in commission %q", raw)
				}
				set.Stats.Malformed = append(set.Stats.Malformed, MalformedRow{Row: line, Reason: reason})
			}
			continue
		}

		key := category + "\x00" + subCategory + "\x00" + productGroup + "\x00" + raw
		if _, dup := seen[key]; dup {
			set.Stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		set.records = append(set.records, Record{
			Category:          category,
			SubCategory:       subCategory,
			ProductGroup:      productGroup,
			CommissionPercent: percent,
			CommissionText:    raw,
		})
	}

	set.Stats.Scaled = fixScale(set.records)
	set.Stats.Kept = len(set.records)

	if len(set.records) == 0 {
		return set, fmt.Errorf("%w: %d rows, %d malformed, %d blank",
			ErrEmptyDataset, set.Stats.Rows, set.Stats.Dropped, set.Stats.Blank)
	}
	return set, nil
}

// fixScale multiplies every rate by 100 when the data is clearly written as
// fractions (0.125 for 12.5%).
func fixScale(records []Record) bool {
	if len(records) == 0 {
		return false
	}
	values := make([]decimal.Decimal, len(records))
	for i, r := range records {
		values[i] = r.CommissionPercent
	}
	if percentile(values, scaleQuantil).GreaterThan(one) {
		return false
	}
	for i := range records {
		records[i].CommissionPercent = records[i].CommissionPercent.Mul(hundred)
	}
	return true
}

// percentile uses linear interpolation between closest ranks.
func percentile(values []decimal.Decimal, q decimal.Decimal) decimal.Decimal {
	sorted := append([]decimal.Decimal(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	pos := q.Mul(decimal.NewFromInt(int64(len(sorted) - 1)))
	lo := int(pos.IntPart())
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos.Sub(decimal.NewFromInt(int64(lo)))
	return sorted[lo].Add(sorted[lo+1].Sub(sorted[lo]).Mul(frac))
}
