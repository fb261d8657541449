package commission

import "strings"

const concatSeparator = " / "

// Resolve collapses records sharing one (category, subCategory,
// productGroup) key into the authoritative record.
//
//   - max: greatest CommissionPercent, first seen wins a tie
//   - first: first record
//   - concat: the max record, with every distinct commission text joined
//
// Unknown policies behave like max. An empty slice yields the zero Record.
func Resolve(records []Record, policy Policy) Record {
	if len(records) == 0 {
		return Record{}
	}

	switch policy {
	case PolicyFirst:
		return records[0]
	case PolicyConcat:
		best := maxRecord(records)
		best.CommissionText = joinTexts(records)
		return best
	default:
		return maxRecord(records)
	}
}

func maxRecord(records []Record) Record {
	best := records[0]
	for _, r := range records[1:] {
		if r.CommissionPercent.GreaterThan(best.CommissionPercent) {
			best = r
		}
	}
	return best
}

func joinTexts(records []Record) string {
	seen := make(map[string]bool, len(records))
	texts := make([]string, 0, len(records))
	for _, r := range records {
		t := strings.TrimSpace(r.CommissionText)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		texts = append(texts, t)
	}
	return strings.Join(texts, concatSeparator)
}
