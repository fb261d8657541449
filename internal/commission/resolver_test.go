package commission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	a := rec("Elektronik", "Ses", "Kulaklık", "12.5")
	b := rec("Elektronik", "Ses", "Kulaklık", "15")
	c := rec("Elektronik", "Ses", "Kulaklık", "15")
	c.CommissionText = "15 (dipnot 2)"
	d := rec("Elektronik", "Ses", "Kulaklık", "9")

	testCases := []struct {
		name     string
		records  []Record
		policy   Policy
		wantPct  string
		wantText string
	}{
		{name: "max picks greatest", records: []Record{a, b, d}, policy: PolicyMax, wantPct: "15", wantText: "15"},
		{name: "max tie keeps first seen", records: []Record{d, b, c}, policy: PolicyMax, wantPct: "15", wantText: "15"},
		{name: "max tie other order", records: []Record{c, b}, policy: PolicyMax, wantPct: "15", wantText: "15 (dipnot 2)"},
		{name: "first", records: []Record{a, b}, policy: PolicyFirst, wantPct: "12.5", wantText: "12.5"},
		{name: "concat", records: []Record{a, b, c, b}, policy: PolicyConcat, wantPct: "15", wantText: "12.5 / 15 / 15 (dipnot 2)"},
		{name: "unknown policy behaves like max", records: []Record{a, b}, policy: Policy("weird"), wantPct: "15", wantText: "15"},
		{name: "single record", records: []Record{d}, policy: PolicyMax, wantPct: "9", wantText: "9"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.records, tc.policy)
			assert.True(t, pct(tc.wantPct).Equal(got.CommissionPercent), "got %s", got.CommissionPercent)
			assert.Equal(t, tc.wantText, got.CommissionText)
		})
	}
}

func TestResolve_MaxIsGlobalMaximum(t *testing.T) {
	values := []string{"3", "17.25", "8", "17.2", "0", "17.25", "1"}
	records := make([]Record, len(values))
	for i, v := range values {
		records[i] = rec("A", "B", "C", v)
		records[i].CommissionText = v + "#" + string(rune('a'+i))
	}

	got := Resolve(records, PolicyMax)
	for _, r := range records {
		assert.False(t, r.CommissionPercent.GreaterThan(got.CommissionPercent))
	}
	assert.Equal(t, "17.25#b", got.CommissionText)
}

func TestResolve_Empty(t *testing.T) {
	assert.Equal(t, Record{}, Resolve(nil, PolicyMax))
}

func TestParsePolicyAndMode(t *testing.T) {
	p, err := ParsePolicy("")
	assert.NoError(t, err)
	assert.Equal(t, PolicyMax, p)

	p, err = ParsePolicy(" CONCAT ")
	assert.NoError(t, err)
	assert.Equal(t, PolicyConcat, p)

	_, err = ParsePolicy("min")
	assert.Error(t, err)

	m, err := ParseMode("")
	assert.NoError(t, err)
	assert.Equal(t, ModeFullChain, m)

	m, err = ParseMode("product-group-only")
	assert.NoError(t, err)
	assert.Equal(t, ModeProductGroupOnly, m)

	_, err = ParseMode("tree")
	assert.Error(t, err)
}
