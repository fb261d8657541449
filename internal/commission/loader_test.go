package commission

import (
	"testing"

	"github.com/commission-finder/internal/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	table := &tabular.Table{
		Header: canonicalHeader,
		Rows: [][]string{
			{"Elektronik", "Ses", "Kulaklık", "%12,5"},
			{"Elektronik", "Ses", "Kulaklık", "15"},
			{"Elektronik", "Ses", "Hoparlör", "abc"},
			{"", "", "", "10"},
			{"Elektronik", "Ses", "Kulaklık", "15"},
			{"Moda", "Giyim", "Elbise", ""},
			{"Moda", "Giyim"},
			{" Moda ", " Giyim ", " Gömlek ", " 18 + KDV "},
		},
	}

	set, err := Load(testProfile("trendyol", ModeFullChain, PolicyMax), table)
	require.NoError(t, err)

	assert.Equal(t, 3, set.Len())
	assert.Equal(t, 8, set.Stats.Rows)
	assert.Equal(t, 3, set.Stats.Kept)
	assert.Equal(t, 3, set.Stats.Dropped)
	assert.Equal(t, 1, set.Stats.Blank)
	assert.Equal(t, 1, set.Stats.Duplicates)
	assert.False(t, set.Stats.Scaled)

	require.Len(t, set.Stats.Malformed, 3)
	assert.Equal(t, MalformedRow{Row: 4, Reason: `no number in commission "abc"`}, set.Stats.Malformed[0])
	assert.Equal(t, 7, set.Stats.Malformed[1].Row)
	assert.Equal(t, "commission is empty", set.Stats.Malformed[1].Reason)

	records := set.Records()
	assert.True(t, pct("12.5").Equal(records[0].CommissionPercent))
	assert.Equal(t, "%12,5", records[0].CommissionText)
	assert.Equal(t, "Gömlek", records[2].ProductGroup)
	assert.Equal(t, "Moda", records[2].Category)
	assert.True(t, pct("18").Equal(records[2].CommissionPercent))
	assert.Equal(t, "18 + KDV", records[2].CommissionText)
}

func TestLoad_FractionalScale(t *testing.T) {
	table := &tabular.Table{
		Header: canonicalHeader,
		Rows: [][]string{
			{"A", "B", "C", "0,125"},
			{"A", "B", "D", "0.2"},
			{"A", "B", "E", "0.05"},
		},
	}

	set, err := Load(testProfile("x", ModeFullChain, PolicyMax), table)
	require.NoError(t, err)
	assert.True(t, set.Stats.Scaled)

	records := set.Records()
	assert.True(t, pct("12.5").Equal(records[0].CommissionPercent))
	assert.True(t, pct("20").Equal(records[1].CommissionPercent))
	assert.True(t, pct("5").Equal(records[2].CommissionPercent))
	assert.Equal(t, "0,125", records[0].CommissionText)
}

func TestLoad_SharedSubCategoryIsBlank(t *testing.T) {
	profile := testProfile("amazon", ModeProductGroupOnly, PolicyMax)
	profile.Schema.ProductGroup = []string{"Ürün Grubu", "Kategori"}
	profile.Schema.Commission = []string{"Satış Komisyonu (+KDV)"}

	table := &tabular.Table{
		Header: []string{"Kategori", "Satış Komisyonu (+KDV)"},
		Rows:   [][]string{{"Kitap", "%15"}},
	}

	set, err := Load(profile, table)
	require.NoError(t, err)
	r := set.Records()[0]
	assert.Equal(t, "Kitap", r.Category)
	assert.Equal(t, "", r.SubCategory)
	assert.Equal(t, "Kitap", r.ProductGroup)
}

func TestLoad_EmptyDataset(t *testing.T) {
	table := &tabular.Table{
		Header: canonicalHeader,
		Rows: [][]string{
			{"A", "B", "C", "n/a"},
			{"", "", "", ""},
		},
	}

	set, err := Load(testProfile("x", ModeFullChain, PolicyMax), table)
	require.ErrorIs(t, err, ErrEmptyDataset)
	require.NotNil(t, set)
	assert.Equal(t, 1, set.Stats.Dropped)
	assert.Equal(t, 1, set.Stats.Blank)
}

func TestLoad_SchemaMismatch(t *testing.T) {
	table := &tabular.Table{Header: []string{"foo", "bar"}, Rows: [][]string{{"1", "2"}}}
	set, err := Load(testProfile("x", ModeFullChain, PolicyMax), table)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Nil(t, set)
}

func TestParsePercent(t *testing.T) {
	testCases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{raw: "12.5", want: "12.5", ok: true},
		{raw: "%12,5", want: "12.5", ok: true},
		{raw: "12,50 %", want: "12.5", ok: true},
		{raw: "-7", want: "7", ok: true},
		{raw: "18 + KDV (bkz. 3)", want: "18", ok: true},
		{raw: "0,125", want: "0.125", ok: true},
		{raw: "", ok: false},
		{raw: "yok", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			got, ok := ParsePercent(tc.raw)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.True(t, pct(tc.want).Equal(got), "got %s", got)
				assert.False(t, got.IsNegative())
			}
		})
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "12,50%", FormatPercent(pct("12.5")))
	assert.Equal(t, "8,00%", FormatPercent(pct("8")))
	assert.Equal(t, "0,13%", FormatPercent(pct("0.125")))
}
