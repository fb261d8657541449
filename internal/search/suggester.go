package search

import (
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/commission-finder/internal/commission"
	"github.com/commission-finder/internal/normalizer"
	"github.com/xrash/smetrics"
)

// Suggestion is a "did you mean" candidate.
type Suggestion struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Suggester proposes taxonomy names close to a query that matched nothing.
type Suggester struct {
	limit int
}

// NewSuggester returns a suggester yielding at most limit suggestions.
func NewSuggester(limit int) *Suggester {
	if limit <= 0 {
		limit = 5
	}
	return &Suggester{limit: limit}
}

// Vocabulary lists the distinct non-blank names of ix: product groups first,
// then subcategories and categories.
func Vocabulary(ix *commission.Index) []string {
	seen := make(map[string]bool)
	var words []string
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		words = append(words, s)
	}
	leaves := ix.Leaves()
	for _, r := range leaves {
		add(r.ProductGroup)
	}
	for _, r := range leaves {
		add(r.SubCategory)
	}
	for _, r := range leaves {
		add(r.Category)
	}
	return words
}

// Suggest scores every candidate against query and returns the best ones,
// highest score first. Ties keep candidate order.
func (s *Suggester) Suggest(query string, candidates []string) []Suggestion {
	q := normalizer.Normalize(query)
	if q == "" {
		return []Suggestion{}
	}

	out := []Suggestion{}
	for _, c := range candidates {
		score := fuzzyScore(q, normalizer.Normalize(c))
		if score == 0 {
			continue
		}
		out = append(out, Suggestion{Text: c, Score: math.Round(score*1000) / 1000})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > s.limit {
		out = out[:s.limit]
	}
	return out
}

// fuzzyScore is the best of Jaro-Winkler and length-normalized Levenshtein
// similarity, over the whole name and each of its words. Short queries need
// a higher score to count.
func fuzzyScore(q, name string) float64 {
	if name == "" {
		return 0
	}

	best := 0.0
	for _, target := range append([]string{name}, strings.Fields(name)...) {
		if jw := smetrics.JaroWinkler(q, target, 0.7, 4); jw > best {
			best = jw
		}
		dist := levenshtein.ComputeDistance(q, target)
		maxLen := math.Max(float64(len([]rune(q))), float64(len([]rune(target))))
		if lev := 1.0 - float64(dist)/maxLen; lev > best {
			best = lev
		}
	}

	if len(q) <= 10 && best > 0.8 {
		return best
	}
	if len(q) > 10 && best > 0.6 {
		return best
	}
	return 0
}
