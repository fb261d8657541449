// Package normalizer canonicalizes free text for matching: single case,
// no diacritics, single spaces.
package normalizer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mozillazg/go-unidecode"
)

var reSpaces = regexp.MustCompile(`[\s\p{Zs}]+`)

// Normalize folds s to lowercase ASCII without diacritics and collapses
// whitespace. Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = FoldTurkish(s)
	s = StripDiacritics(s)
	if !isASCII(s) {
		s = unidecode.Unidecode(s)
	}
	s = strings.ToLower(s)
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// HeaderKey normalizes a column header or header alias. Underscores count as
// spaces so "Komisyon_%_KDV_Dahil" and "Komisyon % KDV Dahil" compare equal.
func HeaderKey(s string) string {
	return Normalize(strings.ReplaceAll(s, "_", " "))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
