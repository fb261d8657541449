package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Turkish letters that NFD either keeps intact (ı) or would lose the
// dotless/dotted distinction for. Mapped before the generic strip.
var turkishFold = strings.NewReplacer(
	"ğ", "g", "Ğ", "G",
	"ü", "u", "Ü", "U",
	"ş", "s", "Ş", "S",
	"ı", "i", "İ", "I",
	"ö", "o", "Ö", "O",
	"ç", "c", "Ç", "C",
)

// FoldTurkish replaces Turkish-specific letters with their ASCII base letter,
// keeping case.
func FoldTurkish(s string) string {
	return turkishFold.Replace(s)
}

// StripDiacritics removes combining marks: NFD, drop Mn, NFC.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
