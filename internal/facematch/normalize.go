package facematch

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics strips combining marks, e.g. "Jiří" -> "Jiri".
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’' || r == '`'
}

// punctToSpace turns separators such as "-", "_" and "." into spaces.
func punctToSpace(r rune) rune {
	if unicode.IsPunct(r) || unicode.IsSymbol(r) {
		return ' '
	}
	return r
}

// NormalizePersonName folds a display name into the key used to compare
// names: no diacritics or apostrophes, case folded, punctuation as spaces,
// whitespace collapsed. "Jiří O'Brien-Novák" and "jiri obrien novak" share a key.
func NormalizePersonName(name string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(isApostrophe)),
		runes.Map(punctToSpace),
		cases.Fold(),
		norm.NFC,
	)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = strings.ToLower(name)
	}
	return strings.Join(strings.Fields(folded), " ")
}

// SameName reports whether two display names refer to the same spoken name.
func SameName(a, b string) bool {
	return NormalizePersonName(a) == NormalizePersonName(b)
}
