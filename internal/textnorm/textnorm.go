// Package textnorm folds French and English text into comparable ASCII forms.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-+`)
)

// ligatures NFKD leaves alone.
var ligatures = strings.NewReplacer("œ", "oe", "Œ", "oe", "æ", "ae", "Æ", "ae", "ß", "ss")

// Fold lowercases s, strips diacritics and collapses everything that is not a
// letter or digit into single spaces.
// "Crème  Fraîche" -> "creme fraiche", "Bœuf (haché)" -> "boeuf hache".
func Fold(s string) string {
	s = ligatures.Replace(s)
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		if r > unicode.MaxASCII {
			return ' '
		}
		return unicode.ToLower(r)
	}, s)
	s = nonAlphanumeric.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokens returns the words of the folded form of s.
func Tokens(s string) []string {
	return strings.Fields(Fold(s))
}

// Slugify converts a string to a URL-safe slug.
// "Sauce soja" -> "sauce-soja", "Pâte brisée" -> "pate-brisee".
func Slugify(s string) string {
	s = nonAlphanumeric.ReplaceAllString(Fold(s), "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ContainsPhrase reports whether the folded phrase appears in text on word
// boundaries. Both arguments are folded first.
func ContainsPhrase(text, phrase string) bool {
	p := Fold(phrase)
	if p == "" {
		return false
	}
	return strings.Contains(" "+Fold(text)+" ", " "+p+" ")
}
