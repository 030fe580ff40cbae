package matching

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/pageza/saveurs/backend/internal/textnorm"
)

// Matcher decides whether a selected key covers a required ingredient.
// Both arguments to Match have already been passed through Normalize.
type Matcher interface {
	Normalize(s string) string
	Match(selected, required string) bool
}

// ExactMatcher compares normalized keys for equality. Used for catalog ids and slugs.
type ExactMatcher struct{}

func (ExactMatcher) Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (ExactMatcher) Match(selected, required string) bool {
	return selected != "" && selected == required
}

// FuzzyMatcher matches author-entered ingredient text against user input.
// Text is folded (case, accents, punctuation) and compared token by token: the
// shorter phrase must appear as a contiguous run inside the longer one, so
// "poulet" matches "blanc de poulet" and "chicken breast" matches "chicken".
// Tokens are equal when they agree up to a plural suffix, or, for words of
// MinFuzzyLen runes or more sharing their first three runes, within one edit
// ("champigon" / "champignon"). Short words never go through edit distance:
// "sauge" and "sauce" are different ingredients.
type FuzzyMatcher struct {
	// MinFuzzyLen is the shortest token eligible for edit-distance comparison.
	// Zero means 7.
	MinFuzzyLen int
}

const (
	defaultMinFuzzyLen = 7
	fuzzyPrefixLen     = 3
)

func (FuzzyMatcher) Normalize(s string) string {
	return textnorm.Fold(s)
}

func (m FuzzyMatcher) Match(selected, required string) bool {
	if selected == "" || required == "" {
		return false
	}
	if selected == required {
		return true
	}

	sel := strings.Fields(selected)
	req := strings.Fields(required)
	if len(sel) <= len(req) {
		return m.containsRun(req, sel)
	}
	return m.containsRun(sel, req)
}

// containsRun reports whether needle occurs contiguously in haystack.
func (m FuzzyMatcher) containsRun(haystack, needle []string) bool {
	for start := 0; start+len(needle) <= len(haystack); start++ {
		ok := true
		for i, tok := range needle {
			if !m.tokenEqual(haystack[start+i], tok) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func (m FuzzyMatcher) tokenEqual(a, b string) bool {
	if a == b {
		return true
	}
	a, b = singular(a), singular(b)
	if a == b {
		return true
	}

	minLen := m.MinFuzzyLen
	if minLen <= 0 {
		minLen = defaultMinFuzzyLen
	}
	if utf8.RuneCountInString(a) < minLen || utf8.RuneCountInString(b) < minLen {
		return false
	}
	if !samePrefix(a, b, fuzzyPrefixLen) {
		return false
	}
	return levenshtein.ComputeDistance(a, b) <= 1
}

func samePrefix(a, b string, n int) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < n || len(rb) < n {
		return false
	}
	return string(ra[:n]) == string(rb[:n])
}

// singular strips the common French and English plural endings.
func singular(tok string) string {
	switch {
	case len(tok) > 4 && strings.HasSuffix(tok, "oes"):
		return strings.TrimSuffix(tok, "es")
	case len(tok) > 3 && (strings.HasSuffix(tok, "s") || strings.HasSuffix(tok, "x")):
		return tok[:len(tok)-1]
	default:
		return tok
	}
}
