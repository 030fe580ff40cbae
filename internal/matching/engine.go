// Package matching ranks recipes by how much of their required ingredient
// list is covered by a user's selection.
package matching

import (
	"math"
	"sort"
)

// Candidate is a recipe reduced to the ingredients it requires. Optional and
// garnish ingredients are expected to be filtered out by the caller.
type Candidate struct {
	RecipeID uint
	Required []string
}

// Result is the match metadata of one recipe. Matched and Missing hold the
// required keys as given in the candidate.
type Result struct {
	RecipeID            uint     `json:"recipeId"`
	MatchingIngredients int      `json:"matchingIngredients"`
	TotalIngredients    int      `json:"totalIngredients"`
	MatchPercentage     int      `json:"matchPercentage"`
	Matched             []string `json:"-"`
	Missing             []string `json:"-"`
}

// ExclusionReason explains why a candidate never reached scoring.
type ExclusionReason string

const (
	// ExcludedNoIngredients means the recipe has no required ingredient at all.
	ExcludedNoIngredients ExclusionReason = "no_required_ingredients"
)

// Engine scores candidates against a selection. It holds no state between calls.
type Engine struct {
	matcher Matcher

	// OnExcluded, when set, is called for every candidate dropped as malformed.
	OnExcluded func(recipeID uint, reason ExclusionReason)
}

// NewEngine returns an engine using the given matcher.
func NewEngine(m Matcher) *Engine {
	return &Engine{matcher: m}
}

// NewExactEngine matches catalog ids or slugs.
func NewExactEngine() *Engine {
	return NewEngine(ExactMatcher{})
}

// NewFuzzyEngine matches free-text ingredient names.
func NewFuzzyEngine() *Engine {
	return NewEngine(FuzzyMatcher{})
}

// Rank scores every candidate and returns those sharing at least one
// ingredient with the selection, best first. Ties on percentage are broken by
// the number of matching ingredients, then by recipe id. An empty selection
// yields an empty, non-nil slice.
func (e *Engine) Rank(selection []string, corpus []Candidate) []Result {
	results := make([]Result, 0)

	keys := e.normalizeSelection(selection)
	if len(keys) == 0 {
		return results
	}

	for _, c := range corpus {
		r, ok := e.score(keys, c)
		if !ok {
			continue
		}
		if r.MatchingIngredients > 0 {
			results = append(results, r)
		}
	}

	SortResults(results)
	return results
}

// Score computes the result for one candidate. ok is false when the candidate
// has no required ingredient.
func (e *Engine) Score(selection []string, c Candidate) (Result, bool) {
	return e.score(e.normalizeSelection(selection), c)
}

func (e *Engine) score(keys []string, c Candidate) (Result, bool) {
	required := e.dedupeRequired(c.Required)
	if len(required) == 0 {
		if e.OnExcluded != nil {
			e.OnExcluded(c.RecipeID, ExcludedNoIngredients)
		}
		return Result{}, false
	}

	r := Result{
		RecipeID:         c.RecipeID,
		TotalIngredients: len(required),
		Matched:          make([]string, 0, len(required)),
		Missing:          make([]string, 0),
	}
	for _, req := range required {
		if e.covered(keys, req.normalized) {
			r.Matched = append(r.Matched, req.original)
		} else {
			r.Missing = append(r.Missing, req.original)
		}
	}
	r.MatchingIngredients = len(r.Matched)
	r.MatchPercentage = Percentage(r.MatchingIngredients, r.TotalIngredients)
	return r, true
}

func (e *Engine) covered(keys []string, required string) bool {
	for _, k := range keys {
		if e.matcher.Match(k, required) {
			return true
		}
	}
	return false
}

type requiredKey struct {
	original   string
	normalized string
}

// dedupeRequired normalizes required keys, dropping blanks and duplicates so
// an ingredient listed twice counts once.
func (e *Engine) dedupeRequired(required []string) []requiredKey {
	seen := make(map[string]bool, len(required))
	out := make([]requiredKey, 0, len(required))
	for _, r := range required {
		n := e.matcher.Normalize(r)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, requiredKey{original: r, normalized: n})
	}
	return out
}

func (e *Engine) normalizeSelection(selection []string) []string {
	seen := make(map[string]bool, len(selection))
	keys := make([]string, 0, len(selection))
	for _, s := range selection {
		n := e.matcher.Normalize(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		keys = append(keys, n)
	}
	return keys
}

// Percentage returns round(matching/total*100), or 0 when total is not positive.
func Percentage(matching, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(matching) / float64(total) * 100))
}

// SortResults orders results by percentage desc, matching count desc, recipe id asc.
func SortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.MatchPercentage != b.MatchPercentage {
			return a.MatchPercentage > b.MatchPercentage
		}
		if a.MatchingIngredients != b.MatchingIngredients {
			return a.MatchingIngredients > b.MatchingIngredients
		}
		return a.RecipeID < b.RecipeID
	})
}

// Filter keeps results at or above minPercentage and truncates to limit when
// limit is positive. The input order is preserved.
func Filter(results []Result, minPercentage, limit int) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if r.MatchPercentage < minPercentage {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
