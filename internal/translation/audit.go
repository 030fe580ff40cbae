// Package translation flags English recipe content that is still French.
package translation

import (
	"fmt"
	"sort"

	"github.com/pageza/saveurs/backend/internal/model"
	"github.com/pageza/saveurs/backend/internal/textnorm"
)

// strongPhrases are French on their own.
var strongPhrases = []string{
	"pomme de terre", "pommes de terre", "gousse d ail", "gousses d ail",
	"cuillere a soupe", "cuilleres a soupe", "cuillere a cafe", "cuilleres a cafe",
	"huile d olive", "sel et poivre", "creme fraiche", "a feu doux", "a feu moyen",
	"pour servir", "pour decorer", "au four", "bouquet garni", "une pincee",
	"jus de citron", "fond de veau", "vin blanc", "vin rouge",
}

// indicatorWords are common French words; two distinct ones flag a field.
var indicatorWords = map[string]bool{
	"et": true, "avec": true, "du": true, "des": true, "les": true, "aux": true,
	"pour": true, "ou": true, "sans": true, "une": true, "poulet": true,
	"boeuf": true, "porc": true, "oignon": true, "oignons": true, "ail": true,
	"beurre": true, "farine": true, "sucre": true, "oeuf": true, "oeufs": true,
	"lait": true, "poivre": true, "persil": true, "hache": true, "hachee": true,
	"emince": true, "emincee": true, "fraiche": true, "frais": true,
	"cuillere": true, "cuilleres": true, "gousse": true, "gousses": true,
	"pincee": true, "facultatif": true, "optionnel": true, "tasse": true,
	"farci": true, "rape": true, "rapee": true, "coupe": true, "coupee": true,
	"tranche": true, "tranches": true, "moutarde": true, "echalote": true,
	"champignons": true, "epinards": true, "citron": true, "fromage": true,
}

// Reason explains a finding
type Reason string

const (
	ReasonFrench    Reason = "french_text"
	ReasonMissing   Reason = "missing_translation"
	ReasonMalformed Reason = "malformed_translation"
)

// Field is one piece of English content to check. Path locates it in the recipe.
type Field struct {
	Path string
	Text string
}

// Finding is a field that needs re-translation
type Finding struct {
	Path       string   `json:"path"`
	Text       string   `json:"text,omitempty"`
	Reason     Reason   `json:"reason"`
	Phrase     string   `json:"phrase,omitempty"`
	Indicators []string `json:"indicators,omitempty"`
}

// Check reports whether text looks French: it contains a strong phrase or at
// least two distinct indicator words.
func Check(text string) (phrase string, indicators []string, french bool) {
	for _, p := range strongPhrases {
		if textnorm.ContainsPhrase(text, p) {
			phrase = p
			break
		}
	}

	seen := make(map[string]bool)
	for _, tok := range textnorm.Tokens(text) {
		if indicatorWords[tok] && !seen[tok] {
			seen[tok] = true
			indicators = append(indicators, tok)
		}
	}
	sort.Strings(indicators)

	return phrase, indicators, phrase != "" || len(indicators) >= 2
}

// Audit returns a finding for every field that still reads as French
func Audit(fields []Field) []Finding {
	findings := make([]Finding, 0)
	for _, f := range fields {
		phrase, indicators, french := Check(f.Text)
		if !french {
			continue
		}
		findings = append(findings, Finding{
			Path:       f.Path,
			Text:       f.Text,
			Reason:     ReasonFrench,
			Phrase:     phrase,
			Indicators: indicators,
		})
	}
	return findings
}

// RecipeFields lists the English fields of a recipe: its title and the titles,
// names and notes of the English ingredient groups.
func RecipeFields(r model.Recipe, groups []model.IngredientGroup) []Field {
	var fields []Field
	if r.TitleEN != "" {
		fields = append(fields, Field{Path: "title_en", Text: r.TitleEN})
	}
	for gi, g := range groups {
		if g.Title != nil {
			fields = append(fields, Field{Path: fmt.Sprintf("ingredients_en[%d].title", gi), Text: *g.Title})
		}
		for ii, item := range g.Items {
			base := fmt.Sprintf("ingredients_en[%d].items[%d]", gi, ii)
			fields = append(fields, Field{Path: base + ".name", Text: item.Name})
			if item.Note != "" {
				fields = append(fields, Field{Path: base + ".note", Text: item.Note})
			}
		}
	}
	return fields
}

// AuditRecipe checks the English content of a recipe. A recipe without an
// English ingredient list, or with one that fails validation, gets a single
// finding for it.
func AuditRecipe(r model.Recipe) []Finding {
	var groups []model.IngredientGroup
	var extra []Finding

	if len(r.IngredientsEN) == 0 || string(r.IngredientsEN) == "null" {
		extra = append(extra, Finding{Path: "ingredients_en", Reason: ReasonMissing})
	} else {
		decoded, err := model.DecodeIngredientGroups(r.IngredientsEN)
		if err != nil {
			extra = append(extra, Finding{Path: "ingredients_en", Reason: ReasonMalformed, Text: err.Error()})
		} else {
			groups = decoded
		}
	}

	return append(Audit(RecipeFields(r, groups)), extra...)
}
