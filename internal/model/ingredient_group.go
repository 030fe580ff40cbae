package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pageza/saveurs/backend/internal/textnorm"
)

// ErrMalformedRecipe marks recipe data that cannot be trusted downstream
var ErrMalformedRecipe = errors.New("malformed recipe data")

// MalformedError describes why a recipe was quarantined
type MalformedError struct {
	RecipeID uint
	Reason   string
}

func (e *MalformedError) Error() string {
	if e.RecipeID == 0 {
		return fmt.Sprintf("malformed recipe data: %s", e.Reason)
	}
	return fmt.Sprintf("malformed recipe %d: %s", e.RecipeID, e.Reason)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformedRecipe
}

// IngredientGroup is a titled section of a recipe's ingredient list
type IngredientGroup struct {
	Title *string          `json:"title,omitempty"`
	Items []IngredientItem `json:"items"`
}

// IngredientItem is one authored ingredient line
type IngredientItem struct {
	Quantity FlexString `json:"quantity"`
	Unit     string     `json:"unit"`
	Name     string     `json:"name"`
	Note     string     `json:"note,omitempty"`
}

// FlexString accepts both JSON strings and numbers ("2" and 2 are both common
// in editor-authored quantities).
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = FlexString(strconv.FormatFloat(num, 'f', -1, 64))
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*f = FlexString(strings.TrimSpace(str))
		return nil
	}

	return fmt.Errorf("invalid quantity %s", string(data))
}

// optionalMarkers flag an ingredient as not required when they appear in its
// note, its name or its group title.
var optionalMarkers = []string{
	"optionnel", "optionnelle", "facultatif", "facultative",
	"optional", "garniture", "garnish",
	"pour servir", "to serve", "for serving",
	"pour decorer", "to decorate", "decoration",
}

func hasOptionalMarker(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	for _, m := range optionalMarkers {
		if textnorm.ContainsPhrase(s, m) {
			return true
		}
	}
	return false
}

// IsOptional reports whether the item is a garnish or optional ingredient.
func (i IngredientItem) IsOptional() bool {
	return hasOptionalMarker(i.Note) || hasOptionalMarker(i.Name)
}

// IsOptional reports whether the whole group is a garnish section.
func (g IngredientGroup) IsOptional() bool {
	return g.Title != nil && hasOptionalMarker(*g.Title)
}

// DecodeIngredientGroups validates an authored ingredient blob. It accepts the
// grouped shape [{title, items:[...]}] and the legacy flat shape [{name, ...}],
// which becomes one untitled group. A missing blob yields no groups.
func DecodeIngredientGroups(raw []byte) ([]IngredientGroup, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, &MalformedError{Reason: "ingredients must be a JSON array"}
	}

	grouped, flat := 0, 0
	for i, el := range elems {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(el, &probe); err != nil {
			return nil, &MalformedError{Reason: fmt.Sprintf("entry %d is not an object", i)}
		}
		if _, ok := probe["items"]; ok {
			grouped++
		} else {
			flat++
		}
	}
	if grouped > 0 && flat > 0 {
		return nil, &MalformedError{Reason: "ingredients mix groups and bare items"}
	}

	var groups []IngredientGroup
	if flat > 0 {
		var items []IngredientItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, &MalformedError{Reason: fmt.Sprintf("invalid ingredient item: %v", err)}
		}
		groups = []IngredientGroup{{Items: items}}
	} else if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, &MalformedError{Reason: fmt.Sprintf("invalid ingredient group: %v", err)}
	}

	for gi := range groups {
		if groups[gi].Title != nil {
			t := strings.TrimSpace(*groups[gi].Title)
			if t == "" {
				groups[gi].Title = nil
			} else {
				groups[gi].Title = &t
			}
		}
		for ii := range groups[gi].Items {
			item := &groups[gi].Items[ii]
			item.Name = strings.TrimSpace(item.Name)
			item.Unit = strings.TrimSpace(item.Unit)
			item.Note = strings.TrimSpace(item.Note)
			if item.Name == "" {
				return nil, &MalformedError{Reason: fmt.Sprintf("item %d of group %d has no name", ii+1, gi+1)}
			}
		}
	}

	return groups, nil
}

// DecodeIngredients decodes the recipe's ingredient groups for a locale,
// tagging any validation error with the recipe id.
func (r Recipe) DecodeIngredients(locale Locale) ([]IngredientGroup, error) {
	groups, err := DecodeIngredientGroups(r.IngredientBlob(locale))
	if err != nil {
		var me *MalformedError
		if errors.As(err, &me) {
			me.RecipeID = r.ID
		}
		return nil, err
	}
	return groups, nil
}

// RequiredNames lists the names of required ingredients across groups, with
// duplicates (after folding) removed. Optional items and garnish sections are
// skipped.
func RequiredNames(groups []IngredientGroup) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, g := range groups {
		if g.IsOptional() {
			continue
		}
		for _, item := range g.Items {
			if item.IsOptional() {
				continue
			}
			key := textnorm.Fold(item.Name)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			names = append(names, item.Name)
		}
	}
	return names
}
