package translation

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/pageza/saveurs/backend/internal/llmjson"
	"github.com/pageza/saveurs/backend/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrStillFrench rejects a re-translation that fails the audit itself
	ErrStillFrench = errors.New("translation still contains French")
	// ErrEmptyTranslation rejects a re-translation without ingredients
	ErrEmptyTranslation = errors.New("translation has no ingredients")
	// ErrRecipeNotFound is returned when the target recipe does not exist
	ErrRecipeNotFound = errors.New("recipe not found")
)

// Retranslation is one line of a model re-translation dump
type Retranslation struct {
	RecipeID uint   `json:"recipeId"`
	Raw      string `json:"raw"`
}

// ParseRetranslation recovers the English ingredient groups from raw model
// output, validates them and returns their canonical JSON. The output may be
// the group array itself or an object wrapping it under "ingredients".
func ParseRetranslation(raw string) (datatypes.JSON, []model.IngredientGroup, error) {
	doc, err := llmjson.Parse(raw)
	if err != nil {
		return nil, nil, err
	}

	var wrapper struct {
		Ingredients json.RawMessage `json:"ingredients"`
	}
	if len(doc) > 0 && doc[0] == '{' {
		if err := json.Unmarshal(doc, &wrapper); err == nil && len(wrapper.Ingredients) > 0 {
			doc = wrapper.Ingredients
		}
	}

	groups, err := model.DecodeIngredientGroups(doc)
	if err != nil {
		return nil, nil, err
	}
	if len(groups) == 0 {
		return nil, nil, ErrEmptyTranslation
	}
	if findings := Audit(RecipeFields(model.Recipe{}, groups)); len(findings) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrStillFrench, findings[0].Path)
	}

	canonical, err := json.Marshal(groups)
	if err != nil {
		return nil, nil, fmt.Errorf("encode groups: %w", err)
	}
	return datatypes.JSON(canonical), groups, nil
}

// Applier stores accepted re-translations
type Applier struct {
	db *gorm.DB
}

// NewApplier creates an Applier
func NewApplier(db *gorm.DB) *Applier {
	return &Applier{db: db}
}

// Apply validates rt and replaces the recipe's English ingredient list
func (a *Applier) Apply(ctx context.Context, rt Retranslation) error {
	blob, _, err := ParseRetranslation(rt.Raw)
	if err != nil {
		return fmt.Errorf("recipe %d: %w", rt.RecipeID, err)
	}

	res := a.db.WithContext(ctx).
		Model(&model.Recipe{}).
		Where("id = ?", rt.RecipeID).
		Update("ingredients_en", blob)
	if res.Error != nil {
		return fmt.Errorf("recipe %d: update ingredients_en: %w", rt.RecipeID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("recipe %d: %w", rt.RecipeID, ErrRecipeNotFound)
	}
	return nil
}
