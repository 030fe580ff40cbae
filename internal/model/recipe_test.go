package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestParseLocale(t *testing.T) {
	l, err := ParseLocale("")
	require.NoError(t, err)
	assert.Equal(t, LocaleFR, l)

	l, err = ParseLocale(" EN ")
	require.NoError(t, err)
	assert.Equal(t, LocaleEN, l)

	_, err = ParseLocale("de")
	assert.ErrorIs(t, err, ErrInvalidLocale)
}

func TestRecipeLocalizedFields(t *testing.T) {
	r := Recipe{SlugFR: "poulet-roti", TitleFR: "Poulet rôti", TitleEN: "Roast chicken"}

	assert.Equal(t, "Roast chicken", r.Title(LocaleEN))
	assert.Equal(t, "Poulet rôti", r.Title(LocaleFR))
	// no English slug yet
	assert.Equal(t, "poulet-roti", r.Slug(LocaleEN))

	ing := Ingredient{NameFR: "Poulet", NameEN: "Chicken"}
	assert.Equal(t, "Chicken", ing.Name(LocaleEN))
	assert.Equal(t, "Poulet", Ingredient{NameFR: "Poulet"}.Name(LocaleEN))
}

func TestDecodeIngredientGroups(t *testing.T) {
	t.Run("grouped shape", func(t *testing.T) {
		raw := `[
			{"title": "Pâte", "items": [{"quantity": 250, "unit": "g", "name": "farine"}, {"quantity": "1", "unit": "", "name": " oeuf "}]},
			{"title": "  ", "items": [{"quantity": null, "unit": "", "name": "sel"}]}
		]`
		groups, err := DecodeIngredientGroups([]byte(raw))
		require.NoError(t, err)
		require.Len(t, groups, 2)
		require.NotNil(t, groups[0].Title)
		assert.Equal(t, "Pâte", *groups[0].Title)
		assert.Equal(t, FlexString("250"), groups[0].Items[0].Quantity)
		assert.Equal(t, "oeuf", groups[0].Items[1].Name)
		assert.Nil(t, groups[1].Title)
	})

	t.Run("legacy flat shape", func(t *testing.T) {
		raw := `[{"quantity": 1.5, "unit": "kg", "name": "chicken"}, {"quantity": "", "unit": "", "name": "parsley", "note": "to serve"}]`
		groups, err := DecodeIngredientGroups([]byte(raw))
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Nil(t, groups[0].Title)
		assert.Equal(t, FlexString("1.5"), groups[0].Items[0].Quantity)
		assert.True(t, groups[0].Items[1].IsOptional())
	})

	t.Run("empty blob", func(t *testing.T) {
		for _, raw := range []string{"", "null", "  "} {
			groups, err := DecodeIngredientGroups([]byte(raw))
			require.NoError(t, err)
			assert.Empty(t, groups)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		cases := map[string]string{
			"not an array":  `{"items": []}`,
			"not json":      `[{"name": "x"`,
			"scalar entry":  `["farine"]`,
			"missing name":  `[{"title": "A", "items": [{"quantity": 1, "unit": "g", "name": "  "}]}]`,
			"mixed shapes":  `[{"items": []}, {"name": "sel"}]`,
			"bad quantity":  `[{"quantity": {"v": 1}, "name": "sel"}]`,
		}
		for name, raw := range cases {
			_, err := DecodeIngredientGroups([]byte(raw))
			require.Error(t, err, name)
			assert.True(t, errors.Is(err, ErrMalformedRecipe), name)
		}
	})
}

func TestRecipeDecodeIngredientsTagsRecipeID(t *testing.T) {
	r := Recipe{ID: 7, Ingredients: datatypes.JSON(`"oops"`)}
	_, err := r.DecodeIngredients(LocaleFR)

	var me *MalformedError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, uint(7), me.RecipeID)
	assert.Contains(t, err.Error(), "malformed recipe 7")
}

func TestRecipeDecodeIngredientsFallsBackToFrench(t *testing.T) {
	r := Recipe{ID: 1, Ingredients: datatypes.JSON(`[{"name": "poulet"}]`)}
	groups, err := r.DecodeIngredients(LocaleEN)
	require.NoError(t, err)
	assert.Equal(t, "poulet", groups[0].Items[0].Name)
}

func TestRequiredNames(t *testing.T) {
	garnish := "Garniture"
	groups := []IngredientGroup{
		{Items: []IngredientItem{
			{Name: "Poulet"},
			{Name: "riz"},
			{Name: "poulet"},
			{Name: "Coriandre", Note: "facultatif"},
			{Name: "Piment (optionnel)"},
		}},
		{Title: &garnish, Items: []IngredientItem{{Name: "Sésame"}}},
		{Items: []IngredientItem{{Name: "Sauce soja"}}},
	}

	assert.Equal(t, []string{"Poulet", "riz", "Sauce soja"}, RequiredNames(groups))
	assert.NotNil(t, RequiredNames(nil))
}
