package main

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/pageza/saveurs/backend/internal/model"
	"github.com/pageza/saveurs/backend/internal/testhelpers"
	"github.com/pageza/saveurs/backend/internal/translation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudit(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "propre", Title: "Propre", TitleEN: "Clean", Published: true,
		Ingredients: `[{"name": "Riz"}]`, IngredientsEN: `[{"name": "Rice"}]`,
	})
	french := testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "poulet-ail", Title: "Poulet à l'ail", TitleEN: "Garlic chicken", Published: true,
		Ingredients:   `[{"name": "Poulet"}, {"name": "Gousses d'ail"}]`,
		IngredientsEN: `[{"name": "Chicken"}, {"name": "Gousses d'ail"}]`,
	})
	missing := testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "sans-traduction", Title: "Sans traduction", Published: true,
		Ingredients: `[{"name": "Riz"}]`,
	})
	testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "brouillon", Title: "Brouillon", Published: false,
		Ingredients: `[{"name": "Riz"}]`,
	})

	var out bytes.Buffer
	flagged, err := audit(context.Background(), db, &out, true)
	require.NoError(t, err)
	assert.Equal(t, 2, flagged)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var first, second recipeReport
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, french.ID, first.RecipeID)
	require.NotEmpty(t, first.Findings)
	assert.Equal(t, "ingredients_en[0].items[1].name", first.Findings[0].Path)
	assert.Equal(t, translation.ReasonFrench, first.Findings[0].Reason)
	assert.Equal(t, missing.ID, second.RecipeID)
	assert.Equal(t, translation.ReasonMissing, second.Findings[0].Reason)

	out.Reset()
	flagged, err = audit(context.Background(), db, &out, false)
	require.NoError(t, err)
	assert.Equal(t, 2, flagged)
	assert.Contains(t, out.String(), "#"+strconv.FormatUint(uint64(french.ID), 10)+" poulet-ail")
	assert.Contains(t, out.String(), "missing_translation")
}

func TestApplyFile(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	r := testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "poulet", Title: "Poulet", Published: true,
		Ingredients: `[{"name": "Poulet"}]`, IngredientsEN: `[{"name": "Poulet"}]`,
	})

	good, err := json.Marshal(translation.Retranslation{
		RecipeID: r.ID,
		Raw:      "Here you go:\n```json\n[{\"name\": \"Chicken\", \"quantity\": 1,}]\n```",
	})
	require.NoError(t, err)
	stillFrench, err := json.Marshal(translation.Retranslation{RecipeID: r.ID, Raw: `[{"name": "Gousses d'ail"}]`})
	require.NoError(t, err)
	unknown, err := json.Marshal(translation.Retranslation{RecipeID: 9999, Raw: `[{"name": "Rice"}]`})
	require.NoError(t, err)

	input := strings.Join([]string{string(good), "", "not json", string(stillFrench), string(unknown)}, "\n")

	var out bytes.Buffer
	applied, rejected, err := applyFile(context.Background(), translation.NewApplier(db), strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Equal(t, 3, rejected)
	assert.Contains(t, out.String(), "line 3: not a {recipeId, raw} object")
	assert.Contains(t, out.String(), "line 4:")
	assert.Contains(t, out.String(), "line 5:")

	var stored model.Recipe
	require.NoError(t, db.First(&stored, r.ID).Error)
	groups, err := stored.DecodeIngredients(model.LocaleEN)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Chicken", groups[0].Items[0].Name)
}
