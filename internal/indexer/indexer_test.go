package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/pageza/saveurs/backend/internal/model"
	"github.com/pageza/saveurs/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func links(t *testing.T, db *gorm.DB, recipeID uint) map[string]bool {
	t.Helper()
	var rows []struct {
		Slug     string
		Optional bool
	}
	require.NoError(t, db.Table("recipe_ingredients AS ri").
		Select("i.slug, ri.optional").
		Joins("JOIN ingredients i ON i.id = ri.ingredient_id").
		Where("ri.recipe_id = ?", recipeID).
		Scan(&rows).Error)
	out := make(map[string]bool, len(rows))
	for _, r := range rows {
		out[r.Slug] = r.Optional
	}
	return out
}

func TestRun(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)

	existing := testhelpers.CreateIngredient(t, db, "riz", "Riz", "")
	stale := testhelpers.CreateIngredient(t, db, "tofu", "Tofu", "Tofu")

	grouped := testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "poulet-riz", Title: "Poulet riz", Published: true,
		Ingredients: `[
			{"title": null, "items": [{"name": "Poulet"}, {"name": "Riz"}, {"name": "Sel", "note": "facultatif"}]},
			{"title": "Pour servir", "items": [{"name": "Persil"}, {"name": "Riz"}]}
		]`,
		IngredientsEN: `[
			{"items": [{"name": "Chicken"}, {"name": "Rice"}, {"name": "Salt"}]},
			{"title": "To serve", "items": [{"name": "Parsley"}, {"name": "Rice"}]}
		]`,
	})
	flat := testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "boeuf-carottes", Title: "Bœuf carottes", Published: true,
		Ingredients:   `[{"name": "Bœuf"}, {"name": "Carottes", "quantity": 3}]`,
		IngredientsEN: `[{"name": "Beef"}]`,
	})
	broken := testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "cassee", Title: "Cassée", Published: true,
		Ingredients: `{"items": "poulet"}`,
	})
	draft := testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "brouillon", Title: "Brouillon", Published: false,
		Ingredients: `[{"name": "Chocolat"}]`,
	})
	testhelpers.Link(t, db, draft, stale, false)

	report, err := New(db).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Recipes)
	assert.Equal(t, 5, report.IngredientsCreated) // riz already existed
	assert.Equal(t, 1, report.IngredientsUpdated)
	assert.Equal(t, 6, report.Links)
	require.Len(t, report.Quarantined, 1)
	assert.Equal(t, broken.ID, report.Quarantined[0].RecipeID)
	assert.True(t, errors.Is(report.Quarantined[0].Err, model.ErrMalformedRecipe))

	assert.Equal(t, map[string]bool{
		"poulet": false,
		"riz":    false, // required in the main group, optional as garnish
		"sel":    true,
		"persil": true,
	}, links(t, db, grouped.ID))
	assert.Equal(t, map[string]bool{"boeuf": false, "carottes": false}, links(t, db, flat.ID))
	assert.Empty(t, links(t, db, draft.ID))

	var riz model.Ingredient
	require.NoError(t, db.First(&riz, existing.ID).Error)
	assert.Equal(t, "Rice", riz.NameEN)

	var poulet model.Ingredient
	require.NoError(t, db.Where("slug = ?", "poulet").First(&poulet).Error)
	assert.Equal(t, "Poulet", poulet.NameFR)
	assert.Equal(t, "Chicken", poulet.NameEN)

	var boeuf model.Ingredient
	require.NoError(t, db.Where("slug = ?", "boeuf").First(&boeuf).Error)
	assert.Equal(t, "Bœuf", boeuf.NameFR)
	assert.Empty(t, boeuf.NameEN, "misaligned translation is not used")
}

func TestRunIsIdempotent(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "poulet-riz", Title: "Poulet riz", Published: true,
		Ingredients: `[{"name": "Poulet"}, {"name": "Riz"}]`,
	})

	first, err := New(db).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.IngredientsCreated)

	second, err := New(db).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.IngredientsCreated)
	assert.Equal(t, 2, second.Links)

	var count int64
	require.NoError(t, db.Model(&model.RecipeIngredient{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestRunEmpty(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	report, err := New(db).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Recipes)
	assert.Zero(t, report.Links)
}
