package service

import (
	"testing"

	"github.com/pageza/saveurs/backend/internal/model"
	"github.com/pageza/saveurs/backend/internal/testhelpers"
	"gorm.io/gorm"
)

type kitchen struct {
	poulet, riz, soja, boeuf, persil, tofu, sel model.Ingredient
	pouletRizSoja, pouletRiz, boeufSeul, brouillon, supprimee, cassee model.Recipe
}

const pouletRizSojaFR = `[
  {"title": null, "items": [
    {"quantity": "500", "unit": "g", "name": "Blanc de poulet"},
    {"quantity": 200, "unit": "g", "name": "Riz basmati"},
    {"quantity": "3", "unit": "c. à s.", "name": "Sauce soja"}
  ]},
  {"title": "Pour servir", "items": [
    {"quantity": null, "unit": "", "name": "Persil"}
  ]}
]`

const pouletRizSojaEN = `[
  {"items": [
    {"quantity": "500", "unit": "g", "name": "Chicken breast"},
    {"quantity": 200, "unit": "g", "name": "Basmati rice"},
    {"quantity": "3", "unit": "tbsp", "name": "Soy sauce"},
    {"name": "Parsley", "note": "optional"}
  ]}
]`

const pouletRizFR = `[
  {"quantity": "1", "unit": "", "name": "Poulet"},
  {"quantity": "150", "unit": "g", "name": "Riz"}
]`

// seedKitchen builds a small corpus: two published chicken recipes, a beef
// recipe, a draft, a soft-deleted recipe and one with a broken blob.
func seedKitchen(t *testing.T, db *gorm.DB) kitchen {
	t.Helper()
	var k kitchen

	k.poulet = testhelpers.CreateIngredient(t, db, "poulet", "Poulet", "Chicken")
	k.riz = testhelpers.CreateIngredient(t, db, "riz", "Riz", "Rice")
	k.soja = testhelpers.CreateIngredient(t, db, "sauce-soja", "Sauce soja", "Soy sauce")
	k.boeuf = testhelpers.CreateIngredient(t, db, "boeuf", "Bœuf", "Beef")
	k.persil = testhelpers.CreateIngredient(t, db, "persil", "Persil", "")
	k.tofu = testhelpers.CreateIngredient(t, db, "tofu", "Tofu", "Tofu")
	k.sel = testhelpers.CreateIngredient(t, db, "sel", "Sel", "Salt")

	k.pouletRizSoja = testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "poulet-riz-soja", SlugEN: "chicken-rice-soy", Title: "Poulet au riz et soja",
		TitleEN: "Chicken rice with soy", Published: true, TotalTime: 35, Difficulty: "easy",
		Ingredients: pouletRizSojaFR, IngredientsEN: pouletRizSojaEN,
	})
	testhelpers.Link(t, db, k.pouletRizSoja, k.poulet, false)
	testhelpers.Link(t, db, k.pouletRizSoja, k.riz, false)
	testhelpers.Link(t, db, k.pouletRizSoja, k.soja, false)
	testhelpers.Link(t, db, k.pouletRizSoja, k.persil, true)

	k.pouletRiz = testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "poulet-riz", Title: "Poulet riz", Published: true, TotalTime: 25,
		Difficulty: "easy", Ingredients: pouletRizFR,
	})
	testhelpers.Link(t, db, k.pouletRiz, k.poulet, false)
	testhelpers.Link(t, db, k.pouletRiz, k.riz, false)

	k.boeufSeul = testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "boeuf-grille", Title: "Bœuf grillé", Published: true,
		Ingredients: `[{"name": "Bœuf"}]`,
	})
	testhelpers.Link(t, db, k.boeufSeul, k.boeuf, false)

	k.brouillon = testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "brouillon-tofu", Title: "Brouillon", Published: false,
		Ingredients: `[{"name": "Tofu"}, {"name": "Poulet"}]`,
	})
	testhelpers.Link(t, db, k.brouillon, k.tofu, false)
	testhelpers.Link(t, db, k.brouillon, k.poulet, false)

	k.supprimee = testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "poulet-supprime", Title: "Supprimée", Published: true,
		Ingredients: `[{"name": "Poulet"}]`,
	})
	testhelpers.Link(t, db, k.supprimee, k.poulet, false)
	if err := db.Delete(&k.supprimee).Error; err != nil {
		t.Fatalf("failed to soft delete recipe: %v", err)
	}

	k.cassee = testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "cassee", Title: "Cassée", Published: true,
		Ingredients: `{"items": "poulet"}`,
	})

	return k
}
