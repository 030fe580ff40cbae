package testhelpers

import (
	"testing"

	"github.com/pageza/saveurs/backend/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateIngredient inserts a catalog ingredient
func CreateIngredient(t *testing.T, db *gorm.DB, slug, name, nameEN string) model.Ingredient {
	t.Helper()
	ing := model.Ingredient{Slug: slug, NameFR: name, NameEN: nameEN}
	if err := db.Create(&ing).Error; err != nil {
		t.Fatalf("failed to create ingredient %s: %v", slug, err)
	}
	return ing
}

// RecipeFixture describes a recipe row. Ingredients and IngredientsEN are raw
// JSON blobs stored as-is.
type RecipeFixture struct {
	Slug          string
	SlugEN        string
	Title         string
	TitleEN       string
	Published     bool
	TotalTime     int
	Difficulty    string
	Ingredients   string
	IngredientsEN string
}

// CreateRecipe inserts a recipe
func CreateRecipe(t *testing.T, db *gorm.DB, f RecipeFixture) model.Recipe {
	t.Helper()
	r := model.Recipe{
		SlugFR:        f.Slug,
		SlugEN:        f.SlugEN,
		TitleFR:       f.Title,
		TitleEN:       f.TitleEN,
		Published:     f.Published,
		TotalTime:     f.TotalTime,
		Difficulty:    f.Difficulty,
		FeaturedImage: "/images/" + f.Slug + ".jpg",
	}
	if r.TitleFR == "" {
		r.TitleFR = f.Slug
	}
	if f.Ingredients != "" {
		r.Ingredients = datatypes.JSON(f.Ingredients)
	}
	if f.IngredientsEN != "" {
		r.IngredientsEN = datatypes.JSON(f.IngredientsEN)
	}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("failed to create recipe %s: %v", f.Slug, err)
	}
	return r
}

// Link indexes an ingredient for a recipe
func Link(t *testing.T, db *gorm.DB, recipe model.Recipe, ing model.Ingredient, optional bool) {
	t.Helper()
	ri := model.RecipeIngredient{RecipeID: recipe.ID, IngredientID: ing.ID, Optional: optional}
	if err := db.Create(&ri).Error; err != nil {
		t.Fatalf("failed to link %s to %s: %v", ing.Slug, recipe.SlugFR, err)
	}
}
