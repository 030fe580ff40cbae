package service

import (
	"errors"

	"github.com/pageza/saveurs/backend/internal/model"
)

var (
	// ErrCatalogUnavailable means the ingredient catalog could not be loaded
	ErrCatalogUnavailable = errors.New("ingredient catalog unavailable")
	// ErrSearchUnavailable means the recipe data source failed or the breaker is open
	ErrSearchUnavailable = errors.New("recipe search unavailable")
)

// IngredientDTO is a catalog entry in one locale
type IngredientDTO struct {
	ID   uint   `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// SearchRequest selects catalog ingredients by id
type SearchRequest struct {
	IngredientIDs []uint
	Locale        model.Locale
	MinPercentage int
	Limit         int
}

// NameSearchRequest selects ingredients by free-text name
type NameSearchRequest struct {
	Names         []string
	Locale        model.Locale
	MinPercentage int
	Limit         int
}

// RecipeMatch is a ranked recipe summary with its match metadata
type RecipeMatch struct {
	ID                  uint     `json:"id"`
	Slug                string   `json:"slug"`
	Title               string   `json:"title"`
	FeaturedImage       string   `json:"featuredImage"`
	TotalTime           int      `json:"totalTime"`
	Difficulty          string   `json:"difficulty"`
	MatchingIngredients int      `json:"matchingIngredients"`
	TotalIngredients    int      `json:"totalIngredients"`
	MatchPercentage     int      `json:"matchPercentage"`
	MissingIngredients  []string `json:"missingIngredients"`
}
