package api

import "github.com/pageza/saveurs/backend/internal/service"

// SearchByIngredientsRequest is the body of POST /recipes/search-by-ingredients
type SearchByIngredientsRequest struct {
	IngredientIDs []uint `json:"ingredientIds" binding:"required,max=50,dive,gt=0"`
	Locale        string `json:"locale"`
	MinPercentage int    `json:"minPercentage" binding:"omitempty,min=0,max=100"`
	Limit         int    `json:"limit" binding:"omitempty,min=1,max=100"`
}

// SearchByNamesRequest is the body of POST /recipes/search-by-names
type SearchByNamesRequest struct {
	Names         []string `json:"names" binding:"required,max=50,dive,max=100"`
	Locale        string   `json:"locale"`
	MinPercentage int      `json:"minPercentage" binding:"omitempty,min=0,max=100"`
	Limit         int      `json:"limit" binding:"omitempty,min=1,max=100"`
}

// IngredientsResponse lists the catalog in one locale
type IngredientsResponse struct {
	Ingredients []service.IngredientDTO `json:"ingredients"`
}

// SearchResponse carries ranked recipes. An empty list is a successful "no match".
type SearchResponse struct {
	Recipes []service.RecipeMatch `json:"recipes"`
	Count   int                   `json:"count"`
}

// HealthResponse reports the state of the backing stores
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

func newSearchResponse(recipes []service.RecipeMatch) SearchResponse {
	if recipes == nil {
		recipes = []service.RecipeMatch{}
	}
	return SearchResponse{Recipes: recipes, Count: len(recipes)}
}
