package service

import (
	"context"

	"github.com/pageza/saveurs/backend/internal/model"
)

// ICatalogService defines the interface for the ingredient catalog
type ICatalogService interface {
	ListIngredients(ctx context.Context, locale model.Locale) ([]IngredientDTO, error)
	Invalidate(ctx context.Context)
}

// ISearchService defines the interface for ingredient-based recipe search
type ISearchService interface {
	SearchByIngredients(ctx context.Context, req SearchRequest) ([]RecipeMatch, error)
	SearchByNames(ctx context.Context, req NameSearchRequest) ([]RecipeMatch, error)
}
