package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageza/saveurs/backend/internal/model"
	"github.com/pageza/saveurs/backend/internal/service"
)

// RecipeSearchHandler serves the ingredient catalog and the fridge search
type RecipeSearchHandler struct {
	catalog service.ICatalogService
	search  service.ISearchService
}

func NewRecipeSearchHandler(catalog service.ICatalogService, search service.ISearchService) *RecipeSearchHandler {
	return &RecipeSearchHandler{
		catalog: catalog,
		search:  search,
	}
}

func (h *RecipeSearchHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ingredients", h.ListIngredients)

	recipes := router.Group("/recipes")
	{
		recipes.POST("/search-by-ingredients", h.SearchByIngredients)
		recipes.POST("/search-by-names", h.SearchByNames)
	}
}

// ListIngredients returns the selectable ingredients in the requested locale
func (h *RecipeSearchHandler) ListIngredients(c *gin.Context) {
	locale, err := model.ParseLocale(c.Query("locale"))
	if err != nil {
		respondError(c, err)
		return
	}

	ingredients, err := h.catalog.ListIngredients(c.Request.Context(), locale)
	if err != nil {
		respondError(c, err)
		return
	}
	if ingredients == nil {
		ingredients = []service.IngredientDTO{}
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, IngredientsResponse{Ingredients: ingredients})
}

func (h *RecipeSearchHandler) SearchByIngredients(c *gin.Context) {
	var req SearchByIngredientsRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	locale, err := model.ParseLocale(req.Locale)
	if err != nil {
		respondError(c, err)
		return
	}

	recipes, err := h.search.SearchByIngredients(c.Request.Context(), service.SearchRequest{
		IngredientIDs: req.IngredientIDs,
		Locale:        locale,
		MinPercentage: req.MinPercentage,
		Limit:         req.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newSearchResponse(recipes))
}

func (h *RecipeSearchHandler) SearchByNames(c *gin.Context) {
	var req SearchByNamesRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	locale, err := model.ParseLocale(req.Locale)
	if err != nil {
		respondError(c, err)
		return
	}

	recipes, err := h.search.SearchByNames(c.Request.Context(), service.NameSearchRequest{
		Names:         req.Names,
		Locale:        locale,
		MinPercentage: req.MinPercentage,
		Limit:         req.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newSearchResponse(recipes))
}

// bindJSON binds and validates the body. Field-level validation and type
// errors stay reachable through errors.As.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	return nil
}
