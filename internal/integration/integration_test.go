package integration

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/saveurs/backend/config"
	"github.com/pageza/saveurs/backend/internal/api"
	"github.com/pageza/saveurs/backend/internal/client"
	"github.com/pageza/saveurs/backend/internal/indexer"
	"github.com/pageza/saveurs/backend/internal/model"
	"github.com/pageza/saveurs/backend/internal/server"
	"github.com/pageza/saveurs/backend/internal/service"
	"github.com/pageza/saveurs/backend/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func seedRecipes(t *testing.T, db *gorm.DB) {
	t.Helper()
	testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "poulet-riz-soja", SlugEN: "chicken-rice-soy",
		Title: "Poulet, riz et sauce soja", TitleEN: "Chicken, rice and soy sauce",
		Published: true, TotalTime: 35, Difficulty: "facile",
		Ingredients: `[
			{"items": [{"name": "Poulet", "quantity": 2}, {"name": "Riz"}, {"name": "Sauce soja"}]},
			{"title": "Pour servir", "items": [{"name": "Coriandre", "note": "facultatif"}]}
		]`,
		IngredientsEN: `[
			{"items": [{"name": "Chicken"}, {"name": "Rice"}, {"name": "Soy sauce"}]},
			{"title": "To serve", "items": [{"name": "Coriander"}]}
		]`,
	})
	testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "riz-cantonais", SlugEN: "fried-rice",
		Title: "Riz cantonais", TitleEN: "Fried rice",
		Published: true, TotalTime: 20, Difficulty: "facile",
		Ingredients:   `[{"name": "Riz"}, {"name": "Œufs", "quantity": "3"}, {"name": "Petits pois"}]`,
		IngredientsEN: `[{"name": "Rice"}, {"name": "Eggs"}, {"name": "Peas"}]`,
	})
	testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "brouillon", Title: "Brouillon", Published: false,
		Ingredients: `[{"name": "Poulet"}, {"name": "Chocolat"}]`,
	})
}

func newServer(t *testing.T, db *gorm.DB) (*server.Server, *client.Client) {
	t.Helper()
	srv := server.New(&config.Config{
		AllowedOrigins:          []string{"http://localhost:3000"},
		SearchTimeout:           5 * time.Second,
		CatalogTTL:              time.Hour,
		RateLimitPerMinute:      1000,
		BreakerFailureThreshold: 5,
		BreakerOpenTimeout:      time.Second,
	}, db, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	c, err := client.New(ts.URL)
	require.NoError(t, err)
	return srv, c
}

func ids(t *testing.T, catalog []service.IngredientDTO) map[string]uint {
	t.Helper()
	out := make(map[string]uint, len(catalog))
	for _, ing := range catalog {
		out[ing.Slug] = ing.ID
	}
	return out
}

// runFridgeSearch drives the whole pipeline: authored recipes are indexed,
// then searched over HTTP the way the fridge front end does.
func runFridgeSearch(t *testing.T, db *gorm.DB) {
	ctx := context.Background()
	seedRecipes(t, db)

	report, err := indexer.New(db).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Recipes)
	assert.Equal(t, 6, report.IngredientsCreated)
	assert.Empty(t, report.Quarantined)

	srv, c := newServer(t, db)

	var catalog map[string]uint
	t.Run("catalog lists required ingredients of published recipes", func(t *testing.T) {
		fr, err := c.ListIngredients(ctx, model.LocaleFR)
		require.NoError(t, err)
		catalog = ids(t, fr)
		assert.Len(t, catalog, 5)
		assert.NotContains(t, catalog, "coriandre")
		assert.Contains(t, catalog, "sauce-soja")
		assert.Contains(t, catalog, "oeufs")
		assert.NotContains(t, catalog, "chocolat")

		en, err := c.ListIngredients(ctx, model.LocaleEN)
		require.NoError(t, err)
		names := make(map[string]string, len(en))
		for _, ing := range en {
			names[ing.Slug] = ing.Name
		}
		assert.Equal(t, "Soy sauce", names["sauce-soja"])
		assert.Equal(t, "Eggs", names["oeufs"])
	})

	t.Run("ranks full matches first", func(t *testing.T) {
		res, err := c.SearchByIngredients(ctx, api.SearchByIngredientsRequest{
			IngredientIDs: []uint{catalog["poulet"], catalog["riz"], catalog["sauce-soja"]},
		})
		require.NoError(t, err)
		require.Equal(t, 2, res.Count)
		require.Len(t, res.Recipes, 2)

		first := res.Recipes[0]
		assert.Equal(t, "poulet-riz-soja", first.Slug)
		assert.Equal(t, 100, first.MatchPercentage)
		assert.Equal(t, 3, first.TotalIngredients)
		assert.Empty(t, first.MissingIngredients)

		second := res.Recipes[1]
		assert.Equal(t, "riz-cantonais", second.Slug)
		assert.Equal(t, 33, second.MatchPercentage)
		assert.ElementsMatch(t, []string{"Œufs", "Petits pois"}, second.MissingIngredients)
	})

	t.Run("english locale and filters", func(t *testing.T) {
		res, err := c.SearchByIngredients(ctx, api.SearchByIngredientsRequest{
			IngredientIDs: []uint{catalog["poulet"]},
			Locale:        "en",
		})
		require.NoError(t, err)
		require.Len(t, res.Recipes, 1)
		assert.Equal(t, "chicken-rice-soy", res.Recipes[0].Slug)
		assert.Equal(t, "Chicken, rice and soy sauce", res.Recipes[0].Title)
		assert.ElementsMatch(t, []string{"Rice", "Soy sauce"}, res.Recipes[0].MissingIngredients)

		res, err = c.SearchByIngredients(ctx, api.SearchByIngredientsRequest{
			IngredientIDs: []uint{catalog["poulet"]},
			MinPercentage: 50,
		})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Count)
		assert.NotNil(t, res.Recipes)
	})

	t.Run("unknown ingredient is not an error", func(t *testing.T) {
		res, err := c.SearchByIngredients(ctx, api.SearchByIngredientsRequest{IngredientIDs: []uint{99999}})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Count)
	})

	t.Run("search by names", func(t *testing.T) {
		res, err := c.SearchByNames(ctx, api.SearchByNamesRequest{Names: []string{"poulet", "riz"}})
		require.NoError(t, err)
		require.NotEmpty(t, res.Recipes)
		assert.Equal(t, "poulet-riz-soja", res.Recipes[0].Slug)
	})

	t.Run("reindex after publishing", func(t *testing.T) {
		require.NoError(t, db.Model(&model.Recipe{}).Where("slug = ?", "brouillon").Update("published", true).Error)
		_, err := indexer.New(db).Run(ctx)
		require.NoError(t, err)

		cached, err := c.ListIngredients(ctx, model.LocaleFR)
		require.NoError(t, err)
		assert.NotContains(t, ids(t, cached), "chocolat")

		srv.Catalog().Invalidate(ctx)
		fresh, err := c.ListIngredients(ctx, model.LocaleFR)
		require.NoError(t, err)
		assert.Contains(t, ids(t, fresh), "chocolat")
	})
}

func TestFridgeSearchSQLite(t *testing.T) {
	runFridgeSearch(t, testhelpers.NewSQLiteDB(t))
}

func TestFridgeSearchPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}
	db, _ := testhelpers.SetupPostgres(t)
	runFridgeSearch(t, db)
}
