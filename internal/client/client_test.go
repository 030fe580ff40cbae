package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pageza/saveurs/backend/config"
	"github.com/pageza/saveurs/backend/internal/api"
	"github.com/pageza/saveurs/backend/internal/model"
	"github.com/pageza/saveurs/backend/internal/server"
	"github.com/pageza/saveurs/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAPI(t *testing.T) (*Client, model.Ingredient, model.Ingredient) {
	t.Helper()
	db := testhelpers.NewSQLiteDB(t)

	poulet := testhelpers.CreateIngredient(t, db, "poulet", "Poulet", "Chicken")
	riz := testhelpers.CreateIngredient(t, db, "riz", "Riz", "Rice")
	r := testhelpers.CreateRecipe(t, db, testhelpers.RecipeFixture{
		Slug: "poulet-riz", Title: "Poulet riz", Published: true,
		Ingredients: `[{"name": "Poulet"}, {"name": "Riz"}]`,
	})
	testhelpers.Link(t, db, r, poulet, false)
	testhelpers.Link(t, db, r, riz, false)

	srv := server.New(&config.Config{
		AllowedOrigins:          []string{"http://localhost:3000"},
		SearchTimeout:           5 * time.Second,
		CatalogTTL:              time.Minute,
		RateLimitPerMinute:      100,
		BreakerFailureThreshold: 5,
		BreakerOpenTimeout:      time.Second,
	}, db, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	c, err := New(ts.URL + "/")
	require.NoError(t, err)
	return c, poulet, riz
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("localhost:8080")
	assert.Error(t, err)
	_, err = New("://nope")
	assert.Error(t, err)
}

func TestListIngredients(t *testing.T) {
	c, _, _ := newAPI(t)

	ings, err := c.ListIngredients(context.Background(), model.LocaleEN)
	require.NoError(t, err)
	require.Len(t, ings, 2)
	assert.Equal(t, "Chicken", ings[0].Name)
	assert.Equal(t, "Rice", ings[1].Name)
}

func TestSearch(t *testing.T) {
	c, poulet, riz := newAPI(t)
	ctx := context.Background()

	resp, err := c.SearchByIngredients(ctx, api.SearchByIngredientsRequest{IngredientIDs: []uint{poulet.ID}})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, 50, resp.Recipes[0].MatchPercentage)
	assert.Equal(t, []string{"Riz"}, resp.Recipes[0].MissingIngredients)

	resp, err = c.SearchByIngredients(ctx, api.SearchByIngredientsRequest{IngredientIDs: []uint{poulet.ID, riz.ID}, MinPercentage: 100})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)

	resp, err = c.SearchByIngredients(ctx, api.SearchByIngredientsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Recipes)

	resp, err = c.SearchByNames(ctx, api.SearchByNamesRequest{Names: []string{"riz"}})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
}

func TestValidationErrorIsNotRetryable(t *testing.T) {
	c, _, _ := newAPI(t)

	_, err := c.SearchByIngredients(context.Background(), api.SearchByIngredientsRequest{
		IngredientIDs: []uint{1},
		Locale:        "de",
	})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, api.CodeInvalidRequest, apiErr.Code)
	assert.False(t, IsRetryable(err))
}

func TestServiceUnavailableIsRetryable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"recipe search is temporarily unavailable","code":"search_unavailable","retryable":true}`))
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)

	_, err = c.SearchByNames(context.Background(), api.SearchByNamesRequest{Names: []string{"riz"}})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, api.CodeSearchUnavailable, apiErr.Code)
	assert.True(t, apiErr.Retryable)
	assert.True(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "search_unavailable")
}

func TestNonJSONErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)

	_, err = c.ListIngredients(context.Background(), model.LocaleFR)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "bad gateway", apiErr.Message)
	assert.True(t, apiErr.Retryable)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	c, err := New(ts.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.ListIngredients(context.Background(), model.LocaleFR)
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.True(t, IsRetryable(err))
}
