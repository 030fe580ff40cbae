package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/pageza/saveurs/backend/internal/logging"
	"github.com/pageza/saveurs/backend/internal/model"
	"github.com/pageza/saveurs/backend/internal/textnorm"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	catalogCacheKey    = "catalog:ingredients:v1"
	defaultCatalogTTL  = 10 * time.Minute
	catalogLoadTimeout = 10 * time.Second
)

// usedByPublishedRecipe keeps catalog entries that at least one live
// published recipe requires. Garnish-only ingredients can never produce a
// match, so they are not offered.
const usedByPublishedRecipe = `EXISTS (
	SELECT 1 FROM recipe_ingredients ri
	JOIN recipes r ON r.id = ri.recipe_id
	WHERE ri.ingredient_id = ingredients.id
	AND ri.optional = ?
	AND r.published = ? AND r.deleted_at IS NULL)`

// CatalogService serves the ingredient catalog. The list is memoized in
// process for ttl and optionally shared through Redis.
type CatalogService struct {
	db    *gorm.DB
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
	log   zerolog.Logger

	group singleflight.Group

	mu       sync.RWMutex
	entries  []model.Ingredient
	loadedAt time.Time
}

// Ensure CatalogService implements ICatalogService
var _ ICatalogService = (*CatalogService)(nil)

// NewCatalogService creates a CatalogService. redisClient may be nil.
func NewCatalogService(db *gorm.DB, redisClient *redis.Client, ttl time.Duration) *CatalogService {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &CatalogService{
		db:    db,
		redis: redisClient,
		ttl:   ttl,
		now:   time.Now,
		log:   logging.WithComponent("catalog"),
	}
}

// ListIngredients returns the catalog in the given locale, sorted by name
func (s *CatalogService) ListIngredients(ctx context.Context, locale model.Locale) ([]IngredientDTO, error) {
	ingredients, err := s.ingredients(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]IngredientDTO, 0, len(ingredients))
	for _, ing := range ingredients {
		out = append(out, IngredientDTO{ID: ing.ID, Slug: ing.Slug, Name: ing.Name(locale)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := textnorm.Fold(out[i].Name), textnorm.Fold(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Invalidate drops the memo and the shared cache entry
func (s *CatalogService) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.entries = nil
	s.loadedAt = time.Time{}
	s.mu.Unlock()

	if s.redis != nil {
		if err := s.redis.Del(ctx, catalogCacheKey).Err(); err != nil {
			s.log.Warn().Err(err).Msg("failed to drop cached catalog")
		}
	}
}

func (s *CatalogService) ingredients(ctx context.Context) ([]model.Ingredient, error) {
	s.mu.RLock()
	if s.entries != nil && s.now().Sub(s.loadedAt) < s.ttl {
		entries := s.entries
		s.mu.RUnlock()
		return entries, nil
	}
	s.mu.RUnlock()

	// the load is shared by every waiting caller and outlives the request that started it
	ch := s.group.DoChan(catalogCacheKey, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), catalogLoadTimeout)
		defer cancel()
		return s.load(loadCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]model.Ingredient), nil
	}
}

func (s *CatalogService) load(ctx context.Context) ([]model.Ingredient, error) {
	if entries, ok := s.fromCache(ctx); ok {
		s.store(entries)
		return entries, nil
	}

	var entries []model.Ingredient
	err := s.db.WithContext(ctx).
		Where(usedByPublishedRecipe, false, true).
		Order("id").
		Find(&entries).Error
	if errors.Is(err, context.Canceled) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	entries = dedupeBySlug(entries)

	s.toCache(ctx, entries)
	s.store(entries)
	s.log.Debug().Int("ingredients", len(entries)).Msg("catalog loaded from database")
	return entries, nil
}

func (s *CatalogService) store(entries []model.Ingredient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	s.loadedAt = s.now()
}

func (s *CatalogService) fromCache(ctx context.Context) ([]model.Ingredient, bool) {
	if s.redis == nil {
		return nil, false
	}
	data, err := s.redis.Get(ctx, catalogCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("catalog cache read failed, using database")
		return nil, false
	}

	var entries []model.Ingredient
	if err := json.Unmarshal(data, &entries); err != nil {
		s.log.Warn().Err(err).Msg("catalog cache entry is corrupt, using database")
		return nil, false
	}
	if entries == nil {
		entries = []model.Ingredient{}
	}
	return entries, true
}

func (s *CatalogService) toCache(ctx context.Context, entries []model.Ingredient) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(entries)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to encode catalog")
		return
	}
	if err := s.redis.Set(ctx, catalogCacheKey, data, s.ttl).Err(); err != nil {
		s.log.Warn().Err(err).Msg("catalog cache write failed")
	}
}

func dedupeBySlug(entries []model.Ingredient) []model.Ingredient {
	seen := make(map[string]bool, len(entries))
	out := make([]model.Ingredient, 0, len(entries))
	for _, e := range entries {
		if seen[e.Slug] {
			continue
		}
		seen[e.Slug] = true
		out = append(out, e)
	}
	return out
}
