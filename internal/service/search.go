package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pageza/saveurs/backend/internal/logging"
	"github.com/pageza/saveurs/backend/internal/matching"
	"github.com/pageza/saveurs/backend/internal/model"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"gorm.io/gorm"
)

const defaultSearchTimeout = 10 * time.Second

// summaryColumns are the display fields loaded for ranked recipes
var summaryColumns = []string{
	"id", "slug", "slug_en", "title", "title_en",
	"featured_image", "total_time", "difficulty",
}

// SearchService ranks published recipes against an ingredient selection
type SearchService struct {
	db      *gorm.DB
	breaker *gobreaker.CircuitBreaker[any]
	timeout time.Duration
	exact   *matching.Engine
	fuzzy   *matching.Engine
	log     zerolog.Logger
}

// Ensure SearchService implements ISearchService
var _ ISearchService = (*SearchService)(nil)

// NewSearchService creates a SearchService
func NewSearchService(db *gorm.DB, timeout time.Duration, breaker BreakerConfig) *SearchService {
	if timeout <= 0 {
		timeout = defaultSearchTimeout
	}
	s := &SearchService{
		db:      db,
		breaker: newBreaker("recipe-store", breaker),
		timeout: timeout,
		exact:   matching.NewExactEngine(),
		fuzzy:   matching.NewFuzzyEngine(),
		log:     logging.WithComponent("search"),
	}
	quarantine := func(recipeID uint, reason matching.ExclusionReason) {
		s.log.Warn().Uint("recipe_id", recipeID).Str("reason", string(reason)).Msg("recipe excluded from matching")
	}
	s.exact.OnExcluded = quarantine
	s.fuzzy.OnExcluded = quarantine
	return s
}

// SearchByIngredients ranks recipes by catalog ingredient ids using the
// recipe_ingredients index.
func (s *SearchService) SearchByIngredients(ctx context.Context, req SearchRequest) ([]RecipeMatch, error) {
	ids := uniqueIDs(req.IngredientIDs)
	if len(ids) == 0 {
		return []RecipeMatch{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rows []model.RecipeIngredient
	err := s.query(ctx, func(db *gorm.DB) error {
		candidates := db.Model(&model.RecipeIngredient{}).
			Select("recipe_id").
			Where("ingredient_id IN ?", ids)
		return db.Table("recipe_ingredients AS ri").
			Select("ri.recipe_id, ri.ingredient_id, ri.optional").
			Joins("JOIN recipes r ON r.id = ri.recipe_id").
			Where("r.published = ? AND r.deleted_at IS NULL", true).
			Where("ri.optional = ?", false).
			Where("ri.recipe_id IN (?)", candidates).
			Order("ri.recipe_id, ri.ingredient_id").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	corpus := make([]matching.Candidate, 0)
	index := make(map[uint]int)
	for _, row := range rows {
		i, ok := index[row.RecipeID]
		if !ok {
			i = len(corpus)
			index[row.RecipeID] = i
			corpus = append(corpus, matching.Candidate{RecipeID: row.RecipeID})
		}
		corpus[i].Required = append(corpus[i].Required, idKey(row.IngredientID))
	}

	selection := make([]string, len(ids))
	for i, id := range ids {
		selection[i] = idKey(id)
	}
	results := matching.Filter(s.exact.Rank(selection, corpus), req.MinPercentage, req.Limit)
	if len(results) == 0 {
		return []RecipeMatch{}, nil
	}

	recipes, err := s.loadSummaries(ctx, resultIDs(results))
	if err != nil {
		return nil, err
	}
	names, err := s.ingredientNames(ctx, results, req.Locale)
	if err != nil {
		return nil, err
	}

	return s.present(results, recipes, req.Locale, func(missing string) string {
		id, _ := strconv.ParseUint(missing, 10, 64)
		return names[uint(id)]
	}), nil
}

// SearchByNames ranks recipes by free-text ingredient names matched against
// the decoded ingredient groups. Recipes with malformed data are skipped.
func (s *SearchService) SearchByNames(ctx context.Context, req NameSearchRequest) ([]RecipeMatch, error) {
	names := make([]string, 0, len(req.Names))
	for _, n := range req.Names {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return []RecipeMatch{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var recipes []model.Recipe
	err := s.query(ctx, func(db *gorm.DB) error {
		return db.Where("published = ?", true).Order("id").Find(&recipes).Error
	})
	if err != nil {
		return nil, err
	}

	corpus := make([]matching.Candidate, 0, len(recipes))
	byID := make(map[uint]model.Recipe, len(recipes))
	for _, r := range recipes {
		groups, err := r.DecodeIngredients(req.Locale)
		if err != nil {
			s.log.Warn().Err(err).Uint("recipe_id", r.ID).Msg("recipe quarantined")
			continue
		}
		byID[r.ID] = r
		corpus = append(corpus, matching.Candidate{RecipeID: r.ID, Required: model.RequiredNames(groups)})
	}

	results := matching.Filter(s.fuzzy.Rank(names, corpus), req.MinPercentage, req.Limit)
	return s.present(results, byID, req.Locale, func(missing string) string { return missing }), nil
}

// query runs fn through the circuit breaker. Caller cancellation is returned
// as is; any other failure becomes ErrSearchUnavailable.
func (s *SearchService) query(ctx context.Context, fn func(db *gorm.DB) error) error {
	_, err := s.breaker.Execute(func() (any, error) {
		err := fn(s.db.WithContext(ctx))
		if err != nil && errors.Is(ctx.Err(), context.Canceled) {
			return nil, context.Canceled
		}
		return nil, err
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	s.log.Error().Err(err).Msg("recipe store query failed")
	return fmt.Errorf("%w: %w", ErrSearchUnavailable, err)
}

func (s *SearchService) loadSummaries(ctx context.Context, ids []uint) (map[uint]model.Recipe, error) {
	var recipes []model.Recipe
	err := s.query(ctx, func(db *gorm.DB) error {
		return db.Select(summaryColumns).Where("id IN ?", ids).Find(&recipes).Error
	})
	if err != nil {
		return nil, err
	}
	out := make(map[uint]model.Recipe, len(recipes))
	for _, r := range recipes {
		out[r.ID] = r
	}
	return out, nil
}

func (s *SearchService) ingredientNames(ctx context.Context, results []matching.Result, locale model.Locale) (map[uint]string, error) {
	seen := make(map[uint]bool)
	var ids []uint
	for _, r := range results {
		for _, m := range r.Missing {
			id, err := strconv.ParseUint(m, 10, 64)
			if err != nil || seen[uint(id)] {
				continue
			}
			seen[uint(id)] = true
			ids = append(ids, uint(id))
		}
	}
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var ingredients []model.Ingredient
	err := s.query(ctx, func(db *gorm.DB) error {
		return db.Where("id IN ?", ids).Find(&ingredients).Error
	})
	if err != nil {
		return nil, err
	}
	for _, ing := range ingredients {
		names[ing.ID] = ing.Name(locale)
	}
	return names, nil
}

// present joins ranked results with recipe display fields, preserving order.
// A result whose recipe vanished between queries is dropped.
func (s *SearchService) present(results []matching.Result, recipes map[uint]model.Recipe, locale model.Locale, name func(string) string) []RecipeMatch {
	out := make([]RecipeMatch, 0, len(results))
	for _, res := range results {
		r, ok := recipes[res.RecipeID]
		if !ok {
			continue
		}
		missing := make([]string, 0, len(res.Missing))
		for _, m := range res.Missing {
			if n := name(m); n != "" {
				missing = append(missing, n)
			}
		}
		out = append(out, RecipeMatch{
			ID:                  r.ID,
			Slug:                r.Slug(locale),
			Title:               r.Title(locale),
			FeaturedImage:       r.FeaturedImage,
			TotalTime:           r.TotalTime,
			Difficulty:          r.Difficulty,
			MatchingIngredients: res.MatchingIngredients,
			TotalIngredients:    res.TotalIngredients,
			MatchPercentage:     res.MatchPercentage,
			MissingIngredients:  missing,
		})
	}
	return out
}

func idKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func resultIDs(results []matching.Result) []uint {
	out := make([]uint, len(results))
	for i, r := range results {
		out[i] = r.RecipeID
	}
	return out
}
