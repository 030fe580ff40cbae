// Package indexer rebuilds the ingredient catalog and the recipe_ingredients
// index from the authored ingredient blobs of published recipes.
package indexer

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pageza/saveurs/backend/internal/logging"
	"github.com/pageza/saveurs/backend/internal/model"
	"github.com/pageza/saveurs/backend/internal/textnorm"
)

const batchSize = 500

// Quarantined is a recipe left out of the index because its data is malformed
type Quarantined struct {
	RecipeID uint
	Slug     string
	Err      error
}

// Report summarizes one indexing run
type Report struct {
	Recipes            int
	IngredientsCreated int
	IngredientsUpdated int
	Links              int
	Quarantined        []Quarantined
}

// Indexer owns one indexing run at a time. It is not safe for concurrent use.
type Indexer struct {
	db  *gorm.DB
	log zerolog.Logger
}

func New(db *gorm.DB) *Indexer {
	return &Indexer{db: db, log: logging.WithComponent("indexer")}
}

// entry is one catalog ingredient found in a recipe
type entry struct {
	slug     string
	name     string
	nameEN   string
	optional bool
}

// Run decodes every published recipe, upserts the ingredients it mentions by
// slug and replaces recipe_ingredients in a single transaction. Recipes with
// malformed French ingredients are reported and not linked; a malformed
// English blob only loses the English names.
func (ix *Indexer) Run(ctx context.Context) (Report, error) {
	var report Report

	var recipes []model.Recipe
	if err := ix.db.WithContext(ctx).
		Where("published = ?", true).
		Order("id").
		Find(&recipes).Error; err != nil {
		return report, fmt.Errorf("load recipes: %w", err)
	}

	perRecipe := make(map[uint][]entry, len(recipes))
	catalog := make(map[string]entry)
	for _, r := range recipes {
		entries, err := ix.extract(r)
		if err != nil {
			ix.log.Warn().Uint("recipe_id", r.ID).Str("slug", r.SlugFR).Err(err).Msg("recipe quarantined")
			report.Quarantined = append(report.Quarantined, Quarantined{RecipeID: r.ID, Slug: r.SlugFR, Err: err})
			continue
		}
		report.Recipes++
		perRecipe[r.ID] = entries
		for _, e := range entries {
			known, ok := catalog[e.slug]
			if !ok {
				catalog[e.slug] = e
				continue
			}
			if known.nameEN == "" && e.nameEN != "" {
				known.nameEN = e.nameEN
				catalog[e.slug] = known
			}
		}
	}

	err := ix.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, created, updated, err := upsertIngredients(tx, catalog)
		if err != nil {
			return err
		}
		report.IngredientsCreated = created
		report.IngredientsUpdated = updated

		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("clear index: %w", err)
		}

		links := make([]model.RecipeIngredient, 0)
		for _, r := range recipes {
			for _, e := range perRecipe[r.ID] {
				links = append(links, model.RecipeIngredient{
					RecipeID:     r.ID,
					IngredientID: ids[e.slug],
					Optional:     e.optional,
				})
			}
		}
		if len(links) > 0 {
			if err := tx.CreateInBatches(links, batchSize).Error; err != nil {
				return fmt.Errorf("write index: %w", err)
			}
		}
		report.Links = len(links)
		return nil
	})
	if err != nil {
		return report, err
	}

	ix.log.Info().
		Int("recipes", report.Recipes).
		Int("ingredients_created", report.IngredientsCreated).
		Int("ingredients_updated", report.IngredientsUpdated).
		Int("links", report.Links).
		Int("quarantined", len(report.Quarantined)).
		Msg("index rebuilt")
	return report, nil
}

// extract lists the distinct ingredients of a recipe. An ingredient is
// optional only when every occurrence of it is optional.
func (ix *Indexer) extract(r model.Recipe) ([]entry, error) {
	groups, err := r.DecodeIngredients(model.LocaleFR)
	if err != nil {
		return nil, err
	}
	englishNames := ix.englishNames(r, groups)

	var (
		entries []entry
		index   = make(map[string]int)
		pos     int
	)
	for _, g := range groups {
		for _, item := range g.Items {
			nameEN := ""
			if pos < len(englishNames) {
				nameEN = englishNames[pos]
			}
			pos++

			slug := textnorm.Slugify(item.Name)
			if slug == "" {
				continue
			}
			optional := g.IsOptional() || item.IsOptional()
			if i, ok := index[slug]; ok {
				entries[i].optional = entries[i].optional && optional
				continue
			}
			index[slug] = len(entries)
			entries = append(entries, entry{slug: slug, name: item.Name, nameEN: nameEN, optional: optional})
		}
	}
	return entries, nil
}

// englishNames returns the English item names aligned with the French items,
// or nil when there is no translation or its shape differs.
func (ix *Indexer) englishNames(r model.Recipe, frGroups []model.IngredientGroup) []string {
	raw := bytes.TrimSpace(r.IngredientsEN)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	enGroups, err := r.DecodeIngredients(model.LocaleEN)
	if err != nil {
		ix.log.Warn().Uint("recipe_id", r.ID).Err(err).Msg("english ingredients ignored")
		return nil
	}

	var fr, en []string
	for _, g := range frGroups {
		for _, item := range g.Items {
			fr = append(fr, item.Name)
		}
	}
	for _, g := range enGroups {
		for _, item := range g.Items {
			en = append(en, item.Name)
		}
	}
	if len(fr) != len(en) {
		ix.log.Debug().Uint("recipe_id", r.ID).Int("fr", len(fr)).Int("en", len(en)).Msg("english ingredients not aligned")
		return nil
	}
	return en
}

// upsertIngredients creates missing catalog entries and fills empty English
// names. French names of existing entries are editor-owned and left alone.
func upsertIngredients(tx *gorm.DB, catalog map[string]entry) (map[string]uint, int, int, error) {
	ids := make(map[string]uint, len(catalog))
	if len(catalog) == 0 {
		return ids, 0, 0, nil
	}

	slugs := make([]string, 0, len(catalog))
	for slug := range catalog {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	var existing []model.Ingredient
	for start := 0; start < len(slugs); start += batchSize {
		end := min(start+batchSize, len(slugs))
		var chunk []model.Ingredient
		if err := tx.Where("slug IN ?", slugs[start:end]).Find(&chunk).Error; err != nil {
			return nil, 0, 0, fmt.Errorf("load ingredients: %w", err)
		}
		existing = append(existing, chunk...)
	}

	updated := 0
	for _, ing := range existing {
		ids[ing.Slug] = ing.ID
		e := catalog[ing.Slug]
		if ing.NameEN == "" && e.nameEN != "" {
			if err := tx.Model(&model.Ingredient{}).Where("id = ?", ing.ID).Update("name_en", e.nameEN).Error; err != nil {
				return nil, 0, 0, fmt.Errorf("update ingredient %s: %w", ing.Slug, err)
			}
			updated++
		}
	}

	var missing []model.Ingredient
	for _, slug := range slugs {
		if _, ok := ids[slug]; ok {
			continue
		}
		e := catalog[slug]
		missing = append(missing, model.Ingredient{Slug: slug, NameFR: e.name, NameEN: e.nameEN})
	}
	if len(missing) > 0 {
		if err := tx.CreateInBatches(&missing, batchSize).Error; err != nil {
			return nil, 0, 0, fmt.Errorf("create ingredients: %w", err)
		}
		for _, ing := range missing {
			ids[ing.Slug] = ing.ID
		}
	}
	return ids, len(missing), updated, nil
}
