// Command seed-recipes loads editor-style recipes from a JSON file for local
// development. Run index-ingredients afterwards to build the catalog.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/saveurs/backend/config"
	"github.com/pageza/saveurs/backend/internal/database"
	"github.com/pageza/saveurs/backend/internal/logging"
	"github.com/pageza/saveurs/backend/internal/model"
)

const batchSize = 50

// seedRecipe is one entry of the seed file. Ingredient blobs are kept raw so
// the seed can carry the same irregular shapes editors produce.
type seedRecipe struct {
	Slug          string          `json:"slug"`
	SlugEN        string          `json:"slugEn"`
	Title         string          `json:"title"`
	TitleEN       string          `json:"titleEn"`
	FeaturedImage string          `json:"featuredImage"`
	TotalTime     int             `json:"totalTime"`
	Difficulty    string          `json:"difficulty"`
	Published     bool            `json:"published"`
	Ingredients   json.RawMessage `json:"ingredients"`
	IngredientsEN json.RawMessage `json:"ingredientsEn"`
}

func main() {
	file := flag.String("file", "seed/recipes.json", "Seed file (JSON array of recipes)")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		logging.Warn().Err(err).Msg("could not read .env file")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	data, err := os.ReadFile(*file)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to read seed file")
	}

	db, err := database.Open(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	if cfg.DBDriver == database.DriverSQLite {
		if err := database.AutoMigrate(db); err != nil {
			logging.Fatal().Err(err).Msg("failed to migrate sqlite database")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := seed(ctx, db, data)
	if err != nil {
		logging.Fatal().Err(err).Msg("seeding failed")
	}
	fmt.Printf("seeded %d recipes from %s\n", n, *file)
}

// seed upserts the recipes of data by French slug
func seed(ctx context.Context, db *gorm.DB, data []byte) (int, error) {
	var entries []seedRecipe
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	recipes := make([]model.Recipe, 0, len(entries))
	for i, e := range entries {
		if e.Slug == "" || e.Title == "" {
			return 0, fmt.Errorf("entry %d: slug and title are required", i)
		}
		image := e.FeaturedImage
		if image == "" {
			image = "/images/" + e.Slug + ".jpg"
		}
		recipes = append(recipes, model.Recipe{
			SlugFR:        e.Slug,
			SlugEN:        e.SlugEN,
			TitleFR:       e.Title,
			TitleEN:       e.TitleEN,
			FeaturedImage: image,
			TotalTime:     e.TotalTime,
			Difficulty:    e.Difficulty,
			Published:     e.Published,
			Ingredients:   rawJSON(e.Ingredients),
			IngredientsEN: rawJSON(e.IngredientsEN),
		})
	}
	if len(recipes) == 0 {
		return 0, nil
	}

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"slug_en", "title", "title_en", "featured_image", "total_time",
			"difficulty", "published", "ingredients", "ingredients_en", "updated_at",
		}),
	}).CreateInBatches(&recipes, batchSize).Error
	if err != nil {
		return 0, fmt.Errorf("upsert recipes: %w", err)
	}
	return len(recipes), nil
}

func rawJSON(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return datatypes.JSON(raw)
}
