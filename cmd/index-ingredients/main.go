package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pageza/saveurs/backend/config"
	"github.com/pageza/saveurs/backend/internal/database"
	"github.com/pageza/saveurs/backend/internal/indexer"
	"github.com/pageza/saveurs/backend/internal/logging"
	"github.com/pageza/saveurs/backend/internal/service"
)

func main() {
	strict := flag.Bool("strict", false, "Exit with status 2 when any recipe is quarantined")
	timeout := flag.Duration("timeout", 10*time.Minute, "Abort the run after this long")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		logging.Warn().Err(err).Msg("could not read .env file")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := database.Open(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report, err := indexer.New(db).Run(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("indexing failed")
	}

	redisClient := database.OptionalRedis(cfg)
	service.NewCatalogService(db, redisClient, cfg.CatalogTTL).Invalidate(ctx)
	if redisClient != nil {
		redisClient.Close()
	}

	fmt.Printf("indexed %d recipes: %d links, %d new ingredients, %d english names filled\n",
		report.Recipes, report.Links, report.IngredientsCreated, report.IngredientsUpdated)
	if len(report.Quarantined) == 0 {
		return
	}
	fmt.Printf("%d recipes quarantined:\n", len(report.Quarantined))
	for _, q := range report.Quarantined {
		fmt.Printf("  #%d %s: %v\n", q.RecipeID, q.Slug, q.Err)
	}
	if *strict {
		os.Exit(2)
	}
}
