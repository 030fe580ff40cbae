// Command audit-translations lists published recipes whose English content
// is missing or still French, and applies re-translations produced offline.
//
//	audit-translations                   # human-readable report
//	audit-translations -json > todo.jsonl
//	audit-translations -apply fixed.jsonl
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"

	"github.com/pageza/saveurs/backend/config"
	"github.com/pageza/saveurs/backend/internal/database"
	"github.com/pageza/saveurs/backend/internal/logging"
	"github.com/pageza/saveurs/backend/internal/model"
	"github.com/pageza/saveurs/backend/internal/translation"
)

// maxLine bounds one line of a re-translation dump
const maxLine = 4 << 20

// recipeReport is one line of -json output
type recipeReport struct {
	RecipeID uint                  `json:"recipeId"`
	Slug     string                `json:"slug"`
	Findings []translation.Finding `json:"findings"`
}

func main() {
	apply := flag.String("apply", "", "Apply re-translations from a JSON lines file ({recipeId, raw} per line)")
	asJSON := flag.Bool("json", false, "Print findings as JSON lines")
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if *apply != "" {
		f, err := os.Open(*apply)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to open re-translation file")
		}
		defer f.Close()

		applied, rejected, err := applyFile(ctx, translation.NewApplier(db), f, os.Stdout)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to read re-translation file")
		}
		fmt.Printf("%d applied, %d rejected\n", applied, rejected)
		if rejected > 0 {
			os.Exit(1)
		}
		return
	}

	flagged, err := audit(ctx, db, os.Stdout, *asJSON)
	if err != nil {
		logging.Fatal().Err(err).Msg("audit failed")
	}
	if !*asJSON {
		fmt.Printf("%d recipes need translation work\n", flagged)
	}
}

// audit writes one report per flagged recipe and returns how many were flagged
func audit(ctx context.Context, db *gorm.DB, out io.Writer, asJSON bool) (int, error) {
	flagged := 0
	enc := json.NewEncoder(out)

	var batch []model.Recipe
	err := db.WithContext(ctx).
		Where("published = ?", true).
		FindInBatches(&batch, 200, func(tx *gorm.DB, _ int) error {
			for _, r := range batch {
				findings := translation.AuditRecipe(r)
				if len(findings) == 0 {
					continue
				}
				flagged++
				if asJSON {
					if err := enc.Encode(recipeReport{RecipeID: r.ID, Slug: r.SlugFR, Findings: findings}); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(out, "#%d %s\n", r.ID, r.SlugFR)
				for _, f := range findings {
					detail := f.Phrase
					if detail == "" {
						detail = strings.Join(f.Indicators, ", ")
					}
					fmt.Fprintf(out, "  %-40s %-22s %s\n", f.Path, f.Reason, detail)
				}
			}
			return nil
		}).Error
	if err != nil {
		return flagged, fmt.Errorf("audit recipes: %w", err)
	}
	return flagged, nil
}

// applyFile applies every line of r. Invalid lines are reported and counted
// as rejected; only I/O errors stop the run.
func applyFile(ctx context.Context, applier *translation.Applier, r io.Reader, out io.Writer) (int, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	applied, rejected, lineNo := 0, 0, 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rt translation.Retranslation
		if err := json.Unmarshal([]byte(line), &rt); err != nil || rt.RecipeID == 0 {
			rejected++
			fmt.Fprintf(out, "line %d: not a {recipeId, raw} object\n", lineNo)
			continue
		}
		if err := applier.Apply(ctx, rt); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return applied, rejected, err
			}
			rejected++
			fmt.Fprintf(out, "line %d: %v\n", lineNo, err)
			continue
		}
		applied++
	}
	return applied, rejected, scanner.Err()
}
