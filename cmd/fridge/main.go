// Command fridge is a terminal client for the ingredient search: pick what is
// in your fridge and watch the matching recipes update.
//
//	fridge -api http://localhost:8080 -locale fr
//	> +poulet
//	> +riz
//	> -poulet
//	> quit
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pageza/saveurs/backend/config"
	"github.com/pageza/saveurs/backend/internal/api"
	"github.com/pageza/saveurs/backend/internal/client"
	"github.com/pageza/saveurs/backend/internal/logging"
	"github.com/pageza/saveurs/backend/internal/model"
	"github.com/pageza/saveurs/backend/internal/selection"
	"github.com/pageza/saveurs/backend/internal/service"
)

var errCatalogLoad = errors.New("could not load the ingredient list")

// searcher is the part of the API client the REPL uses
type searcher interface {
	ListIngredients(ctx context.Context, locale model.Locale) ([]service.IngredientDTO, error)
	SearchByIngredients(ctx context.Context, req api.SearchByIngredientsRequest) (api.SearchResponse, error)
}

type options struct {
	locale   model.Locale
	minPct   int
	limit    int
	debounce time.Duration
	timeout  time.Duration
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logging.Warn().Err(err).Msg("could not read .env file")
	}

	baseURL := flag.String("api", envOr("SAVEURS_API_URL", "http://localhost:8080"), "API base URL")
	locale := flag.String("locale", "fr", "Display language (fr or en)")
	minPct := flag.Int("min", 0, "Hide recipes below this match percentage")
	limit := flag.Int("limit", 10, "Maximum number of recipes shown")
	debounce := flag.Duration("debounce", selection.DefaultDebounce, "Quiet period before searching")
	flag.Parse()

	logging.Init(logging.Config{Level: envOr("LOG_LEVEL", "warn"), Format: "console"})

	loc, err := model.ParseLocale(*locale)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	c, err := client.New(*baseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	err = run(context.Background(), c, os.Stdin, os.Stdout, options{
		locale:   loc,
		minPct:   *minPct,
		limit:    *limit,
		debounce: *debounce,
		timeout:  client.DefaultTimeout,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// printer serializes writes from the input loop and the update loop
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func run(ctx context.Context, s searcher, in io.Reader, out io.Writer, opts options) error {
	p := &printer{out: out}

	scanner := bufio.NewScanner(in)
	ingredients, err := loadCatalog(ctx, s, scanner, p, opts.locale)
	if err != nil {
		return err
	}
	bySlug := make(map[string]service.IngredientDTO, len(ingredients))
	for _, ing := range ingredients {
		bySlug[ing.Slug] = ing
	}
	p.printf("%d ingredients available. Commands: +slug, -slug, list, clear, retry, quit\n", len(ingredients))

	session := selection.NewSession(func(ctx context.Context, slugs []string) (api.SearchResponse, error) {
		ids := make([]uint, 0, len(slugs))
		for _, slug := range slugs {
			ids = append(ids, bySlug[slug].ID)
		}
		return s.SearchByIngredients(ctx, api.SearchByIngredientsRequest{
			IngredientIDs: ids,
			Locale:        opts.locale.String(),
			MinPercentage: opts.minPct,
			Limit:         opts.limit,
		})
	}, selection.Options{Debounce: opts.debounce, Timeout: opts.timeout})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range session.Updates() {
			render(p, u)
		}
	}()
	defer func() {
		session.Close()
		<-done
	}()

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "quit" || line == "exit":
			return nil
		case line == "clear":
			session.Clear()
		case line == "retry":
			session.Refresh()
		case line == "list":
			listIngredients(p, ingredients, session.Selection())
		case strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-"):
			slug := strings.TrimSpace(line[1:])
			if _, ok := bySlug[slug]; !ok {
				p.printf("unknown ingredient %q (type list)\n", slug)
				continue
			}
			selected := slices.Contains(session.Selection(), slug)
			if (line[0] == '+') == selected {
				continue
			}
			session.Toggle(slug)
		default:
			p.printf("unknown command %q\n", line)
		}
	}
	return scanner.Err()
}

// loadCatalog fetches the ingredient list, offering a retry after each
// failure. It gives up when the user quits or input ends.
func loadCatalog(ctx context.Context, s searcher, scanner *bufio.Scanner, p *printer, locale model.Locale) ([]service.IngredientDTO, error) {
	for {
		ingredients, err := s.ListIngredients(ctx, locale)
		if err == nil {
			return ingredients, nil
		}
		hint := ""
		if client.IsRetryable(err) {
			hint = " (temporary, try again shortly)"
		}
		loadErr := fmt.Errorf("%w%s: %w", errCatalogLoad, hint, err)
		p.printf("%v. Type retry to try again or quit to exit.\n", loadErr)
		if !waitForRetry(scanner, p) {
			return nil, loadErr
		}
	}
}

func waitForRetry(scanner *bufio.Scanner, p *printer) bool {
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "":
		case "retry":
			return true
		case "quit", "exit":
			return false
		default:
			p.printf("The ingredient list is not loaded yet. Type retry or quit.\n")
		}
	}
	return false
}

func render(p *printer, u selection.Update[api.SearchResponse]) {
	switch {
	case u.Err != nil:
		var apiErr *client.APIError
		if errors.As(u.Err, &apiErr) {
			p.printf("search failed: %s. Type retry to try again.\n", apiErr.Message)
		} else {
			p.printf("search failed: %v. Type retry to try again.\n", u.Err)
		}
	case u.Empty():
		p.printf("Nothing selected. Add ingredients with +slug.\n")
	case u.Result.Count == 0:
		p.printf("No recipe uses %s.\n", strings.Join(u.Keys, ", "))
	default:
		var b strings.Builder
		fmt.Fprintf(&b, "%d recipes for %s:\n", u.Result.Count, strings.Join(u.Keys, ", "))
		for _, r := range u.Result.Recipes {
			fmt.Fprintf(&b, "  %3d%%  %s (%d/%d)", r.MatchPercentage, r.Title, r.MatchingIngredients, r.TotalIngredients)
			if r.TotalTime > 0 {
				b.WriteString("  " + strconv.Itoa(r.TotalTime) + " min")
			}
			if len(r.MissingIngredients) > 0 {
				b.WriteString("  missing: " + strings.Join(r.MissingIngredients, ", "))
			}
			b.WriteString("\n")
		}
		p.printf("%s", b.String())
	}
}

func listIngredients(p *printer, ingredients []service.IngredientDTO, selected []string) {
	var b strings.Builder
	for _, ing := range ingredients {
		mark := " "
		if slices.Contains(selected, ing.Slug) {
			mark = "*"
		}
		fmt.Fprintf(&b, " %s %-24s %s\n", mark, ing.Slug, ing.Name)
	}
	p.printf("%s", b.String())
}
