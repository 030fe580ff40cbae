package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pageza/saveurs/backend/internal/logging"
)

// ErrNoMigrations is returned by Rollback when nothing has been applied
var ErrNoMigrations = errors.New("no migrations to rollback")

// Migration is one versioned schema change. Files are named
// VERSION_name.up.sql and VERSION_name.down.sql; a plain VERSION_name.sql is
// treated as an up file without rollback.
type Migration struct {
	Version string
	Name    string
	Up      string
	Down    string
}

// LoadMigrations reads migration files from dir, sorted by version
func LoadMigrations(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byVersion := make(map[string]*Migration)
	for _, entry := range entries {
		file := entry.Name()
		if entry.IsDir() || filepath.Ext(file) != ".sql" {
			continue
		}

		base := strings.TrimSuffix(file, ".sql")
		down := false
		switch {
		case strings.HasSuffix(base, ".down"):
			base = strings.TrimSuffix(base, ".down")
			down = true
		case strings.HasSuffix(base, ".up"):
			base = strings.TrimSuffix(base, ".up")
		}

		version, name, ok := strings.Cut(base, "_")
		if !ok || version == "" {
			return nil, fmt.Errorf("migration file %s: expected VERSION_name", file)
		}

		content, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		m, exists := byVersion[version]
		if !exists {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		} else if m.Name != name {
			return nil, fmt.Errorf("migration version %s used by %s and %s", version, m.Name, name)
		}
		if down {
			m.Down = string(content)
		} else {
			m.Up = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if strings.TrimSpace(m.Up) == "" {
			return nil, fmt.Errorf("migration %s_%s has no up file", m.Version, m.Name)
		}
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version VARCHAR(64) PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Migrate applies every pending migration in its own transaction and returns
// the versions it applied.
func Migrate(ctx context.Context, db *sql.DB, dir string) ([]string, error) {
	migrations, err := LoadMigrations(dir)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var applied []string
	for _, m := range migrations {
		var count int
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM schema_migrations WHERE version = $1", m.Version,
		).Scan(&count); err != nil {
			return applied, fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			logging.Debug().Str("version", m.Version).Msg("migration already applied")
			continue
		}

		err := inTx(ctx, db, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.Up); err != nil {
				return fmt.Errorf("failed to apply migration %s_%s: %w", m.Version, m.Name, err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", m.Version, m.Name,
			); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", m.Version, err)
			}
			return nil
		})
		if err != nil {
			return applied, err
		}

		logging.Info().Str("version", m.Version).Str("name", m.Name).Msg("applied migration")
		applied = append(applied, m.Version)
	}
	return applied, nil
}

// Rollback reverts the most recently applied migration using its down file
func Rollback(ctx context.Context, db *sql.DB, dir string) (string, error) {
	migrations, err := LoadMigrations(dir)
	if err != nil {
		return "", err
	}

	var version string
	err = db.QueryRowContext(ctx,
		"SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1",
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoMigrations
	}
	if err != nil {
		return "", fmt.Errorf("failed to get last migration: %w", err)
	}

	var target *Migration
	for i := range migrations {
		if migrations[i].Version == version {
			target = &migrations[i]
			break
		}
	}
	if target == nil || strings.TrimSpace(target.Down) == "" {
		return "", fmt.Errorf("rollback file not found for migration %s", version)
	}

	err = inTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, target.Down); err != nil {
			return fmt.Errorf("failed to execute rollback: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = $1", version); err != nil {
			return fmt.Errorf("failed to remove migration record: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	logging.Info().Str("version", version).Msg("rolled back migration")
	return version, nil
}

func inTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
