package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var embedded embed.FS

var migrationNameCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// Migrations returns the migrations compiled into the binary.
func Migrations() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// MigrationNames lists the .sql files at the root of fsys in apply order.
func MigrationNames(fsys fs.FS) ([]string, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, errors.Wrap(err, "list migrations")
	}
	sort.Strings(names)
	return names, nil
}

// Pending returns the names not yet in applied, keeping their order.
func Pending(names []string, applied map[string]bool) []string {
	var out []string
	for _, n := range names {
		if !applied[n] {
			out = append(out, n)
		}
	}
	return out
}

// Migrate applies every pending migration from fsys, each in its own
// transaction together with its schema_migrations row. It returns the names applied.
func (db *DB) Migrate(ctx context.Context, fsys fs.FS) ([]string, error) {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			migration_name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		return nil, errors.Wrap(err, "create migrations table")
	}

	names, err := MigrationNames(fsys)
	if err != nil {
		return nil, err
	}
	applied, err := db.appliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, name := range Pending(names, applied) {
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return done, errors.Wrapf(err, "read migration %s", name)
		}

		err = db.inTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(body)); err != nil {
				return errors.Wrapf(err, "apply migration %s", name)
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (migration_name) VALUES ($1)`, name)
			return errors.Wrapf(err, "record migration %s", name)
		})
		if err != nil {
			return done, err
		}

		slog.Info("Migration applied", "name", name)
		done = append(done, name)
	}
	return done, nil
}

func (db *DB) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := db.pool.Query(ctx, `SELECT migration_name FROM schema_migrations`)
	if err != nil {
		return nil, errors.Wrap(err, "query applied migrations")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scan applied migration")
		}
		applied[name] = true
	}
	return applied, errors.Wrap(rows.Err(), "read applied migrations")
}

// GenerateMigration writes an empty, timestamp-prefixed migration named after
// name into dir and returns its path.
func GenerateMigration(dir, name string, now time.Time) (string, error) {
	slug := strings.Trim(migrationNameCleaner.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create migrations dir")
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", now.UTC().Format("20060102150405"), slug))
	body := fmt.Sprintf("-- %s\n-- Created %s\n\n", slug, now.UTC().Format(time.RFC3339))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "create migration file")
	}
	defer f.Close()

	if _, err := f.WriteString(body); err != nil {
		return "", errors.Wrap(err, "write migration file")
	}
	return path, nil
}
