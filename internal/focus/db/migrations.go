package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration is one packaged schema change.
type Migration struct {
	Number int
	Name   string
	SQL    string
}

// Migrations returns the packaged migration set ordered by number.
// File names follow NNNN_description.sql.
func Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".sql")
		numStr, _, ok := strings.Cut(name, "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: name must be NNNN_description.sql", entry.Name())
		}
		num, err := strconv.Atoi(numStr)
		if err != nil || num <= 0 {
			return nil, fmt.Errorf("migration %s: invalid number %q", entry.Name(), numStr)
		}
		if prev, dup := seen[num]; dup {
			return nil, fmt.Errorf("migration %s: number %d already used by %s", entry.Name(), num, prev)
		}
		seen[num] = entry.Name()

		body, err := migrationFiles.ReadFile(path.Join("migrations", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}

		migrations = append(migrations, Migration{Number: num, Name: name, SQL: string(body)})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Number < migrations[j].Number
	})
	return migrations, nil
}

// LatestMigration returns the highest packaged migration number.
func LatestMigration() (int, error) {
	migrations, err := Migrations()
	if err != nil {
		return 0, err
	}
	if len(migrations) == 0 {
		return 0, nil
	}
	return migrations[len(migrations)-1].Number, nil
}

// Migrate applies every packaged migration newer than the last one recorded
// in schema_migrations, each in its own transaction. It returns the last
// applied migration number. Safe to call repeatedly.
func (db *DB) Migrate(ctx context.Context) (int, error) {
	bootstrap := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		number INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`
	if _, err := db.conn.ExecContext(ctx, bootstrap); err != nil {
		return 0, classify(fmt.Errorf("failed to create schema_migrations: %w", err))
	}

	current, err := db.AppliedMigration(ctx)
	if err != nil {
		return 0, err
	}

	migrations, err := Migrations()
	if err != nil {
		return 0, err
	}

	for _, m := range migrations {
		if m.Number <= current {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return current, err
		}
		db.logger.Info("applied migration", "number", m.Number, "name", m.Name)
		current = m.Number
	}

	return current, nil
}

func (db *DB) applyMigration(ctx context.Context, m Migration) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("failed to begin migration %d: %w", m.Number, err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("failed to apply migration %s: %w", m.Name, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (number, name, applied_at) VALUES (?, ?, ?)`,
		m.Number, m.Name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record migration %s: %w", m.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit migration %s: %w", m.Name, err))
	}
	return nil
}

// AppliedMigration returns the highest migration number recorded in the
// store, or 0 when none has been applied.
func (db *DB) AppliedMigration(ctx context.Context) (int, error) {
	var exists int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'`,
	).Scan(&exists)
	if err != nil {
		return 0, classify(fmt.Errorf("failed to inspect schema: %w", err))
	}
	if exists == 0 {
		return 0, nil
	}

	var n int
	err = db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(number), 0) FROM schema_migrations`).Scan(&n)
	if err != nil {
		return 0, classify(fmt.Errorf("failed to read applied migration: %w", err))
	}
	return n, nil
}
