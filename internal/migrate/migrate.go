// Package migrate applies the embedded decision store schema migrations.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Migration represents a single database migration with up and down SQL.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// EnsureMigrationsTable creates the schema_migrations table if it doesn't exist.
func EnsureMigrationsTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			dirty INTEGER NOT NULL DEFAULT 0
		)
	`)
	return err
}

// GetCurrentVersion returns the current migration version and dirty state.
func GetCurrentVersion(ctx context.Context, db *sql.DB) (int, bool, error) {
	var version int
	var dirty int

	err := db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version, &dirty)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	return version, dirty == 1, nil
}

// SetVersion sets the migration version and dirty state.
func SetVersion(ctx context.Context, db *sql.DB, version int, dirty bool) error {
	dirtyInt := 0
	if dirty {
		dirtyInt = 1
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM schema_migrations`); err != nil {
		return err
	}

	if version > 0 {
		_, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (version, dirty) VALUES (?, ?)`, version, dirtyInt)
		return err
	}
	return nil
}

var upPattern = regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)

// LoadMigrations reads all embedded migration files and returns them sorted by version.
func LoadMigrations() ([]Migration, error) {
	var result []Migration

	err := fs.WalkDir(migrationsFS, "sql", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		matches := upPattern.FindStringSubmatch(path.Base(p))
		if matches == nil {
			return nil
		}

		version, _ := strconv.Atoi(matches[1])
		name := matches[2]

		upSQL, err := fs.ReadFile(migrationsFS, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}

		// Down migrations are optional.
		downPath := path.Join("sql", fmt.Sprintf("%03d_%s.down.sql", version, name))
		downSQL, _ := fs.ReadFile(migrationsFS, downPath)

		result = append(result, Migration{
			Version: version,
			Name:    name,
			UpSQL:   string(upSQL),
			DownSQL: string(downSQL),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Version < result[j].Version
	})

	return result, nil
}

// LatestVersion returns the version of the newest embedded migration.
func LatestVersion() (int, error) {
	migrations, err := LoadMigrations()
	if err != nil {
		return 0, err
	}
	if len(migrations) == 0 {
		return 0, nil
	}
	return migrations[len(migrations)-1].Version, nil
}

// RunMigration executes a single migration (up or down).
func RunMigration(ctx context.Context, db *sql.DB, m Migration, up bool) error {
	direction := "up"
	sqlContent := m.UpSQL
	targetVersion := m.Version
	if !up {
		direction = "down"
		sqlContent = m.DownSQL
		targetVersion = m.Version - 1
	}

	if err := SetVersion(ctx, db, m.Version, true); err != nil {
		return fmt.Errorf("failed to set dirty flag: %w", err)
	}

	for _, stmt := range SplitSQL(sqlContent) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration %d %s: %w\nSQL: %s", m.Version, direction, err, stmt)
		}
	}

	if err := SetVersion(ctx, db, targetVersion, false); err != nil {
		return fmt.Errorf("failed to clear dirty flag: %w", err)
	}

	return nil
}

// SplitSQL splits a SQL string by semicolons.
func SplitSQL(sql string) []string {
	return strings.Split(sql, ";")
}

// MigrateDownTo runs down migrations to a specific version, reporting each
// step on w.
func MigrateDownTo(ctx context.Context, db *sql.DB, w io.Writer, targetVersion int) error {
	if err := EnsureMigrationsTable(ctx, db); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, dirty, err := GetCurrentVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d", currentVersion)
	}

	allMigrations, err := LoadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	for i := len(allMigrations) - 1; i >= 0; i-- {
		m := allMigrations[i]
		if m.Version > currentVersion {
			continue
		}
		if m.Version <= targetVersion {
			break
		}
		if m.DownSQL == "" {
			return fmt.Errorf("no down migration for version %d", m.Version)
		}

		fmt.Fprintf(w, "  down %d_%s...\n", m.Version, m.Name)
		if err := RunMigration(ctx, db, m, false); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "Migrated to version %d\n", targetVersion)
	return nil
}

// RunAll runs all pending migrations on the provided database and returns
// how many were applied.
func RunAll(ctx context.Context, db *sql.DB) (int, error) {
	if err := EnsureMigrationsTable(ctx, db); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, dirty, err := GetCurrentVersion(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	if dirty {
		return 0, fmt.Errorf("database is in dirty state at version %d", currentVersion)
	}

	allMigrations, err := LoadMigrations()
	if err != nil {
		return 0, fmt.Errorf("failed to load migrations: %w", err)
	}

	applied := 0
	for _, m := range allMigrations {
		if m.Version <= currentVersion {
			continue
		}
		if err := RunMigration(ctx, db, m, true); err != nil {
			return applied, err
		}
		applied++
	}

	return applied, nil
}
