package turso

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/emiliopalmerini/hookguard/internal/migrate"
	"github.com/emiliopalmerini/hookguard/internal/util"
)

// DB wraps the decision store connection.
type DB struct {
	*sql.DB

	// lockPath serializes migrations of a local file; empty for remote stores.
	lockPath string
}

// busyTimeout is how long a local connection waits for another hook
// process to release the write lock. It stays below the hooks' sink timeout.
const busyTimeout = 2500 * time.Millisecond

// Open connects to a decision store and migrates its schema. Local paths
// are opened as embedded libsql files; libsql://, http:// and https:// URLs
// connect to a remote server.
func Open(ctx context.Context, location, authToken string) (*DB, error) {
	db, err := Connect(location, authToken)
	if err != nil {
		return nil, err
	}

	if err := db.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// Connect opens a decision store without touching its schema.
func Connect(location, authToken string) (*DB, error) {
	dsn, err := dataSourceName(location, authToken)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Hooks are short-lived; a single connection avoids lock contention on
	// the local file and keeps the per-connection pragmas in effect.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &DB{DB: db}
	if !isRemote(location) {
		store.lockPath = strings.TrimPrefix(location, "file:") + ".lock"
		if err := store.configureLocal(); err != nil {
			_ = db.Close()
			return nil, err
		}
	} else {
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	return store, nil
}

// configureLocal lets concurrent hook processes share one file: writers
// wait for the lock instead of failing, and WAL keeps readers off the
// writers' path.
func (db *DB) configureLocal() error {
	ctx := context.Background()

	var timeout int64
	if err := db.QueryRowContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds())).Scan(&timeout); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	_, err := WithRetry(ctx, func() (string, error) {
		var mode string
		err := db.QueryRowContext(ctx, "PRAGMA journal_mode = WAL").Scan(&mode)
		return mode, err
	})
	if err != nil {
		return fmt.Errorf("failed to enable WAL: %w", err)
	}
	return nil
}

// ensureSchema applies pending migrations. An up-to-date schema is only
// read, so concurrent hooks do not contend on DDL. Local migrations are
// serialized across processes with a lock file.
func (db *DB) ensureSchema(ctx context.Context) error {
	if db.upToDate(ctx) {
		return nil
	}

	if db.lockPath != "" {
		f, err := os.OpenFile(db.lockPath, os.O_CREATE|os.O_RDWR, 0644)
		if err != nil {
			return fmt.Errorf("open migration lock: %w", err)
		}
		defer func() { _ = f.Close() }()

		unlock, err := util.LockFile(f)
		if err != nil {
			return fmt.Errorf("lock migrations: %w", err)
		}
		defer unlock()

		// Another process may have migrated while we waited.
		if db.upToDate(ctx) {
			return nil
		}
	}

	_, err := WithRetry(ctx, func() (int, error) {
		return migrate.RunAll(ctx, db.DB)
	})
	return err
}

func (db *DB) upToDate(ctx context.Context) bool {
	latest, err := migrate.LatestVersion()
	if err != nil {
		return false
	}
	version, dirty, err := migrate.GetCurrentVersion(ctx, db.DB)
	return err == nil && !dirty && version >= latest
}

func isRemote(location string) bool {
	for _, scheme := range []string{"libsql://", "http://", "https://"} {
		if strings.HasPrefix(location, scheme) {
			return true
		}
	}
	return false
}

func dataSourceName(location, authToken string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("database location is required")
	}

	if isRemote(location) {
		if authToken == "" {
			return location, nil
		}
		u, err := url.Parse(location)
		if err != nil {
			return "", fmt.Errorf("invalid database URL: %w", err)
		}
		q := u.Query()
		q.Set("authToken", authToken)
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	path := strings.TrimPrefix(location, "file:")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return "file:" + path, nil
}
