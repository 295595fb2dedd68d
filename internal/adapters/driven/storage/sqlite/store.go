// Package sqlite provides the durable storage backend for the sensor.
// A single database file holds accepted event bundles and backfill sync
// cursors; both storage ports are served by wrapper types over one
// connection pool.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/github-sensor/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/github-sensor/internal/core/domain"
	"github.com/custodia-labs/github-sensor/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// bundle cache and cursor store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.github-sensor/data/sensor.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".github-sensor", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sensor.db")

	// WAL mode lets the webhook path read while a sweep writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// BundleCache returns a BundleCache interface backed by this store.
func (s *Store) BundleCache() driven.BundleCache {
	return &bundleCache{store: s}
}

// CursorStore returns a CursorStore interface backed by this store.
func (s *Store) CursorStore() driven.CursorStore {
	return &cursorStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Bundle Cache ====================

// bundleCache implements driven.BundleCache.
type bundleCache struct {
	store *Store
}

var _ driven.BundleCache = (*bundleCache)(nil)

// Read retrieves the prior record for an identity.
func (c *bundleCache) Read(ctx context.Context, identity domain.EventIdentity) (*domain.PriorRecord, error) {
	row := c.store.db.QueryRowContext(ctx, `
		SELECT content_hash, created_at FROM bundles WHERE reference = ?
	`, identity.Reference())

	var record domain.PriorRecord
	if err := row.Scan(&record.ContentHash, &record.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading bundle %s: %w", identity.Reference(), err)
	}
	return &record, nil
}

// Write stores or replaces the record for a bundle's identity.
func (c *bundleCache) Write(ctx context.Context, bundle domain.Bundle) error {
	contentsJSON, err := json.Marshal(bundle.Contents)
	if err != nil {
		return fmt.Errorf("marshalling contents: %w", err)
	}

	timestamp := bundle.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO bundles (reference, contents, content_hash, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(reference) DO UPDATE SET
			contents = excluded.contents,
			content_hash = excluded.content_hash,
			created_at = excluded.created_at
	`, bundle.Identity.Reference(), string(contentsJSON), bundle.ContentHash, timestamp)

	if err != nil {
		return fmt.Errorf("writing bundle %s: %w", bundle.Identity.Reference(), err)
	}
	return nil
}

// ==================== Cursor Store ====================

// cursorStore implements driven.CursorStore.
type cursorStore struct {
	store *Store
}

var _ driven.CursorStore = (*cursorStore)(nil)

// Load retrieves the full cursor set.
func (c *cursorStore) Load(ctx context.Context) (domain.CursorSet, error) {
	rows, err := c.store.db.QueryContext(ctx, `
		SELECT repository, resource, etag, last_update FROM sync_cursors
	`)
	if err != nil {
		return nil, fmt.Errorf("loading cursors: %w", err)
	}
	defer rows.Close()

	cursors := make(domain.CursorSet)
	for rows.Next() {
		var (
			repository string
			resource   string
			etag       string
			lastUpdate sql.NullTime
		)
		if err := rows.Scan(&repository, &resource, &etag, &lastUpdate); err != nil {
			return nil, fmt.Errorf("scanning cursor row: %w", err)
		}

		repo, err := domain.ParseRepositoryRef(repository)
		if err != nil {
			return nil, fmt.Errorf("stored cursor repository %q: %w", repository, err)
		}

		cursor := domain.SyncCursor{ETag: etag}
		if lastUpdate.Valid {
			cursor.LastUpdate = lastUpdate.Time.UTC()
		}
		cursors.SetCursor(repo, domain.Resource(resource), cursor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cursor rows: %w", err)
	}

	return cursors, nil
}

// Save persists the full cursor set in one transaction.
func (c *cursorStore) Save(ctx context.Context, cursors domain.CursorSet) error {
	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning cursor save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM sync_cursors"); err != nil {
		return fmt.Errorf("clearing cursors: %w", err)
	}

	for repository, resources := range cursors {
		for resource, cursor := range resources {
			var lastUpdate any
			if !cursor.LastUpdate.IsZero() {
				lastUpdate = cursor.LastUpdate.UTC()
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO sync_cursors (repository, resource, etag, last_update)
				VALUES (?, ?, ?, ?)
			`, repository, string(resource), cursor.ETag, lastUpdate)
			if err != nil {
				return fmt.Errorf("saving cursor %s/%s: %w", repository, resource, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cursor save: %w", err)
	}
	return nil
}
