package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/slack2rag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/slack2rag/internal/core/domain"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driven"
	"github.com/custodia-labs/slack2rag/internal/logger"
)

// Store is a SQLite database holding sync state.
type Store struct {
	db   *sql.DB
	path string
	log  *logger.Logger
}

// NewStore opens (creating if needed) the database at dbPath and applies
// pending migrations.
func NewStore(dbPath string, log *logger.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path: %w", domain.ErrInvalidInput)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath, log: log}

	// Run migrations
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

// CursorStore returns a CursorStore interface backed by this store.
func (s *Store) CursorStore() driven.CursorStore {
	return &cursorStore{store: s, now: time.Now}
}

// migrate runs all pending migrations in version order.
func (s *Store) migrate(fsys fs.FS) error {
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
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
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
		s.log.Debug("applied migration", "name", name)
	}

	return nil
}

// ==================== Cursor Store ====================

// cursorStore implements driven.CursorStore.
type cursorStore struct {
	store *Store
	now   func() time.Time
}

var _ driven.CursorStore = (*cursorStore)(nil)

// Get retrieves the cursor for a channel.
func (s *cursorStore) Get(ctx context.Context, channelID string) (*domain.ChannelCursor, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT channel_id, ts, updated_at
		FROM channel_cursors WHERE channel_id = ?
	`, channelID)

	cursor, err := scanCursor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning cursor: %w", err)
	}
	return cursor, nil
}

// Set advances the cursor for a channel. Older timestamps are ignored.
// The read and write share a transaction so concurrent writers cannot
// move the cursor backwards.
func (s *cursorStore) Set(ctx context.Context, channelID, ts string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cursor update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	err = tx.QueryRowContext(ctx, "SELECT ts FROM channel_cursors WHERE channel_id = ?", channelID).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("reading cursor: %w", err)
	case domain.CompareTS(ts, current) < 0:
		s.store.log.Warn("ignoring cursor regression", "channel_id", channelID, "current", current, "requested", ts)
		return nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO channel_cursors (channel_id, ts, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(channel_id) DO UPDATE SET
			ts = excluded.ts,
			updated_at = excluded.updated_at
	`, channelID, ts, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("saving cursor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cursor update: %w", err)
	}
	return nil
}

// List returns every cursor ordered by channel ID.
func (s *cursorStore) List(ctx context.Context) ([]domain.ChannelCursor, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT channel_id, ts, updated_at
		FROM channel_cursors ORDER BY channel_id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing cursors: %w", err)
	}
	defer rows.Close()

	var cursors []domain.ChannelCursor
	for rows.Next() {
		cursor, err := scanCursor(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning cursor: %w", err)
		}
		cursors = append(cursors, *cursor)
	}
	return cursors, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCursor(row rowScanner) (*domain.ChannelCursor, error) {
	var cursor domain.ChannelCursor
	var updatedAt int64
	if err := row.Scan(&cursor.ChannelID, &cursor.TS, &updatedAt); err != nil {
		return nil, err
	}
	cursor.UpdatedAt = time.UnixMilli(updatedAt)
	return &cursor, nil
}
