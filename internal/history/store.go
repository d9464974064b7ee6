// Package history persists dispatched commands to SQLite so a user can
// review what their voice actually typed.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	. "github.com/voxctl/voxctl/internal/logging"
)

const currentSchemaVersion = 1

// defaultRetention caps how many commands are kept. Oldest rows beyond
// the cap are pruned on insert.
const defaultRetention = 1000

// Entry is one dispatched command.
type Entry struct {
	ID         int64
	Utterance  string    // raw recognized text
	ActionKind string    // trigger.Kind string form
	Payload    string    // what was sent to the terminal
	TargetCLI  string    // selected CLI at dispatch time
	Dispatched bool      // false when dispatch failed
	Error      string    // dispatch failure message, if any
	CreatedAt  time.Time
}

// StoreConfig configures the history store.
type StoreConfig struct {
	Path        string
	Retention   int // max rows kept, 0 means defaultRetention
	BusyTimeout int // milliseconds, 0 means 5000
}

// Store is a SQLite-backed command history.
type Store struct {
	db     *sql.DB
	config StoreConfig
}

// NewStore opens (creating if needed) the history database at cfg.Path.
func NewStore(cfg StoreConfig) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	timeout := cfg.BusyTimeout
	if timeout == 0 {
		timeout = 5000
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d", timeout)); err != nil {
		L_warn("history: failed to set busy_timeout", "error", err)
	}

	if cfg.Retention == 0 {
		cfg.Retention = defaultRetention
	}

	store := &Store{db: db, config: cfg}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	L_info("history: store opened", "path", cfg.Path)
	return store, nil
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	if err != nil {
		// Table doesn't exist, start from scratch
		version = 0
	}

	if version >= currentSchemaVersion {
		L_debug("history: schema up to date", "version", version)
		return nil
	}

	L_info("history: migrating schema", "from", version, "to", currentSchemaVersion)

	migrations := []func(*sql.DB) error{
		migrateV1,
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](s.db); err != nil {
			return fmt.Errorf("migration v%d failed: %w", i+1, err)
		}
		L_debug("history: applied migration", "version", i+1)
	}

	return nil
}

func migrateV1(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL
	);
	INSERT INTO schema_version (version, applied_at) VALUES (1, ?);

	CREATE TABLE IF NOT EXISTS commands (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at INTEGER NOT NULL,
		utterance TEXT NOT NULL,
		action_kind TEXT NOT NULL,
		payload TEXT NOT NULL DEFAULT '',
		target_cli TEXT,
		dispatched INTEGER NOT NULL DEFAULT 1,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_commands_created ON commands(created_at);
	`

	_, err := db.Exec(schema, time.Now().Unix())
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	L_debug("history: closing store")
	return s.db.Close()
}

// Record appends one dispatched command and prunes past retention.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO commands (created_at, utterance, action_kind, payload, target_cli, dispatched, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		created.Unix(), e.Utterance, e.ActionKind, e.Payload,
		nullString(e.TargetCLI), e.Dispatched, nullString(e.Error),
	)
	if err != nil {
		return fmt.Errorf("insert command failed: %w", err)
	}
	e.ID, _ = res.LastInsertId()

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM commands WHERE id NOT IN (
			SELECT id FROM commands ORDER BY id DESC LIMIT ?
		)
	`, s.config.Retention); err != nil {
		L_warn("history: prune failed", "error", err)
	}

	L_trace("history: command recorded", "id", e.ID, "kind", e.ActionKind)
	return nil
}

// Recent returns the newest-first slice of up to limit commands.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, utterance, action_kind, payload, target_cli, dispatched, error
		FROM commands
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		var target, errMsg sql.NullString

		if err := rows.Scan(&e.ID, &ts, &e.Utterance, &e.ActionKind, &e.Payload, &target, &e.Dispatched, &errMsg); err != nil {
			return nil, err
		}

		e.CreatedAt = time.Unix(ts, 0)
		e.TargetCLI = target.String
		e.Error = errMsg.String
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Count returns the number of stored commands.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM commands").Scan(&count)
	return count, err
}

// Clear removes all stored commands.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM commands")
	if err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	L_info("history: cleared")
	return nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
