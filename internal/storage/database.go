package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// timeFormat is the fixed-width layout used for every stored timestamp, so string
// comparison orders them chronologically.
const timeFormat = "2006-01-02T15:04:05Z"

// Now returns the current UTC time in the stored timestamp format.
func Now() string {
	return time.Now().UTC().Format(timeFormat)
}

// NormalizeTime rewrites an RFC3339 timestamp, with any offset or fractional
// seconds, into the stored format. An empty string stays empty.
func NormalizeTime(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return "", fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC().Format(timeFormat), nil
}

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS workspaces (
			id TEXT PRIMARY KEY,
			key TEXT NOT NULL UNIQUE,
			root_path TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS annotations (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			file_path TEXT NOT NULL,
			start_line INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			start_column INTEGER,
			end_column INTEGER,
			selected_text TEXT NOT NULL,
			comment TEXT NOT NULL,
			pre_context_hash TEXT,
			post_context_hash TEXT,
			file_digest TEXT,
			tags TEXT,
			priority TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE RESTRICT ON UPDATE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_file_path ON annotations(file_path);`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_created_at ON annotations(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_ws_id_file ON annotations(workspace_id, file_path);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
