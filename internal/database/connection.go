package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("database: record not found")

// Config selects and addresses the database.
type Config struct {
	Driver string // DriverSQLite (default) or DriverPostgres
	DSN    string // file path for sqlite, connection URL for postgres
}

// Connect opens the database and makes sure the schema exists.
func Connect(cfg Config) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch cfg.Driver {
	case "", DriverSQLite, "sqlite3":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = filepath.Join("data", "learnbot.db")
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_foreign_keys=on"
		}
		db, err = sqlx.Connect("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	case DriverPostgres:
		db, err = sqlx.Connect("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// initializeSchema creates necessary tables if they don't exist.
// Timestamps are stored as epoch milliseconds, 0 meaning "never".
func initializeSchema(db *sqlx.DB) error {
	statements := []struct {
		name  string
		query string
	}{
		{"learners", `
			CREATE TABLE IF NOT EXISTS learners (
				id BIGINT PRIMARY KEY,
				username TEXT NOT NULL DEFAULT '',
				first_name TEXT NOT NULL DEFAULT '',
				notification_enabled BOOLEAN NOT NULL DEFAULT TRUE,
				notification_hour INTEGER NOT NULL DEFAULT 9,
				max_reviews_per_day INTEGER NOT NULL DEFAULT 0,
				max_new_per_day INTEGER NOT NULL DEFAULT 0,
				include_new BOOLEAN NOT NULL DEFAULT TRUE,
				created_at BIGINT NOT NULL DEFAULT 0
			)`},
		{"review_items", `
			CREATE TABLE IF NOT EXISTS review_items (
				learner_id BIGINT NOT NULL REFERENCES learners(id),
				item_id TEXT NOT NULL,
				item_type TEXT NOT NULL,
				ease_factor DOUBLE PRECISION NOT NULL,
				interval_days INTEGER NOT NULL DEFAULT 0,
				due_date BIGINT NOT NULL,
				review_count INTEGER NOT NULL DEFAULT 0,
				lapse_count INTEGER NOT NULL DEFAULT 0,
				last_review_date BIGINT NOT NULL DEFAULT 0,
				recent_grades TEXT NOT NULL DEFAULT '[]',
				metadata TEXT NOT NULL DEFAULT '{}',
				PRIMARY KEY (learner_id, item_id)
			)`},
		{"review_items due index", `
			CREATE INDEX IF NOT EXISTS idx_review_items_due ON review_items (learner_id, due_date)`},
		{"review_logs", `
			CREATE TABLE IF NOT EXISTS review_logs (
				id TEXT PRIMARY KEY,
				learner_id BIGINT NOT NULL REFERENCES learners(id),
				item_id TEXT NOT NULL,
				grade INTEGER NOT NULL,
				reviewed_at BIGINT NOT NULL,
				interval_before INTEGER NOT NULL,
				interval_after INTEGER NOT NULL,
				ease_after DOUBLE PRECISION NOT NULL
			)`},
		{"review_logs item index", `
			CREATE INDEX IF NOT EXISTS idx_review_logs_item ON review_logs (learner_id, item_id, reviewed_at)`},
	}

	for _, s := range statements {
		if _, err := db.Exec(s.query); err != nil {
			return fmt.Errorf("failed to create %s: %w", s.name, err)
		}
	}
	return nil
}
