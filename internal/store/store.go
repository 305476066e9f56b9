package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/waypost-hq/waypost/internal/kernel"
	"github.com/waypost-hq/waypost/internal/trip"
)

//go:embed schema.sql
var schemaSQL string

// Store provides durable storage for trips, messages, scheduled
// actions, and the op log. Uses SQLite with WAL mode for concurrent
// read access.
type Store struct {
	db *sql.DB
}

// Trip is one stored trip record.
type Trip struct {
	ID          string
	ScriptName  string
	Title       string
	Timezone    string
	EvalContext trip.EvalContext
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Message is one stored message record.
type Message struct {
	ID        string
	TripID    string
	FromRole  string
	ToRole    string
	Medium    string
	Content   string
	CreatedAt time.Time
}

// Scheduled is one stored scheduled action. AppliedAt is nil while
// the action is still pending.
type Scheduled struct {
	ID     string
	TripID string
	kernel.ScheduledAction
	AppliedAt *time.Time
}

// LoggedOp is one op-log entry.
type LoggedOp struct {
	ID        int64
	TripID    string
	Seq       int
	Operation string
	Payload   string
	CreatedAt time.Time
}

// NewID returns a fresh identifier for trips, messages, and scheduled
// actions. UUIDv7, so IDs sort by creation time.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Randomness failure; fall back to v4 rather than aborting.
		return uuid.NewString()
	}
	return id.String()
}

// Open creates or opens a SQLite database at the given path, applying
// pragmas and the schema. Idempotent.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries. Prefer Store
// methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}
