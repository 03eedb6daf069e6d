package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when no record matches the key
	ErrNotFound = errors.New("record not found")
	// ErrStateConflict is returned when a guarded update matched no row in the expected state
	ErrStateConflict = errors.New("record is not in the expected state")
	// ErrDuplicate is returned when a unique key is already taken
	ErrDuplicate = errors.New("record already exists")
)

// Repository provides database operations for cards, transfers and the error catalog.
// Queries are written for both PostgreSQL and SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Open connects to the database and checks that it answers.
// SQLite is limited to one connection so that in-memory databases are shared.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Ping checks the database connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Migrate creates the tables and indexes when they are missing
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

const schema = `
CREATE TABLE IF NOT EXISTS cards (
	card_number VARCHAR(16) PRIMARY KEY,
	expire      VARCHAR(10) NOT NULL,
	phone       VARCHAR(32),
	status      VARCHAR(10) NOT NULL DEFAULT 'active',
	balance     NUMERIC(15, 2) NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS transfers (
	ext_id               VARCHAR(100) PRIMARY KEY,
	sender_card_number   VARCHAR(16) NOT NULL,
	sender_card_expiry   VARCHAR(7) NOT NULL,
	receiver_card_number VARCHAR(16) NOT NULL,
	sender_phone         VARCHAR(32),
	receiver_phone       VARCHAR(32),
	sending_amount       NUMERIC(18, 2) NOT NULL,
	currency             INTEGER NOT NULL,
	receiving_amount     NUMERIC(18, 2) NOT NULL,
	state                VARCHAR(10) NOT NULL DEFAULT 'created',
	otp                  VARCHAR(6),
	try_count            SMALLINT NOT NULL DEFAULT 0,
	created_at           TIMESTAMP NOT NULL,
	confirmed_at         TIMESTAMP,
	cancelled_at         TIMESTAMP,
	updated_at           TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transfers_sender ON transfers (sender_card_number);
CREATE INDEX IF NOT EXISTS idx_transfers_receiver ON transfers (receiver_card_number);
CREATE INDEX IF NOT EXISTS idx_transfers_state_created ON transfers (state, created_at);

CREATE TABLE IF NOT EXISTS errors (
	code INTEGER PRIMARY KEY,
	en   VARCHAR(255) NOT NULL,
	ru   VARCHAR(255) NOT NULL DEFAULT '',
	uz   VARCHAR(255) NOT NULL DEFAULT ''
);
`
