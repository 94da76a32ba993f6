// Package store persists the time ledger, mode registry, week index, and
// settings in a local SQLite database, and keeps a bbolt snapshot of the
// in-progress interval for crash recovery.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Client is the single owner of the ledger database. All mutations are
// serialized through one mutex so a live session close can never race a
// retroactive edit of the same day's rows.
type Client struct {
	mu sync.Mutex
	db *sql.DB
}

// NewClient opens (creating if necessary) the ledger database at dbPath and
// brings its schema up to date.
func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open(
		"sqlite3",
		dbPath+"?_foreign_keys=on&_busy_timeout=1000",
	)
	if err != nil {
		return nil, errStoreUnavailable.WithCause(err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errStoreUnavailable.WithCause(err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Client{db: db}, nil
}

// Close ends the database connection.
func (c *Client) Close() error {
	return c.db.Close()
}

func runMigrations(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return errMigrate.WithCause(err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errMigrate.WithCause(err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return errMigrate.WithCause(err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errMigrate.WithCause(err)
	}

	return nil
}

// withTx runs fn inside a transaction under the single-writer lock. The
// transaction is rolled back when fn fails, so no partial state ever
// becomes visible to readers.
func (c *Client) withTx(fn func(tx *sql.Tx) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return errStoreUnavailable.WithCause(err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errStoreUnavailable.WithCause(err)
	}

	return nil
}
