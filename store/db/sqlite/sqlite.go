package sqlite

import (
	"database/sql"

	"github.com/pkg/errors"

	// Register the pure-Go sqlite driver.
	_ "modernc.org/sqlite"
)

// DB is the sqlite implementation of store.Driver.
type DB struct {
	db *sql.DB
}

// NewDB opens (or creates) the sqlite database at the given DSN.
func NewDB(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}
	// sqlite allows a single writer; a second connection would also see a
	// different database when the DSN is ":memory:".
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping sqlite database")
	}
	return &DB{db: db}, nil
}

// Close closes the database handle.
func (d *DB) Close() error {
	return d.db.Close()
}
