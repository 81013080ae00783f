package postgres

import (
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	// Register the postgres driver.
	_ "github.com/lib/pq"
)

// DB is the postgres implementation of store.Driver.
type DB struct {
	db *sql.DB
}

// NewDB connects to the postgres database at the given DSN.
func NewDB(dsn string) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping postgres database")
	}
	return &DB{db: db}, nil
}

// Close closes the database handle.
func (d *DB) Close() error {
	return d.db.Close()
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
