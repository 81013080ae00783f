package mysql

import (
	"database/sql"

	"github.com/pkg/errors"

	// Register the mysql driver.
	_ "github.com/go-sql-driver/mysql"
)

// DB is the mysql implementation of store.Driver.
type DB struct {
	db *sql.DB
}

// NewDB connects to the mysql database at the given DSN.
func NewDB(dsn string) (*DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open mysql database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping mysql database")
	}
	return &DB{db: db}, nil
}

// Close closes the database handle.
func (d *DB) Close() error {
	return d.db.Close()
}
