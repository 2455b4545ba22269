package db

import (
	"database/sql"
)

// DB handles all database operations with a shared connection pool
type DB struct {
	db *sql.DB
}

func New(database string) (*DB, error) {
	db, err := connection(database)
	if err != nil {
		return nil, err
	}

	return &DB{db: db}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}
