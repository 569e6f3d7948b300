// Package store provides the data access layer for the knowbase document
// tables: documents, categories, their join table, and the ingest log.
//
// All timestamps are unix milliseconds. Statuses are plain strings owned
// by the knowledge package; the store only enforces the transitions that
// must be atomic (claim, finish, fail).
package store

import "database/sql"

// Store wraps the knowbase database.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store from an already-opened database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}
