package database

import (
	"errors"
)

var (
	postgresStore       func() Store
	postgresInitialized bool
)

// errNotInitialized is returned when no backend has been registered.
var errNotInitialized = errors.New("PostgreSQL backend not initialized: DATABASE_URL is required")

// RegisterPostgresBackend registers the PostgreSQL store constructor.
// This is called by the postgres package to avoid import cycles.
func RegisterPostgresBackend(store func() Store) {
	postgresStore = store
	postgresInitialized = true
}

// GetStore returns the registered store
func GetStore() (Store, error) {
	if !postgresInitialized || postgresStore == nil {
		return nil, errNotInitialized
	}
	return postgresStore(), nil
}
