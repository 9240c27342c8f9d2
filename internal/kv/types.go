// Package kv re-exports the key-value contract for stable imports and selects
// a concrete backend. Packages outside internal/kv depend on kv.Store, never on
// internal/infra/kv directly.
package kv

import (
	"zenjournal/internal/kv/core"
)

type (
	// Driver identifies a kv backend driver.
	Driver = core.Driver
	// Store is the interface for kv storage backends.
	Store = core.Store
)

const (
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverSQLite is the embedded SQLite driver.
	DriverSQLite = core.DriverSQLite
	// DriverPostgres is the PostgreSQL driver.
	DriverPostgres = core.DriverPostgres
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
)

// ErrInvalidKey indicates a key was rejected by ValidateKey.
var ErrInvalidKey = core.ErrInvalidKey
