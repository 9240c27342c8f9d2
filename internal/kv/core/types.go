// Package core defines the key-value contract shared by every persistence
// backend. Higher layers depend on kv.Store, never on a concrete backend.
package core

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Driver identifies a concrete key-value backend implementation.
type Driver string

const (
	// DriverMemory keeps values in process memory.
	DriverMemory Driver = "memory" // tests, ephemeral runs
	// DriverFilesystem stores one file per key under a root directory.
	DriverFilesystem Driver = "fs" // local filesystem (default)
	// DriverSQLite stores keys in an embedded SQLite file.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres stores keys in a PostgreSQL table.
	DriverPostgres Driver = "postgres"
	// DriverS3 stores one object per key in an S3 / MinIO bucket.
	DriverS3 Driver = "s3"
)

// Store is a scoped string key-value substrate. Each call is atomic for its
// key; there is no cross-key transaction.
type Store interface {
	// Get returns the value for key. ok is false (with a nil error) when absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Returns (false, nil) if it did not exist.
	Remove(ctx context.Context, key string) (bool, error)
	// Driver returns the backend identifier.
	Driver() Driver
	// Close releases backend resources.
	Close() error
}

// ErrInvalidKey is returned for keys that are blank or could escape a namespace.
var ErrInvalidKey = errors.New("kv: invalid key")

// ValidateKey rejects blank keys, absolute keys, path traversal and keys that
// clean to the namespace root. The returned key is normalized to forward slashes.
func ValidateKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q contains '..'", ErrInvalidKey, key)
	}
	if strings.HasPrefix(key, "/") || strings.HasPrefix(key, "\\") {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidKey, key)
	}
	clean := path.Clean(strings.ReplaceAll(key, "\\", "/"))
	if clean == "." {
		return "", fmt.Errorf("%w: %q names the namespace root", ErrInvalidKey, key)
	}
	return clean, nil
}
