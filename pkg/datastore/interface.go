// Package datastore persists small client-side key/value records, playing
// the role a browser's local storage plays for a web storefront.
package datastore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been set or was deleted.
var ErrNotFound = errors.New("datastore: key not found")

// KV defines the persistence interface used by the session manager.
// Implementations include the default SQLite store and an in-memory store
// for tests.
type KV interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set creates or replaces a value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Close releases the underlying storage.
	Close() error
}

// Compile-time checks.
var (
	_ KV = (*SQLite)(nil)
	_ KV = (*Memory)(nil)
)
