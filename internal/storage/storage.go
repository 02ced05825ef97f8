// Package storage provides the durable string-keyed store that timesheet
// snapshots are written to.
package storage

import "errors"

// ErrQuotaExceeded is returned by Set when a write would exceed the
// configured storage quota.
var ErrQuotaExceeded = errors.New("storage: quota exceeded")

// KV is a string-keyed key/value store. Values are opaque to the store;
// callers keep them JSON-encoded.
type KV interface {
	// Get returns the value for key and whether the key exists.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Keys returns all keys starting with prefix, sorted lexicographically.
	Keys(prefix string) ([]string, error)
	Close() error
}
