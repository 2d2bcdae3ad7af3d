// Package store defines the persistence port behind the template library
// and run history, plus a contract suite every adapter is verified against.
//
// Records are opaque JSON byte slices grouped into named collections. The
// port is deliberately small so adapters stay dumb: domain encoding and
// validation live with the callers, typically the templates package.
//
// Two adapters ship with the module: file (one JSON file per record,
// written atomically) and redis (shared storage across hosts).
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrNotFound is returned by Get when no record exists under the requested
// collection and id.
var ErrNotFound = errors.New("record not found")

// Store is the persistence port for JSON-encoded records grouped into named
// collections. Implementations must be safe for concurrent use.
type Store interface {
	// Put stores value under (collection, id), replacing any existing
	// record.
	Put(ctx context.Context, collection, id string, value []byte) error

	// Get returns the record stored under (collection, id). The error
	// matches ErrNotFound when the record does not exist.
	Get(ctx context.Context, collection, id string) ([]byte, error)

	// Delete removes (collection, id). Deleting an absent record is not an
	// error.
	Delete(ctx context.Context, collection, id string) error

	// List returns the ids present in a collection in ascending order. A
	// collection that was never written to lists as empty.
	List(ctx context.Context, collection string) ([]string, error)

	// Close releases any resources held by the adapter.
	Close() error
}

// keyPattern constrains collection and id names so adapters can embed them
// in file paths and storage keys without escaping.
var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidateKey checks that name is usable as a collection or id. kind names
// the field being validated and appears in the error.
func ValidateKey(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	if !keyPattern.MatchString(name) {
		return fmt.Errorf("invalid %s %q: use letters, digits, '.', '_' or '-'", kind, name)
	}
	return nil
}
