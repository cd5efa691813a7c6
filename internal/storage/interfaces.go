// Package storage defines the key-value persistence boundary of the diary
// and the error taxonomy shared by every layer above it.
//
// The diary keeps its whole dataset under a handful of string keys holding
// JSON documents (a days map, a per-day memories map, an images map and a
// few scalar settings). KVStore is the only abstraction that touches the
// underlying substrate; backends live in the sqlite and postgres
// subpackages and can be swapped without the upper layers noticing.
package storage

import (
	"context"
	"encoding/json"
)

// KVStore stores JSON-serializable values under string keys.
//
// Values are opaque to the store: callers hand in raw JSON and get the
// same bytes back. This is what makes the backup protocol's
// "serialize keys verbatim, restore keys verbatim" contract possible.
type KVStore interface {
	// Get returns the raw JSON stored under key. The boolean reports
	// whether the key exists; a missing key is not an error.
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value json.RawMessage) error

	// Delete removes key. Deleting a missing key is a no-op, not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}
