package storage

import "errors"

var (
	// ErrNotFound indicates that a referenced day, memory or remote
	// backup file does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates out-of-range input, e.g. a year outside
	// [1900, 2100] or a month outside [1, 12].
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidFormat indicates a malformed backup payload (missing
	// version or data envelope).
	ErrInvalidFormat = errors.New("invalid backup format")

	// ErrUnauthorized indicates that no valid remote credential is
	// available for a backup or restore operation.
	ErrUnauthorized = errors.New("not authorized")

	// ErrIO indicates a rejected local storage write or a remote
	// network/HTTP failure.
	ErrIO = errors.New("storage i/o failure")
)

// Page is one page of a cursor-paginated listing.
//
// The pagination contract is deliberately simple: the full matching set is
// rebuilt and re-sorted on every call, and NextCursor is the id of the
// last item returned. If that item disappears before the next request the
// sequence restarts from the beginning rather than erroring — local
// storage keeps no server-side cursor, so correctness (never skip or
// duplicate a surviving item) wins over efficiency.
type Page[T any] struct {
	// Items is the slice of results for the current page.
	Items []T `json:"items"`

	// HasMore indicates whether another page is available.
	HasMore bool `json:"hasMore"`

	// NextCursor resumes pagination after the last item of this page.
	// Empty when HasMore is false.
	NextCursor string `json:"nextCursor,omitempty"`
}
