// Package backup implements the remote backup and restore protocol: the
// entire local dataset serialized into a single versioned JSON document,
// kept as exactly one file inside a well-known folder of a Drive-like
// remote blob store.
//
// The protocol is full-overwrite: backup replaces the remote file whole,
// restore replaces the local keys whole. No merging, no history beyond
// the single timestamp field.
package backup

import (
	"context"
	"encoding/json"
	"time"
)

// PayloadVersion is the current backup document version.
const PayloadVersion = "5.0"

// Payload is the backup document. Each Data field holds the raw
// serialized value of the matching local storage key; restore writes
// them back verbatim, without re-validation.
type Payload struct {
	Version   string       `json:"version"`
	Timestamp string       `json:"timestamp"`
	Data      *PayloadData `json:"data"`
}

// PayloadData carries the raw local storage values. A nil/absent field
// means the key was not present at backup time and is left untouched on
// restore.
type PayloadData struct {
	Days         json.RawMessage `json:"days,omitempty"`
	Memories     json.RawMessage `json:"memories,omitempty"`
	ViewMode     json.RawMessage `json:"viewMode,omitempty"`
	FirstRun     json.RawMessage `json:"firstRun,omitempty"`
	WelcomeShown json.RawMessage `json:"welcomeShown,omitempty"`
}

// RemoteFile is the metadata of a file in the remote blob store.
type RemoteFile struct {
	ID         string
	Name       string
	ModifiedAt time.Time
	Size       int64
}

// Info describes the current remote backup, as returned by the
// speculative RemoteInfo probe.
type Info struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modifiedAt"`
	Size       int64     `json:"size"`
}

// RemoteStore is the blob-store collaborator: folder and file lookup by
// name, upload and download, all scoped to app-created files.
type RemoteStore interface {
	// FindFolder returns the id of the folder with the given name, or
	// storage.ErrNotFound.
	FindFolder(ctx context.Context, token, name string) (string, error)

	// EnsureFolder returns the id of the folder with the given name,
	// creating it when absent.
	EnsureFolder(ctx context.Context, token, name string) (string, error)

	// FindFile returns the file with the exact name inside the folder,
	// or storage.ErrNotFound.
	FindFile(ctx context.Context, token, folderID, name string) (*RemoteFile, error)

	// CreateFile uploads a new file into the folder.
	CreateFile(ctx context.Context, token, folderID, name string, content []byte) (*RemoteFile, error)

	// UpdateFile overwrites the content of an existing file.
	UpdateFile(ctx context.Context, token, fileID string, content []byte) (*RemoteFile, error)

	// Download retrieves the content of a file.
	Download(ctx context.Context, token, fileID string) ([]byte, error)
}

// Authorizer is the external authorization collaborator. Token acquisition
// (OAuth popups, refresh) happens behind this interface.
type Authorizer interface {
	// IsAuthorized reports whether a valid credential is cached.
	IsAuthorized() bool

	// Token returns the cached credential without any interaction.
	// Safe to call speculatively.
	Token() (string, bool)

	// Authorize returns a valid credential, prompting the user when
	// necessary. May suspend until resolved or rejected.
	Authorize(ctx context.Context) (string, error)

	// Revoke invalidates the cached credential.
	Revoke()
}

// ProgressFunc receives coarse phase descriptions during backup/restore.
type ProgressFunc func(phase string)
