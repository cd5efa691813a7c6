package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mgalvez/undiacomohoy/internal/diary"
	"github.com/mgalvez/undiacomohoy/internal/storage"
)

// Default locations of the single backup file in the remote store.
const (
	DefaultFolderName = "UnDiaComoHoy"
	DefaultFileName   = "undiacomohoy-backup.json"
)

// Service runs the backup/restore protocol over a key-value substrate, a
// remote blob store and an authorization collaborator. Like the diary
// store it is an explicit context object, so tests can run many isolated
// instances against mock collaborators.
type Service struct {
	kv         storage.KVStore
	remote     RemoteStore
	auth       Authorizer
	folderName string
	fileName   string

	now func() time.Time
}

// NewService creates a backup service. Empty folder or file names fall
// back to the defaults.
func NewService(kv storage.KVStore, remote RemoteStore, auth Authorizer, folderName, fileName string) *Service {
	if folderName == "" {
		folderName = DefaultFolderName
	}
	if fileName == "" {
		fileName = DefaultFileName
	}
	return &Service{
		kv:         kv,
		remote:     remote,
		auth:       auth,
		folderName: folderName,
		fileName:   fileName,
		now:        time.Now,
	}
}

// payloadKeys maps payload fields to local storage keys. The images blob
// map is deliberately not part of the payload: remote image references
// survive, local blobs do not.
var payloadKeys = struct {
	days, memories, viewMode, firstRun, welcomeShown string
}{
	days:         diary.KeyDays,
	memories:     diary.KeyMemories,
	viewMode:     diary.KeyViewMode,
	firstRun:     diary.KeyFirstRunDone,
	welcomeShown: diary.KeyWelcomeShown,
}

// credential obtains a token, wrapping failures as ErrUnauthorized.
func (s *Service) credential(ctx context.Context) (string, error) {
	token, err := s.auth.Authorize(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}
	return token, nil
}

// snapshot reads the raw value of every payload key. Missing keys stay nil.
func (s *Service) snapshot(ctx context.Context) (*PayloadData, error) {
	data := &PayloadData{}
	read := func(key string, dst *json.RawMessage) error {
		raw, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			*dst = raw
		}
		return nil
	}
	if err := read(payloadKeys.days, &data.Days); err != nil {
		return nil, err
	}
	if err := read(payloadKeys.memories, &data.Memories); err != nil {
		return nil, err
	}
	if err := read(payloadKeys.viewMode, &data.ViewMode); err != nil {
		return nil, err
	}
	if err := read(payloadKeys.firstRun, &data.FirstRun); err != nil {
		return nil, err
	}
	if err := read(payloadKeys.welcomeShown, &data.WelcomeShown); err != nil {
		return nil, err
	}
	return data, nil
}

// Backup serializes the local dataset and uploads it, overwriting the
// existing remote file or creating it. On any failure the local data is
// untouched and the remote file is either intact or fully replaced —
// never half-written (the blob store swaps content atomically per call).
func (s *Service) Backup(ctx context.Context, onProgress ProgressFunc) error {
	report := func(phase string) {
		if onProgress != nil {
			onProgress(phase)
		}
	}

	token, err := s.credential(ctx)
	if err != nil {
		return err
	}

	data, err := s.snapshot(ctx)
	if err != nil {
		return fmt.Errorf("backup: failed to read local data: %w", err)
	}
	payload := Payload{
		Version:   PayloadVersion,
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Data:      data,
	}
	content, err := json.Marshal(&payload)
	if err != nil {
		return fmt.Errorf("backup: failed to serialize payload: %w", err)
	}

	report("connecting")
	folderID, err := s.remote.EnsureFolder(ctx, token, s.folderName)
	if err != nil {
		return fmt.Errorf("backup: failed to locate folder %q: %w", s.folderName, err)
	}

	report("uploading")
	existing, err := s.remote.FindFile(ctx, token, folderID, s.fileName)
	switch {
	case err == nil:
		if _, err := s.remote.UpdateFile(ctx, token, existing.ID, content); err != nil {
			return fmt.Errorf("backup: failed to overwrite %q: %w", s.fileName, err)
		}
	case errors.Is(err, storage.ErrNotFound):
		if _, err := s.remote.CreateFile(ctx, token, folderID, s.fileName, content); err != nil {
			return fmt.Errorf("backup: failed to create %q: %w", s.fileName, err)
		}
	default:
		return fmt.Errorf("backup: failed to look up %q: %w", s.fileName, err)
	}

	if err := s.recordLastBackup(ctx, payload.Timestamp); err != nil {
		log.Printf("backup: failed to record last-backup timestamp: %v", err)
	}
	return nil
}

// Restore downloads the remote backup and writes each present data field
// back into local storage verbatim. This is a destructive overwrite of
// local state; callers are expected to warn the user first and reload
// the application afterward. Returns the remote file's modified time.
func (s *Service) Restore(ctx context.Context, onProgress ProgressFunc) (time.Time, error) {
	report := func(phase string) {
		if onProgress != nil {
			onProgress(phase)
		}
	}

	token, err := s.credential(ctx)
	if err != nil {
		return time.Time{}, err
	}

	report("connecting")
	folderID, err := s.remote.FindFolder(ctx, token, s.folderName)
	if err != nil {
		return time.Time{}, fmt.Errorf("restore: folder %q: %w", s.folderName, err)
	}
	file, err := s.remote.FindFile(ctx, token, folderID, s.fileName)
	if err != nil {
		return time.Time{}, fmt.Errorf("restore: file %q: %w", s.fileName, err)
	}

	report("downloading")
	content, err := s.remote.Download(ctx, token, file.ID)
	if err != nil {
		return time.Time{}, fmt.Errorf("restore: failed to download %q: %w", s.fileName, err)
	}

	var payload Payload
	if err := json.Unmarshal(content, &payload); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", storage.ErrInvalidFormat, err)
	}
	if payload.Version == "" || payload.Data == nil {
		return time.Time{}, fmt.Errorf("%w: missing version or data", storage.ErrInvalidFormat)
	}

	report("applying")
	writes := []struct {
		key string
		raw json.RawMessage
	}{
		{payloadKeys.days, payload.Data.Days},
		{payloadKeys.memories, payload.Data.Memories},
		{payloadKeys.viewMode, payload.Data.ViewMode},
		{payloadKeys.firstRun, payload.Data.FirstRun},
		{payloadKeys.welcomeShown, payload.Data.WelcomeShown},
	}
	for _, w := range writes {
		// Absent or falsy fields are left untouched, not cleared.
		if !present(w.raw) {
			continue
		}
		if err := s.kv.Set(ctx, w.key, w.raw); err != nil {
			return time.Time{}, fmt.Errorf("restore: failed to write key %q: %w", w.key, err)
		}
	}

	if err := s.recordLastBackup(ctx, payload.Timestamp); err != nil {
		log.Printf("restore: failed to record last-backup timestamp: %v", err)
	}
	return file.ModifiedAt, nil
}

// RemoteInfo probes the remote backup without mutating anything. It
// returns nil on ANY failure — including "not authorized" — so callers
// can invoke it speculatively to decide whether to offer a restore.
func (s *Service) RemoteInfo(ctx context.Context) *Info {
	token, ok := s.auth.Token()
	if !ok {
		return nil
	}
	folderID, err := s.remote.FindFolder(ctx, token, s.folderName)
	if err != nil {
		return nil
	}
	file, err := s.remote.FindFile(ctx, token, folderID, s.fileName)
	if err != nil {
		return nil
	}
	return &Info{Name: file.Name, ModifiedAt: file.ModifiedAt, Size: file.Size}
}

// recordLastBackup stores the timestamp of the last successful
// backup/restore under its settings key.
func (s *Service) recordLastBackup(ctx context.Context, timestamp string) error {
	raw, err := json.Marshal(timestamp)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, diary.KeyLastBackup, raw)
}

// present reports whether a raw payload field carries a usable value.
// nil, empty, JSON null and the empty string are all treated as absent.
func present(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", `""`:
		return false
	}
	return true
}
