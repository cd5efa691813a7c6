package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/mgalvez/undiacomohoy/internal/storage"
)

// ErrRemoteUnavailable is returned when the circuit breaker is open and
// rejects calls to the remote store to prevent cascading failures.
var ErrRemoteUnavailable = errors.New("remote store is unavailable")

const (
	driveDefaultBaseURL = "https://www.googleapis.com"
	driveFolderMIME     = "application/vnd.google-apps.folder"
	driveRequestTimeout = 30 * time.Second
)

// DriveStore is a RemoteStore backed by a Drive v3 compatible HTTP API.
// All calls go through a circuit breaker: after a few consecutive
// failures the store fails fast for a while instead of hammering a
// remote that is down.
type DriveStore struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewDriveStore creates a Drive-backed remote store. An empty baseURL
// selects the public Drive endpoint; tests point it at a local server.
func NewDriveStore(baseURL string) *DriveStore {
	if baseURL == "" {
		baseURL = driveDefaultBaseURL
	}
	settings := gobreaker.Settings{
		Name:        "DriveStore",
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &DriveStore{
		baseURL: baseURL,
		client:  &http.Client{Timeout: driveRequestTimeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// driveFile is the Drive file resource subset we request.
type driveFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType,omitempty"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	Size         string `json:"size,omitempty"`
}

// driveFileList is the response of a files.list query.
type driveFileList struct {
	Files []driveFile `json:"files"`
}

func (d *DriveStore) FindFolder(ctx context.Context, token, name string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		escapeDriveQuery(name), driveFolderMIME)
	list, err := d.listFiles(ctx, token, query)
	if err != nil {
		return "", err
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: folder %q", storage.ErrNotFound, name)
	}
	return list.Files[0].ID, nil
}

func (d *DriveStore) EnsureFolder(ctx context.Context, token, name string) (string, error) {
	id, err := d.FindFolder(ctx, token, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}

	body, err := json.Marshal(map[string]string{"name": name, "mimeType": driveFolderMIME})
	if err != nil {
		return "", fmt.Errorf("%w: %v", storage.ErrIO, err)
	}
	var created driveFile
	err = d.doJSON(ctx, token, http.MethodPost, d.baseURL+"/drive/v3/files",
		"application/json", bytes.NewReader(body), &created)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (d *DriveStore) FindFile(ctx context.Context, token, folderID, name string) (*RemoteFile, error) {
	query := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false",
		escapeDriveQuery(name), folderID)
	list, err := d.listFiles(ctx, token, query)
	if err != nil {
		return nil, err
	}
	if len(list.Files) == 0 {
		return nil, fmt.Errorf("%w: file %q", storage.ErrNotFound, name)
	}
	return toRemoteFile(&list.Files[0]), nil
}

func (d *DriveStore) CreateFile(ctx context.Context, token, folderID, name string, content []byte) (*RemoteFile, error) {
	// Drive multipart upload: part one is the file metadata, part two the
	// media content.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := mw.CreatePart(metaHeader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrIO, err)
	}
	meta := map[string]any{"name": name, "parents": []string{folderID}}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrIO, err)
	}

	mediaHeader := textproto.MIMEHeader{}
	mediaHeader.Set("Content-Type", "application/json")
	mediaPart, err := mw.CreatePart(mediaHeader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrIO, err)
	}
	if _, err := mediaPart.Write(content); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrIO, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrIO, err)
	}

	uploadURL := d.baseURL + "/upload/drive/v3/files?uploadType=multipart&fields=id,name,modifiedTime,size"
	var created driveFile
	err = d.doJSON(ctx, token, http.MethodPost, uploadURL,
		"multipart/related; boundary="+mw.Boundary(), &buf, &created)
	if err != nil {
		return nil, err
	}
	return toRemoteFile(&created), nil
}

func (d *DriveStore) UpdateFile(ctx context.Context, token, fileID string, content []byte) (*RemoteFile, error) {
	uploadURL := fmt.Sprintf("%s/upload/drive/v3/files/%s?uploadType=media&fields=id,name,modifiedTime,size",
		d.baseURL, url.PathEscape(fileID))
	var updated driveFile
	err := d.doJSON(ctx, token, http.MethodPatch, uploadURL,
		"application/json", bytes.NewReader(content), &updated)
	if err != nil {
		return nil, err
	}
	return toRemoteFile(&updated), nil
}

func (d *DriveStore) Download(ctx context.Context, token, fileID string) ([]byte, error) {
	downloadURL := fmt.Sprintf("%s/drive/v3/files/%s?alt=media", d.baseURL, url.PathEscape(fileID))
	result, err := d.execute(ctx, func() (any, error) {
		return d.request(ctx, token, http.MethodGet, downloadURL, "", nil)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// listFiles runs a files.list query and decodes the match list.
func (d *DriveStore) listFiles(ctx context.Context, token, query string) (*driveFileList, error) {
	listURL := d.baseURL + "/drive/v3/files?fields=files(id,name,mimeType,modifiedTime,size)&q=" +
		url.QueryEscape(query)
	var list driveFileList
	if err := d.doJSON(ctx, token, http.MethodGet, listURL, "", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// doJSON performs a request through the breaker and decodes the JSON body.
func (d *DriveStore) doJSON(ctx context.Context, token, method, reqURL, contentType string, body io.Reader, out any) error {
	result, err := d.execute(ctx, func() (any, error) {
		return d.request(ctx, token, method, reqURL, contentType, body)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(result.([]byte), out); err != nil {
		return fmt.Errorf("%w: malformed remote response: %v", storage.ErrIO, err)
	}
	return nil
}

// execute runs fn through the circuit breaker. Authorization and
// not-found responses count as remote failures only when they indicate
// an unreachable service, so they are excluded from tripping the breaker.
func (d *DriveStore) execute(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := d.breaker.Execute(func() (interface{}, error) {
		res, err := fn()
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrUnauthorized) {
			return errorResult{res: res, err: err}, nil
		}
		return res, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
		}
		return nil, err
	}
	if wrapped, ok := result.(errorResult); ok {
		return wrapped.res, wrapped.err
	}
	return result, nil
}

// errorResult smuggles an application-level error through the breaker
// without counting it as a circuit failure.
type errorResult struct {
	res any
	err error
}

// request performs one HTTP call and maps status codes onto the storage
// error taxonomy: 401/403 to ErrUnauthorized, 404 to ErrNotFound, any
// other non-2xx to ErrIO.
func (d *DriveStore) request(ctx context.Context, token, method, reqURL, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrIO, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrIO, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrIO, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return payload, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: remote returned %d", storage.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: remote returned 404", storage.ErrNotFound)
	default:
		return nil, fmt.Errorf("%w: remote returned %d: %s", storage.ErrIO, resp.StatusCode, truncate(payload, 200))
	}
}

// toRemoteFile converts a Drive resource to the store-neutral metadata.
func toRemoteFile(f *driveFile) *RemoteFile {
	modified, _ := time.Parse(time.RFC3339, f.ModifiedTime)
	size, _ := strconv.ParseInt(f.Size, 10, 64)
	return &RemoteFile{ID: f.ID, Name: f.Name, ModifiedAt: modified, Size: size}
}

// escapeDriveQuery escapes single quotes and backslashes inside a Drive
// query string literal.
func escapeDriveQuery(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		if r == '\'' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// truncate limits an error body snippet.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
