package diary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mgalvez/undiacomohoy/internal/storage"
)

// localImagePrefix marks an image reference that points into the local
// image blob map instead of a remote URL.
const localImagePrefix = "local://"

// localImageID extracts the blob id from a "local://<id>" reference.
func localImageID(ref string) (string, bool) {
	if !strings.HasPrefix(ref, localImagePrefix) {
		return "", false
	}
	return strings.TrimPrefix(ref, localImagePrefix), true
}

// LocalImageRef builds the storage reference for a locally-stored image.
func LocalImageRef(imageID string) string {
	return localImagePrefix + imageID
}

func (s *Store) loadImages(ctx context.Context) (map[string]string, error) {
	images := make(map[string]string)
	raw, ok, err := s.kv.Get(ctx, KeyImages)
	if err != nil {
		return nil, err
	}
	if !ok {
		return images, nil
	}
	if err := json.Unmarshal(raw, &images); err != nil {
		return make(map[string]string), nil
	}
	return images, nil
}

func (s *Store) saveImages(ctx context.Context, images map[string]string) error {
	raw, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("diary: failed to marshal images: %w", err)
	}
	return s.kv.Set(ctx, KeyImages, raw)
}

// PutImage stores an image data URL in the blob map and returns the
// "local://<id>" reference to use in an ImagePayload.
func (s *Store) PutImage(ctx context.Context, dataURL string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	images, err := s.loadImages(ctx)
	if err != nil {
		return "", err
	}
	id := s.newID()
	images[id] = dataURL
	if err := s.saveImages(ctx, images); err != nil {
		return "", err
	}
	return LocalImageRef(id), nil
}

// GetImage resolves a "local://<id>" reference to its stored data URL.
func (s *Store) GetImage(ctx context.Context, ref string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := localImageID(ref)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a local image reference", storage.ErrInvalidInput, ref)
	}
	images, err := s.loadImages(ctx)
	if err != nil {
		return "", err
	}
	data, ok := images[id]
	if !ok {
		return "", fmt.Errorf("%w: image %q", storage.ErrNotFound, id)
	}
	return data, nil
}

// deleteImage removes one blob from the image map. Callers hold s.mu.
func (s *Store) deleteImage(ctx context.Context, id string) error {
	images, err := s.loadImages(ctx)
	if err != nil {
		return err
	}
	if _, ok := images[id]; !ok {
		return nil
	}
	delete(images, id)
	return s.saveImages(ctx, images)
}
