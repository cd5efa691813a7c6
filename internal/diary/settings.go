package diary

import (
	"context"
	"encoding/json"
)

// ViewMode returns the stored UI view mode preference, or defaultMode
// when none has been saved yet.
func (s *Store) ViewMode(ctx context.Context, defaultMode string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.kv.Get(ctx, KeyViewMode)
	if err != nil {
		return "", err
	}
	if !ok {
		return defaultMode, nil
	}
	var mode string
	if err := json.Unmarshal(raw, &mode); err != nil || mode == "" {
		return defaultMode, nil
	}
	return mode, nil
}

// SetViewMode persists the UI view mode preference.
func (s *Store) SetViewMode(ctx context.Context, mode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(mode)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, KeyViewMode, raw)
}

// WelcomeShown reports whether the welcome dialog has been dismissed.
func (s *Store) WelcomeShown(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boolFlag(ctx, KeyWelcomeShown)
}

// SetWelcomeShown records that the welcome dialog has been dismissed.
func (s *Store) SetWelcomeShown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Set(ctx, KeyWelcomeShown, json.RawMessage("true"))
}

// boolFlag reads a boolean settings key, treating anything unreadable as
// false. Callers hold s.mu.
func (s *Store) boolFlag(ctx context.Context, key string) (bool, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, nil
	}
	return v, nil
}
