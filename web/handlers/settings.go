package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mgalvez/undiacomohoy/internal/diary"
	"github.com/mgalvez/undiacomohoy/internal/storage"
)

// SettingsHandlers contains the HTTP handlers for UI preferences, the
// welcome flag, sample data and local image blobs.
type SettingsHandlers struct {
	store *diary.Store
	hub   *WebSocketHub
}

// NewSettingsHandlers creates a new SettingsHandlers instance.
func NewSettingsHandlers(store *diary.Store, hub *WebSocketHub) *SettingsHandlers {
	return &SettingsHandlers{store: store, hub: hub}
}

// defaultViewMode is what clients get before a preference is stored.
const defaultViewMode = "calendar"

type viewModeBody struct {
	ViewMode string `json:"viewMode"`
}

// GetViewMode handles GET /api/settings/view-mode.
func (h *SettingsHandlers) GetViewMode(w http.ResponseWriter, r *http.Request) {
	mode, err := h.store.ViewMode(r.Context(), defaultViewMode)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read view mode", err)
		return
	}
	respondJSON(w, http.StatusOK, viewModeBody{ViewMode: mode})
}

// PutViewMode handles PUT /api/settings/view-mode.
func (h *SettingsHandlers) PutViewMode(w http.ResponseWriter, r *http.Request) {
	var body viewModeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ViewMode == "" {
		respondError(w, http.StatusBadRequest, "viewMode is required", err)
		return
	}
	if err := h.store.SetViewMode(r.Context(), body.ViewMode); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save view mode", err)
		return
	}
	respondJSON(w, http.StatusOK, body)
}

// GetWelcome handles GET /api/settings/welcome - whether the welcome
// screen has been shown.
func (h *SettingsHandlers) GetWelcome(w http.ResponseWriter, r *http.Request) {
	shown, err := h.store.WelcomeShown(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read welcome flag", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"shown": shown})
}

// PostWelcome handles POST /api/settings/welcome - mark the welcome
// screen as shown.
func (h *SettingsHandlers) PostWelcome(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SetWelcomeShown(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save welcome flag", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"shown": true})
}

// ClearSamples handles POST /api/samples/clear - remove the seeded
// example memories, leaving user data alone.
func (h *SettingsHandlers) ClearSamples(w http.ResponseWriter, r *http.Request) {
	removed, err := h.store.ClearSampleMemories(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to clear samples", err)
		return
	}
	if h.hub != nil && removed > 0 {
		h.hub.Broadcast(Event{Type: "samples.cleared"})
	}
	respondJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// GetImage handles GET /api/images/{ref} - fetch a locally stored image
// blob as its original data URL.
func (h *SettingsHandlers) GetImage(w http.ResponseWriter, r *http.Request) {
	ref := diary.LocalImageRef(extractID(r, "ref"))
	dataURL, err := h.store.GetImage(r.Context(), ref)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "image not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load image", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"dataUrl": dataURL})
}
