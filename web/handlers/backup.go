package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/mgalvez/undiacomohoy/internal/backup"
	"github.com/mgalvez/undiacomohoy/internal/storage"
)

// BackupHandlers contains the HTTP handlers for the remote backup protocol.
type BackupHandlers struct {
	service *backup.Service
	hub     *WebSocketHub
}

// NewBackupHandlers creates a new BackupHandlers instance.
func NewBackupHandlers(service *backup.Service, hub *WebSocketHub) *BackupHandlers {
	return &BackupHandlers{service: service, hub: hub}
}

// progress relays backup phase changes to connected clients.
func (h *BackupHandlers) progress(operation string) backup.ProgressFunc {
	return func(phase string) {
		log.Printf("%s: %s", operation, phase)
		if h.hub != nil {
			h.hub.Broadcast(Event{Type: operation + "." + phase})
		}
	}
}

// PostBackup handles POST /api/backup - upload the dataset to the remote store.
func (h *BackupHandlers) PostBackup(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Backup(r.Context(), h.progress("backup")); err != nil {
		if errors.Is(err, storage.ErrUnauthorized) {
			respondError(w, http.StatusUnauthorized, "backup not authorized", err)
			return
		}
		respondError(w, http.StatusBadGateway, "backup failed", err)
		return
	}
	respondJSON(w, http.StatusOK, BackupStatusResponse{Status: "ok"})
}

// PostRestore handles POST /api/restore - overwrite local data from the
// remote backup. Clients are expected to reload afterward.
func (h *BackupHandlers) PostRestore(w http.ResponseWriter, r *http.Request) {
	modified, err := h.service.Restore(r.Context(), h.progress("restore"))
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUnauthorized):
			respondError(w, http.StatusUnauthorized, "restore not authorized", err)
		case errors.Is(err, storage.ErrNotFound):
			respondError(w, http.StatusNotFound, "no remote backup found", err)
		case errors.Is(err, storage.ErrInvalidFormat):
			respondError(w, http.StatusUnprocessableEntity, "remote backup is malformed", err)
		default:
			respondError(w, http.StatusBadGateway, "restore failed", err)
		}
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(Event{Type: "restore.finished"})
	}
	respondJSON(w, http.StatusOK, BackupStatusResponse{
		Status:     "ok",
		ModifiedAt: modified.UTC().Format(time.RFC3339),
	})
}

// GetInfo handles GET /api/backup/info - a speculative probe of the
// remote backup. Responds 204 when no backup is reachable, never an error.
func (h *BackupHandlers) GetInfo(w http.ResponseWriter, r *http.Request) {
	info := h.service.RemoteInfo(r.Context())
	if info == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, info)
}
