package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mgalvez/undiacomohoy/internal/diary"
	"github.com/mgalvez/undiacomohoy/internal/storage"
	"github.com/mgalvez/undiacomohoy/pkg/types"
)

// DiaryHandlers contains the HTTP handlers for the day and memory REST API.
type DiaryHandlers struct {
	store *diary.Store
	hub   *WebSocketHub // Optional; mutating handlers broadcast change events when set
}

// NewDiaryHandlers creates a new DiaryHandlers instance.
func NewDiaryHandlers(store *diary.Store, hub *WebSocketHub) *DiaryHandlers {
	return &DiaryHandlers{store: store, hub: hub}
}

// notify broadcasts a change event to connected clients, when a hub is wired.
func (h *DiaryHandlers) notify(eventType, dayID, memoryID string) {
	if h.hub != nil {
		h.hub.Broadcast(Event{Type: eventType, DayID: dayID, MemoryID: memoryID})
	}
}

// ListDays handles GET /api/days - all 366 days in calendar order.
func (h *DiaryHandlers) ListDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.store.ListDays(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list days", err)
		return
	}
	respondJSON(w, http.StatusOK, days)
}

// GetDay handles GET /api/days/{id}.
func (h *DiaryHandlers) GetDay(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	day, err := h.store.GetDay(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "day not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get day", err)
		return
	}
	respondJSON(w, http.StatusOK, day)
}

// RenameDay handles PATCH /api/days/{id} - set or clear the special name.
func (h *DiaryHandlers) RenameDay(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")

	var req RenameDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.store.RenameDay(r.Context(), id, req.Name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "day not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to rename day", err)
		return
	}

	day, err := h.store.GetDay(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to reload day", err)
		return
	}
	h.notify("day.renamed", id, "")
	respondJSON(w, http.StatusOK, day)
}

// ListDayMemories handles GET /api/days/{id}/memories - newest year first.
func (h *DiaryHandlers) ListDayMemories(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	memories, err := h.store.ListMemories(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "day not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to list memories", err)
		return
	}
	respondJSON(w, http.StatusOK, memories)
}

// CreateMemory handles POST /api/days/{id}/memories.
func (h *DiaryHandlers) CreateMemory(w http.ResponseWriter, r *http.Request) {
	h.upsertMemory(w, r, "")
}

// UpdateMemory handles PUT /api/days/{id}/memories/{memoryId}.
func (h *DiaryHandlers) UpdateMemory(w http.ResponseWriter, r *http.Request) {
	memoryID := extractID(r, "memoryId")
	if memoryID == "" {
		respondError(w, http.StatusBadRequest, "memory ID is required", nil)
		return
	}
	h.upsertMemory(w, r, memoryID)
}

// upsertMemory decodes a draft and routes it to the store's single
// create-or-update entry point.
func (h *DiaryHandlers) upsertMemory(w http.ResponseWriter, r *http.Request, memoryID string) {
	dayID := extractID(r, "id")

	var req MemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	draft := diary.MemoryDraft{
		Kind:  req.Kind,
		Year:  req.Year,
		Text:  req.Text,
		Place: req.Place,
		Song:  req.Song,
		Image: req.Image,
	}

	// Image uploads arrive as data URLs; stash the blob and keep only the
	// local reference on the memory itself.
	if req.ImageData != "" {
		ref, err := h.store.PutImage(r.Context(), req.ImageData)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to store image", err)
			return
		}
		if draft.Image == nil {
			draft.Image = &types.ImagePayload{}
		}
		draft.Image.Ref = ref
	}

	memory, err := h.store.CreateOrUpdateMemory(r.Context(), dayID, draft, memoryID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			respondError(w, http.StatusNotFound, "day or memory not found", err)
		case errors.Is(err, storage.ErrInvalidInput):
			respondError(w, http.StatusBadRequest, "invalid memory", err)
		default:
			respondError(w, http.StatusInternalServerError, "failed to save memory", err)
		}
		return
	}

	status := http.StatusOK
	eventType := "memory.updated"
	if memoryID == "" {
		status = http.StatusCreated
		eventType = "memory.created"
	}
	h.notify(eventType, dayID, memory.ID)
	respondJSON(w, status, memory)
}

// DeleteMemory handles DELETE /api/days/{id}/memories/{memoryId}.
// Deleting an unknown memory succeeds, so retries are harmless.
func (h *DiaryHandlers) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	dayID := extractID(r, "id")
	memoryID := extractID(r, "memoryId")
	if memoryID == "" {
		respondError(w, http.StatusBadRequest, "memory ID is required", nil)
		return
	}

	if err := h.store.DeleteMemory(r.Context(), dayID, memoryID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete memory", err)
		return
	}
	h.notify("memory.deleted", dayID, memoryID)
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search?q= - substring search over memory summaries.
func (h *DiaryHandlers) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		respondError(w, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}

	results, err := h.store.Search(r.Context(), term)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "search failed", err)
		return
	}
	respondJSON(w, http.StatusOK, SearchResponse{Results: results, Total: len(results), Query: term})
}

// ListByKind handles GET /api/memories?kind=&page_size=&cursor= - a
// cursor-paginated listing of all memories of one kind.
func (h *DiaryHandlers) ListByKind(w http.ResponseWriter, r *http.Request) {
	kind := types.MemoryKind(r.URL.Query().Get("kind"))
	pageSize := parseInt(r.URL.Query().Get("page_size"), 0)
	cursor := r.URL.Query().Get("cursor")

	page, err := h.store.ListByKind(r.Context(), kind, pageSize, cursor)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "unknown memory kind", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to list memories", err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// ListNamedDays handles GET /api/days/named?page_size=&cursor=.
func (h *DiaryHandlers) ListNamedDays(w http.ResponseWriter, r *http.Request) {
	pageSize := parseInt(r.URL.Query().Get("page_size"), 0)
	cursor := r.URL.Query().Get("cursor")

	page, err := h.store.ListNamedDays(r.Context(), pageSize, cursor)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list named days", err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Helper functions

// extractID extracts a path parameter from the request.
func extractID(r *http.Request, key string) string {
	return r.PathValue(key)
}

// parseInt parses an integer from a string, returning defaultValue if parsing fails.
func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// If encoding fails, log but don't try to write another response
		// (headers already sent)
		fmt.Printf("failed to encode JSON response: %v\n", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}

	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}

	respondJSON(w, statusCode, errResp)
}
