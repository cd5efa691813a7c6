package handlers

import (
	"net/http"

	"github.com/mgalvez/undiacomohoy/internal/csvio"
	"github.com/mgalvez/undiacomohoy/internal/diary"
)

// CSVHandlers contains the HTTP handlers for CSV export and import.
type CSVHandlers struct {
	store *diary.Store
	hub   *WebSocketHub
}

// NewCSVHandlers creates a new CSVHandlers instance.
func NewCSVHandlers(store *diary.Store, hub *WebSocketHub) *CSVHandlers {
	return &CSVHandlers{store: store, hub: hub}
}

// Export handles GET /api/export - the full dataset as a CSV download.
func (h *CSVHandlers) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="undiacomohoy.csv"`)

	if err := csvio.Export(r.Context(), h.store, w); err != nil {
		// Headers may already be sent; the truncated body is the best
		// signal we can give at this point.
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
}

// Import handles POST /api/import - merge a CSV body into the store.
// Row failures are counted, not fatal; the response reports both totals.
func (h *CSVHandlers) Import(w http.ResponseWriter, r *http.Request) {
	result, err := csvio.Import(r.Context(), h.store, r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read CSV body", err)
		return
	}

	if h.hub != nil && result.Imported > 0 {
		h.hub.Broadcast(Event{Type: "import.finished"})
	}
	respondJSON(w, http.StatusOK, result)
}
