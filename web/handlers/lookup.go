package handlers

import (
	"net/http"

	"github.com/mgalvez/undiacomohoy/internal/lookup"
)

// LookupHandlers proxies the external place and song search services so
// the browser never talks to them directly.
type LookupHandlers struct {
	places *lookup.Places
	songs  *lookup.Songs
}

// NewLookupHandlers creates a new LookupHandlers instance.
func NewLookupHandlers(places *lookup.Places, songs *lookup.Songs) *LookupHandlers {
	return &LookupHandlers{places: places, songs: songs}
}

// Places handles GET /api/lookup/places?q=.
func (h *LookupHandlers) Places(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		respondError(w, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}

	results, err := h.places.Search(r.Context(), term)
	if err != nil {
		respondError(w, http.StatusBadGateway, "place lookup failed", err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

// Songs handles GET /api/lookup/songs?q=.
func (h *LookupHandlers) Songs(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		respondError(w, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}

	results, err := h.songs.Search(r.Context(), term)
	if err != nil {
		respondError(w, http.StatusBadGateway, "song lookup failed", err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}
