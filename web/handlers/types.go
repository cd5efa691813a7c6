package handlers

import (
	"github.com/mgalvez/undiacomohoy/internal/diary"
	"github.com/mgalvez/undiacomohoy/pkg/types"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RenameDayRequest is the request format for PATCH /api/days/{id}.
// An empty or blank name clears the special name.
type RenameDayRequest struct {
	Name string `json:"name"`
}

// MemoryRequest is the request format for creating or updating a memory.
// Exactly one payload should be set, matching Kind. ImageData optionally
// carries an inline data URL to store as a local image blob.
type MemoryRequest struct {
	Kind  types.MemoryKind    `json:"kind"`
	Year  int                 `json:"year"`
	Text  *types.TextPayload  `json:"text,omitempty"`
	Place *types.PlacePayload `json:"place,omitempty"`
	Song  *types.SongPayload  `json:"song,omitempty"`
	Image *types.ImagePayload `json:"image,omitempty"`

	ImageData string `json:"imageData,omitempty"`
}

// SearchResponse is the response format for GET /api/search.
type SearchResponse struct {
	Results []diary.SearchResult `json:"results"`
	Total   int                  `json:"total"`
	Query   string               `json:"query"`
}

// Event is the change notification broadcast to WebSocket clients after
// a mutating API call.
type Event struct {
	Type     string `json:"type"`
	DayID    string `json:"dayId,omitempty"`
	MemoryID string `json:"memoryId,omitempty"`
}

// BackupStatusResponse is the response format for POST /api/backup and
// POST /api/restore.
type BackupStatusResponse struct {
	Status     string `json:"status"`
	ModifiedAt string `json:"modifiedAt,omitempty"`
}
