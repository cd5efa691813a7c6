package types

import (
	"fmt"
	"time"
)

// MemoryKind discriminates the Memory payload union. The values double as
// the TIPO labels of the CSV interchange format, which is why they are
// Spanish like the rest of the user-facing vocabulary.
type MemoryKind string

const (
	KindText  MemoryKind = "Texto"
	KindPlace MemoryKind = "Lugar"
	KindSong  MemoryKind = "Canción"
	KindImage MemoryKind = "Imagen"
)

// ParseKind maps a CSV TIPO label to a MemoryKind.
// Returns false for unknown labels (including "Nombre", which is a
// day-naming row, not a memory kind).
func ParseKind(label string) (MemoryKind, bool) {
	switch MemoryKind(label) {
	case KindText, KindPlace, KindSong, KindImage:
		return MemoryKind(label), true
	default:
		return "", false
	}
}

// Valid reports whether k is one of the four defined kinds.
func (k MemoryKind) Valid() bool {
	_, ok := ParseKind(string(k))
	return ok
}

// OriginalDate is the calendar date of the real-world event a memory
// commemorates. Month and Day always match the owning Day's "MM-DD";
// only Year varies between memories of the same day.
type OriginalDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Time materializes the date as a real time.Time (UTC midnight).
// Out-of-calendar combinations such as February 30 normalize the way
// time.Date does; the raw fields stay untouched.
func (d OriginalDate) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// TextPayload is the payload of a KindText memory.
type TextPayload struct {
	Description string `json:"description"`
}

// PlacePayload is the payload of a KindPlace memory. Coordinates and the
// long display name come from the external place lookup collaborator.
type PlacePayload struct {
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"displayName,omitempty"`
}

// SongPayload is the payload of a KindSong memory. Raw carries whatever
// extra metadata the song lookup collaborator returned, untouched.
type SongPayload struct {
	TrackSummary string         `json:"trackSummary"`
	TrackName    string         `json:"trackName,omitempty"`
	ArtistName   string         `json:"artistName,omitempty"`
	ArtworkURL   string         `json:"artworkUrl,omitempty"`
	Raw          map[string]any `json:"raw,omitempty"`
}

// ImagePayload is the payload of a KindImage memory. Ref is either a
// "local://<imageId>" pointer into the image blob map or a remote URL.
type ImagePayload struct {
	Description string `json:"description"`
	Ref         string `json:"ref"`
}

// Memory is a single diary entry attached to a Day. It is a tagged union:
// Kind selects exactly one of the payload pointers, the rest are nil.
type Memory struct {
	// ID is an opaque unique identifier allocated by the store. Immutable.
	ID string `json:"id"`

	// DayID references the owning Day ("MM-DD"). The Day must exist
	// before the memory can be created. Required.
	DayID string `json:"dayId"`

	// Kind selects the payload variant. Immutable after creation.
	Kind MemoryKind `json:"kind"`

	// OriginalDate is when the memory's real-world event occurred.
	OriginalDate OriginalDate `json:"originalDate"`

	// CreatedAt is set at insertion and never modified.
	CreatedAt time.Time `json:"createdAt"`

	// IsExample marks seeded sample data, so samples can be bulk-removed
	// without touching user-authored memories.
	IsExample bool `json:"isExample,omitempty"`

	Text  *TextPayload  `json:"text,omitempty"`
	Place *PlacePayload `json:"place,omitempty"`
	Song  *SongPayload  `json:"song,omitempty"`
	Image *ImagePayload `json:"image,omitempty"`
}

// Summary returns the human-readable text of the memory: the field users
// see in lists, search results and the CSV CONTENIDO column.
func (m *Memory) Summary() string {
	switch m.Kind {
	case KindText:
		if m.Text != nil {
			return m.Text.Description
		}
	case KindPlace:
		if m.Place != nil {
			return m.Place.Name
		}
	case KindSong:
		if m.Song != nil {
			return m.Song.TrackSummary
		}
	case KindImage:
		if m.Image != nil {
			return m.Image.Description
		}
	}
	return ""
}

// Validate checks the structural shape of the union: a known kind, a day
// reference, and the payload pointer matching Kind. It deliberately does
// not apply business rules (year ranges etc.) — those belong to the
// callers that own them (forms, CSV import).
func (m *Memory) Validate() error {
	if m.DayID == "" {
		return fmt.Errorf("memory %s: dayId is required", m.ID)
	}
	switch m.Kind {
	case KindText:
		if m.Text == nil {
			return fmt.Errorf("memory %s: kind %s without text payload", m.ID, m.Kind)
		}
	case KindPlace:
		if m.Place == nil {
			return fmt.Errorf("memory %s: kind %s without place payload", m.ID, m.Kind)
		}
	case KindSong:
		if m.Song == nil {
			return fmt.Errorf("memory %s: kind %s without song payload", m.ID, m.Kind)
		}
	case KindImage:
		if m.Image == nil {
			return fmt.Errorf("memory %s: kind %s without image payload", m.ID, m.Kind)
		}
	default:
		return fmt.Errorf("memory %s: unknown kind %q", m.ID, m.Kind)
	}
	return nil
}
