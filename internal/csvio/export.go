// Package csvio implements the CSV interchange format of the diary: a
// flat, UTF-8, RFC 4180-quoted table able to carry the whole dataset
// (day names plus memories of every kind) through a single file.
//
// The column layout is AÑO,MES,DÍA,TIPO,CONTENIDO,DATOS_EXTRA. A row with
// TIPO "Nombre" and an empty AÑO names a day; any other row is one memory
// whose TIPO is its kind label. CONTENIDO holds the kind's human-readable
// text and DATOS_EXTRA a JSON object with the structured fields that have
// no plain-text representation (coordinates, artist metadata, image refs).
package csvio

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/mgalvez/undiacomohoy/internal/diary"
	"github.com/mgalvez/undiacomohoy/pkg/types"
)

// Header is the fixed first row of every export.
var Header = []string{"AÑO", "MES", "DÍA", "TIPO", "CONTENIDO", "DATOS_EXTRA"}

// TypeDayName is the TIPO label of a day-naming row.
const TypeDayName = "Nombre"

// rowExtra is the DATOS_EXTRA JSON object. Only the fields relevant to
// the row's kind are populated; lat/lon are pointers so a legitimate
// coordinate of 0 survives the round trip.
type rowExtra struct {
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	TrackName   string   `json:"track_name,omitempty"`
	ArtistName  string   `json:"artist_name,omitempty"`
	ArtworkURL  string   `json:"artwork_url,omitempty"`
	Ref         string   `json:"ref,omitempty"`
}

// isEmpty reports whether no field is set, so the column can stay blank.
func (e *rowExtra) isEmpty() bool {
	return e.Lat == nil && e.Lon == nil && e.DisplayName == "" &&
		e.TrackName == "" && e.ArtistName == "" && e.ArtworkURL == "" && e.Ref == ""
}

// Export writes the full dataset as CSV: one row per named day followed
// by one row per memory, day by day in calendar order. encoding/csv
// applies the RFC 4180 quoting rules (quote on comma, quote or newline;
// double embedded quotes).
func Export(ctx context.Context, store *diary.Store, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("csvio: failed to write header: %w", err)
	}

	days, err := store.ListDays(ctx)
	if err != nil {
		return fmt.Errorf("csvio: failed to list days: %w", err)
	}

	for _, day := range days {
		month, dayOfMonth, err := splitID(day.ID)
		if err != nil {
			return err
		}

		if day.IsNamed() {
			row := []string{"", strconv.Itoa(month), strconv.Itoa(dayOfMonth), TypeDayName, day.SpecialName, ""}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("csvio: failed to write day row: %w", err)
			}
		}

		// Read the collection itself rather than trusting the HasMemories
		// cache; a stale flag must not drop rows from an export.
		memories, err := store.ListMemories(ctx, day.ID)
		if err != nil {
			return fmt.Errorf("csvio: failed to list memories for %s: %w", day.ID, err)
		}
		for i := range memories {
			row, err := memoryRow(&memories[i], month, dayOfMonth)
			if err != nil {
				return err
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("csvio: failed to write memory row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// memoryRow flattens one memory into a CSV record, with an exhaustive
// switch over the payload union.
func memoryRow(m *types.Memory, month, dayOfMonth int) ([]string, error) {
	var extra rowExtra
	switch m.Kind {
	case types.KindText:
		// Text carries no structured extras.
	case types.KindPlace:
		if m.Place != nil {
			lat, lon := m.Place.Lat, m.Place.Lon
			extra.Lat, extra.Lon = &lat, &lon
			extra.DisplayName = m.Place.DisplayName
		}
	case types.KindSong:
		if m.Song != nil {
			extra.TrackName = m.Song.TrackName
			extra.ArtistName = m.Song.ArtistName
			extra.ArtworkURL = m.Song.ArtworkURL
		}
	case types.KindImage:
		if m.Image != nil {
			extra.Ref = m.Image.Ref
		}
	default:
		return nil, fmt.Errorf("csvio: memory %s has unknown kind %q", m.ID, m.Kind)
	}

	extraJSON := ""
	if !extra.isEmpty() {
		raw, err := json.Marshal(&extra)
		if err != nil {
			return nil, fmt.Errorf("csvio: failed to marshal extras for %s: %w", m.ID, err)
		}
		extraJSON = string(raw)
	}

	return []string{
		strconv.Itoa(m.OriginalDate.Year),
		strconv.Itoa(month),
		strconv.Itoa(dayOfMonth),
		string(m.Kind),
		m.Summary(),
		extraJSON,
	}, nil
}

// splitID parses a "MM-DD" day id.
func splitID(dayID string) (month, day int, err error) {
	if _, scanErr := fmt.Sscanf(dayID, "%02d-%02d", &month, &day); scanErr != nil {
		return 0, 0, fmt.Errorf("csvio: malformed day id %q", dayID)
	}
	return month, day, nil
}
