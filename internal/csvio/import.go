package csvio

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/mgalvez/undiacomohoy/internal/diary"
	"github.com/mgalvez/undiacomohoy/pkg/types"
)

// Result summarises an import run.
type Result struct {
	// Imported counts rows merged into the store (memories created plus
	// days renamed).
	Imported int `json:"imported"`

	// Errors counts rows that were skipped: too few fields, out-of-range
	// dates, unknown types, or store rejections.
	Errors int `json:"errors"`
}

const (
	minYear = 1900
	maxYear = 2100
)

// Import merges CSV rows into the store. It is additive only: nothing is
// deleted or overwritten, and importing the same file twice duplicates
// its memories (accepted behavior, deliberately not deduplicated).
// Failures are isolated per row and counted, never aborting the run;
// only a read error on the underlying stream is fatal.
func Import(ctx context.Context, store *diary.Store, r io.Reader) (Result, error) {
	cr := csv.NewReader(r)
	// Row widths vary (older exports omit the extras column) and are
	// validated per row instead.
	cr.FieldsPerRecord = -1

	var res Result
	first := true
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				// One malformed row; keep going.
				res.Errors++
				continue
			}
			return res, err
		}

		// A leading header row identifies itself by its TIPO cell.
		if first {
			first = false
			if len(record) > 3 && record[3] == "TIPO" {
				continue
			}
		}

		if importRow(ctx, store, record) {
			res.Imported++
		} else {
			res.Errors++
		}
	}

	log.Printf("csvio: import finished: %d rows imported, %d errors", res.Imported, res.Errors)
	return res, nil
}

// importRow merges a single record, reporting success.
func importRow(ctx context.Context, store *diary.Store, record []string) bool {
	if len(record) < 5 {
		return false
	}

	yearField := strings.TrimSpace(record[0])
	month, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil || month < 1 || month > 12 {
		return false
	}
	// Day is range-checked only ([1, 31], no per-month length table);
	// whether the slot actually exists is decided by the calendar lookup
	// in the store.
	dayOfMonth, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil || dayOfMonth < 1 || dayOfMonth > 31 {
		return false
	}

	dayID := formatDayID(month, dayOfMonth)
	tipo := strings.TrimSpace(record[3])
	contenido := record[4]
	extraJSON := ""
	if len(record) > 5 {
		extraJSON = record[5]
	}

	if tipo == TypeDayName {
		// Day-naming rows carry no year.
		if yearField != "" {
			return false
		}
		return store.RenameDay(ctx, dayID, contenido) == nil
	}

	kind, ok := types.ParseKind(tipo)
	if !ok {
		return false
	}
	year, err := strconv.Atoi(yearField)
	if err != nil || year < minYear || year > maxYear {
		return false
	}

	draft := diary.MemoryDraft{Kind: kind, Year: year}
	var extra rowExtra
	if extraJSON != "" {
		// Malformed extras are tolerated: the row still imports, just
		// without its structured fields.
		if err := json.Unmarshal([]byte(extraJSON), &extra); err != nil {
			extra = rowExtra{}
		}
	}

	switch kind {
	case types.KindText:
		draft.Text = &types.TextPayload{Description: contenido}
	case types.KindPlace:
		p := &types.PlacePayload{Name: contenido, DisplayName: extra.DisplayName}
		if extra.Lat != nil {
			p.Lat = *extra.Lat
		}
		if extra.Lon != nil {
			p.Lon = *extra.Lon
		}
		draft.Place = p
	case types.KindSong:
		draft.Song = &types.SongPayload{
			TrackSummary: contenido,
			TrackName:    extra.TrackName,
			ArtistName:   extra.ArtistName,
			ArtworkURL:   extra.ArtworkURL,
		}
	case types.KindImage:
		draft.Image = &types.ImagePayload{Description: contenido, Ref: extra.Ref}
	}

	_, err = store.CreateOrUpdateMemory(ctx, dayID, draft, "")
	return err == nil
}

// formatDayID builds the zero-padded "MM-DD" key.
func formatDayID(month, day int) string {
	return fmt.Sprintf("%02d-%02d", month, day)
}
