package diary

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mgalvez/undiacomohoy/pkg/types"
)

// monthNames is the fixed table used to derive Day display names.
var monthNames = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// monthLengths is leap-year-safe: February gets 29 slots so the calendar
// always has exactly 366 days.
var monthLengths = [12]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// TotalDays is the number of calendar slots in the diary.
const TotalDays = 366

// progressBatch is how many generated days sit between two progress reports.
const progressBatch = 30

// ProgressFunc reports seed progress as (done, total) day counts.
type ProgressFunc func(done, total int)

// sampleFact is one hand-curated seed memory.
type sampleFact struct {
	dayID string
	year  int
	text  string
}

// sampleFacts are the historical facts inserted as example memories on
// first run. All are flagged IsExample so ClearSampleMemories can remove
// them without touching user data.
var sampleFacts = []sampleFact{
	{"12-17", 1903, "Los hermanos Wright realizan el primer vuelo a motor de la historia"},
	{"04-15", 1912, "Se hunde el Titanic en el Atlántico Norte"},
	{"09-28", 1928, "Alexander Fleming descubre la penicilina"},
	{"10-12", 1931, "Se inaugura el Cristo Redentor en Río de Janeiro"},
	{"05-08", 1945, "Termina la Segunda Guerra Mundial en Europa"},
	{"01-01", 1959, "Triunfa la Revolución Cubana"},
	{"06-16", 1963, "Valentina Tereshkova se convierte en la primera mujer en el espacio"},
	{"07-20", 1969, "El Apolo 11 se posa sobre la superficie de la Luna"},
	{"11-09", 1989, "Cae el Muro de Berlín"},
	{"02-14", 1990, "La Voyager 1 fotografía la Tierra como un punto azul pálido"},
}

// InitializeIfFirstRun generates the 366-day calendar and the sample
// memories the first time it ever runs, then marks the dataset as
// initialised. Subsequent calls are no-ops. Missing or corrupt data is
// treated as a first run, so a damaged installation heals itself.
func (s *Store) InitializeIfFirstRun(ctx context.Context, progress ProgressFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	initialised, err := s.boolFlag(ctx, KeyFirstRunDone)
	if err != nil {
		return err
	}
	if initialised {
		days, err := s.loadDays(ctx)
		if err != nil {
			return err
		}
		if len(days) > 0 {
			return nil
		}
		// Flag set but no days: partial corruption. Fall through and
		// regenerate.
	}

	if err := s.generate366Days(ctx, progress); err != nil {
		return err
	}
	if _, err := s.seedSampleMemories(ctx); err != nil {
		return err
	}
	return s.kv.Set(ctx, KeyFirstRunDone, json.RawMessage("true"))
}

// generate366Days deterministically produces one Day per slot of the
// leap-safe calendar, reporting progress at fixed batches. Callers hold s.mu.
func (s *Store) generate366Days(ctx context.Context, progress ProgressFunc) error {
	days := make(map[string]types.Day, TotalDays)
	done := 0
	for month := 1; month <= 12; month++ {
		for dayOfMonth := 1; dayOfMonth <= monthLengths[month-1]; dayOfMonth++ {
			id := fmt.Sprintf("%02d-%02d", month, dayOfMonth)
			days[id] = types.Day{
				ID:          id,
				DisplayName: fmt.Sprintf("%d de %s", dayOfMonth, monthNames[month-1]),
				SpecialName: types.UnnamedDay,
				HasMemories: false,
			}
			done++
			if progress != nil && (done%progressBatch == 0 || done == TotalDays) {
				progress(done, TotalDays)
			}
		}
	}
	return s.saveDays(ctx, days)
}

// SeedSampleMemories inserts the curated historical facts as example Text
// memories and marks their days. Returns how many were inserted.
func (s *Store) SeedSampleMemories(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seedSampleMemories(ctx)
}

// seedSampleMemories does the work of SeedSampleMemories. Callers hold s.mu.
func (s *Store) seedSampleMemories(ctx context.Context) (int, error) {
	days, err := s.loadDays(ctx)
	if err != nil {
		return 0, err
	}
	memories, err := s.loadMemories(ctx)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, fact := range sampleFacts {
		day, ok := days[fact.dayID]
		if !ok {
			continue
		}
		month, dayOfMonth, err := splitDayID(fact.dayID)
		if err != nil {
			continue
		}
		memories[fact.dayID] = append(memories[fact.dayID], types.Memory{
			ID:    s.newID(),
			DayID: fact.dayID,
			Kind:  types.KindText,
			OriginalDate: types.OriginalDate{
				Year:  fact.year,
				Month: month,
				Day:   dayOfMonth,
			},
			CreatedAt: s.now().UTC(),
			IsExample: true,
			Text:      &types.TextPayload{Description: fact.text},
		})
		day.HasMemories = true
		days[fact.dayID] = day
		inserted++
	}

	if err := s.saveMemories(ctx, memories); err != nil {
		return 0, err
	}
	if err := s.saveDays(ctx, days); err != nil {
		return 0, err
	}
	return inserted, nil
}

// ClearSampleMemories removes every IsExample memory and resets the
// HasMemories flag of any day left empty. User-authored memories are
// never touched, even when they share a day with samples. Returns the
// number of memories removed.
func (s *Store) ClearSampleMemories(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, err := s.loadDays(ctx)
	if err != nil {
		return 0, err
	}
	memories, err := s.loadMemories(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for dayID, list := range memories {
		kept := list[:0]
		for _, m := range list {
			if m.IsExample {
				removed++
				continue
			}
			kept = append(kept, m)
		}
		if len(kept) == len(list) {
			continue
		}
		if len(kept) == 0 {
			delete(memories, dayID)
			if day, ok := days[dayID]; ok {
				day.HasMemories = false
				days[dayID] = day
			}
		} else {
			memories[dayID] = kept
		}
	}

	if removed == 0 {
		return 0, nil
	}
	if err := s.saveMemories(ctx, memories); err != nil {
		return 0, err
	}
	if err := s.saveDays(ctx, days); err != nil {
		return 0, err
	}
	return removed, nil
}
