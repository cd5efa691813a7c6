// Package diary implements the entity store of the on-this-day diary: the
// Day and Memory collections, their invariants, search, pagination and the
// sample-data lifecycle.
//
// The store is an explicit context object around a storage.KVStore rather
// than package-level state, so multiple isolated instances can coexist
// (one per test, one per request pipeline). A single mutex serialises all
// operations: the substrate has no transactions, and multi-key updates
// (memories plus the owning day's HasMemories flag) must not interleave.
package diary

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mgalvez/undiacomohoy/internal/storage"
	"github.com/mgalvez/undiacomohoy/pkg/types"
)

// Store owns the Day and Memory collections.
type Store struct {
	mu sync.Mutex
	kv storage.KVStore

	// now and newID are injection points for tests.
	now   func() time.Time
	newID func() string
}

// New creates a Store on top of the given key-value substrate.
func New(kv storage.KVStore) *Store {
	return &Store{
		kv:    kv,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// --- raw collection access -------------------------------------------------

// loadDays reads the full days map. A missing or corrupt key yields an
// empty map: the store treats damaged data as "not initialised yet".
func (s *Store) loadDays(ctx context.Context) (map[string]types.Day, error) {
	days := make(map[string]types.Day)
	raw, ok, err := s.kv.Get(ctx, KeyDays)
	if err != nil {
		return nil, err
	}
	if !ok {
		return days, nil
	}
	if err := json.Unmarshal(raw, &days); err != nil {
		log.Printf("diary: days key is corrupt, treating as empty: %v", err)
		return make(map[string]types.Day), nil
	}
	return days, nil
}

func (s *Store) saveDays(ctx context.Context, days map[string]types.Day) error {
	raw, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("diary: failed to marshal days: %w", err)
	}
	return s.kv.Set(ctx, KeyDays, raw)
}

// loadMemories reads the per-day memories map, with the same corruption
// tolerance as loadDays.
func (s *Store) loadMemories(ctx context.Context) (map[string][]types.Memory, error) {
	memories := make(map[string][]types.Memory)
	raw, ok, err := s.kv.Get(ctx, KeyMemories)
	if err != nil {
		return nil, err
	}
	if !ok {
		return memories, nil
	}
	if err := json.Unmarshal(raw, &memories); err != nil {
		log.Printf("diary: memories key is corrupt, treating as empty: %v", err)
		return make(map[string][]types.Memory), nil
	}
	return memories, nil
}

func (s *Store) saveMemories(ctx context.Context, memories map[string][]types.Memory) error {
	raw, err := json.Marshal(memories)
	if err != nil {
		return fmt.Errorf("diary: failed to marshal memories: %w", err)
	}
	return s.kv.Set(ctx, KeyMemories, raw)
}

// --- days ------------------------------------------------------------------

// ListDays returns all days sorted ascending by id. The lexicographic sort
// is calendar-correct because ids are zero-padded "MM-DD".
func (s *Store) ListDays(ctx context.Context) ([]types.Day, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, err := s.loadDays(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]types.Day, 0, len(days))
	for _, d := range days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetDay returns a single day by id.
func (s *Store) GetDay(ctx context.Context, dayID string) (*types.Day, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, err := s.loadDays(ctx)
	if err != nil {
		return nil, err
	}
	day, ok := days[dayID]
	if !ok {
		return nil, fmt.Errorf("%w: day %q", storage.ErrNotFound, dayID)
	}
	return &day, nil
}

// RenameDay sets the user-assigned name of a day. Empty or whitespace-only
// names normalize to the unnamed sentinel; anything else is trimmed and
// stored verbatim. Length limits are a UI concern — long names are stored
// as given.
func (s *Store) RenameDay(ctx context.Context, dayID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, err := s.loadDays(ctx)
	if err != nil {
		return err
	}
	day, ok := days[dayID]
	if !ok {
		return fmt.Errorf("%w: day %q", storage.ErrNotFound, dayID)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = types.UnnamedDay
	}
	day.SpecialName = name
	days[dayID] = day

	return s.saveDays(ctx, days)
}

// --- memories --------------------------------------------------------------

// MemoryDraft is the explicit partial-update structure for
// CreateOrUpdateMemory. On create, Kind, Year, IsExample and the payload
// matching Kind are all applied. On update, the allowlist is:
//
//   - Year, when non-zero
//   - the payload pointer matching the existing kind, when non-nil
//
// Everything else (id, createdAt, kind, dayId, isExample) is preserved
// from the stored record, so a stale draft cannot resurrect old fields.
type MemoryDraft struct {
	Kind      types.MemoryKind
	Year      int
	IsExample bool

	Text  *types.TextPayload
	Place *types.PlacePayload
	Song  *types.SongPayload
	Image *types.ImagePayload
}

// payloadFor returns the draft payload pointer for the given kind, or nil
// when the draft does not carry one.
func (d *MemoryDraft) payloadFor(kind types.MemoryKind) (text *types.TextPayload, place *types.PlacePayload, song *types.SongPayload, image *types.ImagePayload, provided bool) {
	switch kind {
	case types.KindText:
		return d.Text, nil, nil, nil, d.Text != nil
	case types.KindPlace:
		return nil, d.Place, nil, nil, d.Place != nil
	case types.KindSong:
		return nil, nil, d.Song, nil, d.Song != nil
	case types.KindImage:
		return nil, nil, nil, d.Image, d.Image != nil
	}
	return nil, nil, nil, nil, false
}

// CreateOrUpdateMemory creates a new memory on the given day, or — when
// existingID is non-empty — merges the draft onto the existing record,
// preserving its id and createdAt. The owning day's HasMemories flag is
// set within the same operation. Kind-specific business validation (year
// numeric, coordinates sane) is the caller's responsibility; the store
// trusts the draft's shape.
func (s *Store) CreateOrUpdateMemory(ctx context.Context, dayID string, draft MemoryDraft, existingID string) (*types.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, err := s.loadDays(ctx)
	if err != nil {
		return nil, err
	}
	day, ok := days[dayID]
	if !ok {
		return nil, fmt.Errorf("%w: day %q", storage.ErrNotFound, dayID)
	}

	memories, err := s.loadMemories(ctx)
	if err != nil {
		return nil, err
	}

	var result types.Memory
	if existingID != "" {
		idx := -1
		for i, m := range memories[dayID] {
			if m.ID == existingID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: memory %q on day %q", storage.ErrNotFound, existingID, dayID)
		}

		existing := memories[dayID][idx]
		if draft.Year != 0 {
			existing.OriginalDate.Year = draft.Year
		}
		// Kind is immutable: only the payload matching the stored kind
		// can be replaced.
		if text, place, song, image, provided := draft.payloadFor(existing.Kind); provided {
			existing.Text, existing.Place, existing.Song, existing.Image = text, place, song, image
		}
		memories[dayID][idx] = existing
		result = existing
	} else {
		if !draft.Kind.Valid() {
			return nil, fmt.Errorf("%w: unknown memory kind %q", storage.ErrInvalidInput, draft.Kind)
		}
		month, dayOfMonth, err := splitDayID(dayID)
		if err != nil {
			return nil, err
		}

		m := types.Memory{
			ID:    s.newID(),
			DayID: dayID,
			Kind:  draft.Kind,
			OriginalDate: types.OriginalDate{
				Year:  draft.Year,
				Month: month,
				Day:   dayOfMonth,
			},
			CreatedAt: s.now().UTC(),
			IsExample: draft.IsExample,
		}
		m.Text, m.Place, m.Song, m.Image, _ = draft.payloadFor(draft.Kind)
		memories[dayID] = append(memories[dayID], m)
		result = m
	}

	// Two writes, no transaction: a crash in between leaves HasMemories
	// stale. Accepted — the flag is a cache recomputable from memories.
	if err := s.saveMemories(ctx, memories); err != nil {
		return nil, err
	}
	if !day.HasMemories {
		day.HasMemories = true
		days[dayID] = day
		if err := s.saveDays(ctx, days); err != nil {
			return nil, err
		}
	}

	return &result, nil
}

// DeleteMemory removes a memory from a day and resets the day's
// HasMemories flag when the day is left empty. Deleting from an unknown
// day — or an id that is already gone — is treated as already satisfied
// and returns nil.
func (s *Store) DeleteMemory(ctx context.Context, dayID, memoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, err := s.loadDays(ctx)
	if err != nil {
		return err
	}
	if _, ok := days[dayID]; !ok {
		return nil
	}

	memories, err := s.loadMemories(ctx)
	if err != nil {
		return err
	}

	list := memories[dayID]
	idx := -1
	for i, m := range list {
		if m.ID == memoryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	removed := list[idx]
	list = append(list[:idx], list[idx+1:]...)
	if len(list) == 0 {
		delete(memories, dayID)
	} else {
		memories[dayID] = list
	}

	if err := s.saveMemories(ctx, memories); err != nil {
		return err
	}

	if len(list) == 0 {
		day := days[dayID]
		day.HasMemories = false
		days[dayID] = day
		if err := s.saveDays(ctx, days); err != nil {
			return err
		}
	}

	// Drop the image blob of a locally-stored image memory.
	if removed.Kind == types.KindImage && removed.Image != nil {
		if id, ok := localImageID(removed.Image.Ref); ok {
			if err := s.deleteImage(ctx, id); err != nil {
				log.Printf("diary: failed to delete image blob %s: %v", id, err)
			}
		}
	}

	return nil
}

// ListMemories returns the memories of a day sorted by original year
// descending. Ties keep insertion order, which makes the ordering
// deterministic across calls.
func (s *Store) ListMemories(ctx context.Context, dayID string) ([]types.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, err := s.loadDays(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := days[dayID]; !ok {
		return nil, fmt.Errorf("%w: day %q", storage.ErrNotFound, dayID)
	}

	memories, err := s.loadMemories(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]types.Memory, len(memories[dayID]))
	copy(out, memories[dayID])
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OriginalDate.Year > out[j].OriginalDate.Year
	})
	return out, nil
}

// splitDayID parses a "MM-DD" day id into its month and day numbers.
func splitDayID(dayID string) (month, day int, err error) {
	if _, scanErr := fmt.Sscanf(dayID, "%02d-%02d", &month, &day); scanErr != nil {
		return 0, 0, fmt.Errorf("%w: malformed day id %q", storage.ErrInvalidInput, dayID)
	}
	return month, day, nil
}
