package diary

import (
	"context"
	"sort"
	"strings"

	"github.com/mgalvez/undiacomohoy/pkg/types"
)

// SearchResult is a memory that matched a search term, annotated with the
// display name of its owning day so results can be rendered standalone.
type SearchResult struct {
	Memory         types.Memory `json:"memory"`
	DayDisplayName string       `json:"dayDisplayName"`
}

// Search performs a case-insensitive substring match over the
// human-readable text of every memory (description, place name, song
// summary). Results are sorted by original date descending; ties keep a
// deterministic order (created-at, then id).
func (s *Store) Search(ctx context.Context, term string) ([]SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, nil
	}

	days, err := s.loadDays(ctx)
	if err != nil {
		return nil, err
	}
	memories, err := s.loadMemories(ctx)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	for dayID, list := range memories {
		day := days[dayID]
		for _, m := range list {
			if !strings.Contains(strings.ToLower(m.Summary()), term) {
				continue
			}
			results = append(results, SearchResult{
				Memory:         m,
				DayDisplayName: day.DisplayName,
			})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return memoryLess(&results[j].Memory, &results[i].Memory)
	})
	return results, nil
}

// memoryLess is the shared deterministic ordering for memories: original
// date ascending, then creation time, then id. Listings that want "newest
// event first" invert it.
func memoryLess(a, b *types.Memory) bool {
	at, bt := a.OriginalDate.Time(), b.OriginalDate.Time()
	if !at.Equal(bt) {
		return at.Before(bt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
