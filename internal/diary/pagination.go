package diary

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mgalvez/undiacomohoy/internal/storage"
	"github.com/mgalvez/undiacomohoy/pkg/types"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePageSize applies the default and the cap.
func normalizePageSize(pageSize int) int {
	if pageSize < 1 {
		return defaultPageSize
	}
	if pageSize > maxPageSize {
		return maxPageSize
	}
	return pageSize
}

// paginate slices one page out of an already-sorted sequence. The cursor
// is the id of the last item of the previous page; the page resumes
// immediately after it. When the cursor id is no longer present (the item
// was deleted between requests) the sequence restarts from the beginning —
// an explicit policy, not a fallback: it guarantees no surviving item is
// ever skipped, at the cost of re-serving some.
func paginate[T any](items []T, idOf func(*T) string, pageSize int, cursor string) storage.Page[T] {
	start := 0
	if cursor != "" {
		for i := range items {
			if idOf(&items[i]) == cursor {
				start = i + 1
				break
			}
		}
	}

	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	page := storage.Page[T]{
		Items:   items[start:end],
		HasMore: end < len(items),
	}
	if page.HasMore && len(page.Items) > 0 {
		page.NextCursor = idOf(&page.Items[len(page.Items)-1])
	}
	return page
}

// ListByKind returns one page of all memories of the given kind across
// every day, sorted by original date descending. The collection is
// unindexed, so each call rebuilds and re-sorts the full matching set
// before resuming at the cursor.
func (s *Store) ListByKind(ctx context.Context, kind types.MemoryKind, pageSize int, cursor string) (storage.Page[types.Memory], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero storage.Page[types.Memory]
	if !kind.Valid() {
		return zero, fmt.Errorf("%w: unknown memory kind %q", storage.ErrInvalidInput, kind)
	}

	memories, err := s.loadMemories(ctx)
	if err != nil {
		return zero, err
	}

	var matching []types.Memory
	for _, list := range memories {
		for _, m := range list {
			if m.Kind == kind {
				matching = append(matching, m)
			}
		}
	}
	sort.Slice(matching, func(i, j int) bool {
		return memoryLess(&matching[j], &matching[i])
	})

	return paginate(matching, func(m *types.Memory) string { return m.ID },
		normalizePageSize(pageSize), cursor), nil
}

// ListNamedDays returns one page of the days that carry a user-assigned
// name, sorted alphabetically by that name (ties by day id).
func (s *Store) ListNamedDays(ctx context.Context, pageSize int, cursor string) (storage.Page[types.Day], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero storage.Page[types.Day]
	days, err := s.loadDays(ctx)
	if err != nil {
		return zero, err
	}

	var named []types.Day
	for _, d := range days {
		if d.IsNamed() {
			named = append(named, d)
		}
	}
	sort.Slice(named, func(i, j int) bool {
		a, b := strings.ToLower(named[i].SpecialName), strings.ToLower(named[j].SpecialName)
		if a != b {
			return a < b
		}
		return named[i].ID < named[j].ID
	})

	return paginate(named, func(d *types.Day) string { return d.ID },
		normalizePageSize(pageSize), cursor), nil
}
