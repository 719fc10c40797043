// Package selection tracks which transactions are checked for bulk actions.
package selection

import (
	"slices"
	"sync"
)

// Scope is a set of selected transaction ids. Safe for concurrent use.
type Scope struct {
	mu  sync.RWMutex
	ids map[int64]struct{}
}

func New() *Scope {
	return &Scope{ids: map[int64]struct{}{}}
}

// Toggle flips membership of id and reports whether it is now selected.
func (s *Scope) Toggle(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// SelectAll operates on the visible ids only. When the selection is
// already as large as the visible list it is cleared; otherwise it becomes
// exactly the visible ids.
func (s *Scope) SelectAll(visible []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unique := make(map[int64]struct{}, len(visible))
	for _, id := range visible {
		unique[id] = struct{}{}
	}
	if len(s.ids) == len(unique) {
		s.ids = map[int64]struct{}{}
		return
	}
	s.ids = unique
}

// Remove drops ids from the selection, typically after they were deleted.
func (s *Scope) Remove(ids ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.ids, id)
	}
}

// Retain keeps only the selected ids that are still in existing.
func (s *Scope) Retain(existing []int64) {
	keep := make(map[int64]struct{}, len(existing))
	for _, id := range existing {
		keep[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			delete(s.ids, id)
		}
	}
}

func (s *Scope) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = map[int64]struct{}{}
}

// IDs returns the selection in ascending order.
func (s *Scope) IDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s *Scope) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *Scope) Has(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Actionable returns the selected ids that are also visible. Selected
// rows outside the current view stay selected but cannot be acted on.
func (s *Scope) Actionable(visible []int64) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []int64
	for _, id := range visible {
		if _, ok := s.ids[id]; ok {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
