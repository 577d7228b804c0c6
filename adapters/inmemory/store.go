package inmemory

import (
	"slices"
	"sync"
)

// store keeps snapshots keyed by id in insertion order. Callers get fresh aggregates rebuilt
// from snapshots, so a failed save never leaks into stored state.
type store[K comparable, S any] struct {
	mu    sync.RWMutex
	rows  map[K]S
	order []K
}

func newStore[K comparable, S any]() *store[K, S] {
	return &store[K, S]{rows: make(map[K]S)}
}

func (s *store[K, S]) get(k K) (S, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.rows[k]

	return v, ok
}

func (s *store[K, S]) put(k K, v S) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[k]; !ok {
		s.order = append(s.order, k)
	}

	s.rows[k] = v
}

// filter returns matching rows in insertion order.
func (s *store[K, S]) filter(match func(S) bool) []S {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []S
	for _, k := range s.order {
		if v := s.rows[k]; match(v) {
			out = append(out, v)
		}
	}

	return out
}

func page[S any](rows []S, offset, limit int) []S {
	offset = max(offset, 0)
	if offset >= len(rows) {
		return nil
	}

	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	return slices.Clone(rows)
}
