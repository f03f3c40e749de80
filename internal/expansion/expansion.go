// Package expansion tracks which day nodes a viewer has opened.
//
// A Store lives as long as a login session. Keys are DayKeys, never
// positions in a rendered list, so they stay valid across re-fetches.
// Keys for days that no longer hold notes are kept; they are simply
// never consulted.
package expansion

import (
	"slices"
	"sync"

	"github.com/hpungsan/tracky/internal/calendar"
)

// Store is a set of expanded DayKeys. The zero value is ready to use.
type Store struct {
	mu   sync.Mutex
	keys map[calendar.DayKey]struct{}
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// IsExpanded reports whether key has been opened.
func (s *Store) IsExpanded(key calendar.DayKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok
}

// SetExpanded records key as open or closed. Repeating a call is a no-op.
func (s *Store) SetExpanded(key calendar.DayKey, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !open {
		delete(s.keys, key)
		return
	}
	if s.keys == nil {
		s.keys = make(map[calendar.DayKey]struct{})
	}
	s.keys[key] = struct{}{}
}

// OnDayToggled applies a toggle event reported by the renderer.
func (s *Store) OnDayToggled(key calendar.DayKey, nowOpen bool) {
	s.SetExpanded(key, nowOpen)
}

// Keys returns the expanded keys in ascending order.
func (s *Store) Keys() []calendar.DayKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]calendar.DayKey, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of expanded keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// Reset forgets every key.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = nil
}
