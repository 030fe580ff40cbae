// Package selection tracks the ingredients a user picked for a fridge search
// and re-runs the search when the pick changes.
package selection

import (
	"sort"
	"strings"
	"sync"
)

// Set is a set of ingredient keys. The zero value is ready to use.
type Set struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

// NewSet returns a set holding the given keys.
func NewSet(keys ...string) *Set {
	s := &Set{}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			s.add(k)
		}
	}
	return s
}

func (s *Set) add(k string) {
	if s.keys == nil {
		s.keys = make(map[string]struct{})
	}
	s.keys[k] = struct{}{}
}

// Toggle adds key when absent and removes it when present. It returns true
// when the key is selected afterwards. Blank keys are ignored.
func (s *Set) Toggle(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key]; ok {
		delete(s.keys, key)
		return false
	}
	s.add(key)
	return true
}

// Clear empties the set.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = nil
}

// Keys returns the selected keys in sorted order. Never nil.
func (s *Set) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Has reports whether key is selected.
func (s *Set) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[strings.TrimSpace(key)]
	return ok
}

// Len returns the number of selected keys.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Equal reports whether both sets hold the same keys.
func (s *Set) Equal(other *Set) bool {
	a, b := s.Keys(), other.Keys()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
