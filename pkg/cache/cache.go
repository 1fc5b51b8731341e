package cache

import (
	"strings"
	"sync"
)

// Store memoizes model-generated replies keyed by the normalized
// message text. Only the fallback path writes here: rule replies are
// already O(1) and caching them would just duplicate the rule table.
//
// There is no eviction and no expiry; every unique fallback query
// grows the map for the process lifetime. Concurrent misses on the
// same key may each invoke the generator; the last write wins, which
// is harmless because values for a key are equivalent.
type Store struct {
	mu      sync.RWMutex
	entries map[string]string
}

func New() *Store {
	return &Store{entries: make(map[string]string)}
}

// Normalize produces the cache key for a message: lower-cased and
// trimmed, exact match only.
func Normalize(message string) string {
	return strings.ToLower(strings.TrimSpace(message))
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reply, ok := s.entries[key]
	return reply, ok
}

func (s *Store) Put(key, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = reply
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
