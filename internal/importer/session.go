package importer

import (
	"sync"

	"github.com/franz/media-tracker/internal/match"
)

// Session is the state of one import run: the search cache and the
// external ids accepted into the store during the run. Both are cleared
// when the next run starts, never mid-run.
type Session struct {
	mu       sync.Mutex
	cache    *match.Cache
	accepted map[int64]bool
}

// NewSession creates an empty session
func NewSession() *Session {
	return &Session{
		cache:    match.NewCache(),
		accepted: make(map[int64]bool),
	}
}

// Cache returns the run's search cache
func (s *Session) Cache() *match.Cache {
	return s.cache
}

// MarkAccepted records external ids persisted during this run
func (s *Session) MarkAccepted(ids ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if id != 0 {
			s.accepted[id] = true
		}
	}
}

// Accepted reports whether id was persisted during this run
func (s *Session) Accepted(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted[id]
}

// AcceptedCount returns the number of ids accepted during this run
func (s *Session) AcceptedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accepted)
}

// Reset clears the cache and the accepted ids
func (s *Session) Reset() {
	s.mu.Lock()
	clear(s.accepted)
	s.mu.Unlock()
	s.cache.Clear()
}
