package session

import (
	"sync"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Turn is one message in a session, immutable once appended.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Store keeps a bounded rolling turn history per session. Sessions
// are created lazily on first append and live for the process
// lifetime; the history cap is the only growth bound.
type Store struct {
	mu         sync.Mutex
	sessions   map[string][]Turn
	maxHistory int
	defaultID  string
}

func NewStore(maxHistory int, defaultID string) *Store {
	if maxHistory <= 0 {
		maxHistory = 20
	}
	if defaultID == "" {
		defaultID = "default"
	}
	return &Store{
		sessions:   make(map[string][]Turn),
		maxHistory: maxHistory,
		defaultID:  defaultID,
	}
}

// ResolveID maps an empty caller-supplied id to the default session.
func (s *Store) ResolveID(sessionID string) string {
	if sessionID == "" {
		return s.defaultID
	}
	return sessionID
}

// Append adds a turn to the session, creating it if needed, then
// truncates to the most recent maxHistory turns. The
// append-then-truncate sequence is atomic so concurrent appends to
// one session cannot drop each other's turns. Returns the resolved
// session id.
func (s *Store) Append(sessionID string, turn Turn) string {
	id := s.ResolveID(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.sessions[id], turn)
	if len(turns) > s.maxHistory {
		turns = turns[len(turns)-s.maxHistory:]
	}
	s.sessions[id] = turns
	return id
}

// Get returns a copy of the session's turns in arrival order,
// possibly empty.
func (s *Store) Get(sessionID string) []Turn {
	id := s.ResolveID(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.sessions[id]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Len returns the number of turns currently held for a session.
func (s *Store) Len(sessionID string) int {
	id := s.ResolveID(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions[id])
}
