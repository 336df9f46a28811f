package session

import (
	"sync"
	"time"

	"github.com/ChamsBouzaiene/relay/internal/engine"
)

// Session is the per-connection mutable state: identity, timestamps, and the
// ordered transcript. It is owned exclusively by the Store; the orchestrator
// mutates it only through the Store's contract.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	mu    sync.RWMutex
	turns []engine.Turn

	// runMu serializes conversation runs for this session. Held for the
	// whole duration of one run, so same-session messages queue behind the
	// in-flight run instead of interleaving transcript appends.
	runMu sync.Mutex
}

func (s *Session) append(t engine.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
}

// snapshot returns a copy of the transcript; later appends do not mutate it.
func (s *Session) snapshot() []engine.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]engine.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}
