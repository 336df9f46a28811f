// Package session holds the in-memory per-session state: transcript,
// identity, and timestamps, with per-session run serialization.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/ChamsBouzaiene/relay/internal/engine"
	"github.com/google/uuid"
)

var (
	// ErrUnknownSession is returned for operations on a session id that is
	// not currently open.
	ErrUnknownSession = errors.New("unknown session")

	// ErrDuplicateSession is returned when opening a session id that is
	// already active.
	ErrDuplicateSession = errors.New("session id already active")
)

// Store tracks all open sessions. All methods are in-memory and non-blocking;
// BeginRun hands out the per-session run lock without holding the store lock.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Open creates a session for the given id. The user id is generated once
// here and stays stable for the session's lifetime.
func (s *Store) Open(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; ok {
		return nil, ErrDuplicateSession
	}

	sess := &Session{
		ID:        sessionID,
		UserID:    uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}
	s.sessions[sessionID] = sess
	return sess, nil
}

// Close marks the session ended and removes it from the active set.
// Idempotent: closing an unknown id is a no-op.
func (s *Store) Close(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	now := time.Now().UTC()
	sess.EndedAt = &now
	delete(s.sessions, sessionID)
}

// Get returns the session handle for an active id.
func (s *Store) Get(sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrUnknownSession
	}
	return sess, nil
}

// AppendTurn appends a turn to the session's transcript. Turns are only ever
// appended, never removed or reordered.
func (s *Store) AppendTurn(sessionID string, t engine.Turn) error {
	if err := t.Validate(); err != nil {
		return err
	}
	sess, err := s.Get(sessionID)
	if err != nil {
		return err
	}
	sess.append(t)
	return nil
}

// Transcript returns a snapshot of the session's transcript in append order.
// Mutations after the read do not change an already-obtained snapshot.
func (s *Store) Transcript(sessionID string) ([]engine.Turn, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.snapshot(), nil
}

// BeginRun acquires the session's run lock, blocking while another run for
// the same id is in flight. The returned release func must be called when
// the run settles. Runs for different sessions proceed in parallel.
func (s *Store) BeginRun(sessionID string) (func(), error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	sess.runMu.Lock()
	return func() { sess.runMu.Unlock() }, nil
}

// Drain waits for any in-flight run on the session to settle. Used at
// disconnect so the session record is closed only after the current
// model/tool round-trip completes.
func (s *Store) Drain(sessionID string) {
	release, err := s.BeginRun(sessionID)
	if err != nil {
		return
	}
	release()
}
