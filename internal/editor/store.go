package editor

import (
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/vedicseva/console/pkg/errors"
)

// Store holds live editor sessions keyed by session id. Sessions are
// transient: abandoned ones are evicted after the TTL so a browser tab left
// open does not pin memory forever.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*entry
	ttl      time.Duration
	nowFunc  func() time.Time
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// NewStore creates a session store with the given idle TTL and starts the
// background eviction loop.
func NewStore(ttl time.Duration) *Store {
	s := &Store{
		sessions: make(map[uuid.UUID]*entry),
		ttl:      ttl,
		nowFunc:  time.Now,
	}
	go s.evictLoop()
	return s
}

// Create registers a new session and returns it.
func (s *Store) Create(editID string) *Session {
	sess := NewSession(editID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = &entry{session: sess, lastSeen: s.nowFunc()}
	return sess
}

// Get returns the session with the given id, refreshing its idle timer.
func (s *Store) Get(id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, apperrors.NotFound("editor session", id.String())
	}
	e.lastSeen = s.nowFunc()
	return e.session, nil
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) evictLoop() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()
	for range ticker.C {
		s.evict()
	}
}

func (s *Store) evict() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
