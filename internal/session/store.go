package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/service"
)

const (
	HeaderName = "X-Session-ID"
	CookieName = "healthme_session"
)

type entry struct {
	dismissed service.DismissedSet
	lastSeen  time.Time
}

// Store holds per-session dismissed repeat suggestions in memory. Idle sessions
// are dropped by a background sweeper once they exceed the TTL.
type Store struct {
	mu           sync.Mutex
	sessions     map[string]*entry
	ttl          time.Duration
	now          func() time.Time
	shutdownChan chan struct{}
	closeOnce    sync.Once
	logger       internal.Logger
}

func NewStore(ttl, sweepEvery time.Duration, logger internal.Logger) *Store {
	s := &Store{
		sessions:     make(map[string]*entry),
		ttl:          ttl,
		now:          time.Now,
		shutdownChan: make(chan struct{}),
		logger:       logger,
	}
	if sweepEvery > 0 {
		go s.sweepWorker(sweepEvery)
	}
	return s
}

// NewID mints a session id.
func NewID() string { return uuid.NewString() }

func (s *Store) touch(id string) *entry {
	e, ok := s.sessions[id]
	if !ok {
		e = &entry{dismissed: service.NewDismissedSet()}
		s.sessions[id] = e
	}
	e.lastSeen = s.now()
	return e
}

// Dismiss adds activityID to the session's set; repeating it is a no-op.
func (s *Store) Dismiss(sessionID, activityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.touch(sessionID)
	e.dismissed.Add(activityID)
}

// Dismissed returns a copy of the session's set.
func (s *Store) Dismissed(sessionID string) service.DismissedSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touch(sessionID).dismissed.Clone()
}

// Clear ends a session.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle longer than the TTL and reports how many went.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	n := 0
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *Store) sweepWorker(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debugf("session: expired %d idle sessions", n)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.shutdownChan) })
}

var _ service.DismissalStore = (*Store)(nil)
