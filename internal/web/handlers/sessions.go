package handlers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kozaktomas/face-recall/internal/quiz"
)

// sessionSweepInterval is how often expired quiz sessions are dropped.
const sessionSweepInterval = time.Minute

// QuizEntry wraps a session with its own lock. A quiz.Session is not safe for
// concurrent use, so handlers hold the entry lock for every read and write.
type QuizEntry struct {
	mu       sync.Mutex
	session  *quiz.Session
	lastUsed time.Time
}

// With runs fn with exclusive access to the session.
func (e *QuizEntry) With(fn func(s *quiz.Session) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = time.Now()
	return fn(e.session)
}

func (e *QuizEntry) idleSince() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastUsed
}

// SessionStore keeps quiz sessions in memory and expires idle ones.
type SessionStore struct {
	ttl     time.Duration
	entries map[string]*QuizEntry
	mu      sync.RWMutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSessionStore creates a store and starts its cleanup goroutine.
// A non-positive ttl keeps sessions until Stop.
func NewSessionStore(ttl time.Duration) *SessionStore {
	ctx, cancel := context.WithCancel(context.Background())
	s := &SessionStore{
		ttl:     ttl,
		entries: make(map[string]*QuizEntry),
		cancel:  cancel,
	}
	if ttl > 0 {
		s.wg.Add(1)
		go s.run(ctx)
	}
	return s
}

func (s *SessionStore) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(min(sessionSweepInterval, s.ttl))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Expire(now); n > 0 {
				slog.Debug("expired quiz sessions", "count", n)
			}
		}
	}
}

// Stop ends the cleanup goroutine.
func (s *SessionStore) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Put stores a session under its ID.
func (s *SessionStore) Put(session *quiz.Session) {
	s.mu.Lock()
	s.entries[session.ID] = &QuizEntry{session: session, lastUsed: time.Now()}
	s.mu.Unlock()
}

// Get retrieves a session entry by ID.
func (s *SessionStore) Get(id string) (*QuizEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

// Delete removes a session.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Expire drops sessions idle for longer than the TTL at now and returns how many were dropped.
func (s *SessionStore) Expire(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for id, e := range s.entries {
		if now.Sub(e.idleSince()) > s.ttl {
			delete(s.entries, id)
			dropped++
		}
	}
	return dropped
}
