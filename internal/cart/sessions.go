package cart

import (
	"context"
	"log"
	"sync"
	"time"
)

const defaultIdleTimeout = 30 * time.Minute

type session struct {
	store    *Store
	lastUsed time.Time
}

// Sessions keeps one Store per cart session so concurrent requests of the
// same session share state. A cached cart is reloaded from the persister on
// every Open, and carts unused for longer than the idle timeout are dropped.
type Sessions struct {
	mu        sync.Mutex
	persister Persister
	idle      time.Duration
	now       func() time.Time
	sessions  map[string]*session
	lastSweep time.Time
}

func NewSessions(p Persister, idle time.Duration) *Sessions {
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	return &Sessions{
		persister: p,
		idle:      idle,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
}

// Open returns the cart of sessionID as currently persisted.
func (s *Sessions) Open(ctx context.Context, sessionID string) (*Store, error) {
	s.mu.Lock()

	now := s.now()
	s.sweep(now)

	if sess, ok := s.sessions[sessionID]; ok {
		sess.lastUsed = now
		s.mu.Unlock()

		if err := sess.store.reload(ctx); err != nil {
			return nil, err
		}
		return sess.store, nil
	}
	defer s.mu.Unlock()

	store, err := Open(ctx, sessionID, s.persister)
	if err != nil {
		return nil, err
	}

	s.sessions[sessionID] = &session{store: store, lastUsed: now}
	return store, nil
}

// sweep drops idle sessions. It runs at most twice per idle period.
func (s *Sessions) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < s.idle/2 {
		return
	}
	s.lastSweep = now

	dropped := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUsed) > s.idle {
			delete(s.sessions, id)
			dropped++
		}
	}
	if dropped > 0 {
		log.Printf("Sessions.sweep - Dropped: %d, Remaining: %d", dropped, len(s.sessions))
	}
}
