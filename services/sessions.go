// services/sessions.go

package services

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Abh1nav004/Really/clock"
)

// DefaultSessionIdleTimeout matches the session cookie lifetime.
const DefaultSessionIdleTimeout = cookieMaxAge * time.Second

// Forgetter drops everything it holds for a session.
type Forgetter interface {
	Forget(ctx context.Context, sessionID string) error
}

// SessionTracker records when each session was last seen and evicts the
// state of sessions idle longer than the timeout.
type SessionTracker struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time
	timer    clock.Timer
	stopped  bool

	clock  clock.Clock
	idle   time.Duration
	forget []Forgetter
	log    logrus.FieldLogger
}

// NewSessionTracker constructor. A non-positive idle uses
// DefaultSessionIdleTimeout.
func NewSessionTracker(c clock.Clock, idle time.Duration, log logrus.FieldLogger, forget ...Forgetter) *SessionTracker {
	if c == nil {
		c = clock.Real{}
	}
	if idle <= 0 {
		idle = DefaultSessionIdleTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SessionTracker{
		lastSeen: make(map[string]time.Time),
		clock:    c,
		idle:     idle,
		forget:   forget,
		log:      log.WithField("component", "sessions"),
	}
}

// Touch marks the session as active now.
func (s *SessionTracker) Touch(sessionID string) {
	now := s.clock.Now()
	s.mu.Lock()
	s.lastSeen[sessionID] = now
	s.mu.Unlock()
}

// Len returns the number of tracked sessions.
func (s *SessionTracker) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lastSeen)
}

// Sweep forgets every session idle for at least the timeout and returns
// how many were evicted. Forget errors are logged; the session is dropped
// from tracking regardless.
func (s *SessionTracker) Sweep(ctx context.Context) int {
	cutoff := s.clock.Now().Add(-s.idle)

	s.mu.Lock()
	var idle []string
	for id, seen := range s.lastSeen {
		if !seen.After(cutoff) {
			idle = append(idle, id)
			delete(s.lastSeen, id)
		}
	}
	s.mu.Unlock()

	for _, id := range idle {
		for _, f := range s.forget {
			if err := f.Forget(ctx, id); err != nil {
				s.log.WithError(err).WithField("session", id).Warn("forget session")
			}
		}
	}
	if len(idle) > 0 {
		s.log.WithField("evicted", len(idle)).Info("idle sessions evicted")
	}
	return len(idle)
}

// Start sweeps every interval until Stop is called.
func (s *SessionTracker) Start(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil || s.stopped {
		return
	}
	s.scheduleLocked(interval)
}

func (s *SessionTracker) scheduleLocked(interval time.Duration) {
	s.timer = s.clock.AfterFunc(interval, func() {
		s.Sweep(context.Background())
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.stopped {
			s.scheduleLocked(interval)
		}
	})
}

// Stop cancels periodic sweeps.
func (s *SessionTracker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
	}
}

// middleware touches the request's session. It must run inside
// ensureSessionID.
func (s *SessionTracker) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Touch(sessionID(r.Context()))
		next.ServeHTTP(w, r)
	})
}
