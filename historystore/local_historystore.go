// historystore/local_historystore.go

package historystore

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// LocalHistoryStore keeps histories in memory.
type LocalHistoryStore struct {
	mu    sync.RWMutex
	store map[string][]string

	log logrus.FieldLogger
}

// NewLocalHistoryStore constructor
func NewLocalHistoryStore(log logrus.FieldLogger) *LocalHistoryStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LocalHistoryStore{
		store: make(map[string][]string),
		log:   log.WithField("component", "historystore"),
	}
}

// Initialize does nothing.
func (l *LocalHistoryStore) Initialize(ctx context.Context) error {
	l.log.Info("LocalHistoryStore initialized")
	return nil
}

// Load returns a copy of the session's history.
func (l *LocalHistoryStore) Load(ctx context.Context, sessionID string) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string{}, l.store[sessionID]...), nil
}

// Save replaces the session's history.
func (l *LocalHistoryStore) Save(ctx context.Context, sessionID string, history []string) error {
	l.log.WithFields(logrus.Fields{"session": sessionID, "entries": len(history)}).Debug("Save called")
	l.mu.Lock()
	defer l.mu.Unlock()
	l.store[sessionID] = append([]string(nil), history...)
	return nil
}

// Clear forgets the session's history.
func (l *LocalHistoryStore) Clear(ctx context.Context, sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.store, sessionID)
	return nil
}

// Forget drops the session's history. The in-memory store has nothing that
// outlives the session.
func (l *LocalHistoryStore) Forget(ctx context.Context, sessionID string) error {
	return l.Clear(ctx, sessionID)
}

// Sessions returns how many sessions have a stored history.
func (l *LocalHistoryStore) Sessions() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.store)
}

// Ping always succeeds.
func (l *LocalHistoryStore) Ping(ctx context.Context) bool {
	return true
}
