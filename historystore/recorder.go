package historystore

import (
	"context"

	"github.com/pkg/errors"
)

// Recorder applies Record on top of a Store.
type Recorder struct {
	store Store
	limit int
}

// NewRecorder returns a Recorder keeping at most limit entries; a
// non-positive limit means DefaultLimit.
func NewRecorder(store Store, limit int) *Recorder {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Recorder{store: store, limit: limit}
}

// Record adds query to the session's history and returns the new history.
func (r *Recorder) Record(ctx context.Context, sessionID, query string) ([]string, error) {
	history, err := r.store.Load(ctx, sessionID)
	if err != nil {
		return nil, errors.WithMessage(err, "load history")
	}
	updated := Record(history, query, r.limit)
	if sameEntries(updated, history) {
		return updated, nil
	}
	if err := r.store.Save(ctx, sessionID, updated); err != nil {
		return nil, errors.WithMessage(err, "save history")
	}
	return updated, nil
}

// List returns the session's history, most recent first.
func (r *Recorder) List(ctx context.Context, sessionID string) ([]string, error) {
	return r.store.Load(ctx, sessionID)
}

// Clear forgets the session's history.
func (r *Recorder) Clear(ctx context.Context, sessionID string) error {
	return r.store.Clear(ctx, sessionID)
}

func sameEntries(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
