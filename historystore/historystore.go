// historystore/historystore.go

package historystore

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// FieldName is the fixed name the history is stored under.
const FieldName = "searchHistory"

// DefaultLimit is how many queries are remembered.
const DefaultLimit = 5

// ErrPersistence wraps failures of the backing key-value store.
var ErrPersistence = errors.New("search history persistence failure")

// Store persists the search history of each session.
type Store interface {
	Initialize(ctx context.Context) error

	Load(ctx context.Context, sessionID string) ([]string, error)
	Save(ctx context.Context, sessionID string, history []string) error
	Clear(ctx context.Context, sessionID string) error

	Ping(ctx context.Context) bool
}

// Record returns history with query moved to the front. Queries are
// compared case-insensitively, so an earlier entry differing only in case
// is replaced by the new spelling. The result holds at most limit entries.
// Blank queries leave history unchanged.
func Record(history []string, query string, limit int) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return history
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	out := make([]string, 0, limit)
	out = append(out, query)
	for _, prev := range history {
		if len(out) == limit {
			break
		}
		if strings.EqualFold(prev, query) {
			continue
		}
		out = append(out, prev)
	}
	return out
}
