package driven

import (
	"context"

	"github.com/custodia-labs/github-sensor/internal/core/domain"
)

// CursorStore persists backfill sync cursors across process restarts.
// The backfill controller loads the full set once at sweep start and saves
// it once at sweep end; a partial-sweep crash loses only that sweep's
// progress.
type CursorStore interface {
	// Load returns the persisted cursor set. A store with no prior state
	// returns an empty, non-nil set.
	Load(ctx context.Context) (domain.CursorSet, error)

	// Save persists the full cursor set.
	Save(ctx context.Context, cursors domain.CursorSet) error
}
