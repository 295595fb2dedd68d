package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/github-sensor/internal/core/domain"
	"github.com/custodia-labs/github-sensor/internal/core/ports/driven"
)

// Ensure CursorStore implements the interface.
var _ driven.CursorStore = (*CursorStore)(nil)

// CursorStore is an in-memory implementation of driven.CursorStore.
type CursorStore struct {
	mu      sync.RWMutex
	cursors domain.CursorSet
}

// NewCursorStore creates a new in-memory cursor store.
func NewCursorStore() *CursorStore {
	return &CursorStore{
		cursors: make(domain.CursorSet),
	}
}

// Load returns a copy of the persisted cursor set.
func (s *CursorStore) Load(_ context.Context) (domain.CursorSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(domain.CursorSet, len(s.cursors))
	for repo, resources := range s.cursors {
		rc := make(domain.RepoCursors, len(resources))
		for res, cursor := range resources {
			rc[res] = cursor
		}
		out[repo] = rc
	}
	return out, nil
}

// Save replaces the persisted cursor set.
func (s *CursorStore) Save(_ context.Context, cursors domain.CursorSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(domain.CursorSet, len(cursors))
	for repo, resources := range cursors {
		rc := make(domain.RepoCursors, len(resources))
		for res, cursor := range resources {
			rc[res] = cursor
		}
		out[repo] = rc
	}
	s.cursors = out
	return nil
}
