package domain

import "time"

// Resource names one tracked GitHub resource within a repository.
type Resource string

const (
	ResourceRepoDetails Resource = "repo_details"
	ResourceCommits     Resource = "commits"
	ResourceIssues      Resource = "issues"
	ResourcePulls       Resource = "pulls"
)

// AllResources returns every tracked resource type, in sweep order.
func AllResources() []Resource {
	return []Resource{ResourceRepoDetails, ResourceCommits, ResourceIssues, ResourcePulls}
}

// SyncCursor tracks incremental sync state for one (repository, resource)
// pair. A zero value means "no prior state": the first fetch runs
// unconditionally. Cursors are exclusively owned and mutated by the
// backfill controller; the webhook path never touches them.
type SyncCursor struct {
	// ETag is the conditional-fetch token from the last non-304 response,
	// empty when none was issued yet.
	ETag string

	// LastUpdate is the maximum updated-at timestamp among items processed
	// so far. Zero when no item has been processed.
	LastUpdate time.Time
}

// IsZero reports whether the cursor carries no state.
func (c SyncCursor) IsZero() bool {
	return c.ETag == "" && c.LastUpdate.IsZero()
}

// RepoCursors maps each tracked resource of one repository to its cursor.
type RepoCursors map[Resource]SyncCursor

// CursorSet is the durable cursor state for all monitored repositories,
// keyed by "owner/name". Loaded once at sweep start, saved once at sweep
// end.
type CursorSet map[string]RepoCursors

// Cursor returns the cursor for a repository's resource, zero if absent.
func (cs CursorSet) Cursor(repo RepositoryRef, res Resource) SyncCursor {
	return cs[repo.FullName()][res]
}

// SetCursor stores the cursor for a repository's resource.
func (cs CursorSet) SetCursor(repo RepositoryRef, res Resource, cursor SyncCursor) {
	rc, ok := cs[repo.FullName()]
	if !ok {
		rc = make(RepoCursors)
		cs[repo.FullName()] = rc
	}
	rc[res] = cursor
}
