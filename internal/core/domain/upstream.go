package domain

import "time"

// UpstreamItem is one element of a paginated upstream listing, with the
// natural-key fields pulled out and the full payload preserved for the
// event contents.
type UpstreamItem struct {
	// NodeID is GitHub's GraphQL-stable node identifier (issues, PRs,
	// repositories). Empty when the item type has none.
	NodeID string

	// SHA is the commit SHA for commit listings. Empty otherwise.
	SHA string

	// UpdatedAt is the item's last-modified timestamp: updated_at for
	// issues and PRs, the committer date for commits. Zero when unknown.
	UpdatedAt time.Time

	// Payload is the item's full decoded JSON object.
	Payload map[string]any
}

// Listing is the result of a conditional fetch of a paginated list
// resource. On a 304 from upstream, NotModified is true, Items is empty
// and ETag carries the caller's prior ETag unchanged; the caller must
// treat this as "no change since last check", not as "zero results".
type Listing struct {
	Items       []UpstreamItem
	ETag        string
	NotModified bool
}

// Snapshot is the result of a conditional fetch of a single resource
// (repository details). Same 304 semantics as Listing.
type Snapshot struct {
	NodeID      string
	Payload     map[string]any
	ETag        string
	NotModified bool
}
