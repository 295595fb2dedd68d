package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/github-sensor/internal/core/domain"
)

// UpstreamAPI performs conditional fetches against the source-control
// hosting platform. Every method attaches If-None-Match when a prior ETag
// is supplied and reports a 304 through the NotModified flag rather than
// an error. Transport and non-304 HTTP failures surface as a *FetchError
// from the implementing connector; no partial results are returned.
type UpstreamAPI interface {
	// RepoSnapshot fetches repository details.
	RepoSnapshot(ctx context.Context, repo domain.RepositoryRef, priorETag string) (domain.Snapshot, error)

	// Commits lists commits, server-side filtered to those committed at or
	// after since when since is non-zero.
	Commits(ctx context.Context, repo domain.RepositoryRef, since time.Time, priorETag string) (domain.Listing, error)

	// Issues lists issues in all states, server-side filtered to those
	// updated at or after since when since is non-zero.
	Issues(ctx context.Context, repo domain.RepositoryRef, since time.Time, priorETag string) (domain.Listing, error)

	// PullRequests lists pull requests in all states. The endpoint has no
	// reliable since filter; change detection rests on the first-page ETag.
	PullRequests(ctx context.Context, repo domain.RepositoryRef, priorETag string) (domain.Listing, error)
}
