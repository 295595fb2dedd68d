package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/custodia-labs/github-sensor/internal/core/domain"
	"github.com/custodia-labs/github-sensor/internal/core/ports/driven"
)

var _ driven.UpstreamAPI = (*Client)(nil)

// itemProbe pulls the natural-key fields out of a list item without
// committing to a full schema for the payload.
type itemProbe struct {
	SHA       string    `json:"sha"`
	NodeID    string    `json:"node_id"`
	UpdatedAt time.Time `json:"updated_at"`
	Commit    struct {
		Committer struct {
			Date time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

// RepoSnapshot fetches repository details.
func (c *Client) RepoSnapshot(ctx context.Context, repo domain.RepositoryRef, priorETag string) (domain.Snapshot, error) {
	path := fmt.Sprintf("/repos/%s/%s", repo.Owner, repo.Name)

	payload, etag, notModified, err := c.fetchObject(ctx, path, priorETag)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if notModified {
		return domain.Snapshot{ETag: etag, NotModified: true}, nil
	}

	nodeID, _ := payload["node_id"].(string)
	return domain.Snapshot{
		NodeID:  nodeID,
		Payload: payload,
		ETag:    etag,
	}, nil
}

// Commits lists commits, newest first, filtered server-side to those
// committed at or after since when since is non-zero.
func (c *Client) Commits(ctx context.Context, repo domain.RepositoryRef, since time.Time, priorETag string) (domain.Listing, error) {
	path := fmt.Sprintf("/repos/%s/%s/commits", repo.Owner, repo.Name)

	params := url.Values{}
	if !since.IsZero() {
		params.Set("since", since.UTC().Format(time.RFC3339))
	}

	return c.listResource(ctx, path, params, priorETag, func(probe itemProbe) time.Time {
		return probe.Commit.Committer.Date
	})
}

// Issues lists issues in all states, most recently updated first,
// filtered server-side to those updated at or after since when since is
// non-zero. Pull requests surfaced by the issues endpoint are skipped;
// they are listed separately with their own identity.
func (c *Client) Issues(ctx context.Context, repo domain.RepositoryRef, since time.Time, priorETag string) (domain.Listing, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues", repo.Owner, repo.Name)

	params := url.Values{}
	params.Set("state", "all")
	params.Set("sort", "updated")
	params.Set("direction", "desc")
	if !since.IsZero() {
		params.Set("since", since.UTC().Format(time.RFC3339))
	}

	listing, err := c.listResource(ctx, path, params, priorETag, func(probe itemProbe) time.Time {
		return probe.UpdatedAt
	})
	if err != nil {
		return domain.Listing{}, err
	}

	issues := listing.Items[:0]
	for _, item := range listing.Items {
		if _, isPR := item.Payload["pull_request"]; isPR {
			continue
		}
		issues = append(issues, item)
	}
	listing.Items = issues

	return listing, nil
}

// PullRequests lists pull requests in all states, most recently updated
// first. The endpoint ignores the since parameter, so change detection
// rests on the first-page ETag.
func (c *Client) PullRequests(ctx context.Context, repo domain.RepositoryRef, priorETag string) (domain.Listing, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls", repo.Owner, repo.Name)

	params := url.Values{}
	params.Set("state", "all")
	params.Set("sort", "updated")
	params.Set("direction", "desc")

	return c.listResource(ctx, path, params, priorETag, func(probe itemProbe) time.Time {
		return probe.UpdatedAt
	})
}

// listResource runs a paginated conditional fetch and decodes each item
// into an UpstreamItem, using updatedAt to choose the timestamp field for
// the resource type.
func (c *Client) listResource(ctx context.Context, path string, params url.Values, priorETag string, updatedAt func(itemProbe) time.Time) (domain.Listing, error) {
	raws, etag, notModified, err := c.fetchList(ctx, path, params, priorETag)
	if err != nil {
		return domain.Listing{}, err
	}
	if notModified {
		return domain.Listing{ETag: etag, NotModified: true}, nil
	}

	items := make([]domain.UpstreamItem, 0, len(raws))
	for i, raw := range raws {
		var probe itemProbe
		if err := json.Unmarshal(raw, &probe); err != nil {
			return domain.Listing{}, fmt.Errorf("decode %s item %d: %w", path, i, err)
		}

		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err != nil {
			return domain.Listing{}, fmt.Errorf("decode %s item %d: %w", path, i, err)
		}

		items = append(items, domain.UpstreamItem{
			NodeID:    probe.NodeID,
			SHA:       probe.SHA,
			UpdatedAt: updatedAt(probe),
			Payload:   payload,
		})
	}

	return domain.Listing{Items: items, ETag: etag}, nil
}
