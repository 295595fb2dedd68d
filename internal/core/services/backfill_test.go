package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/github-sensor/internal/core/domain"
)

// fakeUpstream serves canned listings keyed by repository full name.
type fakeUpstream struct {
	mu          sync.Mutex
	snapshots   map[string]domain.Snapshot
	commits     map[string]domain.Listing
	issues      map[string]domain.Listing
	pulls       map[string]domain.Listing
	failRepos   map[string]error
	commitSince map[string]time.Time
	etagsSeen   map[string]string
	block       chan struct{}
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		snapshots:   make(map[string]domain.Snapshot),
		commits:     make(map[string]domain.Listing),
		issues:      make(map[string]domain.Listing),
		pulls:       make(map[string]domain.Listing),
		failRepos:   make(map[string]error),
		commitSince: make(map[string]time.Time),
		etagsSeen:   make(map[string]string),
	}
}

func (f *fakeUpstream) RepoSnapshot(ctx context.Context, repo domain.RepositoryRef, priorETag string) (domain.Snapshot, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return domain.Snapshot{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failRepos[repo.FullName()]; err != nil {
		return domain.Snapshot{}, err
	}
	f.etagsSeen["details/"+repo.FullName()] = priorETag
	return f.snapshots[repo.FullName()], nil
}

func (f *fakeUpstream) Commits(_ context.Context, repo domain.RepositoryRef, since time.Time, priorETag string) (domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failRepos[repo.FullName()]; err != nil {
		return domain.Listing{}, err
	}
	f.commitSince[repo.FullName()] = since
	f.etagsSeen["commits/"+repo.FullName()] = priorETag
	return f.commits[repo.FullName()], nil
}

func (f *fakeUpstream) Issues(_ context.Context, repo domain.RepositoryRef, _ time.Time, priorETag string) (domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failRepos[repo.FullName()]; err != nil {
		return domain.Listing{}, err
	}
	f.etagsSeen["issues/"+repo.FullName()] = priorETag
	return f.issues[repo.FullName()], nil
}

func (f *fakeUpstream) PullRequests(_ context.Context, repo domain.RepositoryRef, priorETag string) (domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failRepos[repo.FullName()]; err != nil {
		return domain.Listing{}, err
	}
	f.etagsSeen["pulls/"+repo.FullName()] = priorETag
	return f.pulls[repo.FullName()], nil
}

// fakeCursorStore keeps the cursor set in memory.
type fakeCursorStore struct {
	mu      sync.Mutex
	cursors domain.CursorSet
	saves   int
}

func newFakeCursorStore() *fakeCursorStore {
	return &fakeCursorStore{cursors: make(domain.CursorSet)}
}

func (f *fakeCursorStore) Load(_ context.Context) (domain.CursorSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursors, nil
}

func (f *fakeCursorStore) Save(_ context.Context, cursors domain.CursorSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursors = cursors
	f.saves++
	return nil
}

func backfillFixture(t *testing.T, upstream *fakeUpstream, repos ...string) (*BackfillService, *fakeCursorStore, *fakeProcessor) {
	t.Helper()

	refs := make([]domain.RepositoryRef, 0, len(repos))
	for _, r := range repos {
		ref, err := domain.ParseRepositoryRef(r)
		require.NoError(t, err)
		refs = append(refs, ref)
	}

	store := newFakeCursorStore()
	processor := &fakeProcessor{}
	classifier := NewClassifierService(newFakeCache(), processor)
	svc := NewBackfillService(BackfillConfig{Repositories: refs}, upstream, store, classifier)
	return svc, store, processor
}

func TestRunSweep(t *testing.T) {
	ctx := context.Background()
	repo, err := domain.ParseRepositoryRef("octocat/hello-world")
	require.NoError(t, err)

	t.Run("not modified leaves cursors untouched and emits nothing", func(t *testing.T) {
		upstream := newFakeUpstream()
		upstream.snapshots[repo.FullName()] = domain.Snapshot{ETag: `"d"`, NotModified: true}
		upstream.commits[repo.FullName()] = domain.Listing{ETag: `"c"`, NotModified: true}
		upstream.issues[repo.FullName()] = domain.Listing{ETag: `"i"`, NotModified: true}
		upstream.pulls[repo.FullName()] = domain.Listing{ETag: `"p"`, NotModified: true}

		svc, store, processor := backfillFixture(t, upstream, "octocat/hello-world")
		prior := domain.SyncCursor{ETag: `"c"`, LastUpdate: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)}
		store.cursors.SetCursor(repo, domain.ResourceCommits, prior)

		require.NoError(t, svc.RunSweep(ctx))
		assert.Zero(t, processor.count())
		assert.Equal(t, prior, store.cursors.Cursor(repo, domain.ResourceCommits))
	})

	t.Run("cursor advances to max updated-at", func(t *testing.T) {
		t1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
		t2 := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

		upstream := newFakeUpstream()
		upstream.issues[repo.FullName()] = domain.Listing{
			ETag: `"new-etag"`,
			Items: []domain.UpstreamItem{
				{NodeID: "I_b", UpdatedAt: t2, Payload: map[string]any{"title": "b"}},
				{NodeID: "I_a", UpdatedAt: t1, Payload: map[string]any{"title": "a"}},
			},
		}

		svc, store, processor := backfillFixture(t, upstream, "octocat/hello-world")
		require.NoError(t, svc.RunSweep(ctx))

		cursor := store.cursors.Cursor(repo, domain.ResourceIssues)
		assert.Equal(t, t2, cursor.LastUpdate)
		assert.Equal(t, `"new-etag"`, cursor.ETag)
		// Repo details snapshot (zero value counts as changed) plus two issues.
		assert.Equal(t, 3, processor.count())
	})

	t.Run("empty listing does not advance the timestamp", func(t *testing.T) {
		upstream := newFakeUpstream()
		upstream.issues[repo.FullName()] = domain.Listing{ETag: `"e"`}

		svc, store, _ := backfillFixture(t, upstream, "octocat/hello-world")
		seed := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
		store.cursors.SetCursor(repo, domain.ResourceIssues, domain.SyncCursor{LastUpdate: seed})

		require.NoError(t, svc.RunSweep(ctx))
		assert.Equal(t, seed, store.cursors.Cursor(repo, domain.ResourceIssues).LastUpdate)
	})

	t.Run("first sweep seeds since from the lookback window", func(t *testing.T) {
		upstream := newFakeUpstream()
		svc, _, _ := backfillFixture(t, upstream, "octocat/hello-world")

		require.NoError(t, svc.RunSweep(ctx))

		since := upstream.commitSince[repo.FullName()]
		expected := time.Now().UTC().AddDate(0, 0, -DefaultLookbackDays)
		assert.WithinDuration(t, expected, since, time.Minute)
	})

	t.Run("incremental sweep passes the cursor timestamp and ETag", func(t *testing.T) {
		upstream := newFakeUpstream()
		svc, store, _ := backfillFixture(t, upstream, "octocat/hello-world")

		last := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
		store.cursors.SetCursor(repo, domain.ResourceCommits, domain.SyncCursor{ETag: `"prior"`, LastUpdate: last})

		require.NoError(t, svc.RunSweep(ctx))
		assert.Equal(t, last, upstream.commitSince[repo.FullName()])
		assert.Equal(t, `"prior"`, upstream.etagsSeen["commits/"+repo.FullName()])
	})

	t.Run("one repository failing does not abort the sweep", func(t *testing.T) {
		upstream := newFakeUpstream()
		upstream.failRepos["broken/repo"] = errors.New("boom")
		upstream.issues["octocat/hello-world"] = domain.Listing{
			Items: []domain.UpstreamItem{{NodeID: "I_x", Payload: map[string]any{"n": 1}}},
		}

		svc, store, processor := backfillFixture(t, upstream, "broken/repo", "octocat/hello-world")
		require.NoError(t, svc.RunSweep(ctx))

		assert.Positive(t, processor.count())
		assert.Equal(t, 1, store.saves)
	})

	t.Run("concurrent sweep is rejected", func(t *testing.T) {
		upstream := newFakeUpstream()
		upstream.block = make(chan struct{})

		svc, _, _ := backfillFixture(t, upstream, "octocat/hello-world")

		done := make(chan error, 1)
		go func() { done <- svc.RunSweep(ctx) }()

		// Wait for the first sweep to park inside the upstream call.
		require.Eventually(t, func() bool {
			return errors.Is(svc.RunSweep(ctx), domain.ErrSweepInProgress)
		}, time.Second, 10*time.Millisecond)

		close(upstream.block)
		require.NoError(t, <-done)

		// With the first sweep finished the lock is free again.
		require.NoError(t, svc.RunSweep(ctx))
	})
}

func TestBackfillContents(t *testing.T) {
	ctx := context.Background()
	repo, err := domain.ParseRepositoryRef("octocat/hello-world")
	require.NoError(t, err)

	upstream := newFakeUpstream()
	upstream.commits[repo.FullName()] = domain.Listing{
		Items: []domain.UpstreamItem{{
			SHA:       "deadbeef",
			UpdatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			Payload:   map[string]any{"sha": "deadbeef"},
		}},
	}

	svc, _, processor := backfillFixture(t, upstream, "octocat/hello-world")
	require.NoError(t, svc.RunSweep(ctx))

	var commit *domain.Bundle
	for i := range processor.handled {
		if processor.handled[i].Identity.EventID == "commit_deadbeef" {
			commit = &processor.handled[i]
		}
	}
	require.NotNil(t, commit)
	assert.Equal(t, "backfill_commit", commit.Contents["event_source_type"])
	assert.Equal(t, map[string]any{"sha": "deadbeef"}, commit.Contents["payload"])
}
