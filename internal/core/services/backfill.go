package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/github-sensor/internal/core/domain"
	"github.com/custodia-labs/github-sensor/internal/core/ports/driven"
	"github.com/custodia-labs/github-sensor/internal/core/ports/driving"
	"github.com/custodia-labs/github-sensor/internal/logger"
)

// DefaultLookbackDays bounds the initial backfill window when a
// repository has no cursor yet.
const DefaultLookbackDays = 30

// Ensure BackfillService implements the interface.
var _ driving.BackfillRunner = (*BackfillService)(nil)

// BackfillConfig holds the sweep parameters.
type BackfillConfig struct {
	// Repositories is the set of repositories to reconcile.
	Repositories []domain.RepositoryRef

	// LookbackDays seeds the since-timestamp for commits and issues when
	// no cursor exists. Zero falls back to DefaultLookbackDays.
	LookbackDays int
}

// BackfillService reconciles repository state by polling the upstream API
// and feeding every listed item through the classifier. It exclusively
// owns the sync cursors; the webhook path never touches them.
type BackfillService struct {
	cfg        BackfillConfig
	upstream   driven.UpstreamAPI
	store      driven.CursorStore
	classifier driving.EventClassifier

	mu      sync.Mutex
	running bool
}

// NewBackfillService creates a new backfill service.
func NewBackfillService(
	cfg BackfillConfig,
	upstream driven.UpstreamAPI,
	store driven.CursorStore,
	classifier driving.EventClassifier,
) *BackfillService {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	return &BackfillService{
		cfg:        cfg,
		upstream:   upstream,
		store:      store,
		classifier: classifier,
	}
}

// RunSweep runs one reconciliation sweep over all configured
// repositories. Sweeps are single-flight: a second concurrent call fails
// with domain.ErrSweepInProgress. A repository failure is logged and the
// sweep continues with the next repository; cursors are saved once at the
// end so a crashed sweep loses only its own progress.
func (s *BackfillService) RunSweep(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return domain.ErrSweepInProgress
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	runID := uuid.NewString()[:8]
	logger.Info("Backfill sweep %s starting (%d repositories)", runID, len(s.cfg.Repositories))

	cursors, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cursors: %w", err)
	}
	if cursors == nil {
		cursors = make(domain.CursorSet)
	}

	var failed int
	for _, repo := range s.cfg.Repositories {
		if ctx.Err() != nil {
			break
		}
		if err := s.sweepRepository(ctx, repo, cursors); err != nil {
			failed++
			logger.Error("Backfill sweep %s: repository %s: %v", runID, repo.FullName(), err)
		}
	}

	if err := s.store.Save(ctx, cursors); err != nil {
		return fmt.Errorf("save cursors: %w", err)
	}

	logger.Info("Backfill sweep %s finished (%d repositories, %d failed)",
		runID, len(s.cfg.Repositories), failed)

	return ctx.Err()
}

// sweepRepository reconciles every tracked resource of one repository.
// One resource's failure does not abort the others.
func (s *BackfillService) sweepRepository(ctx context.Context, repo domain.RepositoryRef, cursors domain.CursorSet) error {
	var errs []error

	if err := s.sweepDetails(ctx, repo, cursors); err != nil {
		errs = append(errs, fmt.Errorf("repo details: %w", err))
	}
	if err := s.sweepCommits(ctx, repo, cursors); err != nil {
		errs = append(errs, fmt.Errorf("commits: %w", err))
	}
	if err := s.sweepIssues(ctx, repo, cursors); err != nil {
		errs = append(errs, fmt.Errorf("issues: %w", err))
	}
	if err := s.sweepPulls(ctx, repo, cursors); err != nil {
		errs = append(errs, fmt.Errorf("pulls: %w", err))
	}

	return errors.Join(errs...)
}

func (s *BackfillService) sweepDetails(ctx context.Context, repo domain.RepositoryRef, cursors domain.CursorSet) error {
	cursor := cursors.Cursor(repo, domain.ResourceRepoDetails)

	snap, err := s.upstream.RepoSnapshot(ctx, repo, cursor.ETag)
	if err != nil {
		return err
	}
	if snap.NotModified {
		logger.Debug("Repo details unchanged for %s", repo.FullName())
		return nil
	}

	eventID := "details_" + snap.NodeID
	if snap.NodeID == "" {
		eventID = domain.FallbackEventID("repo_details", repo.FullName())
	}

	if err := s.classifyItem(ctx, repo, eventID, "backfill_repo_details", snap.Payload); err != nil {
		return err
	}

	cursor.ETag = snap.ETag
	cursors.SetCursor(repo, domain.ResourceRepoDetails, cursor)
	return nil
}

func (s *BackfillService) sweepCommits(ctx context.Context, repo domain.RepositoryRef, cursors domain.CursorSet) error {
	cursor := cursors.Cursor(repo, domain.ResourceCommits)
	since := s.sinceFor(cursor)

	listing, err := s.upstream.Commits(ctx, repo, since, cursor.ETag)
	if err != nil {
		return err
	}
	if listing.NotModified {
		logger.Debug("Commits unchanged for %s", repo.FullName())
		return nil
	}

	s.processListing(ctx, repo, listing, &cursor, func(item domain.UpstreamItem) string {
		if item.SHA == "" {
			return ""
		}
		return "commit_" + item.SHA
	}, "backfill_commit")

	cursor.ETag = listing.ETag
	cursors.SetCursor(repo, domain.ResourceCommits, cursor)
	return nil
}

func (s *BackfillService) sweepIssues(ctx context.Context, repo domain.RepositoryRef, cursors domain.CursorSet) error {
	cursor := cursors.Cursor(repo, domain.ResourceIssues)
	since := s.sinceFor(cursor)

	listing, err := s.upstream.Issues(ctx, repo, since, cursor.ETag)
	if err != nil {
		return err
	}
	if listing.NotModified {
		logger.Debug("Issues unchanged for %s", repo.FullName())
		return nil
	}

	s.processListing(ctx, repo, listing, &cursor, func(item domain.UpstreamItem) string {
		if item.NodeID == "" {
			return ""
		}
		return "issue_" + item.NodeID
	}, "backfill_issue")

	cursor.ETag = listing.ETag
	cursors.SetCursor(repo, domain.ResourceIssues, cursor)
	return nil
}

// sweepPulls lists pull requests without a since filter: the endpoint has
// none, so change detection rests on the first-page ETag and re-fetched
// unchanged PRs are suppressed by the classifier.
func (s *BackfillService) sweepPulls(ctx context.Context, repo domain.RepositoryRef, cursors domain.CursorSet) error {
	cursor := cursors.Cursor(repo, domain.ResourcePulls)

	listing, err := s.upstream.PullRequests(ctx, repo, cursor.ETag)
	if err != nil {
		return err
	}
	if listing.NotModified {
		logger.Debug("Pull requests unchanged for %s", repo.FullName())
		return nil
	}

	s.processListing(ctx, repo, listing, &cursor, func(item domain.UpstreamItem) string {
		if item.NodeID == "" {
			return ""
		}
		return "pr_" + item.NodeID
	}, "backfill_pull_request")

	cursor.ETag = listing.ETag
	cursors.SetCursor(repo, domain.ResourcePulls, cursor)
	return nil
}

// processListing classifies every item of a listing and advances the
// cursor's LastUpdate to the maximum updated-at seen. The cursor only
// moves when at least one item was listed, so an empty result never
// regresses or fabricates progress. A single item's failure is logged and
// the rest of the listing still processes.
func (s *BackfillService) processListing(
	ctx context.Context,
	repo domain.RepositoryRef,
	listing domain.Listing,
	cursor *domain.SyncCursor,
	eventID func(domain.UpstreamItem) string,
	sourceType string,
) {
	maxUpdated := cursor.LastUpdate

	for _, item := range listing.Items {
		id := eventID(item)
		if id == "" {
			digest, err := domain.CanonicalDigest(item.Payload)
			if err != nil {
				logger.Warn("Skipping %s item in %s with no natural key: %v", sourceType, repo.FullName(), err)
				continue
			}
			id = domain.FallbackEventID(sourceType, digest)
		}

		if err := s.classifyItem(ctx, repo, id, sourceType, item.Payload); err != nil {
			logger.Warn("Backfill item %s/%s failed: %v", repo.FullName(), id, err)
			continue
		}

		if item.UpdatedAt.After(maxUpdated) {
			maxUpdated = item.UpdatedAt
		}
	}

	if len(listing.Items) > 0 {
		cursor.LastUpdate = maxUpdated
	}
}

// classifyItem wraps one backfilled payload as a candidate and runs it
// through the classifier. Backfilled candidates carry no hint.
func (s *BackfillService) classifyItem(ctx context.Context, repo domain.RepositoryRef, eventID, sourceType string, payload map[string]any) error {
	identity, err := domain.NewEventIdentity(repo, eventID)
	if err != nil {
		return fmt.Errorf("build identity: %w", err)
	}

	contents := map[string]any{
		"event_source_type": sourceType,
		"payload":           payload,
	}

	candidate, err := domain.NewCandidate(identity, contents, domain.SourceBackfill, nil)
	if err != nil {
		return fmt.Errorf("build candidate: %w", err)
	}

	_, err = s.classifier.Process(ctx, candidate)
	return err
}

// sinceFor derives the incremental since-timestamp: the cursor's last
// update when present, otherwise the configured lookback window.
func (s *BackfillService) sinceFor(cursor domain.SyncCursor) time.Time {
	if !cursor.LastUpdate.IsZero() {
		return cursor.LastUpdate
	}
	return time.Now().UTC().AddDate(0, 0, -s.cfg.LookbackDays)
}
