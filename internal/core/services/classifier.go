package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/github-sensor/internal/core/domain"
	"github.com/custodia-labs/github-sensor/internal/core/ports/driven"
	"github.com/custodia-labs/github-sensor/internal/core/ports/driving"
	"github.com/custodia-labs/github-sensor/internal/logger"
)

// Ensure ClassifierService implements the interface.
var _ driving.EventClassifier = (*ClassifierService)(nil)

// ClassifierService deduplicates candidate events against the bundle
// cache and forwards accepted events downstream.
type ClassifierService struct {
	cache     driven.BundleCache
	processor driven.EventProcessor
}

// NewClassifierService creates a new classifier service.
func NewClassifierService(cache driven.BundleCache, processor driven.EventProcessor) *ClassifierService {
	return &ClassifierService{
		cache:     cache,
		processor: processor,
	}
}

// Classify decides the outcome for a candidate without side effects on
// the processor.
//
// A cache read failure is treated as "no prior record": the candidate
// classifies NEW and a duplicate may be emitted, which downstream
// consumers tolerate better than a silently dropped change.
func (s *ClassifierService) Classify(ctx context.Context, candidate domain.CandidateEvent) domain.ClassifiedEvent {
	reference := candidate.Identity.Reference()

	prior, err := s.cache.Read(ctx, candidate.Identity)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Cache read failed for %s, classifying as new: %v", reference, err)
		}
		return domain.ClassifiedEvent{CandidateEvent: candidate, Classification: domain.ClassificationNew}
	}

	if prior.ContentHash == candidate.ContentHash {
		return domain.ClassifiedEvent{CandidateEvent: candidate, Classification: domain.ClassificationSuppressed}
	}

	// Content changed, so this is an update no matter what the webhook
	// action suggested. An "opened" hint against an existing record means
	// the delivery arrived out of order or a prior run already backfilled
	// the item.
	if candidate.Hint != nil && *candidate.Hint == domain.ClassificationNew {
		logger.Warn("Event %s hinted new but a prior record exists (recorded %s), classifying as update",
			reference, prior.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	}

	return domain.ClassifiedEvent{CandidateEvent: candidate, Classification: domain.ClassificationUpdate}
}

// Process classifies a candidate and, unless it is suppressed, hands the
// resulting bundle to the downstream processor.
func (s *ClassifierService) Process(ctx context.Context, candidate domain.CandidateEvent) (domain.ClassifiedEvent, error) {
	classified := s.Classify(ctx, candidate)

	if classified.Suppressed() {
		logger.Debug("Suppressed unchanged event %s", candidate.Identity.Reference())
		return classified, nil
	}

	if err := s.processor.Handle(ctx, classified.Bundle(), classified.Classification); err != nil {
		return classified, fmt.Errorf("process event %s: %w", candidate.Identity.Reference(), err)
	}

	logger.Debug("Accepted %s event %s from %s",
		classified.Classification, candidate.Identity.Reference(), candidate.Source)

	return classified, nil
}
