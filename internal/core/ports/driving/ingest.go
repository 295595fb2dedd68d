package driving

import (
	"context"

	"github.com/custodia-labs/github-sensor/internal/core/domain"
)

// EventClassifier decides NEW/UPDATE/SUPPRESSED for a candidate and
// forwards accepted events downstream. Safe for concurrent use.
type EventClassifier interface {
	// Classify decides the outcome without side effects on the processor.
	Classify(ctx context.Context, candidate domain.CandidateEvent) domain.ClassifiedEvent

	// Process classifies and, unless suppressed, hands the event to the
	// downstream processor.
	Process(ctx context.Context, candidate domain.CandidateEvent) (domain.ClassifiedEvent, error)
}

// WebhookIngestor handles one inbound webhook delivery end to end:
// normalization, classification and forwarding. Invocations are fully
// concurrent with each other and with any in-flight backfill sweep.
type WebhookIngestor interface {
	HandleDelivery(ctx context.Context, eventType, deliveryID string, payload []byte) (domain.ClassifiedEvent, error)
}

// BackfillRunner drives pull-based reconciliation sweeps. RunSweep is
// single-flight: a second concurrent call fails with
// domain.ErrSweepInProgress.
type BackfillRunner interface {
	RunSweep(ctx context.Context) error
}
