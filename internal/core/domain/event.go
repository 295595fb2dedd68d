package domain

// Classification is the outcome assigned to a candidate event after
// comparison with prior stored state.
type Classification string

const (
	// ClassificationNew marks previously-unseen content.
	ClassificationNew Classification = "NEW"

	// ClassificationUpdate marks a modification of known content.
	ClassificationUpdate Classification = "UPDATE"

	// ClassificationSuppressed marks content identical to the last known
	// record. Suppressed events are never forwarded downstream.
	ClassificationSuppressed Classification = "SUPPRESSED"
)

// SourceType identifies which ingestion channel produced a candidate.
type SourceType string

const (
	// SourceWebhook marks events from the push-based webhook feed.
	SourceWebhook SourceType = "webhook"

	// SourceBackfill marks events from the pull-based polling sweep.
	SourceBackfill SourceType = "backfill"
)

// CandidateEvent is one ingested item awaiting classification. It is
// transient: constructed per item and consumed immediately by the
// classifier, never persisted by the core itself.
type CandidateEvent struct {
	Identity EventIdentity

	// Contents is the structured payload the event carries downstream.
	Contents map[string]any

	// ContentHash is the canonical digest of Contents.
	ContentHash string

	Source SourceType

	// Hint is the advisory NEW/UPDATE classification derived from webhook
	// payload semantics (the "action" field). Nil for backfilled items.
	// The classifier may override it.
	Hint *Classification
}

// NewCandidate builds a CandidateEvent, computing the canonical content
// hash over the given contents.
func NewCandidate(identity EventIdentity, contents map[string]any, source SourceType, hint *Classification) (CandidateEvent, error) {
	hash, err := CanonicalDigest(contents)
	if err != nil {
		return CandidateEvent{}, err
	}
	return CandidateEvent{
		Identity:    identity,
		Contents:    contents,
		ContentHash: hash,
		Source:      source,
		Hint:        hint,
	}, nil
}

// HintFor maps a webhook "action" value to an advisory classification:
// "opened" means NEW, every other action means UPDATE.
func HintFor(action string) *Classification {
	c := ClassificationUpdate
	if action == "opened" {
		c = ClassificationNew
	}
	return &c
}

// HintNew returns an advisory NEW hint, used for payloads with no action
// field (pushes, generic events).
func HintNew() *Classification {
	c := ClassificationNew
	return &c
}

// ClassifiedEvent is a CandidateEvent with its final classification.
// Terminal: once classified it is handed to the processor (unless
// suppressed) and the core's responsibility ends.
type ClassifiedEvent struct {
	CandidateEvent
	Classification Classification
}

// Suppressed reports whether the event was suppressed as unchanged.
func (e ClassifiedEvent) Suppressed() bool {
	return e.Classification == ClassificationSuppressed
}
