package driven

import (
	"github.com/custodia-labs/github-sensor/internal/core/domain"
)

// WebhookNormalizer validates and maps one webhook delivery into a
// candidate event. A missing delivery ID means "no natural key available",
// not an error. Failures are *NormalizationError values from the
// implementing connector; a failed delivery is dropped, never retried.
type WebhookNormalizer interface {
	Normalize(eventType, deliveryID string, payload []byte) (domain.CandidateEvent, error)
}
