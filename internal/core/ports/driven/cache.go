package driven

import (
	"context"

	"github.com/custodia-labs/github-sensor/internal/core/domain"
)

// BundleCache is the durable record store consulted during deduplication.
// It is assumed strongly consistent for a single identity within one
// process.
type BundleCache interface {
	// Read returns the prior record for an identity, or domain.ErrNotFound
	// when the identity has never been accepted.
	Read(ctx context.Context, identity domain.EventIdentity) (*domain.PriorRecord, error)

	// Write persists an accepted bundle, replacing any prior record for
	// the same identity.
	Write(ctx context.Context, bundle domain.Bundle) error
}
