// Package processor provides the downstream sink for accepted events.
// The local processor records bundles in the bundle cache and logs them;
// it stands in for whatever network substrate eventually consumes the
// event stream.
package processor

import (
	"context"
	"fmt"

	"github.com/custodia-labs/github-sensor/internal/core/domain"
	"github.com/custodia-labs/github-sensor/internal/core/ports/driven"
	"github.com/custodia-labs/github-sensor/internal/logger"
)

// Ensure LocalProcessor implements the interface.
var _ driven.EventProcessor = (*LocalProcessor)(nil)

// LocalProcessor accepts event bundles by persisting them to the bundle
// cache. The write doubles as the dedup record: the next identical
// candidate for the same identity is suppressed by the classifier.
type LocalProcessor struct {
	cache driven.BundleCache
}

// NewLocalProcessor creates a processor that persists accepted bundles.
func NewLocalProcessor(cache driven.BundleCache) *LocalProcessor {
	return &LocalProcessor{cache: cache}
}

// Handle persists one accepted bundle.
func (p *LocalProcessor) Handle(ctx context.Context, bundle domain.Bundle, classification domain.Classification) error {
	if err := p.cache.Write(ctx, bundle); err != nil {
		return fmt.Errorf("store bundle %s: %w", bundle.Identity.Reference(), err)
	}

	logger.Info("Stored %s event %s (hash %.12s)",
		classification, bundle.Identity.Reference(), bundle.ContentHash)
	return nil
}
