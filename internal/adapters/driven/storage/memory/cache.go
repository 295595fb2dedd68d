// Package memory provides in-memory implementations of the storage ports,
// used in tests and for running the sensor without durable state.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/github-sensor/internal/core/domain"
	"github.com/custodia-labs/github-sensor/internal/core/ports/driven"
)

// Ensure BundleCache implements the interface.
var _ driven.BundleCache = (*BundleCache)(nil)

// BundleCache is an in-memory implementation of driven.BundleCache.
type BundleCache struct {
	mu      sync.RWMutex
	records map[string]domain.PriorRecord
}

// NewBundleCache creates a new in-memory bundle cache.
func NewBundleCache() *BundleCache {
	return &BundleCache{
		records: make(map[string]domain.PriorRecord),
	}
}

// Read retrieves the prior record for an identity.
func (c *BundleCache) Read(_ context.Context, identity domain.EventIdentity) (*domain.PriorRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.records[identity.Reference()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

// Write stores or replaces the record for a bundle's identity.
func (c *BundleCache) Write(_ context.Context, bundle domain.Bundle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[bundle.Identity.Reference()] = domain.PriorRecord{
		ContentHash: bundle.ContentHash,
		Timestamp:   bundle.Timestamp,
	}
	return nil
}

// Len returns the number of stored records.
func (c *BundleCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
