package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/github-sensor/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/github-sensor/internal/core/domain"
)

func TestLocalProcessorHandle(t *testing.T) {
	ctx := context.Background()

	repo, err := domain.NewRepositoryRef("octocat", "hello-world")
	require.NoError(t, err)
	identity, err := domain.NewEventIdentity(repo, "e1")
	require.NoError(t, err)
	bundle, err := domain.NewBundle(identity, map[string]any{"a": 1})
	require.NoError(t, err)

	cache := memory.NewBundleCache()
	p := NewLocalProcessor(cache)

	require.NoError(t, p.Handle(ctx, bundle, domain.ClassificationNew))

	record, err := cache.Read(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, bundle.ContentHash, record.ContentHash)
}
