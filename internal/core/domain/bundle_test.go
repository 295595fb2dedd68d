package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalDigest(t *testing.T) {
	t.Run("ignores source field ordering", func(t *testing.T) {
		var a, b map[string]any
		require.NoError(t, json.Unmarshal([]byte(`{"x":1,"y":{"p":true,"q":"s"}}`), &a))
		require.NoError(t, json.Unmarshal([]byte(`{"y":{"q":"s","p":true},"x":1}`), &b))

		da, err := CanonicalDigest(a)
		require.NoError(t, err)
		db, err := CanonicalDigest(b)
		require.NoError(t, err)
		assert.Equal(t, da, db)
	})

	t.Run("differs when a value changes", func(t *testing.T) {
		da, err := CanonicalDigest(map[string]any{"state": "open"})
		require.NoError(t, err)
		db, err := CanonicalDigest(map[string]any{"state": "closed"})
		require.NoError(t, err)
		assert.NotEqual(t, da, db)
	})

	t.Run("is stable across calls", func(t *testing.T) {
		v := map[string]any{"n": 42, "nested": map[string]any{"k": []any{"a", "b"}}}
		da, err := CanonicalDigest(v)
		require.NoError(t, err)
		db, err := CanonicalDigest(v)
		require.NoError(t, err)
		assert.Equal(t, da, db)
	})
}

func TestNewBundle(t *testing.T) {
	repo := RepositoryRef{Owner: "octocat", Name: "hello-world"}
	id, err := NewEventIdentity(repo, "commit_abc")
	require.NoError(t, err)

	bundle, err := NewBundle(id, map[string]any{"payload": map[string]any{"sha": "abc"}})
	require.NoError(t, err)

	assert.Equal(t, id, bundle.Identity)
	assert.NotEmpty(t, bundle.ContentHash)
	assert.False(t, bundle.Timestamp.IsZero())
}

func TestCandidateEvent_Bundle(t *testing.T) {
	repo := RepositoryRef{Owner: "octocat", Name: "hello-world"}
	id, err := NewEventIdentity(repo, "issue_node1")
	require.NoError(t, err)

	cand, err := NewCandidate(id, map[string]any{"k": "v"}, SourceWebhook, HintFor("opened"))
	require.NoError(t, err)

	bundle := cand.Bundle()
	assert.Equal(t, cand.Identity, bundle.Identity)
	assert.Equal(t, cand.ContentHash, bundle.ContentHash)
}

func TestHintFor(t *testing.T) {
	assert.Equal(t, ClassificationNew, *HintFor("opened"))
	assert.Equal(t, ClassificationUpdate, *HintFor("closed"))
	assert.Equal(t, ClassificationUpdate, *HintFor("labeled"))
	assert.Equal(t, ClassificationNew, *HintNew())
}
