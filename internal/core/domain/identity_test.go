package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRepositoryRef(t *testing.T) {
	t.Run("accepts valid owner and name", func(t *testing.T) {
		repo, err := NewRepositoryRef("octocat", "hello-world")
		require.NoError(t, err)
		assert.Equal(t, "octocat/hello-world", repo.FullName())
	})

	t.Run("rejects empty owner", func(t *testing.T) {
		_, err := NewRepositoryRef("", "repo")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewRepositoryRef("owner", "")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects slash in owner", func(t *testing.T) {
		_, err := NewRepositoryRef("own/er", "repo")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestParseRepositoryRef(t *testing.T) {
	t.Run("parses canonical form", func(t *testing.T) {
		repo, err := ParseRepositoryRef("octocat/hello-world")
		require.NoError(t, err)
		assert.Equal(t, "octocat", repo.Owner)
		assert.Equal(t, "hello-world", repo.Name)
	})

	t.Run("rejects missing slash", func(t *testing.T) {
		_, err := ParseRepositoryRef("octocat")
		assert.ErrorIs(t, err, ErrMalformedIdentity)
	})

	t.Run("rejects extra slash", func(t *testing.T) {
		_, err := ParseRepositoryRef("a/b/c")
		assert.ErrorIs(t, err, ErrMalformedIdentity)
	})
}

func TestNewEventIdentity(t *testing.T) {
	repo := RepositoryRef{Owner: "octocat", Name: "hello-world"}

	t.Run("accepts a natural key", func(t *testing.T) {
		id, err := NewEventIdentity(repo, "commit_abc123")
		require.NoError(t, err)
		assert.Equal(t, "octocat/hello-world:commit_abc123", id.Reference())
	})

	t.Run("rejects empty event ID", func(t *testing.T) {
		_, err := NewEventIdentity(repo, "")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects separator in event ID", func(t *testing.T) {
		_, err := NewEventIdentity(repo, "a:b")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects incomplete repository", func(t *testing.T) {
		_, err := NewEventIdentity(RepositoryRef{Owner: "octocat"}, "x")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("identical inputs yield equal identities", func(t *testing.T) {
		a, err := NewEventIdentity(repo, "issue_MDU6SXNzdWUx")
		require.NoError(t, err)
		b, err := NewEventIdentity(repo, "issue_MDU6SXNzdWUx")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestParseEventReference(t *testing.T) {
	t.Run("round-trips a valid identity", func(t *testing.T) {
		id, err := NewEventIdentity(RepositoryRef{Owner: "octocat", Name: "hello-world"}, "pr_MDExOlB1bGxSZXF1ZXN0MQ")
		require.NoError(t, err)

		parsed, err := ParseEventReference(id.Reference())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})

	t.Run("rejects missing separator", func(t *testing.T) {
		_, err := ParseEventReference("octocat/hello-world")
		assert.ErrorIs(t, err, ErrMalformedIdentity)
	})

	t.Run("rejects multiple separators", func(t *testing.T) {
		_, err := ParseEventReference("octocat/hello-world:a:b")
		assert.ErrorIs(t, err, ErrMalformedIdentity)
	})

	t.Run("rejects repository part without slash", func(t *testing.T) {
		_, err := ParseEventReference("octocat:event1")
		assert.ErrorIs(t, err, ErrMalformedIdentity)
	})

	t.Run("rejects empty event ID part", func(t *testing.T) {
		_, err := ParseEventReference("octocat/hello-world:")
		assert.ErrorIs(t, err, ErrMalformedIdentity)
	})
}

func TestFallbackEventID(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		a := FallbackEventID("push", "refs/heads/main", "abc", "def")
		b := FallbackEventID("push", "refs/heads/main", "abc", "def")
		assert.Equal(t, a, b)
	})

	t.Run("has the configured length", func(t *testing.T) {
		id := FallbackEventID("x")
		assert.Len(t, id, FallbackIDLength)
	})

	t.Run("differs for different field values", func(t *testing.T) {
		a := FallbackEventID("push", "refs/heads/main")
		b := FallbackEventID("push", "refs/heads/dev")
		assert.NotEqual(t, a, b)
	})

	t.Run("is sensitive to field order", func(t *testing.T) {
		a := FallbackEventID("a", "b")
		b := FallbackEventID("b", "a")
		assert.NotEqual(t, a, b)
	})
}

func TestFallbackIdentity(t *testing.T) {
	repo := RepositoryRef{Owner: "octocat", Name: "hello-world"}

	id, err := FallbackIdentity(repo, "star", "12345", "678", "2024-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, repo, id.Repo)
	assert.Len(t, id.EventID, FallbackIDLength)
}
