package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// ReferenceSeparator joins the repository part and the event ID in a
	// serialized event reference ("owner/name:event_id").
	ReferenceSeparator = ":"

	// FallbackIDLength is the number of hex characters kept from the
	// SHA-256 fallback digest. 16 hex chars give 64 bits of entropy,
	// acceptable inside a single-repository namespace but not globally
	// unique. Tunable.
	FallbackIDLength = 16

	// FallbackFieldSeparator joins discriminator fields before hashing.
	FallbackFieldSeparator = "_"
)

// RepositoryRef names a GitHub repository. The canonical string form is
// "owner/name". Values are constructed once and never mutated.
type RepositoryRef struct {
	Owner string
	Name  string
}

// NewRepositoryRef constructs a RepositoryRef, rejecting owners or names
// that are empty or contain the path separator.
func NewRepositoryRef(owner, name string) (RepositoryRef, error) {
	if owner == "" || name == "" {
		return RepositoryRef{}, fmt.Errorf("%w: repository owner and name must be non-empty", ErrInvalidInput)
	}
	if strings.Contains(owner, "/") || strings.Contains(name, "/") {
		return RepositoryRef{}, fmt.Errorf("%w: repository owner and name must not contain '/'", ErrInvalidInput)
	}
	return RepositoryRef{Owner: owner, Name: name}, nil
}

// ParseRepositoryRef parses the canonical "owner/name" form.
func ParseRepositoryRef(s string) (RepositoryRef, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return RepositoryRef{}, fmt.Errorf("%w: repository %q, expected 'owner/name'", ErrMalformedIdentity, s)
	}
	return NewRepositoryRef(parts[0], parts[1])
}

// FullName returns the canonical "owner/name" form.
func (r RepositoryRef) FullName() string {
	return r.Owner + "/" + r.Name
}

func (r RepositoryRef) String() string {
	return r.FullName()
}

// EventIdentity is the unique key for one change event scoped to one
// repository. Two identities are equal iff both fields match exactly.
type EventIdentity struct {
	Repo    RepositoryRef
	EventID string
}

// NewEventIdentity constructs an EventIdentity. The event ID must be
// non-empty and must not contain the reference separator, so that the
// serialized form stays unambiguous.
func NewEventIdentity(repo RepositoryRef, eventID string) (EventIdentity, error) {
	if eventID == "" {
		return EventIdentity{}, fmt.Errorf("%w: event ID must be non-empty", ErrInvalidInput)
	}
	if strings.Contains(eventID, ReferenceSeparator) {
		return EventIdentity{}, fmt.Errorf("%w: event ID %q must not contain %q", ErrInvalidInput, eventID, ReferenceSeparator)
	}
	if repo.Owner == "" || repo.Name == "" {
		return EventIdentity{}, fmt.Errorf("%w: repository must be fully specified", ErrInvalidInput)
	}
	return EventIdentity{Repo: repo, EventID: eventID}, nil
}

// Reference returns the serialized form "owner/name:event_id".
func (id EventIdentity) Reference() string {
	return id.Repo.FullName() + ReferenceSeparator + id.EventID
}

func (id EventIdentity) String() string {
	return id.Reference()
}

// ParseEventReference is the inverse of Reference. It rejects any string
// without exactly one separator, or whose repository part is not
// "owner/name", or whose event ID part is empty.
func ParseEventReference(s string) (EventIdentity, error) {
	if strings.Count(s, ReferenceSeparator) != 1 {
		return EventIdentity{}, fmt.Errorf("%w: %q, expected 'owner/name%sevent_id'", ErrMalformedIdentity, s, ReferenceSeparator)
	}
	parts := strings.SplitN(s, ReferenceSeparator, 2)
	repo, err := ParseRepositoryRef(parts[0])
	if err != nil {
		return EventIdentity{}, fmt.Errorf("%w: repository part of %q", ErrMalformedIdentity, s)
	}
	if parts[1] == "" {
		return EventIdentity{}, fmt.Errorf("%w: empty event ID in %q", ErrMalformedIdentity, s)
	}
	return EventIdentity{Repo: repo, EventID: parts[1]}, nil
}

// FallbackEventID derives a deterministic event ID when no natural key is
// available or the natural key is degenerate. The ordered discriminator
// fields are joined with a fixed separator and SHA-256 hashed; the first
// FallbackIDLength hex characters form the ID.
func FallbackEventID(fields ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(fields, FallbackFieldSeparator)))
	return hex.EncodeToString(sum[:])[:FallbackIDLength]
}

// FallbackIdentity builds an EventIdentity from the deterministic fallback
// hash of the given discriminator fields.
func FallbackIdentity(repo RepositoryRef, fields ...string) (EventIdentity, error) {
	return NewEventIdentity(repo, FallbackEventID(fields...))
}
