package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Bundle pairs an event's identity with its contents and a derived content
// hash, in the shape the downstream cache and processor accept.
type Bundle struct {
	Identity    EventIdentity
	Contents    map[string]any
	ContentHash string
	Timestamp   time.Time
}

// NewBundle generates a Bundle, computing the canonical content hash and
// stamping the current time.
func NewBundle(identity EventIdentity, contents map[string]any) (Bundle, error) {
	hash, err := CanonicalDigest(contents)
	if err != nil {
		return Bundle{}, err
	}
	return Bundle{
		Identity:    identity,
		Contents:    contents,
		ContentHash: hash,
		Timestamp:   time.Now().UTC(),
	}, nil
}

// Bundle converts an accepted candidate into the downstream bundle shape,
// reusing the already-computed content hash.
func (e CandidateEvent) Bundle() Bundle {
	return Bundle{
		Identity:    e.Identity,
		Contents:    e.Contents,
		ContentHash: e.ContentHash,
		Timestamp:   time.Now().UTC(),
	}
}

// PriorRecord is what the cache remembers about the last accepted bundle
// for an identity.
type PriorRecord struct {
	ContentHash string
	Timestamp   time.Time
}

// CanonicalDigest computes the SHA-256 hex digest of a canonical JSON
// serialization of v. The value is round-tripped through encoding/json so
// that map keys are emitted in sorted order and numbers take a single
// stable formatting; semantically identical payloads hash identically
// regardless of field-ordering variance from the upstream source.
func CanonicalDigest(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonical digest: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return "", fmt.Errorf("canonical digest: %w", err)
	}
	canonical, err := json.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("canonical digest: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
