// Package domain defines the core business entities for the GitHub sensor.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RepositoryRef: A monitored repository (owner/name)
//   - EventIdentity: The unique key for one change event in one repository
//   - CandidateEvent: An ingested item awaiting classification
//   - ClassifiedEvent: A candidate with its NEW/UPDATE/SUPPRESSED outcome
//   - Bundle: Identity + contents + content hash, as accepted downstream
//   - SyncCursor: Per-repository, per-resource incremental sync state
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
