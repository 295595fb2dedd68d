// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
//   - BundleCache: persisted prior-record store for deduplication
//   - CursorStore: durable per-repository sync cursor persistence
//   - EventProcessor: the downstream event sink
//   - UpstreamAPI: conditional fetches against the GitHub REST API
//   - WebhookNormalizer: payload-to-candidate mapping for webhook deliveries
//   - TokenProvider: API credential source
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
