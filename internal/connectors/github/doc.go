// Package github implements the upstream connector for the GitHub REST API
// and the normaliser for GitHub webhook deliveries.
//
// # Architecture
//
// The package provides the driven side of ingestion. It comprises the
// following components:
//
//   - Client: handles GitHub API communication with conditional requests,
//     pagination, and rate limiting. Implements [driven.UpstreamAPI].
//   - Normalizer: converts raw webhook deliveries into candidate events.
//     Implements [driven.WebhookNormalizer].
//
// # Conditional Requests
//
// Every resource fetch carries the ETag recorded from the previous fetch of
// the same resource in an If-None-Match header. A 304 Not Modified response
// short-circuits the fetch: no items are returned, the stored ETag is kept,
// and the caller is told nothing changed. Conditional requests that return
// 304 do not count against the API quota.
//
// For paginated resources only the first page is conditional. Subsequent
// pages are fetched unconditionally until one of the termination conditions
// is met: an empty page, a page shorter than the requested size, a Link
// header without a "next" relation, or the hard page cap.
//
// # Rate Limiting
//
// The client implements a dual-strategy rate limiting approach:
//
//  1. Proactive throttling: a token bucket limits requests to approximately
//     1.2 requests per second, staying well under the 5,000/hour limit.
//
//  2. Reactive handling: the client monitors X-RateLimit-Remaining and
//     X-RateLimit-Reset headers. When the remaining quota drops below a
//     buffer, it waits until the reset time before continuing.
//
// # Webhook Normalisation
//
// The normaliser gives push, issues, and pull_request deliveries typed
// treatment; every other event type with a repository in its payload goes
// through a generic path. Identity derivation prefers the delivery
// identifier, then a natural key from the payload, then a content hash.
// Deliveries without a resolvable repository are rejected with a
// [NormalizationError].
package github
