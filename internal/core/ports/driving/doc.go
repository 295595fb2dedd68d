// Package driving defines the interfaces through which the outside world
// invokes the core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// Core services implement them; the HTTP server and CLI commands call them.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driving
