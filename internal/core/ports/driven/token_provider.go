package driven

import "context"

// TokenProvider supplies the API credential for upstream requests.
// An empty token is valid: GitHub permits low-rate unauthenticated access,
// so callers log the absence and proceed.
type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
}
