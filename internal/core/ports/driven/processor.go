package driven

import (
	"context"

	"github.com/custodia-labs/github-sensor/internal/core/domain"
)

// EventProcessor is the downstream sink for accepted events. Suppressed
// events never reach it. From the core's perspective the call is
// fire-and-forget: the processor owns write ordering from the moment of
// acceptance.
type EventProcessor interface {
	Handle(ctx context.Context, bundle domain.Bundle, classification domain.Classification) error
}
