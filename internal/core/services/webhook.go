package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/github-sensor/internal/core/domain"
	"github.com/custodia-labs/github-sensor/internal/core/ports/driven"
	"github.com/custodia-labs/github-sensor/internal/core/ports/driving"
	"github.com/custodia-labs/github-sensor/internal/logger"
)

// Ensure WebhookService implements the interface.
var _ driving.WebhookIngestor = (*WebhookService)(nil)

// WebhookService handles inbound webhook deliveries end to end.
type WebhookService struct {
	normalizer driven.WebhookNormalizer
	classifier driving.EventClassifier
}

// NewWebhookService creates a new webhook ingestion service.
func NewWebhookService(normalizer driven.WebhookNormalizer, classifier driving.EventClassifier) *WebhookService {
	return &WebhookService{
		normalizer: normalizer,
		classifier: classifier,
	}
}

// HandleDelivery normalises, classifies, and forwards one webhook
// delivery. A delivery that cannot be normalised is dropped with a
// warning; it is never retried.
func (s *WebhookService) HandleDelivery(ctx context.Context, eventType, deliveryID string, payload []byte) (domain.ClassifiedEvent, error) {
	candidate, err := s.normalizer.Normalize(eventType, deliveryID, payload)
	if err != nil {
		logger.Warn("Dropping %s delivery %q: %v", eventType, deliveryID, err)
		return domain.ClassifiedEvent{}, fmt.Errorf("normalise delivery: %w", err)
	}

	classified, err := s.classifier.Process(ctx, candidate)
	if err != nil {
		return classified, err
	}

	logger.Info("Webhook %s delivery classified %s as %s",
		eventType, candidate.Identity.Reference(), classified.Classification)

	return classified, nil
}
