// Package httpapi exposes the sensor's inbound HTTP surface: the GitHub
// webhook receiver and a health endpoint.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/github-sensor/internal/core/ports/driving"
	"github.com/custodia-labs/github-sensor/internal/logger"
)

// GitHub webhook headers.
const (
	HeaderEvent        = "X-GitHub-Event"
	HeaderDelivery     = "X-GitHub-Delivery"
	HeaderSignature256 = "X-Hub-Signature-256"
)

// handleTimeout bounds the background processing of one delivery.
const handleTimeout = 30 * time.Second

// Server receives webhook deliveries, acknowledges them fast, and hands
// them to the ingestor in the background.
type Server struct {
	app      *fiber.App
	ingestor driving.WebhookIngestor
	secret   []byte
}

// NewServer creates the webhook server. An empty secret disables
// signature verification.
func NewServer(ingestor driving.WebhookIngestor, secret string) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
		ingestor: ingestor,
	}
	if secret != "" {
		s.secret = []byte(secret)
	}

	s.app.Post("/github/webhook", s.handleWebhook)
	s.app.Get("/healthz", s.handleHealth)

	return s
}

// App returns the underlying fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handleWebhook validates one delivery and acknowledges it with 202
// before processing. Normalisation and classification happen in the
// background; the sender retries on slow responses, not on processing
// failures.
func (s *Server) handleWebhook(c *fiber.Ctx) error {
	eventType := c.Get(HeaderEvent)
	if eventType == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "missing_event_type",
		})
	}
	deliveryID := c.Get(HeaderDelivery)

	// The fiber buffer is reused after the handler returns; the
	// background goroutine needs its own copy.
	body := bytes.Clone(c.Body())

	if len(s.secret) > 0 {
		if err := gh.ValidateSignature(c.Get(HeaderSignature256), body, s.secret); err != nil {
			logger.Warn("Rejected %s delivery %q: %v", eventType, deliveryID, err)
			return c.Status(http.StatusForbidden).JSON(fiber.Map{
				"error": "invalid_signature",
			})
		}
	}

	if !json.Valid(body) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid_json",
		})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
		defer cancel()
		// Failures are logged inside; a dropped delivery is not retried.
		_, _ = s.ingestor.HandleDelivery(ctx, eventType, deliveryID, body)
	}()

	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"message": "Webhook received.",
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
