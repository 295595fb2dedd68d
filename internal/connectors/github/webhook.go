package github

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/github-sensor/internal/core/domain"
	"github.com/custodia-labs/github-sensor/internal/core/ports/driven"
)

// ZeroSHA is the all-zero commit SHA GitHub sends as "after" when a ref
// is deleted.
const ZeroSHA = "0000000000000000000000000000000000000000"

// mapperFunc converts one validated delivery into a candidate event.
// body is the raw delivery and payload its generic decoding; mappers that
// need typed access re-unmarshal body into a go-github event struct.
type mapperFunc func(deliveryID string, body []byte, payload map[string]any) (domain.CandidateEvent, error)

// Normalizer converts raw webhook deliveries into candidate events.
// Push, issues, and pull_request deliveries get typed treatment; every
// other event type goes through the generic mapper.
type Normalizer struct {
	mappers map[string]mapperFunc
}

var _ driven.WebhookNormalizer = (*Normalizer)(nil)

// NewNormalizer creates a normaliser with the static event-type dispatch
// table.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		mappers: map[string]mapperFunc{
			"push":         mapPush,
			"issues":       mapIssues,
			"pull_request": mapPullRequest,
		},
	}
}

// Normalize validates and maps one webhook delivery into a candidate
// event.
func (n *Normalizer) Normalize(eventType, deliveryID string, body []byte) (domain.CandidateEvent, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.CandidateEvent{}, &NormalizationError{
			EventType: eventType,
			Reason:    fmt.Sprintf("invalid JSON payload: %v", err),
		}
	}

	if mapper, ok := n.mappers[eventType]; ok {
		return mapper(deliveryID, body, payload)
	}

	return mapGeneric(eventType, deliveryID, payload)
}

func mapPush(deliveryID string, body []byte, payload map[string]any) (domain.CandidateEvent, error) {
	event := new(gh.PushEvent)
	if err := json.Unmarshal(body, event); err != nil {
		return domain.CandidateEvent{}, &NormalizationError{
			EventType: "push",
			Reason:    fmt.Sprintf("payload does not match push schema: %v", err),
		}
	}

	repo, err := payloadRepository("push", event.GetRepo().GetFullName())
	if err != nil {
		return domain.CandidateEvent{}, err
	}

	eventID := deliveryID
	if eventID == "" {
		after := event.GetAfter()
		switch {
		case after != "" && after != ZeroSHA:
			eventID = "commit_" + after
		case event.GetDeleted() && !event.GetForced():
			// Branch or tag deletion: no commit to key on, so the ref
			// name and the last SHA it pointed at form the identity.
			ref := strings.ReplaceAll(event.GetRef(), "/", "_")
			eventID = "delete_ref_" + ref + "_" + event.GetBefore()
		default:
			eventID = domain.FallbackEventID(
				repo.FullName(), "push", event.GetRef(), event.GetBefore(), after,
			)
		}
	}

	identity, err := domain.NewEventIdentity(repo, eventID)
	if err != nil {
		return domain.CandidateEvent{}, &NormalizationError{EventType: "push", Reason: err.Error()}
	}

	contents := map[string]any{
		"webhook_event_type": "push",
		"repository":         payload["repository"],
		"payload":            payload,
	}

	return domain.NewCandidate(identity, contents, domain.SourceWebhook, domain.HintNew())
}

func mapIssues(deliveryID string, body []byte, payload map[string]any) (domain.CandidateEvent, error) {
	event := new(gh.IssuesEvent)
	if err := json.Unmarshal(body, event); err != nil {
		return domain.CandidateEvent{}, &NormalizationError{
			EventType: "issues",
			Reason:    fmt.Sprintf("payload does not match issues schema: %v", err),
		}
	}

	repo, err := payloadRepository("issues", event.GetRepo().GetFullName())
	if err != nil {
		return domain.CandidateEvent{}, err
	}

	eventID := deliveryID
	if eventID == "" {
		nodeID := event.GetIssue().GetNodeID()
		if nodeID == "" {
			return domain.CandidateEvent{}, &NormalizationError{
				EventType: "issues",
				Reason:    "no delivery ID and no issue node_id",
			}
		}
		eventID = "issue_" + nodeID
	}

	identity, err := domain.NewEventIdentity(repo, eventID)
	if err != nil {
		return domain.CandidateEvent{}, &NormalizationError{EventType: "issues", Reason: err.Error()}
	}

	contents := map[string]any{
		"webhook_event_type": "issues",
		"action":             event.GetAction(),
		"repository":         payload["repository"],
		"payload":            payload,
	}

	return domain.NewCandidate(identity, contents, domain.SourceWebhook, domain.HintFor(event.GetAction()))
}

func mapPullRequest(deliveryID string, body []byte, payload map[string]any) (domain.CandidateEvent, error) {
	event := new(gh.PullRequestEvent)
	if err := json.Unmarshal(body, event); err != nil {
		return domain.CandidateEvent{}, &NormalizationError{
			EventType: "pull_request",
			Reason:    fmt.Sprintf("payload does not match pull_request schema: %v", err),
		}
	}

	repo, err := payloadRepository("pull_request", event.GetRepo().GetFullName())
	if err != nil {
		return domain.CandidateEvent{}, err
	}

	eventID := deliveryID
	if eventID == "" {
		nodeID := event.GetPullRequest().GetNodeID()
		if nodeID == "" {
			return domain.CandidateEvent{}, &NormalizationError{
				EventType: "pull_request",
				Reason:    "no delivery ID and no pull request node_id",
			}
		}
		eventID = "pr_" + nodeID
	}

	identity, err := domain.NewEventIdentity(repo, eventID)
	if err != nil {
		return domain.CandidateEvent{}, &NormalizationError{EventType: "pull_request", Reason: err.Error()}
	}

	contents := map[string]any{
		"webhook_event_type": "pull_request",
		"action":             event.GetAction(),
		"repository":         payload["repository"],
		"payload":            payload,
	}

	return domain.NewCandidate(identity, contents, domain.SourceWebhook, domain.HintFor(event.GetAction()))
}

// mapGeneric handles every event type without a dedicated mapper. It
// requires a repository object in the payload; deliveries without one
// cannot be attributed and are rejected.
func mapGeneric(eventType, deliveryID string, payload map[string]any) (domain.CandidateEvent, error) {
	repoPayload, _ := payload["repository"].(map[string]any)
	fullName, _ := repoPayload["full_name"].(string)

	repo, err := payloadRepository(eventType, fullName)
	if err != nil {
		return domain.CandidateEvent{}, err
	}

	eventID := deliveryID
	if eventID == "" {
		sender, _ := payload["sender"].(map[string]any)
		timestamp := payload["timestamp"]
		if timestamp == nil {
			timestamp = repoPayload["pushed_at"]
		}
		eventID = domain.FallbackEventID(
			eventType,
			fieldString(repoPayload["id"]),
			fieldString(sender["id"]),
			fieldString(timestamp),
		)
	}

	identity, err := domain.NewEventIdentity(repo, eventID)
	if err != nil {
		return domain.CandidateEvent{}, &NormalizationError{EventType: eventType, Reason: err.Error()}
	}

	contents := map[string]any{
		"webhook_event_type": eventType,
		"repository":         payload["repository"],
		"payload":            payload,
	}

	return domain.NewCandidate(identity, contents, domain.SourceWebhook, domain.HintNew())
}

// payloadRepository parses the owner/name reference carried in a webhook
// payload, converting failures into normalisation errors.
func payloadRepository(eventType, fullName string) (domain.RepositoryRef, error) {
	if fullName == "" {
		return domain.RepositoryRef{}, &NormalizationError{
			EventType: eventType,
			Reason:    "no repository in payload",
		}
	}
	repo, err := domain.ParseRepositoryRef(fullName)
	if err != nil {
		return domain.RepositoryRef{}, &NormalizationError{
			EventType: eventType,
			Reason:    fmt.Sprintf("invalid repository %q", fullName),
		}
	}
	return repo, nil
}

// fieldString renders a payload field for hash input. JSON numbers decode
// as float64, so integers are printed without an exponent.
func fieldString(v any) string {
	switch val := v.(type) {
	case nil:
		return "unknown"
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
