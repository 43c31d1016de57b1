// Package notify fans domain events out to the message bus. Delivery is
// best-effort: a broker outage must never fail the state change that
// produced the event.
package notify

import (
	"time"

	"go.uber.org/zap"

	"atelier/api/internal/metrics"
)

// Event routing keys.
const (
	EventBriefingApproved   = "briefing.approved"
	EventBriefingRejected   = "briefing.rejected"
	EventMilestoneCompleted = "milestone.completed"
	EventProjectCompleted   = "project.completed"
	EventRetentionWarning   = "retention.warning"
	EventUserPurged         = "retention.purged"
)

// Event is the wire payload published per routing key.
type Event struct {
	Type       string         `json:"type"`
	SubjectID  string         `json:"subject_id"`
	OwnerID    string         `json:"owner_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// Publisher abstracts the MQ publisher so tests can capture events.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

type Gateway struct {
	publisher Publisher
	logger    *zap.Logger
}

// NewGateway creates a gateway. publisher may be nil when no broker is
// configured; events are then dropped silently.
func NewGateway(publisher Publisher, logger *zap.Logger) *Gateway {
	return &Gateway{publisher: publisher, logger: logger}
}

// Emit publishes one event. Failures are logged and counted, never returned.
func (g *Gateway) Emit(eventType, subjectID, ownerID string, data map[string]any) {
	if g.publisher == nil {
		return
	}

	event := Event{
		Type:       eventType,
		SubjectID:  subjectID,
		OwnerID:    ownerID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}

	if err := g.publisher.Publish(eventType, event); err != nil {
		metrics.IncrementNotification(eventType, "failed")
		g.logger.Warn("event publish failed",
			zap.String("event", eventType),
			zap.String("subject_id", subjectID),
			zap.Error(err),
		)
		return
	}
	metrics.IncrementNotification(eventType, "published")
}
