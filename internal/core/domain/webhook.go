package domain

import "time"

// WebhookEventType tags outbound lifecycle notifications.
type WebhookEventType string

const (
	EventSessionCreated   WebhookEventType = "checkout.session.created"
	EventSessionUpdated   WebhookEventType = "checkout.session.updated"
	EventSessionCompleted WebhookEventType = "checkout.session.completed"
	EventSessionCancelled WebhookEventType = "checkout.session.cancelled"
	EventOrderCreated     WebhookEventType = "order.created"
)

// WebhookEvent is the payload delivered to the configured subscriber.
// It is not persisted; delivery is at-least-once and best-effort, so
// subscribers should dedupe on (session id, type, created_at) if they
// need exactly-once handling.
type WebhookEvent struct {
	Type      WebhookEventType `json:"type"`
	CreatedAt time.Time        `json:"created_at"`
	SessionID string           `json:"session_id"`
	Status    SessionStatus    `json:"status"`
	Session   *CheckoutSession `json:"session,omitempty"`
	Order     *Order           `json:"order,omitempty"`
}

// NewSessionEvent builds a session-carrying webhook event.
func NewSessionEvent(t WebhookEventType, snapshot *CheckoutSession) WebhookEvent {
	return WebhookEvent{
		Type:      t,
		CreatedAt: time.Now().UTC(),
		SessionID: snapshot.ID,
		Status:    snapshot.Status,
		Session:   snapshot,
	}
}

// NewOrderEvent builds the order.created webhook event.
func NewOrderEvent(snapshot *CheckoutSession, order *Order) WebhookEvent {
	return WebhookEvent{
		Type:      EventOrderCreated,
		CreatedAt: time.Now().UTC(),
		SessionID: snapshot.ID,
		Status:    snapshot.Status,
		Order:     order,
	}
}
