package domain

import "time"

// TransitionReason tags why a version was appended.
type TransitionReason string

const (
	ReasonCreated   TransitionReason = "created"
	ReasonUpdated   TransitionReason = "updated"
	ReasonCompleted TransitionReason = "completed"
	ReasonCanceled  TransitionReason = "canceled"
)

// SessionVersion is an immutable snapshot of a checkout session.
// Version numbers for a session are contiguous starting at 1; the
// current state of a session is the version with the highest number.
// Versions are never mutated or deleted.
type SessionVersion struct {
	SessionID      string           `json:"session_id"`
	Version        int              `json:"version"`
	Reason         TransitionReason `json:"reason"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
	RequestID      string           `json:"request_id,omitempty"`
	Snapshot       *CheckoutSession `json:"snapshot"`
	CreatedAt      time.Time        `json:"created_at"`
}
