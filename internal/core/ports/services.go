package ports

import (
	"context"

	"checkout-session-engine/internal/core/domain"
)

// MerchantDataService is the external pricing/fulfillment capability.
// Implementations must omit tax from line items when fulfillmentDetails
// (or its address) is absent, since tax depends on the destination.
type MerchantDataService interface {
	GetMerchantData(ctx context.Context, items []domain.Item, fulfillmentDetails *domain.FulfillmentDetails) (*domain.MerchantData, error)
}

// OrderService is the external order-creation capability, invoked
// synchronously once, at completion only.
type OrderService interface {
	CreateOrder(ctx context.Context, snapshot *domain.CheckoutSession) (*domain.Order, error)
}

// WebhookDispatcher delivers lifecycle events to the configured
// subscriber. Dispatch is fire-and-forget: it returns before delivery
// and never affects the caller's outcome. Close cancels in-flight
// retries and waits for detached deliveries to finish.
type WebhookDispatcher interface {
	Dispatch(event domain.WebhookEvent)
	Close()
}

// SignatureService signs and verifies webhook payloads (HMAC-SHA256,
// lowercase hex).
type SignatureService interface {
	Sign(secret string, payload []byte) string
	Verify(secret string, payload []byte, signature string) bool
}

// RequestMeta carries the request-scoped metadata recognized on every
// mutating call. Signature and Timestamp are recorded for inbound auth
// but not enforced by the engine.
type RequestMeta struct {
	IdempotencyKey string
	RequestID      string
	Signature      string
	Timestamp      string
}

// CreateSessionRequest is the validated input for session creation.
type CreateSessionRequest struct {
	Meta               RequestMeta
	Items              []domain.Item
	Buyer              *domain.Buyer
	FulfillmentDetails *domain.FulfillmentDetails
}

// UpdateSessionRequest is the validated input for a session update.
// Nil slices/pointers mean "leave unchanged".
type UpdateSessionRequest struct {
	Meta                       RequestMeta
	Items                      []domain.Item
	Buyer                      *domain.Buyer
	FulfillmentDetails         *domain.FulfillmentDetails
	SelectedFulfillmentOptions []domain.SelectedFulfillmentOption
}

// PaymentData is the opaque payment handle required to complete.
type PaymentData struct {
	Token          string
	Provider       string
	BillingAddress *domain.Address
}

// CompleteSessionRequest is the validated input for completion.
type CompleteSessionRequest struct {
	Meta        RequestMeta
	PaymentData *PaymentData
	Buyer       *domain.Buyer
}

// CheckoutService orchestrates the session lifecycle: idempotency
// resolution, history loads, aggregate mutation, conditional appends
// and webhook fan-out.
type CheckoutService interface {
	Create(ctx context.Context, req CreateSessionRequest) (*domain.CheckoutSession, error)
	Get(ctx context.Context, sessionID string) (*domain.CheckoutSession, error)
	Update(ctx context.Context, sessionID string, req UpdateSessionRequest) (*domain.CheckoutSession, error)
	Complete(ctx context.Context, sessionID string, req CompleteSessionRequest) (*domain.CheckoutSession, error)
	Cancel(ctx context.Context, sessionID string, meta RequestMeta) (*domain.CheckoutSession, error)
}
