package service

import (
	"context"
	"fmt"

	"checkout-session-engine/internal/core/domain"
)

// StubOrderService implements ports.OrderService by minting order ids
// locally. A production deployment swaps this for the real order
// backend behind the same port.
type StubOrderService struct {
	permalinkBaseURL string
}

// NewStubOrderService creates the stub order capability.
func NewStubOrderService(permalinkBaseURL string) *StubOrderService {
	return &StubOrderService{permalinkBaseURL: permalinkBaseURL}
}

// CreateOrder mints an order referencing the completed session.
func (s *StubOrderService) CreateOrder(_ context.Context, snapshot *domain.CheckoutSession) (*domain.Order, error) {
	id := domain.NewOrderID()
	return &domain.Order{
		ID:                id,
		CheckoutSessionID: snapshot.ID,
		PermalinkURL:      fmt.Sprintf("%s/orders/%s", s.permalinkBaseURL, id),
	}, nil
}
