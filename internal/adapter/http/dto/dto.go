package dto

import (
	"checkout-session-engine/internal/core/domain"
	"checkout-session-engine/internal/core/ports"
)

// ItemParam is a product reference in a session request.
type ItemParam struct {
	ID       string `json:"id" binding:"required,max=100,safe_id"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

// BuyerParam is the buyer block of a session request.
type BuyerParam struct {
	FirstName   string `json:"first_name" binding:"required,min=1,max=100"`
	LastName    string `json:"last_name" binding:"omitempty,max=100"`
	Email       string `json:"email" binding:"omitempty,email,max=254"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,max=30"`
}

// AddressParam is a fulfillment destination.
type AddressParam struct {
	Name       string `json:"name" binding:"omitempty,max=100"`
	LineOne    string `json:"line_one" binding:"required,max=200"`
	LineTwo    string `json:"line_two" binding:"omitempty,max=200"`
	City       string `json:"city" binding:"required,max=100"`
	State      string `json:"state" binding:"omitempty,max=100"`
	Country    string `json:"country" binding:"required,len=2"`
	PostalCode string `json:"postal_code" binding:"required,max=20"`
}

// FulfillmentDetailsParam carries delivery information.
type FulfillmentDetailsParam struct {
	Address *AddressParam `json:"address,omitempty" binding:"omitempty"`
}

// SelectedFulfillmentOptionParam records one fulfillment choice.
type SelectedFulfillmentOptionParam struct {
	Type string `json:"type" binding:"required,oneof=shipping digital"`
	ID   string `json:"id" binding:"required,max=100,safe_id"`
}

// PaymentDataParam is the opaque payment handle for completion.
type PaymentDataParam struct {
	Token          string        `json:"token" binding:"required,max=200"`
	Provider       string        `json:"provider" binding:"omitempty,max=50"`
	BillingAddress *AddressParam `json:"billing_address,omitempty" binding:"omitempty"`
}

// CreateSessionRequest is the body of POST /checkout_sessions.
type CreateSessionRequest struct {
	Items              []ItemParam              `json:"items" binding:"required,min=1,dive"`
	Buyer              *BuyerParam              `json:"buyer,omitempty" binding:"omitempty"`
	FulfillmentDetails *FulfillmentDetailsParam `json:"fulfillment_details,omitempty" binding:"omitempty"`
}

// UpdateSessionRequest is the body of POST /checkout_sessions/:id.
// Absent fields leave the session unchanged.
type UpdateSessionRequest struct {
	Items                      []ItemParam                      `json:"items,omitempty" binding:"omitempty,min=1,dive"`
	Buyer                      *BuyerParam                      `json:"buyer,omitempty" binding:"omitempty"`
	FulfillmentDetails         *FulfillmentDetailsParam         `json:"fulfillment_details,omitempty" binding:"omitempty"`
	SelectedFulfillmentOptions []SelectedFulfillmentOptionParam `json:"selected_fulfillment_options,omitempty" binding:"omitempty,dive"`
}

// CompleteSessionRequest is the body of POST /checkout_sessions/:id/complete.
type CompleteSessionRequest struct {
	PaymentData *PaymentDataParam `json:"payment_data" binding:"required"`
	Buyer       *BuyerParam       `json:"buyer,omitempty" binding:"omitempty"`
}

// ---- DTO -> domain conversions ----

func (p ItemParam) ToDomain() domain.Item {
	return domain.Item{ID: p.ID, Quantity: p.Quantity}
}

func ItemsToDomain(params []ItemParam) []domain.Item {
	if params == nil {
		return nil
	}
	items := make([]domain.Item, 0, len(params))
	for _, p := range params {
		items = append(items, p.ToDomain())
	}
	return items
}

func (p *BuyerParam) ToDomain() *domain.Buyer {
	if p == nil {
		return nil
	}
	return &domain.Buyer{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Email:       p.Email,
		PhoneNumber: p.PhoneNumber,
	}
}

func (p *AddressParam) ToDomain() *domain.Address {
	if p == nil {
		return nil
	}
	return &domain.Address{
		Name:       p.Name,
		LineOne:    p.LineOne,
		LineTwo:    p.LineTwo,
		City:       p.City,
		State:      p.State,
		Country:    p.Country,
		PostalCode: p.PostalCode,
	}
}

func (p *FulfillmentDetailsParam) ToDomain() *domain.FulfillmentDetails {
	if p == nil {
		return nil
	}
	return &domain.FulfillmentDetails{Address: p.Address.ToDomain()}
}

func SelectionsToDomain(params []SelectedFulfillmentOptionParam) []domain.SelectedFulfillmentOption {
	if params == nil {
		return nil
	}
	out := make([]domain.SelectedFulfillmentOption, 0, len(params))
	for _, p := range params {
		out = append(out, domain.SelectedFulfillmentOption{
			Type: domain.FulfillmentOptionType(p.Type),
			ID:   p.ID,
		})
	}
	return out
}

func (p *PaymentDataParam) ToDomain() *ports.PaymentData {
	if p == nil {
		return nil
	}
	return &ports.PaymentData{
		Token:          p.Token,
		Provider:       p.Provider,
		BillingAddress: p.BillingAddress.ToDomain(),
	}
}
