package service

import (
	"context"
	"fmt"

	"checkout-session-engine/internal/core/domain"
)

// defaultUnitPrice is used for SKUs absent from the stub catalog, so
// demo sessions never fail on an unknown item.
const defaultUnitPrice int64 = 2500

// stubCatalog maps SKU to unit price in minor units.
var stubCatalog = map[string]int64{
	"sku1":           1200,
	"sku2":           4500,
	"sku_tshirt":     1999,
	"sku_poster":     900,
	"sku_gift_card":  5000,
	"sku_coffee_bag": 1450,
}

// StubMerchantDataService implements ports.MerchantDataService with a
// deterministic in-process catalog. Selected by merchant.mode=stub;
// useful for local development and integration tests.
type StubMerchantDataService struct {
	taxRateBp int64 // tax rate in basis points, applied only with a destination
}

// NewStubMerchantDataService creates the stub capability.
func NewStubMerchantDataService(taxRateBp int64) *StubMerchantDataService {
	if taxRateBp < 0 {
		taxRateBp = 0
	}
	return &StubMerchantDataService{taxRateBp: taxRateBp}
}

// GetMerchantData prices the requested items. Tax is omitted entirely
// when no delivery address is known, since tax depends on destination.
func (s *StubMerchantDataService) GetMerchantData(_ context.Context, items []domain.Item, fulfillmentDetails *domain.FulfillmentDetails) (*domain.MerchantData, error) {
	hasAddress := fulfillmentDetails != nil && fulfillmentDetails.Address != nil

	lineItems := make([]domain.LineItem, 0, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item %q has non-positive quantity %d", item.ID, item.Quantity)
		}
		unit, ok := stubCatalog[item.ID]
		if !ok {
			unit = defaultUnitPrice
		}
		base := unit * int64(item.Quantity)
		var tax int64
		if hasAddress {
			tax = base * s.taxRateBp / 10000
		}
		lineItems = append(lineItems, domain.LineItem{
			ID:         fmt.Sprintf("li_%d_%s", i+1, item.ID),
			Item:       item,
			BaseAmount: base,
			Discount:   0,
			Subtotal:   base,
			Tax:        tax,
			Total:      base + tax,
		})
	}

	options := []domain.FulfillmentOption{
		s.shippingOption("fo_standard", "Standard Shipping", "5-7 business days", 500, hasAddress),
		s.shippingOption("fo_express", "Express Shipping", "1-2 business days", 1500, hasAddress),
	}

	return &domain.MerchantData{
		Currency:           "usd",
		LineItems:          lineItems,
		FulfillmentOptions: options,
		Messages: []domain.Message{
			{Type: domain.MessageTypeInfo, Content: "Free returns within 30 days."},
		},
	}, nil
}

func (s *StubMerchantDataService) shippingOption(id, title, subtitle string, subtotal int64, taxed bool) domain.FulfillmentOption {
	var tax int64
	if taxed {
		tax = subtotal * s.taxRateBp / 10000
	}
	return domain.FulfillmentOption{
		Type:     domain.FulfillmentTypeShipping,
		ID:       id,
		Title:    title,
		Subtitle: subtitle,
		Carrier:  "usps",
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}
