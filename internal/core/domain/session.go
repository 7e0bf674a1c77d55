package domain

import "github.com/google/uuid"

// SessionStatus represents the lifecycle state of a checkout session.
type SessionStatus string

const (
	StatusNotReadyForPayment SessionStatus = "not_ready_for_payment"
	StatusReadyForPayment    SessionStatus = "ready_for_payment"
	StatusCompleted          SessionStatus = "completed"
	StatusCanceled           SessionStatus = "canceled"
)

// IsTerminal reports whether no further status transition is allowed.
func (s SessionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// Item is a buyer-requested product reference (id + quantity).
type Item struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// LineItem is a priced row in the session. All amounts are in the
// currency's minor unit.
type LineItem struct {
	ID         string `json:"id"`
	Item       Item   `json:"item"`
	BaseAmount int64  `json:"base_amount"`
	Discount   int64  `json:"discount"`
	Subtotal   int64  `json:"subtotal"`
	Tax        int64  `json:"tax"`
	Total      int64  `json:"total"`
}

// TotalType labels an entry in the computed totals list.
type TotalType string

const (
	TotalTypeItemsBaseAmount TotalType = "items_base_amount"
	TotalTypeDiscount        TotalType = "discount"
	TotalTypeSubtotal        TotalType = "subtotal"
	TotalTypeFulfillment     TotalType = "fulfillment"
	TotalTypeTax             TotalType = "tax"
	TotalTypeTotal           TotalType = "total"
)

// Total is a labeled amount in the session's totals breakdown.
type Total struct {
	Type        TotalType `json:"type"`
	DisplayText string    `json:"display_text"`
	Amount      int64     `json:"amount"`
}

// Buyer identifies the person checking out.
type Buyer struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// Address is a fulfillment destination.
type Address struct {
	Name       string `json:"name,omitempty"`
	LineOne    string `json:"line_one"`
	LineTwo    string `json:"line_two,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

// FulfillmentDetails holds buyer-supplied delivery information.
type FulfillmentDetails struct {
	Address *Address `json:"address,omitempty"`
}

// FulfillmentOptionType groups fulfillment options; a session carries at
// most one selection per type.
type FulfillmentOptionType string

const (
	FulfillmentTypeShipping FulfillmentOptionType = "shipping"
	FulfillmentTypeDigital  FulfillmentOptionType = "digital"
)

// FulfillmentOption is a merchant-offered delivery method with its own
// cost and timing.
type FulfillmentOption struct {
	Type                 FulfillmentOptionType `json:"type"`
	ID                   string                `json:"id"`
	Title                string                `json:"title"`
	Subtitle             string                `json:"subtitle,omitempty"`
	Carrier              string                `json:"carrier,omitempty"`
	EarliestDeliveryTime string                `json:"earliest_delivery_time,omitempty"`
	LatestDeliveryTime   string                `json:"latest_delivery_time,omitempty"`
	Subtotal             int64                 `json:"subtotal"`
	Tax                  int64                 `json:"tax"`
	Total                int64                 `json:"total"`
}

// SelectedFulfillmentOption records the buyer's choice for one
// fulfillment type. The id must reference an entry in the session's
// fulfillment options of the same version.
type SelectedFulfillmentOption struct {
	Type FulfillmentOptionType `json:"type"`
	ID   string                `json:"id"`
}

// MessageType distinguishes informational from blocking messages.
type MessageType string

const (
	MessageTypeInfo  MessageType = "info"
	MessageTypeError MessageType = "error"
)

// Message is a merchant-supplied display message.
type Message struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
}

// Link is a static reference shown alongside the session.
type Link struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Order references the order created when a session completes.
type Order struct {
	ID                string `json:"id"`
	CheckoutSessionID string `json:"checkout_session_id"`
	PermalinkURL      string `json:"permalink_url"`
}

// CheckoutSession is the aggregate root. Snapshots of it are persisted
// per version and must be treated as immutable once stored.
type CheckoutSession struct {
	ID                         string                      `json:"id"`
	Status                     SessionStatus               `json:"status"`
	Currency                   string                      `json:"currency"`
	LineItems                  []LineItem                  `json:"line_items"`
	Totals                     []Total                     `json:"totals"`
	Buyer                      *Buyer                      `json:"buyer,omitempty"`
	FulfillmentDetails         *FulfillmentDetails         `json:"fulfillment_details,omitempty"`
	FulfillmentOptions         []FulfillmentOption         `json:"fulfillment_options"`
	SelectedFulfillmentOptions []SelectedFulfillmentOption `json:"selected_fulfillment_options"`
	Messages                   []Message                   `json:"messages"`
	Links                      []Link                      `json:"links"`
	Order                      *Order                      `json:"order,omitempty"`
}

// Items returns the raw item references backing the line items,
// used when re-fetching merchant data for an existing session.
func (s *CheckoutSession) Items() []Item {
	items := make([]Item, 0, len(s.LineItems))
	for _, li := range s.LineItems {
		items = append(items, li.Item)
	}
	return items
}

// Clone returns a deep copy of the session. Stored snapshots stay
// untouched while the copy is mutated.
func (s *CheckoutSession) Clone() *CheckoutSession {
	if s == nil {
		return nil
	}
	cp := *s
	cp.LineItems = append([]LineItem(nil), s.LineItems...)
	cp.Totals = append([]Total(nil), s.Totals...)
	cp.FulfillmentOptions = append([]FulfillmentOption(nil), s.FulfillmentOptions...)
	cp.SelectedFulfillmentOptions = append([]SelectedFulfillmentOption(nil), s.SelectedFulfillmentOptions...)
	cp.Messages = append([]Message(nil), s.Messages...)
	cp.Links = append([]Link(nil), s.Links...)
	if s.Buyer != nil {
		b := *s.Buyer
		cp.Buyer = &b
	}
	if s.FulfillmentDetails != nil {
		fd := *s.FulfillmentDetails
		if s.FulfillmentDetails.Address != nil {
			addr := *s.FulfillmentDetails.Address
			fd.Address = &addr
		}
		cp.FulfillmentDetails = &fd
	}
	if s.Order != nil {
		o := *s.Order
		cp.Order = &o
	}
	return &cp
}

// NewSessionID mints an opaque checkout session identifier.
func NewSessionID() string {
	return "cs_" + uuid.NewString()
}

// NewOrderID mints an opaque order identifier.
func NewOrderID() string {
	return "ord_" + uuid.NewString()
}

// MerchantData is the pricing bundle returned by the merchant data
// capability for a set of items.
type MerchantData struct {
	Currency           string              `json:"currency"`
	LineItems          []LineItem          `json:"line_items"`
	FulfillmentOptions []FulfillmentOption `json:"fulfillment_options"`
	Messages           []Message           `json:"messages"`
}
