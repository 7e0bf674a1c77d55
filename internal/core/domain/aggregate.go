package domain

import "errors"

// Mutation errors surfaced by the aggregate. The service layer maps
// them onto the API error taxonomy.
var (
	ErrNotReadyForPayment = errors.New("checkout session is not ready for payment")
	ErrCannotCancel       = errors.New("checkout session cannot be canceled")
	ErrSessionTerminal    = errors.New("checkout session is in a terminal state")
)

// Aggregate is the in-memory projection of a checkout session. It wraps
// a private snapshot, enforces the state machine and recomputes derived
// fields (totals, readiness) after every mutation. Snapshot() hands out
// deep copies so persisted versions are never aliased.
type Aggregate struct {
	s *CheckoutSession
}

// NewAggregate starts a fresh session in not_ready_for_payment.
func NewAggregate(id string) *Aggregate {
	return &Aggregate{s: &CheckoutSession{
		ID:                         id,
		Status:                     StatusNotReadyForPayment,
		LineItems:                  []LineItem{},
		Totals:                     []Total{},
		FulfillmentOptions:         []FulfillmentOption{},
		SelectedFulfillmentOptions: []SelectedFulfillmentOption{},
		Messages:                   []Message{},
		Links:                      []Link{},
	}}
}

// Load projects the latest stored snapshot into a mutable aggregate.
func Load(snapshot *CheckoutSession) *Aggregate {
	return &Aggregate{s: snapshot.Clone()}
}

// Snapshot returns a deep copy of the current state.
func (a *Aggregate) Snapshot() *CheckoutSession {
	return a.s.Clone()
}

// Status returns the current lifecycle state.
func (a *Aggregate) Status() SessionStatus {
	return a.s.Status
}

// ApplyMerchantData replaces line items, fulfillment options and
// messages wholesale. Totals are a pure function of line items, so the
// two are never patched independently.
func (a *Aggregate) ApplyMerchantData(md *MerchantData) {
	if md.Currency != "" {
		a.s.Currency = md.Currency
	}
	a.s.LineItems = append([]LineItem(nil), md.LineItems...)
	a.s.FulfillmentOptions = append([]FulfillmentOption(nil), md.FulfillmentOptions...)
	a.s.Messages = append([]Message(nil), md.Messages...)
	a.recompute()
}

// SetBuyer attaches or replaces the buyer.
func (a *Aggregate) SetBuyer(b *Buyer) {
	if b == nil {
		return
	}
	buyer := *b
	a.s.Buyer = &buyer
	a.recompute()
}

// SetFulfillmentDetails attaches or replaces the delivery details.
func (a *Aggregate) SetFulfillmentDetails(fd *FulfillmentDetails) {
	if fd == nil {
		return
	}
	details := *fd
	if fd.Address != nil {
		addr := *fd.Address
		details.Address = &addr
	}
	a.s.FulfillmentDetails = &details
	a.recompute()
}

// SelectFulfillmentOptions replaces the buyer's selections, keeping at
// most one per fulfillment type (last write wins within the slice).
func (a *Aggregate) SelectFulfillmentOptions(sel []SelectedFulfillmentOption) {
	byType := map[FulfillmentOptionType]SelectedFulfillmentOption{}
	order := []FulfillmentOptionType{}
	for _, s := range sel {
		if _, seen := byType[s.Type]; !seen {
			order = append(order, s.Type)
		}
		byType[s.Type] = s
	}
	out := make([]SelectedFulfillmentOption, 0, len(order))
	for _, t := range order {
		out = append(out, byType[t])
	}
	a.s.SelectedFulfillmentOptions = out
	a.recompute()
}

// Complete attaches the order and moves the session to completed.
// Only a ready_for_payment session may complete.
func (a *Aggregate) Complete(order *Order) error {
	if a.s.Status != StatusReadyForPayment {
		return ErrNotReadyForPayment
	}
	o := *order
	a.s.Order = &o
	a.s.Status = StatusCompleted
	return nil
}

// Cancel moves the session to canceled. A completed or already
// canceled session cannot be canceled.
func (a *Aggregate) Cancel() error {
	if a.s.Status.IsTerminal() {
		return ErrCannotCancel
	}
	a.s.Status = StatusCanceled
	return nil
}

// recompute runs after every field mutation: repair stale selections,
// rebuild totals, then re-derive readiness.
func (a *Aggregate) recompute() {
	a.repairSelections()
	a.recomputeTotals()
	a.recomputeStatus()
}

// repairSelections drops selections whose fulfillment type vanished and
// replaces selections pointing at removed option ids with the cheapest
// option of the same type, instead of leaving the selection empty.
func (a *Aggregate) repairSelections() {
	if len(a.s.SelectedFulfillmentOptions) == 0 {
		return
	}
	available := map[FulfillmentOptionType]map[string]bool{}
	for _, opt := range a.s.FulfillmentOptions {
		ids, ok := available[opt.Type]
		if !ok {
			ids = map[string]bool{}
			available[opt.Type] = ids
		}
		ids[opt.ID] = true
	}

	repaired := a.s.SelectedFulfillmentOptions[:0]
	for _, sel := range a.s.SelectedFulfillmentOptions {
		ids, typeExists := available[sel.Type]
		if !typeExists {
			continue
		}
		if !ids[sel.ID] {
			sel.ID = a.cheapestOption(sel.Type)
		}
		repaired = append(repaired, sel)
	}
	a.s.SelectedFulfillmentOptions = repaired
}

// cheapestOption returns the id of the lowest-total option of the type.
func (a *Aggregate) cheapestOption(t FulfillmentOptionType) string {
	var bestID string
	var bestTotal int64
	for _, opt := range a.s.FulfillmentOptions {
		if opt.Type != t {
			continue
		}
		if bestID == "" || opt.Total < bestTotal {
			bestID = opt.ID
			bestTotal = opt.Total
		}
	}
	return bestID
}

func (a *Aggregate) selectedOptions() []FulfillmentOption {
	selected := make([]FulfillmentOption, 0, len(a.s.SelectedFulfillmentOptions))
	for _, sel := range a.s.SelectedFulfillmentOptions {
		for _, opt := range a.s.FulfillmentOptions {
			if opt.Type == sel.Type && opt.ID == sel.ID {
				selected = append(selected, opt)
				break
			}
		}
	}
	return selected
}

func (a *Aggregate) recomputeTotals() {
	var base, discount, subtotal, fulfillment, tax int64
	for _, li := range a.s.LineItems {
		base += li.BaseAmount
		discount += li.Discount
		subtotal += li.Subtotal
		tax += li.Tax
	}
	for _, opt := range a.selectedOptions() {
		fulfillment += opt.Subtotal
		tax += opt.Tax
	}
	total := subtotal + fulfillment + tax

	a.s.Totals = []Total{
		{Type: TotalTypeItemsBaseAmount, DisplayText: "Items", Amount: base},
		{Type: TotalTypeDiscount, DisplayText: "Discount", Amount: discount},
		{Type: TotalTypeSubtotal, DisplayText: "Subtotal", Amount: subtotal},
		{Type: TotalTypeFulfillment, DisplayText: "Fulfillment", Amount: fulfillment},
		{Type: TotalTypeTax, DisplayText: "Tax", Amount: tax},
		{Type: TotalTypeTotal, DisplayText: "Total", Amount: total},
	}
}

// recomputeStatus flips between not_ready_for_payment and
// ready_for_payment. Terminal states never change here.
func (a *Aggregate) recomputeStatus() {
	if a.s.Status.IsTerminal() {
		return
	}
	if a.readyForPayment() {
		a.s.Status = StatusReadyForPayment
	} else {
		a.s.Status = StatusNotReadyForPayment
	}
}

func (a *Aggregate) readyForPayment() bool {
	return len(a.s.LineItems) > 0 &&
		len(a.s.FulfillmentOptions) > 0 &&
		len(a.s.SelectedFulfillmentOptions) > 0 &&
		a.s.FulfillmentDetails != nil &&
		a.s.FulfillmentDetails.Address != nil &&
		a.s.Buyer != nil
}
