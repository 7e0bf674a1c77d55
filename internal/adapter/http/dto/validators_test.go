package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeIDPattern(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"plain sku", "sku_tshirt", true},
		{"with dots and dashes", "item-1.v2", true},
		{"uppercase", "SKU99", true},
		{"spaces", "sku 1", false},
		{"script tag", "<script>", false},
		{"slash", "a/b", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, safeIDRe.MatchString(tt.input))
		})
	}
}

func TestSanitizeStruct(t *testing.T) {
	req := &CreateSessionRequest{
		Items: []ItemParam{{ID: "  sku1  ", Quantity: 1}},
		Buyer: &BuyerParam{FirstName: " Ada <b>", LastName: "Lovelace "},
		FulfillmentDetails: &FulfillmentDetailsParam{
			Address: &AddressParam{LineOne: " 1 Main St ", City: "Portland"},
		},
	}

	SanitizeStruct(req)

	assert.Equal(t, "sku1", req.Items[0].ID)
	assert.Equal(t, "Ada &lt;b&gt;", req.Buyer.FirstName)
	assert.Equal(t, "Lovelace", req.Buyer.LastName)
	assert.Equal(t, "1 Main St", req.FulfillmentDetails.Address.LineOne)
}

func TestSanitizeStruct_NonStructInput(t *testing.T) {
	// Must not panic on non-pointer or nil input.
	SanitizeStruct("not a struct")
	SanitizeStruct(nil)
	var req *CreateSessionRequest
	SanitizeStruct(req)
}

func TestConversions(t *testing.T) {
	items := ItemsToDomain([]ItemParam{{ID: "sku1", Quantity: 2}})
	assert.Len(t, items, 1)
	assert.Equal(t, "sku1", items[0].ID)
	assert.Equal(t, 2, items[0].Quantity)

	assert.Nil(t, ItemsToDomain(nil))
	assert.Nil(t, (*BuyerParam)(nil).ToDomain())
	assert.Nil(t, (*FulfillmentDetailsParam)(nil).ToDomain())
	assert.Nil(t, (*PaymentDataParam)(nil).ToDomain())

	sel := SelectionsToDomain([]SelectedFulfillmentOptionParam{{Type: "shipping", ID: "fo_1"}})
	assert.Len(t, sel, 1)
	assert.Equal(t, "fo_1", sel[0].ID)

	pd := (&PaymentDataParam{Token: "tok", BillingAddress: &AddressParam{LineOne: "1 Main St"}}).ToDomain()
	assert.Equal(t, "tok", pd.Token)
	assert.Equal(t, "1 Main St", pd.BillingAddress.LineOne)
}
