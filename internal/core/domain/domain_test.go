package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidSettlementMode(t *testing.T) {
	assert.True(t, ValidSettlementMode("direct"))
	assert.True(t, ValidSettlementMode("shielded"))
	assert.False(t, ValidSettlementMode(""))
	assert.False(t, ValidSettlementMode("Direct"))
	assert.False(t, ValidSettlementMode("private"))
}

func TestCheckoutPayable(t *testing.T) {
	c := &Checkout{Status: CheckoutPending}
	assert.True(t, c.Payable())

	c.Status = CheckoutCompleted
	assert.False(t, c.Payable())

	c.Status = CheckoutFailed
	assert.False(t, c.Payable())
}

func TestCheckoutShielded(t *testing.T) {
	c := &Checkout{}
	assert.False(t, c.Shielded())
	c.ShieldProofRef = "0zk-shield-proof"
	assert.True(t, c.Shielded())
}

func TestCheckoutJSONHidesSecrets(t *testing.T) {
	c := &Checkout{Name: "coffee", SpendKeyEnc: "ciphertext"}
	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "ciphertext")
}

func TestPaymentRequiredWireFormat(t *testing.T) {
	pr := PaymentRequired{
		X402Version: 1,
		Accepts: []PaymentRequirements{{
			Scheme:            "exact",
			Network:           "polygon",
			MaxAmountRequired: "10500000",
			Resource:          "http://localhost:8080/api/v1/checkouts/abc",
			PayTo:             "0xdeadbeef",
			Asset:             "0xtoken",
			MaxTimeoutSeconds: 60,
		}},
	}

	b, err := json.Marshal(pr)
	require.NoError(t, err)

	// Paying clients key on the exact x402 field names.
	s := string(b)
	assert.Contains(t, s, `"x402Version":1`)
	assert.Contains(t, s, `"maxAmountRequired":"10500000"`)
	assert.Contains(t, s, `"payTo":"0xdeadbeef"`)
	assert.Contains(t, s, `"maxTimeoutSeconds":60`)
}
