package domain

import (
	"time"

	"github.com/google/uuid"
)

// CheckoutStatus represents the lifecycle state of a checkout.
type CheckoutStatus string

const (
	CheckoutPending   CheckoutStatus = "pending"
	CheckoutCompleted CheckoutStatus = "completed"
	CheckoutFailed    CheckoutStatus = "failed"
)

// SettlementMode selects how a checkout is settled once paid.
type SettlementMode string

const (
	// SettleDirect pays the merchant's public payout address on-chain.
	SettleDirect SettlementMode = "direct"
	// SettleShielded routes funds through the checkout's private address
	// and settles with a private transfer to the merchant wallet.
	SettleShielded SettlementMode = "shielded"
)

// ValidSettlementMode reports whether s is a recognized mode.
func ValidSettlementMode(s string) bool {
	switch SettlementMode(s) {
	case SettleDirect, SettleShielded:
		return true
	}
	return false
}

// Checkout is a single payable request created by a merchant.
// Amount is stored in minor units (6 decimals) as a decimal string.
type Checkout struct {
	ID             uuid.UUID      `json:"id"`
	MerchantID     uuid.UUID      `json:"merchant_id"`
	Name           string         `json:"name"`
	Amount         string         `json:"amount"`
	SettlementMode SettlementMode `json:"settlement_mode"`
	Status         CheckoutStatus `json:"status"`

	// PrivateAddress is the checkout-scoped shielded address buyers shield
	// into. Empty for direct-mode checkouts.
	PrivateAddress string `json:"private_address,omitempty"`
	// SpendKeyEnc is the encrypted spending key for PrivateAddress.
	// Never exposed to clients.
	SpendKeyEnc string `json:"-"`

	// Settlement references, populated as the checkout progresses.
	ShieldProofRef     string `json:"shield_proof_ref,omitempty"`
	PrivateTransferRef string `json:"private_transfer_ref,omitempty"`
	DirectTransferRef  string `json:"direct_transfer_ref,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

// Payable reports whether the checkout can still accept a settlement attempt.
func (c *Checkout) Payable() bool {
	return c.Status == CheckoutPending
}

// Shielded reports whether a shield confirmation has been recorded.
func (c *Checkout) Shielded() bool {
	return c.ShieldProofRef != ""
}
