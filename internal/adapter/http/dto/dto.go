package dto

import (
	"encoding/json"
	"time"

	"private-checkout-gateway/internal/core/domain"
	"private-checkout-gateway/pkg/money"
)

// RegisterRequest is the merchant registration payload.
type RegisterRequest struct {
	Username      string `json:"username" binding:"required"`
	Password      string `json:"password" binding:"required"`
	PayoutAddress string `json:"payout_address" binding:"required"`
}

// RegisterResponse returns the created merchant.
type RegisterResponse struct {
	MerchantID string `json:"merchant_id"`
	Username   string `json:"username"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse returns the issued token.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"`
}

// CreateCheckoutRequest is the checkout creation payload. Amount accepts
// both a JSON string and a JSON number so "10.5" and 10.5 behave the same.
type CreateCheckoutRequest struct {
	Name           string      `json:"name" binding:"required"`
	Amount         json.Number `json:"amount" binding:"required"`
	SettlementMode string      `json:"settlement_mode" binding:"required"`
}

// ShieldRequest records a buyer's shield confirmation.
type ShieldRequest struct {
	ProofRef string `json:"proof_ref" binding:"required"`
}

// CheckoutResponse is the public checkout representation.
type CheckoutResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Amount             string `json:"amount"`
	AmountDisplay      string `json:"amount_display,omitempty"`
	SettlementMode     string `json:"settlement_mode"`
	Status             string `json:"status"`
	PrivateAddress     string `json:"private_address,omitempty"`
	ShieldProofRef     string `json:"shield_proof_ref,omitempty"`
	PrivateTransferRef string `json:"private_transfer_ref,omitempty"`
	DirectTransferRef  string `json:"direct_transfer_ref,omitempty"`
	CreatedAt          string `json:"created_at"`
	SettledAt          string `json:"settled_at,omitempty"`
}

// WalletResponse is the merchant wallet representation. Secret material is
// never included.
type WalletResponse struct {
	PrivateAddress string `json:"private_address"`
	CreatedAt      string `json:"created_at"`
}

// FromCheckout maps a domain checkout to its response form.
func FromCheckout(c *domain.Checkout) CheckoutResponse {
	resp := CheckoutResponse{
		ID:                 c.ID.String(),
		Name:               c.Name,
		Amount:             c.Amount,
		SettlementMode:     string(c.SettlementMode),
		Status:             string(c.Status),
		PrivateAddress:     c.PrivateAddress,
		ShieldProofRef:     c.ShieldProofRef,
		PrivateTransferRef: c.PrivateTransferRef,
		DirectTransferRef:  c.DirectTransferRef,
		CreatedAt:          c.CreatedAt.UTC().Format(time.RFC3339),
	}
	if display, err := money.FromMinorUnits(c.Amount); err == nil {
		resp.AmountDisplay = display
	}
	if c.SettledAt != nil {
		resp.SettledAt = c.SettledAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// FromCheckouts maps a slice of checkouts.
func FromCheckouts(list []*domain.Checkout) []CheckoutResponse {
	out := make([]CheckoutResponse, 0, len(list))
	for _, c := range list {
		out = append(out, FromCheckout(c))
	}
	return out
}

// FromWallet maps a merchant wallet to its response form.
func FromWallet(w *domain.MerchantWallet) WalletResponse {
	return WalletResponse{
		PrivateAddress: w.PrivateAddress,
		CreatedAt:      w.CreatedAt.UTC().Format(time.RFC3339),
	}
}
