package domain

import (
	"time"

	"github.com/google/uuid"
)

// MerchantStatus represents the account state of a merchant.
type MerchantStatus string

const (
	MerchantActive    MerchantStatus = "active"
	MerchantSuspended MerchantStatus = "suspended"
)

// Merchant is an authenticated seller account.
type Merchant struct {
	ID            uuid.UUID      `json:"id"`
	Username      string         `json:"username"`
	PasswordHash  string         `json:"-"`
	PayoutAddress string         `json:"payout_address"`
	Status        MerchantStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Active reports whether the merchant may authenticate and transact.
func (m *Merchant) Active() bool {
	return m.Status == MerchantActive
}
