package domain

import (
	"time"

	"github.com/google/uuid"
)

// MerchantWallet is the merchant's long-lived private wallet, provisioned
// once at registration. Secret material is stored encrypted and never
// leaves the server.
type MerchantWallet struct {
	ID                uuid.UUID `json:"id"`
	MerchantID        uuid.UUID `json:"merchant_id"`
	PrivateAddress    string    `json:"private_address"`
	SecretMaterialEnc string    `json:"-"`
	SpendingKeyEnc    string    `json:"-"`
	// WalletRef is the engine-side identifier of the provisioned wallet.
	WalletRef string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
