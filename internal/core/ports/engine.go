package ports

import "context"

// EngineWallet is a wallet generated by the privacy engine. SecretMaterial
// and SpendingKey are plaintext only in memory during provisioning; they are
// encrypted before persistence.
type EngineWallet struct {
	WalletRef      string
	PrivateAddress string
	SecretMaterial string
	SpendingKey    string
}

// PrivateTransferRequest asks the engine to move shielded funds.
type PrivateTransferRequest struct {
	FromWalletRef string
	SpendingKey   string
	ToAddress     string
	// Amount in minor units.
	Amount string
	// Memo travels inside the encrypted transfer annotation.
	Memo string
}

// PrivacyEngine is the external shielded-pool engine.
type PrivacyEngine interface {
	// GenerateWallet creates a fresh private wallet.
	GenerateWallet(ctx context.Context) (*EngineWallet, error)
	// PrivateBalance returns the spendable shielded balance of a wallet,
	// in minor units.
	PrivateBalance(ctx context.Context, walletRef string) (string, error)
	// PrivateTransfer executes a shielded transfer and returns its
	// engine-side reference.
	PrivateTransfer(ctx context.Context, req PrivateTransferRequest) (string, error)
}

// EngineDialer establishes a connection to the privacy engine. Dialing is
// expensive (the engine syncs its view of the shielded pool), so callers
// memoize the returned engine.
type EngineDialer interface {
	Dial(ctx context.Context) (PrivacyEngine, error)
}

// DirectSettlementRequest asks for a public on-chain token transfer.
type DirectSettlementRequest struct {
	To string
	// Amount in minor units.
	Amount string
}

// DirectSettler executes public-chain settlements for direct-mode checkouts.
type DirectSettler interface {
	// Settle submits the transfer and waits for inclusion. It returns the
	// transaction hash.
	Settle(ctx context.Context, req DirectSettlementRequest) (string, error)
}
