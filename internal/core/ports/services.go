package ports

import (
	"context"
	"time"

	"private-checkout-gateway/internal/core/domain"

	"github.com/google/uuid"
)

// RegisterRequest carries merchant registration input.
type RegisterRequest struct {
	Username      string
	Password      string
	PayoutAddress string
}

// LoginResult carries a successful authentication outcome.
type LoginResult struct {
	Merchant  *domain.Merchant
	Token     string
	ExpiresAt time.Time
}

// AuthService handles merchant registration and login.
type AuthService interface {
	// Register creates the merchant account and provisions its private
	// wallet in one unit of work.
	Register(ctx context.Context, req RegisterRequest) (*domain.Merchant, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}

// CreateCheckoutRequest carries checkout creation input. Amount is the
// human-readable decimal amount, converted to minor units by the service.
type CreateCheckoutRequest struct {
	MerchantID     uuid.UUID
	Name           string
	Amount         string
	SettlementMode domain.SettlementMode
}

// CheckoutService drives the checkout lifecycle.
type CheckoutService interface {
	Create(ctx context.Context, req CreateCheckoutRequest) (*domain.Checkout, error)
	List(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*domain.Checkout, error)

	// Get resolves a checkout for a paying client. When the checkout is
	// pending and no acceptable payment proof accompanies the request, it
	// returns a non-nil challenge to be served with HTTP 402.
	Get(ctx context.Context, id uuid.UUID, proofHeader string) (*domain.Checkout, *domain.PaymentRequired, error)

	// PayDirect settles a direct-mode checkout to the merchant's public
	// payout address.
	PayDirect(ctx context.Context, id uuid.UUID, proofHeader string) (*domain.Checkout, error)

	// RecordShield records the buyer's shield confirmation on a
	// shielded-mode checkout.
	RecordShield(ctx context.Context, id uuid.UUID, proofRef string) (*domain.Checkout, error)

	// SettlePrivately verifies shielded funds and transfers them to the
	// merchant's private wallet.
	SettlePrivately(ctx context.Context, id uuid.UUID) (*domain.Checkout, error)
}

// WalletService exposes the merchant's provisioned wallet.
type WalletService interface {
	GetOwn(ctx context.Context, merchantID uuid.UUID) (*domain.MerchantWallet, error)
}

// TokenService issues and validates merchant access tokens.
type TokenService interface {
	Generate(merchantID uuid.UUID) (token string, expiresAt time.Time, err error)
	Validate(token string) (merchantID uuid.UUID, err error)
}

// HashService hashes and verifies passwords.
type HashService interface {
	Hash(plain string) (string, error)
	Verify(plain, encoded string) (bool, error)
}

// EncryptionService encrypts secrets at rest.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// ProofStore records payment proofs to prevent replay across checkouts.
type ProofStore interface {
	// Bind associates a proof hash with a checkout. It returns false when
	// the proof is already bound to a different checkout.
	Bind(ctx context.Context, proofHash string, checkoutID uuid.UUID) (bool, error)
}

// RateLimitStore counts requests per key within a window.
type RateLimitStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// HealthChecker reports readiness of a dependency.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
