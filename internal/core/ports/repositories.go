package ports

import (
	"context"

	"private-checkout-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MerchantRepository handles merchant persistence.
type MerchantRepository interface {
	Create(ctx context.Context, tx pgx.Tx, m *domain.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	GetByUsername(ctx context.Context, username string) (*domain.Merchant, error)
}

// WalletRepository handles merchant wallet persistence.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, w *domain.MerchantWallet) error
	GetByMerchantID(ctx context.Context, merchantID uuid.UUID) (*domain.MerchantWallet, error)
}

// CheckoutRepository handles checkout persistence.
//
// The settlement mutators (SetShieldProof, CompleteDirect, CompletePrivate,
// MarkFailed) are conditional updates guarded on the current status. They
// return false when the guard did not match, i.e. another request settled
// or failed the checkout first.
type CheckoutRepository interface {
	Create(ctx context.Context, c *domain.Checkout) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Checkout, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*domain.Checkout, error)

	// SetShieldProof records the shield confirmation on a pending checkout
	// that has no proof yet.
	SetShieldProof(ctx context.Context, id uuid.UUID, proofRef string) (bool, error)
	// CompleteDirect moves pending -> completed with a public transfer ref.
	CompleteDirect(ctx context.Context, id uuid.UUID, transferRef string) (bool, error)
	// CompletePrivate moves pending -> completed with a private transfer ref.
	CompletePrivate(ctx context.Context, id uuid.UUID, transferRef string) (bool, error)
	// MarkFailed moves pending -> failed.
	MarkFailed(ctx context.Context, id uuid.UUID) (bool, error)
}

// DBTransactor provides database transaction capabilities.
type DBTransactor interface {
	WithinTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}
