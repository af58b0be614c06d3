package postgres

import (
	"context"
	"errors"
	"fmt"

	"private-checkout-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a merchant wallet within a transaction. The merchant_id
// column carries a unique constraint, one wallet per merchant.
func (r *WalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.MerchantWallet) error {
	query := `INSERT INTO merchant_wallets (id, merchant_id, private_address, secret_material_enc, spending_key_enc, wallet_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		w.ID, w.MerchantID, w.PrivateAddress, w.SecretMaterialEnc,
		w.SpendingKeyEnc, w.WalletRef, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert merchant wallet: %w", err)
	}
	return nil
}

// GetByMerchantID fetches the merchant's wallet.
func (r *WalletRepo) GetByMerchantID(ctx context.Context, merchantID uuid.UUID) (*domain.MerchantWallet, error) {
	query := `SELECT id, merchant_id, private_address, secret_material_enc, spending_key_enc, wallet_ref, created_at
		FROM merchant_wallets WHERE merchant_id = $1`

	w := &domain.MerchantWallet{}
	err := r.pool.QueryRow(ctx, query, merchantID).Scan(
		&w.ID, &w.MerchantID, &w.PrivateAddress, &w.SecretMaterialEnc,
		&w.SpendingKeyEnc, &w.WalletRef, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by merchant id: %w", err)
	}
	return w, nil
}
