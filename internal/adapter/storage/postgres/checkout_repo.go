package postgres

import (
	"context"
	"errors"
	"fmt"

	"private-checkout-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CheckoutRepo implements ports.CheckoutRepository.
//
// Status transitions use conditional updates guarded on the current status,
// so two concurrent settlement attempts can never both complete a checkout.
type CheckoutRepo struct {
	pool Pool
}

// NewCheckoutRepo creates a new CheckoutRepo.
func NewCheckoutRepo(pool Pool) *CheckoutRepo {
	return &CheckoutRepo{pool: pool}
}

const checkoutColumns = `id, merchant_id, name, amount, settlement_mode, status,
	private_address, spend_key_enc, shield_proof_ref, private_transfer_ref,
	direct_transfer_ref, created_at, settled_at`

// Create inserts a new checkout.
func (r *CheckoutRepo) Create(ctx context.Context, c *domain.Checkout) error {
	query := `INSERT INTO checkouts (id, merchant_id, name, amount, settlement_mode, status,
		private_address, spend_key_enc, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.MerchantID, c.Name, c.Amount, c.SettlementMode, c.Status,
		c.PrivateAddress, c.SpendKeyEnc, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert checkout: %w", err)
	}
	return nil
}

// GetByID fetches a checkout by UUID.
func (r *CheckoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Checkout, error) {
	query := `SELECT ` + checkoutColumns + ` FROM checkouts WHERE id = $1`

	c, err := scanCheckout(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get checkout by id: %w", err)
	}
	return c, nil
}

// ListByMerchant returns the merchant's checkouts, newest first.
func (r *CheckoutRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*domain.Checkout, error) {
	query := `SELECT ` + checkoutColumns + ` FROM checkouts
		WHERE merchant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, merchantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list checkouts: %w", err)
	}
	defer rows.Close()

	var checkouts []*domain.Checkout
	for rows.Next() {
		c, err := scanCheckout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkout: %w", err)
		}
		checkouts = append(checkouts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkouts: %w", err)
	}
	return checkouts, nil
}

// SetShieldProof records the shield confirmation on a pending, unshielded
// checkout. Returns false when the guard does not match.
func (r *CheckoutRepo) SetShieldProof(ctx context.Context, id uuid.UUID, proofRef string) (bool, error) {
	query := `UPDATE checkouts SET shield_proof_ref = $1
		WHERE id = $2 AND status = 'pending' AND shield_proof_ref = ''`

	tag, err := r.pool.Exec(ctx, query, proofRef, id)
	if err != nil {
		return false, fmt.Errorf("set shield proof: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CompleteDirect moves a pending checkout to completed with the public
// transaction hash. Returns false when another request settled it first.
func (r *CheckoutRepo) CompleteDirect(ctx context.Context, id uuid.UUID, transferRef string) (bool, error) {
	query := `UPDATE checkouts SET status = 'completed', direct_transfer_ref = $1, settled_at = NOW()
		WHERE id = $2 AND status = 'pending'`

	tag, err := r.pool.Exec(ctx, query, transferRef, id)
	if err != nil {
		return false, fmt.Errorf("complete checkout direct: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CompletePrivate moves a pending checkout to completed with the private
// transfer reference. Returns false when another request settled it first.
func (r *CheckoutRepo) CompletePrivate(ctx context.Context, id uuid.UUID, transferRef string) (bool, error) {
	query := `UPDATE checkouts SET status = 'completed', private_transfer_ref = $1, settled_at = NOW()
		WHERE id = $2 AND status = 'pending'`

	tag, err := r.pool.Exec(ctx, query, transferRef, id)
	if err != nil {
		return false, fmt.Errorf("complete checkout private: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkFailed moves a pending checkout to failed.
func (r *CheckoutRepo) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE checkouts SET status = 'failed' WHERE id = $1 AND status = 'pending'`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("mark checkout failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanCheckout(row pgx.Row) (*domain.Checkout, error) {
	c := &domain.Checkout{}
	err := row.Scan(
		&c.ID, &c.MerchantID, &c.Name, &c.Amount, &c.SettlementMode, &c.Status,
		&c.PrivateAddress, &c.SpendKeyEnc, &c.ShieldProofRef, &c.PrivateTransferRef,
		&c.DirectTransferRef, &c.CreatedAt, &c.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}
