package postgres

import (
	"context"
	"testing"
	"time"

	"private-checkout-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestCheckoutRepo_Create(t *testing.T) {
	mock := newMockPool(t)
	repo := NewCheckoutRepo(mock)

	c := &domain.Checkout{
		ID:             uuid.New(),
		MerchantID:     uuid.New(),
		Name:           "coffee",
		Amount:         "10500000",
		SettlementMode: domain.SettleDirect,
		Status:         domain.CheckoutPending,
		CreatedAt:      time.Now(),
	}

	mock.ExpectExec(`INSERT INTO checkouts`).
		WithArgs(c.ID, c.MerchantID, c.Name, c.Amount, c.SettlementMode, c.Status,
			c.PrivateAddress, c.SpendKeyEnc, c.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), c)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutRepo_GetByID_NotFoundReturnsNil(t *testing.T) {
	mock := newMockPool(t)
	repo := NewCheckoutRepo(mock)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM checkouts WHERE id`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	c, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCheckoutRepo_CompleteDirect_WinsRace(t *testing.T) {
	mock := newMockPool(t)
	repo := NewCheckoutRepo(mock)
	id := uuid.New()

	mock.ExpectExec(`UPDATE checkouts SET status = 'completed', direct_transfer_ref`).
		WithArgs("0xtxhash", id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	won, err := repo.CompleteDirect(context.Background(), id, "0xtxhash")
	require.NoError(t, err)
	assert.True(t, won)
}

// A settlement that arrives after the checkout left the pending state
// matches zero rows and must report a lost race, not an error.
func TestCheckoutRepo_CompleteDirect_LosesRace(t *testing.T) {
	mock := newMockPool(t)
	repo := NewCheckoutRepo(mock)
	id := uuid.New()

	mock.ExpectExec(`UPDATE checkouts SET status = 'completed', direct_transfer_ref`).
		WithArgs("0xtxhash", id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	won, err := repo.CompleteDirect(context.Background(), id, "0xtxhash")
	require.NoError(t, err)
	assert.False(t, won)
}

func TestCheckoutRepo_SetShieldProof_OnlyOnce(t *testing.T) {
	mock := newMockPool(t)
	repo := NewCheckoutRepo(mock)
	id := uuid.New()

	mock.ExpectExec(`UPDATE checkouts SET shield_proof_ref`).
		WithArgs("ref-1", id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE checkouts SET shield_proof_ref`).
		WithArgs("ref-2", id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.SetShieldProof(context.Background(), id, "ref-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetShieldProof(context.Background(), id, "ref-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckoutRepo_MarkFailed(t *testing.T) {
	mock := newMockPool(t)
	repo := NewCheckoutRepo(mock)
	id := uuid.New()

	mock.ExpectExec(`UPDATE checkouts SET status = 'failed'`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.MarkFailed(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckoutRepo_ListByMerchant(t *testing.T) {
	mock := newMockPool(t)
	repo := NewCheckoutRepo(mock)
	merchantID := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows([]string{
		"id", "merchant_id", "name", "amount", "settlement_mode", "status",
		"private_address", "spend_key_enc", "shield_proof_ref", "private_transfer_ref",
		"direct_transfer_ref", "created_at", "settled_at",
	}).AddRow(
		uuid.New(), merchantID, "coffee", "10500000", domain.SettleDirect, domain.CheckoutPending,
		"", "", "", "", "", now, (*time.Time)(nil),
	)

	mock.ExpectQuery(`SELECT .* FROM checkouts`).
		WithArgs(merchantID, 20, 0).
		WillReturnRows(rows)

	list, err := repo.ListByMerchant(context.Background(), merchantID, 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "coffee", list[0].Name)
}
