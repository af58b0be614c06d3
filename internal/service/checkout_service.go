package service

import (
	"context"
	"math/big"
	"sync"
	"time"

	"private-checkout-gateway/internal/core/domain"
	"private-checkout-gateway/internal/core/ports"
	"private-checkout-gateway/pkg/apperror"
	"private-checkout-gateway/pkg/money"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxCheckoutNameLen = 180

// CheckoutServiceImpl implements ports.CheckoutService. It owns the checkout
// state machine: pending -> completed on a successful settlement, pending ->
// failed on a settlement error. Concurrent settlement attempts resolve to
// exactly one winner: a per-checkout guard rejects a second in-process
// attempt, and the status transitions are conditional updates that guard
// racers on other nodes.
type CheckoutServiceImpl struct {
	checkoutRepo ports.CheckoutRepository
	merchantRepo ports.MerchantRepository
	walletRepo   ports.WalletRepository
	proofs       ports.ProofStore
	encryptor    ports.EncryptionService
	challenges   *ChallengeIssuer
	handle       *EngineHandle
	settler      ports.DirectSettler
	settleGuards sync.Map // checkout id -> *sync.Mutex
	logger       zerolog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	checkoutRepo ports.CheckoutRepository,
	merchantRepo ports.MerchantRepository,
	walletRepo ports.WalletRepository,
	proofs ports.ProofStore,
	encryptor ports.EncryptionService,
	challenges *ChallengeIssuer,
	handle *EngineHandle,
	settler ports.DirectSettler,
	logger zerolog.Logger,
) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{
		checkoutRepo: checkoutRepo,
		merchantRepo: merchantRepo,
		walletRepo:   walletRepo,
		proofs:       proofs,
		encryptor:    encryptor,
		challenges:   challenges,
		handle:       handle,
		settler:      settler,
		logger:       logger.With().Str("component", "checkout_service").Logger(),
	}
}

// Create validates input, converts the amount to minor units, and for
// shielded checkouts derives the checkout-scoped private address.
func (s *CheckoutServiceImpl) Create(ctx context.Context, req ports.CreateCheckoutRequest) (*domain.Checkout, error) {
	if req.Name == "" || len(req.Name) > maxCheckoutNameLen {
		return nil, apperror.Validation("name must be 1-180 characters")
	}
	if !domain.ValidSettlementMode(string(req.SettlementMode)) {
		return nil, apperror.Validation("settlement_mode must be direct or shielded")
	}

	minor, err := money.ToMinorUnits(req.Amount)
	if err != nil {
		return nil, apperror.ErrInvalidAmount(err.Error())
	}
	if minor == "0" {
		return nil, apperror.ErrInvalidAmount("amount must be positive")
	}

	checkout := &domain.Checkout{
		ID:             uuid.New(),
		MerchantID:     req.MerchantID,
		Name:           req.Name,
		Amount:         minor,
		SettlementMode: req.SettlementMode,
		Status:         domain.CheckoutPending,
		CreatedAt:      time.Now(),
	}

	if req.SettlementMode == domain.SettleShielded {
		addr, spendKey, err := deriveCheckoutAddress(checkout.ID, req.MerchantID)
		if err != nil {
			return nil, apperror.InternalError(err)
		}
		spendEnc, err := s.encryptor.Encrypt(spendKey)
		if err != nil {
			return nil, apperror.ErrEncryptionFailure(err)
		}
		checkout.PrivateAddress = addr
		checkout.SpendKeyEnc = spendEnc
	}

	if err := s.checkoutRepo.Create(ctx, checkout); err != nil {
		return nil, apperror.InternalError(err)
	}

	s.logger.Info().
		Str("checkout_id", checkout.ID.String()).
		Str("merchant_id", req.MerchantID.String()).
		Str("mode", string(checkout.SettlementMode)).
		Msg("checkout created")

	return checkout, nil
}

// List returns the merchant's checkouts, newest first.
func (s *CheckoutServiceImpl) List(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*domain.Checkout, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, err := s.checkoutRepo.ListByMerchant(ctx, merchantID, limit, offset)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return list, nil
}

// Get resolves a checkout for a paying client. Pending checkouts without an
// acceptable payment proof yield a challenge for the caller to serve with
// HTTP 402. Settled checkouts are always returned directly.
func (s *CheckoutServiceImpl) Get(ctx context.Context, id uuid.UUID, proofHeader string) (*domain.Checkout, *domain.PaymentRequired, error) {
	checkout, err := s.checkoutRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, apperror.InternalError(err)
	}
	if checkout == nil {
		return nil, nil, apperror.ErrNotFound("Checkout")
	}

	if !checkout.Payable() {
		return checkout, nil, nil
	}

	merchant, err := s.merchantRepo.GetByID(ctx, checkout.MerchantID)
	if err != nil {
		return nil, nil, apperror.InternalError(err)
	}
	if merchant == nil {
		return nil, nil, apperror.ErrNotFound("Merchant")
	}

	if proofHeader == "" {
		return checkout, s.challenges.Issue(checkout, merchant.PayoutAddress), nil
	}

	if _, err := DecodeProof(proofHeader); err != nil {
		ch := s.challenges.Issue(checkout, merchant.PayoutAddress)
		ch.Error = err.Error()
		return checkout, ch, nil
	}

	ok, err := s.proofs.Bind(ctx, ProofHash(proofHeader), checkout.ID)
	if err != nil {
		return nil, nil, apperror.InternalError(err)
	}
	if !ok {
		return nil, nil, apperror.ErrProofReused()
	}

	return checkout, nil, nil
}

// PayDirect settles a direct-mode checkout by transferring the amount to the
// merchant's public payout address.
func (s *CheckoutServiceImpl) PayDirect(ctx context.Context, id uuid.UUID, proofHeader string) (*domain.Checkout, error) {
	release, err := s.acquireSettle(id)
	if err != nil {
		return nil, err
	}
	defer release()

	checkout, err := s.checkoutRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if checkout == nil {
		return nil, apperror.ErrNotFound("Checkout")
	}
	if checkout.SettlementMode != domain.SettleDirect {
		return nil, apperror.ErrWrongSettlementPath()
	}
	if checkout.Status == domain.CheckoutCompleted {
		return nil, apperror.ErrCheckoutCompleted()
	}
	if !checkout.Payable() {
		return nil, apperror.ErrCheckoutNotPending()
	}

	if proofHeader == "" {
		return nil, apperror.Validation("X-Payment header is required")
	}
	if _, err := DecodeProof(proofHeader); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	bound, err := s.proofs.Bind(ctx, ProofHash(proofHeader), checkout.ID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if !bound {
		return nil, apperror.ErrProofReused()
	}

	merchant, err := s.merchantRepo.GetByID(ctx, checkout.MerchantID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("Merchant")
	}

	txHash, err := s.settler.Settle(ctx, ports.DirectSettlementRequest{
		To:     merchant.PayoutAddress,
		Amount: checkout.Amount,
	})
	if err != nil {
		s.failCheckout(ctx, checkout.ID)
		return nil, apperror.ErrSettlementFailed(err)
	}

	won, err := s.checkoutRepo.CompleteDirect(ctx, checkout.ID, txHash)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if !won {
		return nil, apperror.ErrCheckoutConflict()
	}

	s.logger.Info().
		Str("checkout_id", checkout.ID.String()).
		Str("tx_hash", txHash).
		Msg("checkout settled directly")

	return s.reload(ctx, checkout.ID)
}

// RecordShield records the buyer's shield confirmation on a shielded-mode
// checkout. One confirmation per checkout.
func (s *CheckoutServiceImpl) RecordShield(ctx context.Context, id uuid.UUID, proofRef string) (*domain.Checkout, error) {
	if proofRef == "" {
		return nil, apperror.Validation("shield proof reference is required")
	}

	checkout, err := s.checkoutRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if checkout == nil {
		return nil, apperror.ErrNotFound("Checkout")
	}
	if checkout.SettlementMode != domain.SettleShielded {
		return nil, apperror.ErrWrongSettlementPath()
	}
	if checkout.Status == domain.CheckoutCompleted {
		return nil, apperror.ErrCheckoutCompleted()
	}
	if !checkout.Payable() {
		return nil, apperror.ErrCheckoutNotPending()
	}
	if checkout.Shielded() {
		return nil, apperror.ErrAlreadyShielded()
	}

	recorded, err := s.checkoutRepo.SetShieldProof(ctx, id, proofRef)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if !recorded {
		// Lost the race: either another confirmation landed first or the
		// checkout left the pending state.
		return nil, apperror.ErrAlreadyShielded()
	}

	s.logger.Info().
		Str("checkout_id", id.String()).
		Msg("shield confirmation recorded")

	return s.reload(ctx, id)
}

// SettlePrivately verifies shielded funds at the checkout address and moves
// them to the merchant's private wallet. Verification is fail-closed: any
// doubt about the balance aborts the settlement.
func (s *CheckoutServiceImpl) SettlePrivately(ctx context.Context, id uuid.UUID) (*domain.Checkout, error) {
	release, err := s.acquireSettle(id)
	if err != nil {
		return nil, err
	}
	defer release()

	checkout, err := s.checkoutRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if checkout == nil {
		return nil, apperror.ErrNotFound("Checkout")
	}
	if checkout.SettlementMode != domain.SettleShielded {
		return nil, apperror.ErrWrongSettlementPath()
	}
	if checkout.Status == domain.CheckoutCompleted {
		return nil, apperror.ErrCheckoutCompleted()
	}
	if !checkout.Payable() {
		return nil, apperror.ErrCheckoutNotPending()
	}
	if !checkout.Shielded() {
		return nil, apperror.ErrNotShielded()
	}

	wallet, err := s.walletRepo.GetByMerchantID(ctx, checkout.MerchantID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotProvisioned()
	}

	engine, err := s.handle.Engine(ctx)
	if err != nil {
		return nil, apperror.ErrEngineCall(err)
	}

	balance, err := engine.PrivateBalance(ctx, checkout.PrivateAddress)
	if err != nil {
		s.handle.Reset()
		return nil, apperror.ErrFundsNotVerified()
	}
	if !coversAmount(balance, checkout.Amount) {
		return nil, apperror.ErrFundsNotVerified()
	}

	spendKey, err := s.encryptor.Decrypt(checkout.SpendKeyEnc)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(err)
	}

	transferRef, err := engine.PrivateTransfer(ctx, ports.PrivateTransferRequest{
		FromWalletRef: checkout.PrivateAddress,
		SpendingKey:   spendKey,
		ToAddress:     wallet.PrivateAddress,
		Amount:        checkout.Amount,
		Memo:          checkout.Name,
	})
	if err != nil {
		s.failCheckout(ctx, checkout.ID)
		return nil, apperror.ErrTransferFailed(err)
	}

	won, err := s.checkoutRepo.CompletePrivate(ctx, checkout.ID, transferRef)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if !won {
		// Funds already moved; a winner on another node recorded completion.
		s.logger.Warn().
			Str("checkout_id", checkout.ID.String()).
			Str("transfer_ref", transferRef).
			Msg("private transfer landed after concurrent completion")
		return nil, apperror.ErrCheckoutConflict()
	}

	s.logger.Info().
		Str("checkout_id", checkout.ID.String()).
		Str("transfer_ref", transferRef).
		Msg("checkout settled privately")

	return s.reload(ctx, checkout.ID)
}

// acquireSettle claims the in-process settlement slot for a checkout. A
// second attempt while one is in flight is rejected as a conflict rather
// than queued behind a chain call.
func (s *CheckoutServiceImpl) acquireSettle(id uuid.UUID) (func(), error) {
	v, _ := s.settleGuards.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	if !mu.TryLock() {
		return nil, apperror.ErrCheckoutConflict()
	}
	return mu.Unlock, nil
}

func (s *CheckoutServiceImpl) reload(ctx context.Context, id uuid.UUID) (*domain.Checkout, error) {
	checkout, err := s.checkoutRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if checkout == nil {
		return nil, apperror.ErrNotFound("Checkout")
	}
	return checkout, nil
}

func (s *CheckoutServiceImpl) failCheckout(ctx context.Context, id uuid.UUID) {
	if _, err := s.checkoutRepo.MarkFailed(ctx, id); err != nil {
		s.logger.Error().Err(err).
			Str("checkout_id", id.String()).
			Msg("marking checkout failed")
	}
}

// coversAmount reports whether balance >= required, both minor-unit strings.
func coversAmount(balance, required string) bool {
	b, okB := new(big.Int).SetString(balance, 10)
	r, okR := new(big.Int).SetString(required, 10)
	if !okB || !okR {
		return false
	}
	return b.Cmp(r) >= 0
}
