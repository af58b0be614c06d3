package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"private-checkout-gateway/internal/core/domain"
	"private-checkout-gateway/internal/core/ports"
	"private-checkout-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ProvisionerService provisions merchant wallets through the privacy engine.
// Concurrent provisioning requests for the same merchant identity are
// collapsed into one engine call via singleflight.
type ProvisionerService struct {
	handle     *EngineHandle
	walletRepo ports.WalletRepository
	encryptor  ports.EncryptionService
	timeout    time.Duration
	group      singleflight.Group
	logger     zerolog.Logger
}

// NewProvisionerService creates a new wallet provisioner.
func NewProvisionerService(
	handle *EngineHandle,
	walletRepo ports.WalletRepository,
	encryptor ports.EncryptionService,
	timeout time.Duration,
	logger zerolog.Logger,
) *ProvisionerService {
	return &ProvisionerService{
		handle:     handle,
		walletRepo: walletRepo,
		encryptor:  encryptor,
		timeout:    timeout,
		logger:     logger.With().Str("component", "provisioner").Logger(),
	}
}

// Provision generates a wallet through the privacy engine and returns it
// with secret material already encrypted. It does not persist; registration
// persists the wallet inside the same transaction as the merchant row.
//
// The engine call is keyed by the merchant identity (normalized username),
// so a burst of duplicate registration attempts for one identity performs a
// single wallet generation and shares the generated material. Expiry of the
// generation deadline surfaces as a provisioning timeout.
func (s *ProvisionerService) Provision(ctx context.Context, merchantID uuid.UUID, identity string) (*domain.MerchantWallet, error) {
	key := strings.ToLower(strings.TrimSpace(identity))
	ch := s.group.DoChan(key, func() (interface{}, error) {
		genCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		return s.generate(genCtx, key)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			// Do not let a failed generation poison later retries.
			s.group.Forget(key)
			if errors.Is(res.Err, context.DeadlineExceeded) {
				return nil, apperror.ErrProvisioningTimeout(res.Err)
			}
			return nil, res.Err
		}
		m := res.Val.(*walletMaterial)
		return &domain.MerchantWallet{
			ID:                uuid.New(),
			MerchantID:        merchantID,
			PrivateAddress:    m.privateAddress,
			SecretMaterialEnc: m.secretEnc,
			SpendingKeyEnc:    m.spendEnc,
			WalletRef:         m.walletRef,
			CreatedAt:         time.Now(),
		}, nil
	case <-ctx.Done():
		// The in-flight generation keeps running on its own timeout, but
		// this caller gives up. Forget so a retry starts fresh.
		s.group.Forget(key)
		return nil, apperror.ErrProvisioningTimeout(ctx.Err())
	}
}

// walletMaterial is the shareable output of one engine wallet generation.
type walletMaterial struct {
	privateAddress string
	secretEnc      string
	spendEnc       string
	walletRef      string
}

func (s *ProvisionerService) generate(ctx context.Context, identity string) (*walletMaterial, error) {
	engine, err := s.handle.Engine(ctx)
	if err != nil {
		return nil, apperror.ErrEngineCall(err)
	}

	ew, err := engine.GenerateWallet(ctx)
	if err != nil {
		s.handle.Reset()
		return nil, apperror.ErrEngineCall(err)
	}

	secretEnc, err := s.encryptor.Encrypt(ew.SecretMaterial)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(err)
	}
	spendEnc, err := s.encryptor.Encrypt(ew.SpendingKey)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(err)
	}

	s.logger.Info().
		Str("identity", identity).
		Str("private_address", ew.PrivateAddress).
		Msg("merchant wallet provisioned")

	return &walletMaterial{
		privateAddress: ew.PrivateAddress,
		secretEnc:      secretEnc,
		spendEnc:       spendEnc,
		walletRef:      ew.WalletRef,
	}, nil
}

// WalletService exposes the merchant's stored wallet.
type WalletService struct {
	walletRepo ports.WalletRepository
}

// NewWalletService creates a new wallet query service.
func NewWalletService(walletRepo ports.WalletRepository) *WalletService {
	return &WalletService{walletRepo: walletRepo}
}

// GetOwn returns the merchant's provisioned wallet.
func (s *WalletService) GetOwn(ctx context.Context, merchantID uuid.UUID) (*domain.MerchantWallet, error) {
	w, err := s.walletRepo.GetByMerchantID(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if w == nil {
		return nil, apperror.ErrWalletNotProvisioned()
	}
	return w, nil
}
