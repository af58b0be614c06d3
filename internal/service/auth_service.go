package service

import (
	"context"
	"strings"
	"time"

	"private-checkout-gateway/internal/core/domain"
	"private-checkout-gateway/internal/core/ports"
	"private-checkout-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	merchantRepo ports.MerchantRepository
	walletRepo   ports.WalletRepository
	transactor   ports.DBTransactor
	provisioner  *ProvisionerService
	hasher       ports.HashService
	tokens       ports.TokenService
	logger       zerolog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	merchantRepo ports.MerchantRepository,
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	provisioner *ProvisionerService,
	hasher ports.HashService,
	tokens ports.TokenService,
	logger zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		merchantRepo: merchantRepo,
		walletRepo:   walletRepo,
		transactor:   transactor,
		provisioner:  provisioner,
		hasher:       hasher,
		tokens:       tokens,
		logger:       logger.With().Str("component", "auth_service").Logger(),
	}
}

// Register creates a merchant account and provisions its private wallet.
// The wallet is generated before the transaction opens (the engine call can
// take minutes), then merchant and wallet rows commit atomically.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*domain.Merchant, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || len(username) > 64 {
		return nil, apperror.Validation("username must be 1-64 characters")
	}
	if len(req.Password) < 8 {
		return nil, apperror.Validation("password must be at least 8 characters")
	}
	if req.PayoutAddress == "" {
		return nil, apperror.Validation("payout_address is required")
	}

	existing, err := s.merchantRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if existing != nil {
		return nil, apperror.ErrUsernameExists()
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	merchant := &domain.Merchant{
		ID:            uuid.New(),
		Username:      username,
		PasswordHash:  hash,
		PayoutAddress: req.PayoutAddress,
		Status:        domain.MerchantActive,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	wallet, err := s.provisioner.Provision(ctx, merchant.ID, username)
	if err != nil {
		return nil, err
	}

	err = s.transactor.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.merchantRepo.Create(ctx, tx, merchant); err != nil {
			return err
		}
		return s.walletRepo.Create(ctx, tx, wallet)
	})
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	s.logger.Info().
		Str("merchant_id", merchant.ID.String()).
		Str("username", merchant.Username).
		Msg("merchant registered")

	return merchant, nil
}

// Login verifies credentials and issues an access token.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	merchant, err := s.merchantRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if merchant == nil {
		return nil, apperror.ErrInvalidCredentials()
	}

	ok, err := s.hasher.Verify(password, merchant.PasswordHash)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if !ok {
		return nil, apperror.ErrInvalidCredentials()
	}

	if !merchant.Active() {
		return nil, apperror.ErrMerchantSuspended()
	}

	token, expiresAt, err := s.tokens.Generate(merchant.ID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	return &ports.LoginResult{
		Merchant:  merchant,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}
