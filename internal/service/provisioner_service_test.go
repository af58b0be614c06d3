package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"private-checkout-gateway/internal/core/domain"
	"private-checkout-gateway/internal/core/ports"
	"private-checkout-gateway/internal/core/ports/mocks"
	"private-checkout-gateway/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newProvisioner(t *testing.T, engine ports.PrivacyEngine, timeout time.Duration) *ProvisionerService {
	ctrl := gomock.NewController(t)
	dialer := mocks.NewMockEngineDialer(ctrl)
	dialer.EXPECT().Dial(gomock.Any()).Return(engine, nil).AnyTimes()

	encryptor := mocks.NewMockEncryptionService(ctrl)
	encryptor.EXPECT().Encrypt(gomock.Any()).
		DoAndReturn(func(p string) (string, error) { return "enc:" + p, nil }).AnyTimes()

	walletRepo := mocks.NewMockWalletRepository(ctrl)

	return NewProvisionerService(
		NewEngineHandle(dialer), walletRepo, encryptor, timeout,
		logger.NewWithWriter("error", nil),
	)
}

// slowEngine counts GenerateWallet calls and can block until released.
type slowEngine struct {
	calls   atomic.Int64
	release chan struct{}
}

func (e *slowEngine) GenerateWallet(ctx context.Context) (*ports.EngineWallet, error) {
	e.calls.Add(1)
	if e.release != nil {
		select {
		case <-e.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &ports.EngineWallet{
		WalletRef:      "ref-1",
		PrivateAddress: "0zkwallet",
		SecretMaterial: "secret",
		SpendingKey:    "spend",
	}, nil
}

func (e *slowEngine) PrivateBalance(ctx context.Context, walletRef string) (string, error) {
	return "0", nil
}

func (e *slowEngine) PrivateTransfer(ctx context.Context, req ports.PrivateTransferRequest) (string, error) {
	return "", nil
}

func TestProvision_EncryptsSecrets(t *testing.T) {
	eng := &slowEngine{}
	p := newProvisioner(t, eng, time.Minute)

	merchantID := uuid.New()
	w, err := p.Provision(context.Background(), merchantID, "alice-shop")
	require.NoError(t, err)

	assert.Equal(t, merchantID, w.MerchantID)
	assert.Equal(t, "0zkwallet", w.PrivateAddress)
	assert.Equal(t, "enc:secret", w.SecretMaterialEnc)
	assert.Equal(t, "enc:spend", w.SpendingKeyEnc)
}

// Concurrent provisioning for one merchant identity must collapse into a
// single engine call, even when each registration attempt carries its own
// freshly minted merchant id.
func TestProvision_SingleFlightPerIdentity(t *testing.T) {
	eng := &slowEngine{release: make(chan struct{})}
	p := newProvisioner(t, eng, time.Minute)

	const n = 8

	var wg sync.WaitGroup
	results := make([]error, n)
	wallets := make([]*domain.MerchantWallet, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			wallets[i], results[i] = p.Provision(context.Background(), uuid.New(), "Bob-Store")
		}(i)
	}

	// Let the callers pile up on the in-flight generation, then release.
	time.Sleep(50 * time.Millisecond)
	close(eng.release)
	wg.Wait()

	for i, err := range results {
		assert.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, int64(1), eng.calls.Load())
	for _, w := range wallets {
		assert.Equal(t, "0zkwallet", w.PrivateAddress)
	}
}

func TestProvision_CallerTimeout(t *testing.T) {
	eng := &slowEngine{release: make(chan struct{})}
	defer close(eng.release)
	p := newProvisioner(t, eng, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := p.Provision(ctx, uuid.New(), "slow-shop")
	assertCode(t, err, "ENG_002")
}

// Expiry of the generation deadline itself is a provisioning timeout, not a
// generic engine failure.
func TestProvision_GenerationTimeout(t *testing.T) {
	eng := &slowEngine{release: make(chan struct{})}
	defer close(eng.release)
	p := newProvisioner(t, eng, 20*time.Millisecond)

	_, err := p.Provision(context.Background(), uuid.New(), "stuck-shop")
	assertCode(t, err, "ENG_002")
}
