package integration

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"private-checkout-gateway/internal/core/domain"
	"private-checkout-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Merchant Repo ---

type inMemoryMerchantRepo struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]*domain.Merchant
}

func newInMemoryMerchantRepo() *inMemoryMerchantRepo {
	return &inMemoryMerchantRepo{merchants: make(map[uuid.UUID]*domain.Merchant)}
}

func (r *inMemoryMerchantRepo) Create(ctx context.Context, tx pgx.Tx, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.merchants {
		if existing.Username == m.Username {
			return fmt.Errorf("username already exists")
		}
	}
	r.merchants[m.ID] = m
	return nil
}

func (r *inMemoryMerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	return m, nil
}

func (r *inMemoryMerchantRepo) GetByUsername(ctx context.Context, username string) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.merchants {
		if m.Username == username {
			return m, nil
		}
	}
	return nil, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.MerchantWallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.MerchantWallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.MerchantWallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.wallets {
		if existing.MerchantID == w.MerchantID {
			return fmt.Errorf("wallet already exists for merchant")
		}
	}
	r.wallets[w.ID] = w
	return nil
}

func (r *inMemoryWalletRepo) GetByMerchantID(ctx context.Context, merchantID uuid.UUID) (*domain.MerchantWallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.MerchantID == merchantID {
			return w, nil
		}
	}
	return nil, nil
}

// --- In-Memory Checkout Repo ---

// inMemoryCheckoutRepo mirrors the conditional-update semantics of the SQL
// implementation under a mutex.
type inMemoryCheckoutRepo struct {
	mu        sync.RWMutex
	checkouts map[uuid.UUID]*domain.Checkout
}

func newInMemoryCheckoutRepo() *inMemoryCheckoutRepo {
	return &inMemoryCheckoutRepo{checkouts: make(map[uuid.UUID]*domain.Checkout)}
}

func (r *inMemoryCheckoutRepo) Create(ctx context.Context, c *domain.Checkout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.checkouts[c.ID] = &cp
	return nil
}

func (r *inMemoryCheckoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Checkout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.checkouts[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *inMemoryCheckoutRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*domain.Checkout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*domain.Checkout
	for _, c := range r.checkouts {
		if c.MerchantID == merchantID {
			cp := *c
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r *inMemoryCheckoutRepo) SetShieldProof(ctx context.Context, id uuid.UUID, proofRef string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.checkouts[id]
	if !ok || c.Status != domain.CheckoutPending || c.ShieldProofRef != "" {
		return false, nil
	}
	c.ShieldProofRef = proofRef
	return true, nil
}

func (r *inMemoryCheckoutRepo) CompleteDirect(ctx context.Context, id uuid.UUID, transferRef string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.checkouts[id]
	if !ok || c.Status != domain.CheckoutPending {
		return false, nil
	}
	c.Status = domain.CheckoutCompleted
	c.DirectTransferRef = transferRef
	return true, nil
}

func (r *inMemoryCheckoutRepo) CompletePrivate(ctx context.Context, id uuid.UUID, transferRef string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.checkouts[id]
	if !ok || c.Status != domain.CheckoutPending {
		return false, nil
	}
	c.Status = domain.CheckoutCompleted
	c.PrivateTransferRef = transferRef
	return true, nil
}

func (r *inMemoryCheckoutRepo) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.checkouts[id]
	if !ok || c.Status != domain.CheckoutPending {
		return false, nil
	}
	c.Status = domain.CheckoutFailed
	return true, nil
}

// --- In-Memory Proof Store ---

type inMemoryProofStore struct {
	mu     sync.Mutex
	proofs map[string]uuid.UUID
}

func newInMemoryProofStore() *inMemoryProofStore {
	return &inMemoryProofStore{proofs: make(map[string]uuid.UUID)}
}

func (s *inMemoryProofStore) Bind(ctx context.Context, proofHash string, checkoutID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.proofs[proofHash]
	if !ok {
		s.proofs[proofHash] = checkoutID
		return true, nil
	}
	return owner == checkoutID, nil
}

// --- Fake Privacy Engine ---

// fakeEngine implements ports.PrivacyEngine and ports.EngineDialer with
// in-memory shielded balances keyed by address.
type fakeEngine struct {
	mu       sync.Mutex
	balances map[string]*big.Int
	wallets  int
	xfers    int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{balances: make(map[string]*big.Int)}
}

func (e *fakeEngine) Dial(ctx context.Context) (ports.PrivacyEngine, error) {
	return e, nil
}

func (e *fakeEngine) GenerateWallet(ctx context.Context) (*ports.EngineWallet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.wallets++
	ref := fmt.Sprintf("wallet-%d", e.wallets)
	return &ports.EngineWallet{
		WalletRef:      ref,
		PrivateAddress: "0zk" + ref,
		SecretMaterial: "mnemonic for " + ref,
		SpendingKey:    "spend-" + ref,
	}, nil
}

func (e *fakeEngine) PrivateBalance(ctx context.Context, walletRef string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.balances[walletRef]
	if !ok {
		return "0", nil
	}
	return b.String(), nil
}

func (e *fakeEngine) PrivateTransfer(ctx context.Context, req ports.PrivateTransferRequest) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		return "", fmt.Errorf("bad amount %q", req.Amount)
	}
	from := e.balances[req.FromWalletRef]
	if from == nil || from.Cmp(amount) < 0 {
		return "", fmt.Errorf("insufficient shielded balance")
	}
	from.Sub(from, amount)
	to := e.balances[req.ToAddress]
	if to == nil {
		to = new(big.Int)
		e.balances[req.ToAddress] = to
	}
	to.Add(to, amount)
	e.xfers++
	return fmt.Sprintf("transfer-%d", e.xfers), nil
}

// fund credits a shielded balance, standing in for a buyer's shield.
func (e *fakeEngine) fund(address, amount string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, _ := new(big.Int).SetString(amount, 10)
	e.balances[address] = v
}

// --- Fake Direct Settler ---

type fakeSettler struct {
	mu      sync.Mutex
	settled int
	fail    bool
}

func (s *fakeSettler) Settle(ctx context.Context, req ports.DirectSettlementRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return "", fmt.Errorf("rpc unavailable")
	}
	s.settled++
	return fmt.Sprintf("0xtx%d", s.settled), nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func (t *inMemoryTransactor) WithinTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(&noopTx{})
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
