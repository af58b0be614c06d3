package integration

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"private-checkout-gateway/config"
	"private-checkout-gateway/internal/adapter/http/handler"
	"private-checkout-gateway/internal/service"
	"private-checkout-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router       *gin.Engine
	engine       *fakeEngine
	settler      *fakeSettler
	checkoutRepo *inMemoryCheckoutRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewWithWriter("error", nil)

	merchantRepo := newInMemoryMerchantRepo()
	walletRepo := newInMemoryWalletRepo()
	checkoutRepo := newInMemoryCheckoutRepo()
	proofStore := newInMemoryProofStore()
	eng := newFakeEngine()
	settler := &fakeSettler{}

	encSvc, err := service.NewAESEncryptionService(strings.Repeat("ab", 32))
	require.NoError(t, err)
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(config.JWTConfig{
		Secret: "integration-test-secret",
		Expiry: time.Hour,
		Issuer: "test",
	})

	handle := service.NewEngineHandle(eng)
	provisioner := service.NewProvisionerService(handle, walletRepo, encSvc, time.Minute, log)
	authSvc := service.NewAuthService(
		merchantRepo, walletRepo, &inMemoryTransactor{}, provisioner, hashSvc, tokenSvc, log)

	issuer := service.NewChallengeIssuer(
		config.ChainConfig{Network: "polygon", Asset: "0xtoken", MaxTimeoutSec: 60},
		config.ServerConfig{ExternalURL: "http://checkout.test"},
	)
	checkoutSvc := service.NewCheckoutService(
		checkoutRepo, merchantRepo, walletRepo, proofStore, encSvc,
		issuer, handle, settler, log)
	walletSvc := service.NewWalletService(walletRepo)

	router := handler.SetupRouter(handler.RouterDeps{
		AuthSvc:     authSvc,
		CheckoutSvc: checkoutSvc,
		WalletSvc:   walletSvc,
		TokenSvc:    tokenSvc,
		Logger:      log,
	})

	return &testEnv{
		router:       router,
		engine:       eng,
		settler:      settler,
		checkoutRepo: checkoutRepo,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	return envelope.Data
}

func (e *testEnv) registerAndLogin(t *testing.T, username string) (token string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username":       username,
		"password":       "hunter2hunter2",
		"payout_address": "0x00000000000000000000000000000000deadbeef",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": "hunter2hunter2",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return dataOf(t, w)["token"].(string)
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func proofHeader(nonce string) string {
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf(
		`{"x402Version":1,"scheme":"exact","network":"polygon","payload":{"nonce":%q}}`, nonce)))
}

func TestDirectCheckoutLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "alice-direct")

	// Create a direct-mode checkout.
	w := env.do(t, http.MethodPost, "/api/v1/checkouts", map[string]any{
		"name":            "coffee",
		"amount":          "10.5",
		"settlement_mode": "direct",
	}, bearer(token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := dataOf(t, w)
	assert.Equal(t, "10500000", created["amount"])
	assert.Equal(t, "pending", created["status"])
	checkoutID := created["id"].(string)

	// Anonymous GET yields the 402 challenge with x402 wire fields.
	w = env.do(t, http.MethodGet, "/api/v1/checkouts/"+checkoutID, nil, nil)
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	var challenge struct {
		X402Version int `json:"x402Version"`
		Accepts     []struct {
			MaxAmountRequired string `json:"maxAmountRequired"`
			PayTo             string `json:"payTo"`
			Resource          string `json:"resource"`
		} `json:"accepts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &challenge))
	require.Len(t, challenge.Accepts, 1)
	assert.Equal(t, 1, challenge.X402Version)
	assert.Equal(t, "10500000", challenge.Accepts[0].MaxAmountRequired)
	assert.Equal(t, "0x00000000000000000000000000000000deadbeef", challenge.Accepts[0].PayTo)
	assert.Contains(t, challenge.Accepts[0].Resource, checkoutID)

	// Pay with a proof; the settler runs and the checkout completes.
	w = env.do(t, http.MethodPost, "/api/v1/checkouts/"+checkoutID+"/pay", nil,
		map[string]string{"X-Payment": proofHeader("p1")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paid := dataOf(t, w)
	assert.Equal(t, "completed", paid["status"])
	assert.Equal(t, "0xtx1", paid["direct_transfer_ref"])

	// A settled checkout is publicly readable without a proof.
	w = env.do(t, http.MethodGet, "/api/v1/checkouts/"+checkoutID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", dataOf(t, w)["status"])

	// Paying again must be rejected.
	w = env.do(t, http.MethodPost, "/api/v1/checkouts/"+checkoutID+"/pay", nil,
		map[string]string{"X-Payment": proofHeader("p2")})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestShieldedCheckoutLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "bob-shielded")

	w := env.do(t, http.MethodPost, "/api/v1/checkouts", map[string]any{
		"name":            "private order",
		"amount":          2.5,
		"settlement_mode": "shielded",
	}, bearer(token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := dataOf(t, w)
	checkoutID := created["id"].(string)
	privateAddress := created["private_address"].(string)
	assert.Equal(t, "2500000", created["amount"])
	assert.True(t, strings.HasPrefix(privateAddress, "0zk"))

	// Challenge advertises the checkout-scoped private address.
	w = env.do(t, http.MethodGet, "/api/v1/checkouts/"+checkoutID, nil, nil)
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), privateAddress)

	// Settling before the shield confirmation is recorded must fail.
	w = env.do(t, http.MethodPost, "/api/v1/checkouts/"+checkoutID+"/settle", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Record the buyer's shield confirmation.
	w = env.do(t, http.MethodPost, "/api/v1/checkouts/"+checkoutID+"/shield",
		map[string]string{"proof_ref": "shield-proof-1"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "shield-proof-1", dataOf(t, w)["shield_proof_ref"])

	// Recording a second confirmation is rejected.
	w = env.do(t, http.MethodPost, "/api/v1/checkouts/"+checkoutID+"/shield",
		map[string]string{"proof_ref": "shield-proof-2"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Settlement fails closed while the shielded balance is short.
	w = env.do(t, http.MethodPost, "/api/v1/checkouts/"+checkoutID+"/settle", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ENG_003")

	// Fund the checkout address, as the buyer's shield would, and settle.
	env.engine.fund(privateAddress, "2500000")
	w = env.do(t, http.MethodPost, "/api/v1/checkouts/"+checkoutID+"/settle", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	settled := dataOf(t, w)
	assert.Equal(t, "completed", settled["status"])
	assert.NotEmpty(t, settled["private_transfer_ref"])

	// The merchant's private wallet received the funds.
	balance, err := env.engine.PrivateBalance(t.Context(), "0zkwallet-1")
	require.NoError(t, err)
	assert.Equal(t, "2500000", balance)
}

func TestWalletEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "carol-wallet")

	w := env.do(t, http.MethodGet, "/api/v1/wallets/me", nil, bearer(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	wallet := dataOf(t, w)
	assert.True(t, strings.HasPrefix(wallet["private_address"].(string), "0zk"))

	// Secret material must never appear in the response.
	assert.NotContains(t, w.Body.String(), "mnemonic")
	assert.NotContains(t, w.Body.String(), "spend-")
}

func TestMerchantRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/checkouts", map[string]any{
		"name":            "x",
		"amount":          "1",
		"settlement_mode": "direct",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/wallets/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProofCannotUnlockTwoCheckouts(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "dave-replay")

	var ids []string
	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/api/v1/checkouts", map[string]any{
			"name":            fmt.Sprintf("order %d", i),
			"amount":          "1",
			"settlement_mode": "direct",
		}, bearer(token))
		require.Equal(t, http.StatusCreated, w.Code)
		ids = append(ids, dataOf(t, w)["id"].(string))
	}

	proof := map[string]string{"X-Payment": proofHeader("shared")}

	w := env.do(t, http.MethodPost, "/api/v1/checkouts/"+ids[0]+"/pay", nil, proof)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/v1/checkouts/"+ids[1]+"/pay", nil, proof)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CHK_008")
}
