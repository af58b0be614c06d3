package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"private-checkout-gateway/config"
	"private-checkout-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// Client is an HTTP adapter for the external privacy engine. It implements
// both ports.EngineDialer and ports.PrivacyEngine: Dial performs the health
// probe (the engine refuses calls until its shielded-pool scan finishes) and
// returns the client itself as the live engine.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a privacy engine client from config.
func NewClient(cfg config.EngineConfig, logger zerolog.Logger) *Client {
	return &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger.With().Str("component", "engine_client").Logger(),
	}
}

// Dial verifies the engine is reachable and ready.
func (c *Client) Dial(ctx context.Context) (ports.PrivacyEngine, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("engine endpoint not configured")
	}

	start := time.Now()
	var status struct {
		Ready bool `json:"ready"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/status", nil, &status); err != nil {
		return nil, fmt.Errorf("engine status: %w", err)
	}
	if !status.Ready {
		return nil, fmt.Errorf("engine not ready")
	}

	c.logger.Info().
		Dur("elapsed", time.Since(start)).
		Msg("privacy engine ready")
	return c, nil
}

// GenerateWallet asks the engine for a fresh private wallet.
func (c *Client) GenerateWallet(ctx context.Context) (*ports.EngineWallet, error) {
	var resp struct {
		WalletRef      string `json:"walletRef"`
		PrivateAddress string `json:"privateAddress"`
		Mnemonic       string `json:"mnemonic"`
		SpendingKey    string `json:"spendingKey"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/wallets", struct{}{}, &resp); err != nil {
		return nil, fmt.Errorf("engine generate wallet: %w", err)
	}

	return &ports.EngineWallet{
		WalletRef:      resp.WalletRef,
		PrivateAddress: resp.PrivateAddress,
		SecretMaterial: resp.Mnemonic,
		SpendingKey:    resp.SpendingKey,
	}, nil
}

// PrivateBalance returns the spendable shielded balance in minor units.
func (c *Client) PrivateBalance(ctx context.Context, walletRef string) (string, error) {
	var resp struct {
		Balance string `json:"balance"`
	}
	path := fmt.Sprintf("/v1/wallets/%s/balance", walletRef)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", fmt.Errorf("engine balance: %w", err)
	}
	return resp.Balance, nil
}

// PrivateTransfer executes a shielded transfer.
func (c *Client) PrivateTransfer(ctx context.Context, req ports.PrivateTransferRequest) (string, error) {
	body := struct {
		From        string `json:"from"`
		SpendingKey string `json:"spendingKey"`
		To          string `json:"to"`
		Amount      string `json:"amount"`
		Memo        string `json:"memo,omitempty"`
	}{req.FromWalletRef, req.SpendingKey, req.ToAddress, req.Amount, req.Memo}

	var resp struct {
		TransferRef string `json:"transferRef"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/transfers", body, &resp); err != nil {
		return "", fmt.Errorf("engine transfer: %w", err)
	}
	return resp.TransferRef, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("engine returned %d: %s", resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
