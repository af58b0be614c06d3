package service

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"private-checkout-gateway/config"
	"private-checkout-gateway/internal/core/domain"
)

// ChallengeIssuer builds HTTP 402 payment challenges for pending checkouts.
type ChallengeIssuer struct {
	network       string
	asset         string
	externalURL   string
	maxTimeoutSec int
}

// NewChallengeIssuer creates a challenge issuer from chain and server config.
func NewChallengeIssuer(chain config.ChainConfig, server config.ServerConfig) *ChallengeIssuer {
	return &ChallengeIssuer{
		network:       chain.Network,
		asset:         chain.Asset,
		externalURL:   strings.TrimRight(server.ExternalURL, "/"),
		maxTimeoutSec: chain.MaxTimeoutSec,
	}
}

// Issue builds the challenge for a pending checkout. The pay-to address
// depends on the settlement mode: direct checkouts advertise the merchant's
// public payout address, shielded checkouts advertise the checkout-scoped
// private address.
func (i *ChallengeIssuer) Issue(c *domain.Checkout, payoutAddress string) *domain.PaymentRequired {
	payTo := payoutAddress
	extra := map[string]string{"settlementMode": string(c.SettlementMode)}
	if c.SettlementMode == domain.SettleShielded {
		payTo = c.PrivateAddress
	}

	return &domain.PaymentRequired{
		X402Version: 1,
		Accepts: []domain.PaymentRequirements{{
			Scheme:            "exact",
			Network:           i.network,
			MaxAmountRequired: c.Amount,
			Resource:          fmt.Sprintf("%s/api/v1/checkouts/%s", i.externalURL, c.ID),
			Description:       c.Name,
			MimeType:          "application/json",
			PayTo:             payTo,
			MaxTimeoutSeconds: i.maxTimeoutSec,
			Asset:             i.asset,
			Extra:             extra,
		}},
	}
}

// DecodeProof parses a base64-encoded X-Payment header into its payload.
// Only the envelope shape is checked here; settlement-path handlers decide
// what to do with the inner payload.
func DecodeProof(header string) (*domain.PaymentPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header))
	if err != nil {
		return nil, fmt.Errorf("decoding payment header: %w", err)
	}

	var payload domain.PaymentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parsing payment payload: %w", err)
	}
	if payload.X402Version != 1 {
		return nil, fmt.Errorf("unsupported payment version %d", payload.X402Version)
	}
	if payload.Scheme == "" || payload.Network == "" {
		return nil, fmt.Errorf("payment payload missing scheme or network")
	}
	return &payload, nil
}

// ProofHash returns a stable fingerprint of a proof header, used to bind a
// proof to one checkout and reject replays against others.
func ProofHash(header string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(header)))
	return hex.EncodeToString(sum[:])
}
