package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// deriveCheckoutAddress produces a checkout-scoped shielded address and its
// spending key. The address is a keccak digest over the checkout identity
// plus fresh randomness, so two checkouts never share an address even when
// created in the same instant.
func deriveCheckoutAddress(checkoutID, merchantID uuid.UUID) (address, spendKey string, err error) {
	entropy := make([]byte, 32)
	if _, err := rand.Read(entropy); err != nil {
		return "", "", fmt.Errorf("generating address entropy: %w", err)
	}

	seed := fmt.Sprintf("%s|%s|%d|%s",
		checkoutID, merchantID, time.Now().UnixNano(), hex.EncodeToString(entropy))

	addrDigest := crypto.Keccak256([]byte(seed))
	keyDigest := crypto.Keccak256([]byte("spend|" + seed))

	return "0zk" + hex.EncodeToString(addrDigest), hex.EncodeToString(keyDigest), nil
}
