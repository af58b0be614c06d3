package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// sealedV1 tags ciphertexts with the sealing scheme so a future key or
// format rotation can coexist with already-stored secrets.
const sealedV1 = "v1:"

// AESEncryptionService seals wallet secrets and checkout spend keys at rest
// with AES-256-GCM. Stored form: "v1:" + base64(nonce || ciphertext).
type AESEncryptionService struct {
	aead cipher.AEAD
}

// NewAESEncryptionService builds the sealer from a 64-character hex key
// (32 bytes decoded, AES-256).
func NewAESEncryptionService(hexKey string) (*AESEncryptionService, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("sealing key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("sealing key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("building cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("building GCM: %w", err)
	}
	return &AESEncryptionService{aead: aead}, nil
}

// Encrypt seals a secret under a fresh random nonce.
func (s *AESEncryptionService) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("drawing nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedV1 + base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a sealed secret. Truncation or tampering fails the GCM tag
// check and surfaces as an error.
func (s *AESEncryptionService) Decrypt(sealed string) (string, error) {
	encoded, ok := strings.CutPrefix(sealed, sealedV1)
	if !ok {
		return "", fmt.Errorf("unknown sealed secret version")
	}
	raw, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding sealed secret: %w", err)
	}
	if len(raw) < s.aead.NonceSize() {
		return "", fmt.Errorf("sealed secret too short")
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("opening sealed secret: %w", err)
	}
	return string(plaintext), nil
}
