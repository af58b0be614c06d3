package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Valid 32-byte key in hex (64 chars)
const testAESKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestAESEncryptionService_NewInvalidKey(t *testing.T) {
	_, err := NewAESEncryptionService("shortkey")
	assert.Error(t, err)
}

func TestAESEncryptionService_EncryptDecrypt(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	plaintext := "spend-key-material"
	sealed, err := svc.Encrypt(plaintext)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "v1:"), "sealed secret should carry the version tag")
	assert.NotContains(t, sealed, plaintext)

	opened, err := svc.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestAESEncryptionService_DifferentNonces(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	plaintext := "wallet mnemonic words"
	s1, err := svc.Encrypt(plaintext)
	require.NoError(t, err)
	s2, err := svc.Encrypt(plaintext)
	require.NoError(t, err)

	assert.NotEqual(t, s1, s2, "same plaintext should seal differently under fresh nonces")

	o1, _ := svc.Decrypt(s1)
	o2, _ := svc.Decrypt(s2)
	assert.Equal(t, o1, o2)
}

func TestAESEncryptionService_TamperedCiphertext(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	sealed, err := svc.Encrypt("secret")
	require.NoError(t, err)

	// Flip one character inside the nonce region.
	pos := 10
	flipped := byte('A')
	if sealed[pos] == flipped {
		flipped = 'B'
	}
	tampered := sealed[:pos] + string(flipped) + sealed[pos+1:]
	_, err = svc.Decrypt(tampered)
	assert.Error(t, err)
}

func TestAESEncryptionService_UnknownVersionRejected(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	_, err = svc.Decrypt("v9:AAAAAAAA")
	assert.Error(t, err)

	_, err = svc.Decrypt("no-version-tag")
	assert.Error(t, err)
}

func TestAESEncryptionService_WrongKey(t *testing.T) {
	svc1, _ := NewAESEncryptionService(testAESKey)
	otherKey := "abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789"
	svc2, _ := NewAESEncryptionService(otherKey)

	sealed, err := svc1.Encrypt("shielded balance secret")
	require.NoError(t, err)

	_, err = svc2.Decrypt(sealed)
	assert.Error(t, err)
}
