package service

import (
	"encoding/base64"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeProof(t *testing.T) {
	header := base64.StdEncoding.EncodeToString(
		[]byte(`{"x402Version":1,"scheme":"exact","network":"polygon","payload":{}}`))

	p, err := DecodeProof(header)
	require.NoError(t, err)
	assert.Equal(t, "exact", p.Scheme)
	assert.Equal(t, "polygon", p.Network)
}

func TestDecodeProof_Rejects(t *testing.T) {
	cases := map[string]string{
		"not base64":      "%%%",
		"not json":        base64.StdEncoding.EncodeToString([]byte("hello")),
		"wrong version":   base64.StdEncoding.EncodeToString([]byte(`{"x402Version":2,"scheme":"exact","network":"polygon"}`)),
		"missing scheme":  base64.StdEncoding.EncodeToString([]byte(`{"x402Version":1,"network":"polygon"}`)),
		"missing network": base64.StdEncoding.EncodeToString([]byte(`{"x402Version":1,"scheme":"exact"}`)),
	}

	for name, header := range cases {
		_, err := DecodeProof(header)
		assert.Error(t, err, name)
	}
}

func TestProofHash_StableAndTrimmed(t *testing.T) {
	h1 := ProofHash("abc")
	h2 := ProofHash("  abc  ")
	h3 := ProofHash("abd")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestDeriveCheckoutAddress_Unique(t *testing.T) {
	id := [2]string{}
	for i := range id {
		addr, key, err := deriveCheckoutAddress(uuid.New(), uuid.New())
		require.NoError(t, err)
		assert.Equal(t, "0zk", addr[:3])
		assert.NotEmpty(t, key)
		id[i] = addr
	}
	assert.NotEqual(t, id[0], id[1])
}
