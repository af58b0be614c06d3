package evm

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestTransferCalldata(t *testing.T) {
	to := common.HexToAddress("0x00000000000000000000000000000000deadbeef")
	data := transferCalldata(to, big.NewInt(10_500_000))

	assert.Len(t, data, 68)
	// transfer(address,uint256) selector
	assert.Equal(t, "a9059cbb", hex.EncodeToString(data[:4]))
	// recipient, left-padded to 32 bytes
	assert.Equal(t, to.Bytes(), data[4+12:4+32])
	// amount in the final word
	assert.Equal(t, big.NewInt(10_500_000), new(big.Int).SetBytes(data[36:]))
}
