package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"private-checkout-gateway/config"
	"private-checkout-gateway/internal/core/ports"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

// erc20TransferSelector is the 4-byte selector of transfer(address,uint256).
var erc20TransferSelector = crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]

// Settler executes direct settlements as ERC-20 transfers from the
// custodial payment wallet. Implements ports.DirectSettler.
type Settler struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	from       common.Address
	token      common.Address
	chainID    *big.Int
	logger     zerolog.Logger
}

// NewSettler creates a settler from chain config. It fails fast on missing
// key or token configuration rather than at the first payment.
func NewSettler(ctx context.Context, cfg config.ChainConfig, logger zerolog.Logger) (*Settler, error) {
	if cfg.PaymentKey == "" {
		return nil, fmt.Errorf("chain payment key not configured")
	}
	if cfg.Asset == "" {
		return nil, fmt.Errorf("chain asset not configured")
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PaymentKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid payment key: %w", err)
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dialing chain rpc: %w", err)
	}

	from := crypto.PubkeyToAddress(privateKey.PublicKey)
	logger.Info().
		Str("rpc_url", cfg.RPCURL).
		Int64("chain_id", cfg.ChainID).
		Str("payment_wallet", from.Hex()).
		Msg("chain settler ready")

	return &Settler{
		client:     client,
		privateKey: privateKey,
		from:       from,
		token:      common.HexToAddress(cfg.Asset),
		chainID:    big.NewInt(cfg.ChainID),
		logger:     logger.With().Str("component", "evm_settler").Logger(),
	}, nil
}

// Settle submits an ERC-20 transfer and waits for the transaction to be
// mined. The returned hash is recorded on the checkout as the settlement
// reference.
func (s *Settler) Settle(ctx context.Context, req ports.DirectSettlementRequest) (string, error) {
	if !common.IsHexAddress(req.To) {
		return "", fmt.Errorf("invalid payout address %q", req.To)
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return "", fmt.Errorf("invalid settlement amount %q", req.Amount)
	}

	nonce, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return "", fmt.Errorf("fetching nonce: %w", err)
	}
	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching gas price: %w", err)
	}

	data := transferCalldata(common.HexToAddress(req.To), amount)

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &s.token,
		Value:    big.NewInt(0),
		Gas:      100_000,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.privateKey)
	if err != nil {
		return "", fmt.Errorf("signing transaction: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("sending transaction: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, s.client, signed)
	if err != nil {
		return "", fmt.Errorf("waiting for transaction %s: %w", signed.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("transaction %s reverted", signed.Hash().Hex())
	}

	s.logger.Info().
		Str("tx_hash", signed.Hash().Hex()).
		Str("to", req.To).
		Str("amount", req.Amount).
		Msg("direct settlement mined")

	return signed.Hash().Hex(), nil
}

// transferCalldata ABI-encodes transfer(to, amount).
func transferCalldata(to common.Address, amount *big.Int) []byte {
	data := make([]byte, 0, 4+32+32)
	data = append(data, erc20TransferSelector...)
	data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return data
}
