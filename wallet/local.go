package wallet

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"

	"notarygw/config"
	"notarygw/ledger/types"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// LocalSigner signs transactions with a locally held private key. This is a
// development tier; production deployments put a vault or KMS behind the
// Signer interface instead.
type LocalSigner struct {
	address string
	// signFn closes over the parsed key so it never sits on a struct field
	// that could end up in a log or serialized error.
	signFn func(*types.TxPayload) (*types.SignedTx, error)
}

// NewLocalSigner loads a hex-encoded private key from the reference in the
// wallet configuration (file or environment variable).
func NewLocalSigner(cfg config.WalletConfig) (*LocalSigner, error) {
	var keyHex string
	switch {
	case cfg.KeyFile != "":
		data, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read wallet key file: %w", err)
		}
		keyHex = strings.TrimSpace(string(data))
	case cfg.KeyEnv != "":
		keyHex = strings.TrimSpace(os.Getenv(cfg.KeyEnv))
		if keyHex == "" {
			return nil, fmt.Errorf("wallet key environment variable %s is empty", cfg.KeyEnv)
		}
	default:
		return nil, fmt.Errorf("wallet configuration provides no key reference")
	}

	priv, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse wallet private key: %w", err)
	}

	addr := crypto.PubkeyToAddress(priv.PublicKey).Hex()
	if cfg.Address != "" && !strings.EqualFold(cfg.Address, addr) {
		return nil, fmt.Errorf("wallet key does not match configured address %s", cfg.Address)
	}

	s := &LocalSigner{address: addr}
	s.signFn = func(payload *types.TxPayload) (*types.SignedTx, error) {
		tx := ethtypes.NewTx(&ethtypes.LegacyTx{
			Nonce:    payload.Nonce,
			To:       toAddress(payload.To),
			Value:    orZero(payload.Value),
			Gas:      payload.GasLimit,
			GasPrice: orZero(payload.GasPrice),
			Data:     payload.Data,
		})
		signed, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(big.NewInt(payload.ChainID)), priv)
		if err != nil {
			return nil, fmt.Errorf("transaction signing failed: %w", err)
		}
		raw, err := signed.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("failed to encode signed transaction: %w", err)
		}
		return &types.SignedTx{
			Raw:      raw,
			Hash:     signed.Hash().Hex(),
			Nonce:    payload.Nonce,
			GasLimit: payload.GasLimit,
		}, nil
	}
	return s, nil
}

// Address returns the wallet address derived from the key.
func (s *LocalSigner) Address() string {
	return s.address
}

// SignTransaction signs the payload with the locally held key.
func (s *LocalSigner) SignTransaction(ctx context.Context, payload *types.TxPayload) (*types.SignedTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, fmt.Errorf("payload cannot be nil")
	}
	return s.signFn(payload)
}

func toAddress(hex string) *common.Address {
	if hex == "" {
		return nil
	}
	a := common.HexToAddress(hex)
	return &a
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

var _ Signer = (*LocalSigner)(nil)
