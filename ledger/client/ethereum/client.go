package ethereum

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"notarygw/config"
	"notarygw/ledger/types"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client is the wrapper around the go-ethereum RPC client.
type Client struct {
	rpc    *ethclient.Client
	cfg    *config.LedgerConfig
	logger *log.Logger
}

// NewClient initializes the Ethereum RPC client with the combined configuration.
func NewClient(cfg *config.LedgerConfig, logger *log.Logger) (*Client, error) {
	ethCfg, ok := cfg.ChainSpecific.(*Config)
	if !ok {
		return nil, fmt.Errorf("invalid Ethereum configuration type")
	}
	if ethCfg.RPCURL == "" {
		return nil, fmt.Errorf("no RPC URL provided in config")
	}

	logger.Printf("Connecting to Ethereum RPC endpoint %s...", ethCfg.RPCURL)
	rpc, err := ethclient.Dial(ethCfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial Ethereum RPC endpoint '%s': %w", ethCfg.RPCURL, err)
	}

	c := &Client{rpc: rpc, cfg: cfg, logger: logger}

	if ethCfg.VerifyChainID {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.TimeoutSeconds)*time.Second)
		defer cancel()
		chainID, err := rpc.ChainID(ctx)
		if err != nil {
			logger.Printf("Warning: failed to verify chain id: %v", err)
		} else if chainID.Int64() != ethCfg.ChainID {
			rpc.Close()
			return nil, fmt.Errorf("chain id mismatch: node reports %d, config expects %d", chainID.Int64(), ethCfg.ChainID)
		}
	}

	logger.Println("Ethereum client initialized successfully.")
	return c, nil
}

// NewClientFromFile initializes the Ethereum client directly from a configuration file path.
func NewClientFromFile(configPath string, logger *log.Logger) (*Client, error) {
	ethCfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load Ethereum config from file '%s': %w", configPath, err)
	}

	ledgerCfg := &config.LedgerConfig{
		LedgerType:     "ethereum",
		ChainSpecific:  ethCfg,
		RetryLimit:     3,
		RetryInterval:  2000,
		TimeoutSeconds: 15,
	}
	return NewClient(ledgerCfg, logger)
}

// SubmitTransaction broadcasts a signed, wire-encoded transaction.
func (c *Client) SubmitTransaction(ctx context.Context, tx *types.SignedTx) (string, error) {
	if tx == nil || len(tx.Raw) == 0 {
		return "", fmt.Errorf("signed transaction payload is empty")
	}
	var ethTx ethtypes.Transaction
	if err := ethTx.UnmarshalBinary(tx.Raw); err != nil {
		return "", fmt.Errorf("failed to decode signed transaction: %w", err)
	}
	if err := c.rpc.SendTransaction(ctx, &ethTx); err != nil {
		return "", fmt.Errorf("RPC broadcast failed: %w", err)
	}
	return ethTx.Hash().Hex(), nil
}

// EstimateGas asks the node for a gas estimate for the payload.
func (c *Client) EstimateGas(ctx context.Context, payload *types.TxPayload) (uint64, error) {
	if payload == nil {
		return 0, fmt.Errorf("payload cannot be nil")
	}
	msg := ethereum.CallMsg{
		From:  common.HexToAddress(payload.From),
		Data:  payload.Data,
		Value: payload.Value,
	}
	if payload.To != "" {
		to := common.HexToAddress(payload.To)
		msg.To = &to
	}
	gas, err := c.rpc.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("RPC gas estimation failed: %w", err)
	}
	return gas, nil
}

// GetReceipt fetches the transaction receipt. A transaction the node has not
// seen yet maps to types.ErrReceiptNotFound.
func (c *Client) GetReceipt(ctx context.Context, txHash string) (*types.TxReceipt, error) {
	if txHash == "" {
		return nil, fmt.Errorf("transaction hash cannot be empty")
	}
	rec, err := c.rpc.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, types.ErrReceiptNotFound
		}
		return nil, fmt.Errorf("RPC receipt query failed: %w", err)
	}

	out := &types.TxReceipt{
		TxHash:      txHash,
		State:       types.StateFailed,
		BlockNumber: rec.BlockNumber.Uint64(),
		GasUsed:     rec.GasUsed,
	}
	if rec.Status == ethtypes.ReceiptStatusSuccessful {
		out.State = types.StateConfirmed
	}

	header, err := c.rpc.HeaderByNumber(ctx, rec.BlockNumber)
	if err != nil {
		c.logger.Printf("Warning: failed to fetch block header %s for tx %s: %v", rec.BlockNumber, txHash, err)
	} else {
		out.Timestamp = int64(header.Time)
	}
	return out, nil
}

// GetBalance returns the balance of an address in ether.
func (c *Client) GetBalance(ctx context.Context, address string) (*big.Float, error) {
	wei, err := c.rpc.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("RPC balance query failed: %w", err)
	}
	return new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18)), nil
}

// Close stops the RPC client.
func (c *Client) Close() error {
	c.logger.Println("Closing Ethereum client...")
	c.rpc.Close()
	return nil
}

// Config returns the chain-specific configuration associated with the client.
func (c *Client) Config() any {
	if c.cfg == nil || c.cfg.ChainSpecific == nil {
		return &Config{}
	}
	return c.cfg.ChainSpecific
}
