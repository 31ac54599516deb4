package notary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/big"
	"net/url"
	"sync/atomic"
	"time"

	"notarygw/audit"
	"notarygw/internal/sequence"
	ledger "notarygw/ledger/client"
	"notarygw/ledger/types"
	"notarygw/wallet"
)

// Role names recognised on the deployed contracts.
const (
	RoleNotary = "NOTARY_ROLE"
	RoleMinter = "MINTER_ROLE"
)

// AuthGate is the read-only view of the role and pause registry the
// orchestrator consults before any state-changing call. The administration
// engine owns the backing state.
type AuthGate interface {
	// HasRole reports whether address holds roleName on the contract.
	// An unknown triple is false, never an error.
	HasRole(contractAddress, roleName, address string) bool

	// IsPaused reports whether the contract is paused.
	IsPaused(contractAddress string) bool
}

// Params collects the collaborators and policy for an Orchestrator.
// Ledger and Signer are required; everything else has a usable default.
type Params struct {
	Ledger   ledger.Client
	Uploader Uploader
	Signer   wallet.Signer
	Gas      GasEstimator
	Gate     AuthGate
	Audit    audit.Publisher
	Sequence *sequence.Sequence
	Logger   *log.Logger

	RegistryAddress string
	NFTAddress      string
	ChainID         int64
	GasPriceGwei    float64
	RetryLimit      int
	RetryInterval   time.Duration
}

// Orchestrator drives the notarization submission pipeline: validation,
// authorization gating, nonce reservation, signing, broadcast, and receipt
// polling. Safe for concurrent use; the only shared mutable state between
// calls is the monotonic identifier pair (nonce sequence, token counter).
type Orchestrator struct {
	ledger   ledger.Client
	uploader Uploader
	signer   wallet.Signer
	gas      GasEstimator
	gate     AuthGate
	audit    audit.Publisher
	seq      *sequence.Sequence
	logger   *log.Logger

	registryAddr string
	nftAddr      string
	chainID      int64
	gasPrice     *big.Int

	retryLimit    int
	retryInterval time.Duration

	tokens atomic.Uint64
}

// New creates an Orchestrator.
func New(p Params) (*Orchestrator, error) {
	if p.Ledger == nil {
		return nil, fmt.Errorf("ledger client is required")
	}
	if p.Signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	if p.Gas == nil {
		p.Gas = DefaultGasTable()
	}
	if p.Audit == nil {
		p.Audit = audit.NopPublisher{}
	}
	if p.Sequence == nil {
		p.Sequence = sequence.New()
	}
	if p.Logger == nil {
		p.Logger = log.Default()
	}
	if p.RetryLimit <= 0 {
		p.RetryLimit = 3
	}
	if p.RetryInterval <= 0 {
		p.RetryInterval = 2 * time.Second
	}

	return &Orchestrator{
		ledger:        p.Ledger,
		uploader:      p.Uploader,
		signer:        p.Signer,
		gas:           p.Gas,
		gate:          p.Gate,
		audit:         p.Audit,
		seq:           p.Sequence,
		logger:        p.Logger,
		registryAddr:  p.RegistryAddress,
		nftAddr:       p.NFTAddress,
		chainID:       p.ChainID,
		gasPrice:      gweiToWei(p.GasPriceGwei),
		retryLimit:    p.RetryLimit,
		retryInterval: p.RetryInterval,
	}, nil
}

// RegisterHash registers a document fingerprint in the on-chain hash
// registry and returns the resulting Receipt. Each call is a new submission;
// the same fingerprint registered twice yields two distinct transactions.
func (o *Orchestrator) RegisterHash(ctx context.Context, fingerprint string, metadata map[string]any) (*Receipt, error) {
	if !ValidFingerprint(fingerprint) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFingerprint, fingerprint)
	}
	if err := o.authorize(KindHash); err != nil {
		return nil, err
	}

	payload, err := o.buildPayload(KindHash, o.registryAddr, contractCall{
		Method:      "registerHash",
		Fingerprint: fingerprint,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, err
	}

	rec, err := o.submit(ctx, KindHash, payload)
	if err != nil {
		return nil, err
	}
	o.publishAudit(ctx, rec.TxHash, "register_hash", fingerprint)
	return rec, nil
}

// UploadToStorage reads the document and uploads it to permanent storage.
// Not retried here: storage cost is non-trivial, so retrying is a caller
// decision, and the returned UploadError carries the detail needed to make it.
func (o *Orchestrator) UploadToStorage(ctx context.Context, file io.Reader, fingerprint string) (*UploadResult, error) {
	if !ValidFingerprint(fingerprint) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFingerprint, fingerprint)
	}
	if o.uploader == nil {
		return nil, fmt.Errorf("no storage adapter configured")
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, &UploadError{Fingerprint: fingerprint, Size: int64(len(data)), Err: fmt.Errorf("reading file: %w", err)}
	}

	res, err := o.uploader.Upload(ctx, data, fingerprint)
	if err != nil {
		return nil, &UploadError{Fingerprint: fingerprint, Size: int64(len(data)), Err: err}
	}
	return res, nil
}

// MintNFT mints a token referencing an already-uploaded document. The
// storage URL must come from a prior upload; no implicit upload happens here,
// so a caller can mint several tokens from one upload or retry a failed mint
// without paying for storage again.
func (o *Orchestrator) MintNFT(ctx context.Context, fingerprint, storageURL string, metadata map[string]any) (*Receipt, error) {
	if !ValidFingerprint(fingerprint) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFingerprint, fingerprint)
	}
	if err := checkStorageURL(storageURL); err != nil {
		return nil, err
	}
	if err := o.authorize(KindNFT); err != nil {
		return nil, err
	}

	// Token ids are never reused, even when the mint they were allocated
	// for fails and is retried.
	tokenID := o.tokens.Add(1)

	payload, err := o.buildPayload(KindNFT, o.nftAddr, contractCall{
		Method:      "mintNft",
		Fingerprint: fingerprint,
		StorageURL:  storageURL,
		TokenID:     tokenID,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, err
	}

	rec, err := o.submit(ctx, KindNFT, payload)
	if err != nil {
		return nil, err
	}
	rec.TokenID = tokenID
	rec.StorageURL = storageURL
	o.publishAudit(ctx, rec.TxHash, "mint_nft", fingerprint)
	return rec, nil
}

// MintNFTFromFile is the one-call composition of UploadToStorage and MintNFT.
// An upload failure propagates unchanged and no mint is attempted. A mint
// failure after a successful upload returns a MintAfterUploadError exposing
// the durable UploadResult, so the caller can retry the mint alone.
func (o *Orchestrator) MintNFTFromFile(ctx context.Context, file io.Reader, fingerprint string, metadata map[string]any) (*Receipt, error) {
	up, err := o.UploadToStorage(ctx, file, fingerprint)
	if err != nil {
		return nil, err
	}

	rec, err := o.MintNFT(ctx, fingerprint, up.URL, metadata)
	if err != nil {
		return nil, &MintAfterUploadError{Upload: up, Err: err}
	}
	return rec, nil
}

// EstimateGas returns the gas estimate for a notarization kind. Pure policy,
// no I/O; constant across repeated calls for the fixed-table estimator.
func (o *Orchestrator) EstimateGas(kind Kind) (uint64, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	return o.gas.Estimate(kind), nil
}

// TransactionStatus polls the ledger for the state of a transaction.
// Idempotent and side-effect free; a transaction the ledger has not seen yet
// reports StatePending. Transient read failures are retried with backoff.
func (o *Orchestrator) TransactionStatus(ctx context.Context, txHash string) (types.TransactionState, error) {
	if !ValidTxHash(txHash) {
		return "", fmt.Errorf("%w: malformed transaction hash %q", ErrNotFound, txHash)
	}

	state := types.StatePending
	err := o.withReadRetry(ctx, func(ctx context.Context) error {
		rec, err := o.ledger.GetReceipt(ctx, txHash)
		if err != nil {
			if errors.Is(err, types.ErrReceiptNotFound) {
				state = types.StatePending
				return nil
			}
			return err
		}
		state = rec.State
		return nil
	})
	if err != nil {
		return types.StatePending, fmt.Errorf("status poll failed: %w", err)
	}
	return state, nil
}

// WaitForConfirmation polls until the transaction reaches a terminal state or
// the context expires. On timeout it reports the last observed state together
// with ErrTimeout; it never fabricates a terminal state.
func (o *Orchestrator) WaitForConfirmation(ctx context.Context, txHash string) (types.TransactionState, error) {
	last := types.StatePending
	for {
		state, err := o.TransactionStatus(ctx, txHash)
		if err != nil {
			if ctx.Err() != nil {
				return last, fmt.Errorf("%w: confirmation wait: %v", ErrTimeout, ctx.Err())
			}
			return last, err
		}
		last = state
		if state.Terminal() {
			return state, nil
		}

		select {
		case <-ctx.Done():
			return last, fmt.Errorf("%w: confirmation wait: %v", ErrTimeout, ctx.Err())
		case <-time.After(o.retryInterval):
		}
	}
}

// WalletAddress returns the operating wallet address. Never suspends.
func (o *Orchestrator) WalletAddress() string {
	return o.signer.Address()
}

// WalletBalance fetches the operating wallet balance in the ledger's main
// unit. Retried as a read operation.
func (o *Orchestrator) WalletBalance(ctx context.Context) (*big.Float, error) {
	var balance *big.Float
	err := o.withReadRetry(ctx, func(ctx context.Context) error {
		b, err := o.ledger.GetBalance(ctx, o.signer.Address())
		if err != nil {
			return err
		}
		balance = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("balance query failed: %w", err)
	}
	return balance, nil
}

// GetNFTMetadata resolves display metadata for a token minted in this
// session. Deterministic lookup; production deployments replace this with a
// metadata-resolution call against the NFT contract.
func (o *Orchestrator) GetNFTMetadata(tokenID uint64) (*NFTMetadata, error) {
	if tokenID == 0 || tokenID > o.tokens.Load() {
		return nil, fmt.Errorf("%w: token %d", ErrNotFound, tokenID)
	}
	return &NFTMetadata{
		TokenID:     tokenID,
		Name:        fmt.Sprintf("Notarized Document #%d", tokenID),
		Description: "Token referencing a notarized document fingerprint",
		Attributes: []Attribute{
			{TraitType: "Notarization Type", Value: "NFT"},
			{TraitType: "Network", Value: o.networkLabel()},
		},
	}, nil
}

// contractCall is the opaque call description forwarded to the ledger
// adapter. A production deployment plugs an ABI codec in at the adapter
// boundary; the orchestration layer does not interpret this.
type contractCall struct {
	Method      string         `json:"method"`
	Fingerprint string         `json:"fingerprint"`
	StorageURL  string         `json:"storage_url,omitempty"`
	TokenID     uint64         `json:"token_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// authorize consults the gate before a state-changing call. Runs before any
// identifier is reserved, so a rejected request allocates nothing.
func (o *Orchestrator) authorize(kind Kind) error {
	if o.gate == nil {
		return nil
	}

	contract, role := o.registryAddr, RoleNotary
	if kind == KindNFT {
		contract, role = o.nftAddr, RoleMinter
	}

	if o.gate.IsPaused(contract) {
		return fmt.Errorf("%w: contract %s is paused", ErrUnauthorized, contract)
	}
	if !o.gate.HasRole(contract, role, o.signer.Address()) {
		return fmt.Errorf("%w: wallet %s lacks %s on %s", ErrUnauthorized, o.signer.Address(), role, contract)
	}
	return nil
}

// buildPayload reserves the process-unique nonce and assembles the unsigned
// transaction. The nonce is reserved before any network call so concurrent
// submissions never collide and a crash between reservation and broadcast is
// detectable.
func (o *Orchestrator) buildPayload(kind Kind, to string, call contractCall) (*types.TxPayload, error) {
	data, err := json.Marshal(call)
	if err != nil {
		return nil, fmt.Errorf("failed to encode contract call: %w", err)
	}
	return &types.TxPayload{
		Nonce:    o.seq.Next(),
		From:     o.signer.Address(),
		To:       to,
		Data:     data,
		GasLimit: o.gas.Estimate(kind),
		GasPrice: o.gasPrice,
		ChainID:  o.chainID,
	}, nil
}

// submit signs and broadcasts the payload, then takes one non-blocking look
// at the receipt. A receipt that is not visible yet leaves the Receipt
// pending; callers poll with TransactionStatus or WaitForConfirmation.
func (o *Orchestrator) submit(ctx context.Context, kind Kind, payload *types.TxPayload) (*Receipt, error) {
	signed, err := o.signer.SignTransaction(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: signing: %w", ErrSubmissionFailed, err)
	}

	txHash, err := o.ledger.SubmitTransaction(ctx, signed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	rec := &Receipt{
		TxHash: txHash,
		State:  types.StatePending,
		Kind:   kind,
	}

	ledgerRec, err := o.ledger.GetReceipt(ctx, txHash)
	switch {
	case err == nil:
		rec.State = ledgerRec.State
		rec.BlockNumber = ledgerRec.BlockNumber
		rec.GasUsed = ledgerRec.GasUsed
		rec.Timestamp = ledgerRec.Timestamp
	case errors.Is(err, types.ErrReceiptNotFound):
		// Still propagating; stays pending.
	default:
		o.logger.Printf("Warning: receipt lookup after submit failed for %s: %v", txHash, err)
	}
	return rec, nil
}

func (o *Orchestrator) publishAudit(ctx context.Context, txHash, action, subject string) {
	e := audit.Event{
		TxHash:  txHash,
		Actor:   o.signer.Address(),
		Action:  action,
		Subject: subject,
		At:      time.Now().UTC(),
	}
	if err := o.audit.Publish(ctx, e); err != nil {
		o.logger.Printf("Warning: failed to publish audit event %s (tx %s): %v", action, txHash, err)
	}
}

// withReadRetry runs a read operation with bounded exponential backoff.
// Mutating operations never go through here.
func (o *Orchestrator) withReadRetry(ctx context.Context, op func(context.Context) error) error {
	delay := o.retryInterval
	var err error
	for attempt := 0; attempt <= o.retryLimit; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		if err = op(ctx); err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}
	return err
}

func checkStorageURL(storageURL string) error {
	if storageURL == "" {
		return fmt.Errorf("%w: empty", ErrInvalidStorageURL)
	}
	u, err := url.Parse(storageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidStorageURL, storageURL)
	}
	return nil
}

func (o *Orchestrator) networkLabel() string {
	if o.chainID > 0 {
		return fmt.Sprintf("chain %d", o.chainID)
	}
	return "local"
}

func gweiToWei(gwei float64) *big.Int {
	if gwei <= 0 {
		return nil
	}
	wei, _ := new(big.Float).Mul(big.NewFloat(gwei), big.NewFloat(1e9)).Int(nil)
	return wei
}
