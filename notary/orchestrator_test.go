package notary_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notarygw/admin"
	"notarygw/config"
	"notarygw/internal/sequence"
	ledger "notarygw/ledger/client"
	"notarygw/ledger/types"
	"notarygw/notary"
	"notarygw/storage/uploader"
	"notarygw/wallet"
)

var testLogger = log.New(bytes.NewBuffer(nil), "", 0)

func testFingerprint(b string) string {
	return "0x" + strings.Repeat(b, 32)
}

type testEnv struct {
	orch     *notary.Orchestrator
	ledger   *ledger.MockClient
	uploader *uploader.MockUploader
	seq      *sequence.Sequence
	registry *admin.Registry
	wallet   string
}

// newTestEnv builds an orchestrator on the deterministic tier. Gate is nil
// unless withGate is set, in which case an empty admin registry is wired in
// and the caller grants what the scenario needs.
func newTestEnv(t *testing.T, withGate bool, opts ...ledger.MockOption) *testEnv {
	t.Helper()

	signer, err := wallet.NewStaticSigner("")
	require.NoError(t, err)

	storageCfg := &config.StorageConfig{}
	storageCfg.SetDefaults()

	env := &testEnv{
		ledger:   ledger.NewMockClient(testLogger, opts...),
		uploader: uploader.NewMockUploader(storageCfg, testLogger),
		seq:      sequence.New(),
		wallet:   signer.Address(),
	}

	p := notary.Params{
		Ledger:          env.ledger,
		Uploader:        env.uploader,
		Signer:          signer,
		Sequence:        env.seq,
		Logger:          testLogger,
		RegistryAddress: "0x" + strings.Repeat("aa", 20),
		NFTAddress:      "0x" + strings.Repeat("bb", 20),
		RetryLimit:      2,
		RetryInterval:   5 * time.Millisecond,
	}
	if withGate {
		env.registry = admin.NewRegistry()
		p.Gate = env.registry
	}

	env.orch, err = notary.New(p)
	require.NoError(t, err)
	return env
}

func TestRegisterHash(t *testing.T) {
	env := newTestEnv(t, false)

	rec, err := env.orch.RegisterHash(context.Background(), testFingerprint("ab"), map[string]any{"source": "test"})
	require.NoError(t, err)

	assert.True(t, notary.ValidTxHash(rec.TxHash), "transaction hash should be 0x+64 hex: %s", rec.TxHash)
	assert.Equal(t, types.StateConfirmed, rec.State)
	assert.Equal(t, notary.KindHash, rec.Kind)
	assert.Equal(t, uint64(1001), rec.BlockNumber, "first nonce confirms at block 1001")
	assert.Equal(t, notary.HashRegistrationGas, rec.GasUsed)
	assert.Zero(t, rec.TokenID, "hash registrations never carry a token")
	assert.Empty(t, rec.StorageURL)
}

func TestRegisterHashInvalidFingerprint(t *testing.T) {
	env := newTestEnv(t, false)

	bad := []string{
		"",
		"abc",
		strings.Repeat("ab", 32),        // missing 0x prefix
		"0x" + strings.Repeat("ab", 31), // too short
		"0x" + strings.Repeat("zz", 32), // non-hex
	}
	for _, fp := range bad {
		_, err := env.orch.RegisterHash(context.Background(), fp, nil)
		assert.ErrorIs(t, err, notary.ErrInvalidFingerprint, "fingerprint %q", fp)
	}
	assert.Zero(t, env.seq.Current(), "rejected input must not allocate transaction ids")
}

func TestRegisterHashSameFingerprintTwice(t *testing.T) {
	env := newTestEnv(t, false)
	fp := testFingerprint("cd")

	first, err := env.orch.RegisterHash(context.Background(), fp, nil)
	require.NoError(t, err)
	second, err := env.orch.RegisterHash(context.Background(), fp, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.TxHash, second.TxHash, "each registration is a new transaction")
	assert.Equal(t, types.StateConfirmed, second.State)
}

func TestMintNFT(t *testing.T) {
	env := newTestEnv(t, false)
	url := "https://arweave.net/" + strings.Repeat("3", 43)

	rec, err := env.orch.MintNFT(context.Background(), testFingerprint("ef"), url, nil)
	require.NoError(t, err)

	assert.Equal(t, notary.KindNFT, rec.Kind)
	assert.Equal(t, uint64(1), rec.TokenID)
	assert.Equal(t, url, rec.StorageURL)
	assert.Equal(t, notary.NFTMintGas, rec.GasUsed)
	assert.Equal(t, types.StateConfirmed, rec.State)
}

func TestMintNFTInvalidStorageURL(t *testing.T) {
	env := newTestEnv(t, false)

	for _, url := range []string{"", "not-a-url", "https://"} {
		_, err := env.orch.MintNFT(context.Background(), testFingerprint("ef"), url, nil)
		assert.ErrorIs(t, err, notary.ErrInvalidStorageURL, "url %q", url)
	}
}

func TestTokenIDsStrictlyIncrease(t *testing.T) {
	env := newTestEnv(t, false)
	url := "https://arweave.net/" + strings.Repeat("4", 43)

	first, err := env.orch.MintNFT(context.Background(), testFingerprint("01"), url, nil)
	require.NoError(t, err)

	// A hash registration in between must not consume token ids.
	_, err = env.orch.RegisterHash(context.Background(), testFingerprint("02"), nil)
	require.NoError(t, err)

	second, err := env.orch.MintNFT(context.Background(), testFingerprint("03"), url, nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first.TokenID)
	assert.Equal(t, uint64(2), second.TokenID)
}

func TestFailedMintConsumesTokenID(t *testing.T) {
	submitErr := errors.New("broadcast refused")
	env := newTestEnv(t, false, ledger.WithSubmitError(submitErr))
	url := "https://arweave.net/" + strings.Repeat("5", 43)

	_, err := env.orch.MintNFT(context.Background(), testFingerprint("04"), url, nil)
	require.ErrorIs(t, err, notary.ErrSubmissionFailed)

	// The counter moved even though the mint failed: that id is burned.
	_, err = env.orch.GetNFTMetadata(1)
	assert.NoError(t, err, "allocated token ids are never reused")
}

func TestMintNFTFromFileMatchesManualComposition(t *testing.T) {
	env := newTestEnv(t, false)
	fp := testFingerprint("06")
	doc := []byte("notarize me")

	up, err := env.orch.UploadToStorage(context.Background(), bytes.NewReader(doc), fp)
	require.NoError(t, err)
	manual, err := env.orch.MintNFT(context.Background(), fp, up.URL, nil)
	require.NoError(t, err)

	composed, err := env.orch.MintNFTFromFile(context.Background(), bytes.NewReader(doc), fp, nil)
	require.NoError(t, err)

	// Same document, same storage URL; only the transaction and token differ.
	assert.Equal(t, manual.StorageURL, composed.StorageURL)
	assert.Equal(t, manual.Kind, composed.Kind)
	assert.Equal(t, manual.GasUsed, composed.GasUsed)
	assert.Equal(t, manual.TokenID+1, composed.TokenID)
	assert.NotEqual(t, manual.TxHash, composed.TxHash)
}

func TestUploadReuseAcrossMints(t *testing.T) {
	env := newTestEnv(t, false)
	fp := testFingerprint("07")

	up, err := env.orch.UploadToStorage(context.Background(), bytes.NewReader([]byte("doc")), fp)
	require.NoError(t, err)
	require.Equal(t, fp, up.Fingerprint)
	require.Positive(t, up.Cost)

	first, err := env.orch.MintNFT(context.Background(), fp, up.URL, nil)
	require.NoError(t, err)
	second, err := env.orch.MintNFT(context.Background(), fp, up.URL, nil)
	require.NoError(t, err)

	assert.Equal(t, up.URL, first.StorageURL)
	assert.Equal(t, up.URL, second.StorageURL)
	assert.NotEqual(t, first.TokenID, second.TokenID)
}

func TestMintNFTFromFileUploadFailure(t *testing.T) {
	env := newTestEnv(t, false)
	boom := errors.New("storage gateway down")
	env.uploader.FailWith(boom)

	_, err := env.orch.MintNFTFromFile(context.Background(), bytes.NewReader([]byte("doc")), testFingerprint("08"), nil)
	require.Error(t, err)

	assert.ErrorIs(t, err, notary.ErrUploadFailed)
	var upErr *notary.UploadError
	require.ErrorAs(t, err, &upErr)
	assert.ErrorIs(t, upErr.Err, boom)

	_, err = env.orch.GetNFTMetadata(1)
	assert.ErrorIs(t, err, notary.ErrNotFound, "no mint may have been attempted after a failed upload")
}

func TestMintNFTFromFileMintFailure(t *testing.T) {
	submitErr := errors.New("broadcast refused")
	env := newTestEnv(t, false, ledger.WithSubmitError(submitErr))
	fp := testFingerprint("09")

	_, err := env.orch.MintNFTFromFile(context.Background(), bytes.NewReader([]byte("doc")), fp, nil)
	require.Error(t, err)

	var mintErr *notary.MintAfterUploadError
	require.ErrorAs(t, err, &mintErr, "a mint failure after upload must expose the durable upload")
	assert.Equal(t, fp, mintErr.Upload.Fingerprint)
	assert.NotEmpty(t, mintErr.Upload.URL)
	assert.ErrorIs(t, err, notary.ErrSubmissionFailed)
}

func TestAuthorizationGate(t *testing.T) {
	env := newTestEnv(t, true)
	registryAddr := "0x" + strings.Repeat("aa", 20)

	// No role granted yet.
	_, err := env.orch.RegisterHash(context.Background(), testFingerprint("0a"), nil)
	assert.ErrorIs(t, err, notary.ErrUnauthorized)
	assert.Zero(t, env.seq.Current(), "unauthorized calls must not allocate transaction ids")

	mgr, err := admin.NewManager(env.wallet, env.registry, env.seq, nil, testLogger)
	require.NoError(t, err)
	_, err = mgr.GrantRole(context.Background(), env.wallet, registryAddr, notary.RoleNotary, env.wallet)
	require.NoError(t, err)

	rec, err := env.orch.RegisterHash(context.Background(), testFingerprint("0a"), nil)
	require.NoError(t, err)
	assert.Equal(t, types.StateConfirmed, rec.State)
}

func TestPausedContractRejectsSubmission(t *testing.T) {
	env := newTestEnv(t, true)
	registryAddr := "0x" + strings.Repeat("aa", 20)

	mgr, err := admin.NewManager(env.wallet, env.registry, env.seq, nil, testLogger)
	require.NoError(t, err)
	_, err = mgr.GrantRole(context.Background(), env.wallet, registryAddr, notary.RoleNotary, env.wallet)
	require.NoError(t, err)
	_, err = mgr.PauseContract(context.Background(), env.wallet, registryAddr)
	require.NoError(t, err)

	before := env.seq.Current()
	_, err = env.orch.RegisterHash(context.Background(), testFingerprint("0b"), nil)
	assert.ErrorIs(t, err, notary.ErrUnauthorized)
	assert.Equal(t, before, env.seq.Current(), "a paused contract must not allocate transaction ids")

	// Unpause restores the pre-pause authorization state exactly.
	_, err = mgr.UnpauseContract(context.Background(), env.wallet, registryAddr)
	require.NoError(t, err)
	_, err = env.orch.RegisterHash(context.Background(), testFingerprint("0b"), nil)
	assert.NoError(t, err)
}

func TestEstimateGas(t *testing.T) {
	env := newTestEnv(t, false)

	hashGas, err := env.orch.EstimateGas(notary.KindHash)
	require.NoError(t, err)
	nftGas, err := env.orch.EstimateGas(notary.KindNFT)
	require.NoError(t, err)

	assert.Equal(t, notary.HashRegistrationGas, hashGas)
	assert.Equal(t, notary.NFTMintGas, nftGas)
	assert.Greater(t, nftGas, hashGas)

	again, err := env.orch.EstimateGas(notary.KindHash)
	require.NoError(t, err)
	assert.Equal(t, hashGas, again, "fixed-table estimates are constant")

	_, err = env.orch.EstimateGas(notary.Kind("escrow"))
	assert.Error(t, err)
}

func TestTransactionStatus(t *testing.T) {
	env := newTestEnv(t, false)

	// Unknown but well-formed hash: pending, not an error.
	state, err := env.orch.TransactionStatus(context.Background(), sequence.TxHash(999))
	require.NoError(t, err)
	assert.Equal(t, types.StatePending, state)

	// Malformed hash: a not-found condition, structurally distinct.
	_, err = env.orch.TransactionStatus(context.Background(), "0xnope")
	assert.ErrorIs(t, err, notary.ErrNotFound)

	rec, err := env.orch.RegisterHash(context.Background(), testFingerprint("0c"), nil)
	require.NoError(t, err)
	state, err = env.orch.TransactionStatus(context.Background(), rec.TxHash)
	require.NoError(t, err)
	assert.Equal(t, types.StateConfirmed, state)
}

func TestWaitForConfirmation(t *testing.T) {
	env := newTestEnv(t, false, ledger.WithConfirmAfter(2))

	rec, err := env.orch.RegisterHash(context.Background(), testFingerprint("0d"), nil)
	require.NoError(t, err)
	require.Equal(t, types.StatePending, rec.State, "receipt invisible for the first polls")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	state, err := env.orch.WaitForConfirmation(ctx, rec.TxHash)
	require.NoError(t, err)
	assert.Equal(t, types.StateConfirmed, state)
}

func TestWaitForConfirmationTimeout(t *testing.T) {
	env := newTestEnv(t, false, ledger.WithConfirmAfter(1_000_000))

	rec, err := env.orch.RegisterHash(context.Background(), testFingerprint("0e"), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	state, err := env.orch.WaitForConfirmation(ctx, rec.TxHash)

	assert.ErrorIs(t, err, notary.ErrTimeout)
	assert.Equal(t, types.StatePending, state, "timeout reports the last observed state, never a fabricated terminal one")
}

func TestWalletQueries(t *testing.T) {
	env := newTestEnv(t, false)

	assert.Equal(t, wallet.DefaultMockAddress, env.orch.WalletAddress())

	balance, err := env.orch.WalletBalance(context.Background())
	require.NoError(t, err)
	f, _ := balance.Float64()
	assert.InDelta(t, 10.5, f, 1e-9)
}

func TestGetNFTMetadata(t *testing.T) {
	env := newTestEnv(t, false)
	url := "https://arweave.net/" + strings.Repeat("6", 43)

	_, err := env.orch.GetNFTMetadata(1)
	assert.ErrorIs(t, err, notary.ErrNotFound)

	_, err = env.orch.MintNFT(context.Background(), testFingerprint("0f"), url, nil)
	require.NoError(t, err)

	meta, err := env.orch.GetNFTMetadata(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), meta.TokenID)
	assert.Equal(t, "Notarized Document #1", meta.Name)
	assert.NotEmpty(t, meta.Attributes)

	_, err = env.orch.GetNFTMetadata(2)
	assert.ErrorIs(t, err, notary.ErrNotFound)
	_, err = env.orch.GetNFTMetadata(0)
	assert.ErrorIs(t, err, notary.ErrNotFound)
}
