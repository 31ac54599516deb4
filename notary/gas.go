package notary

// GasEstimator is the pluggable cost-estimation policy keyed by notarization
// kind. Callers can obtain an estimate before committing funds.
type GasEstimator interface {
	Estimate(kind Kind) uint64
}

// Reference gas costs of the two pipeline branches.
const (
	HashRegistrationGas uint64 = 50000
	NFTMintGas          uint64 = 150000
)

// FixedGasTable is the deterministic estimator: constant per-kind costs,
// identical across repeated calls. Production deployments can substitute a
// live oracle behind the same interface.
type FixedGasTable struct {
	Hash uint64
	NFT  uint64
}

// DefaultGasTable returns the reference fixed-price table.
func DefaultGasTable() *FixedGasTable {
	return &FixedGasTable{Hash: HashRegistrationGas, NFT: NFTMintGas}
}

// Estimate returns the fixed cost for the kind.
func (t *FixedGasTable) Estimate(kind Kind) uint64 {
	if kind == KindNFT {
		return t.NFT
	}
	return t.Hash
}

var _ GasEstimator = (*FixedGasTable)(nil)
