package notary

import (
	"fmt"
	"strings"

	"notarygw/ledger/types"
)

// Kind selects which notarization pipeline executes.
type Kind string

const (
	// KindHash is a lightweight on-chain hash registration, no token.
	KindHash Kind = "hash"
	// KindNFT uploads the document to permanent storage and mints a token
	// referencing it.
	KindNFT Kind = "nft"
)

// Receipt is the durable result of a notarization attempt. One Receipt per
// submitted transaction; retries produce new Receipts with new hashes.
// Immutable once returned.
type Receipt struct {
	TxHash      string                 `json:"transaction_hash"`
	State       types.TransactionState `json:"status"`
	Kind        Kind                   `json:"notarization_type"`
	BlockNumber uint64                 `json:"block_number,omitempty"`
	GasUsed     uint64                 `json:"gas_used,omitempty"`
	Timestamp   int64                  `json:"timestamp,omitempty"`

	// NFT-specific fields, zero-valued for KindHash receipts.
	TokenID    uint64 `json:"token_id,omitempty"`
	StorageURL string `json:"storage_url,omitempty"`
}

// UploadResult is the outcome of a permanent-storage upload. It may be reused
// across multiple mint calls; the upload is durable independently of any mint.
type UploadResult struct {
	StorageID   string  `json:"storage_id"`
	URL         string  `json:"url"`
	Fingerprint string  `json:"fingerprint"`
	Size        int64   `json:"size"`
	Cost        float64 `json:"cost"`
}

// Attribute is a single display trait on NFT metadata.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// NFTMetadata is the display/verification metadata resolved for a token.
type NFTMetadata struct {
	TokenID     uint64      `json:"token_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Attributes  []Attribute `json:"attributes"`
}

// ValidFingerprint reports whether s is a 0x-prefixed 64-hex-char content hash.
func ValidFingerprint(s string) bool {
	return validHex(s, 64)
}

// ValidTxHash reports whether s is a 0x-prefixed 64-hex-char transaction hash.
func ValidTxHash(s string) bool {
	return validHex(s, 64)
}

// ValidAddress reports whether s is a 0x-prefixed 40-hex-char address.
func ValidAddress(s string) bool {
	return validHex(s, 40)
}

func validHex(s string, digits int) bool {
	if len(s) != digits+2 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, r := range s[2:] {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return false
		}
	}
	return true
}

func (k Kind) String() string { return string(k) }

// valid reports whether the kind is one of the two pipeline branches.
func (k Kind) valid() bool { return k == KindHash || k == KindNFT }

func checkKind(k Kind) error {
	if !k.valid() {
		return fmt.Errorf("unknown notarization kind: %q", k)
	}
	return nil
}
