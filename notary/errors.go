package notary

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every failed operation yields an error matching exactly one
// of these kinds via errors.Is; success and failure are never conflated in a
// single value.
var (
	// ErrInvalidFingerprint rejects malformed input before any I/O.
	ErrInvalidFingerprint = errors.New("invalid fingerprint")

	// ErrInvalidAddress rejects malformed addresses before any I/O.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidStorageURL rejects malformed storage URLs before any I/O.
	ErrInvalidStorageURL = errors.New("invalid storage url")

	// ErrUploadFailed marks a storage adapter I/O or network failure.
	ErrUploadFailed = errors.New("upload failed")

	// ErrSubmissionFailed marks a ledger broadcast failure; no Receipt exists.
	ErrSubmissionFailed = errors.New("submission failed")

	// ErrUnauthorized marks a mutation by a non-owner identity, a missing
	// role, or an action against a paused contract.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound marks a query against an unknown identifier.
	ErrNotFound = errors.New("not found")

	// ErrTimeout marks a bounded wait that exceeded its budget. The
	// underlying transaction may still complete later.
	ErrTimeout = errors.New("timeout")
)

// UploadError carries the detail a caller needs to decide whether to retry an
// upload: the attempted size and the underlying cause. Matches
// ErrUploadFailed under errors.Is.
type UploadError struct {
	Fingerprint string
	Size        int64
	Err         error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed for %s (%d bytes): %v", e.Fingerprint, e.Size, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

func (e *UploadError) Is(target error) bool { return target == ErrUploadFailed }

// MintAfterUploadError reports a mint failure after a successful upload. The
// upload is already durable; Upload lets the caller retry the mint without
// re-uploading.
type MintAfterUploadError struct {
	Upload *UploadResult
	Err    error
}

func (e *MintAfterUploadError) Error() string {
	return fmt.Sprintf("mint failed after successful upload %s: %v", e.Upload.StorageID, e.Err)
}

func (e *MintAfterUploadError) Unwrap() error { return e.Err }
