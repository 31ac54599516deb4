package notary

import "context"

// Uploader is the permanent-storage upload collaborator. Implementations
// upload the bytes to an append-only storage network and return a durable,
// resolvable reference.
type Uploader interface {
	// Upload stores data under the given fingerprint. The result stays valid
	// independently of anything this package does afterwards.
	Upload(ctx context.Context, data []byte, fingerprint string) (*UploadResult, error)

	// Close releases adapter resources.
	Close() error
}
