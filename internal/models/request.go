package models

// NotarizationRequest defines the message structure for notarization
// submissions flowing through the intake queue.
type NotarizationRequest struct {
	RequestID   string         `json:"request_id"`
	Kind        string         `json:"kind"` // "hash" or "nft"
	Fingerprint string         `json:"fingerprint"`
	StorageURL  string         `json:"storage_url,omitempty"` // pre-uploaded reference, skips the upload step
	FilePath    string         `json:"file_path,omitempty"`   // document to upload when no StorageURL is given
	Metadata    map[string]any `json:"metadata,omitempty"`
	ReceivedAt  string         `json:"received_at"` // Use string for easy JSON serialization
}
