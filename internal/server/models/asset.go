// Package models defines server-side data models persisted in the database.
package models

import "time"

// AssetStatus is the lifecycle state of an asset's uploaded content.
type AssetStatus string

const (
	// StatusUploading means a slot was issued but the content has not been
	// verified yet.
	StatusUploading AssetStatus = "uploading"
	// StatusReady means the content passed integrity verification.
	StatusReady AssetStatus = "ready"
	// StatusCorrupt means the uploaded content failed verification. Terminal.
	StatusCorrupt AssetStatus = "corrupt"
)

// Asset is a logical file owned by one subject. The physical bytes live in
// object storage under StoragePath; the row tracks verification state and a
// monotonic version used for optimistic concurrency.
type Asset struct {
	ID       string
	OwnerID  string
	Filename string
	Mime     string
	// Size is the byte size declared by the client at slot creation.
	Size int64
	// StoragePath is the object-storage key of the content.
	StoragePath string
	Status      AssetStatus
	// SHA256 is the server-verified content hash, set only once the asset
	// reaches the ready status.
	SHA256 string
	// Version starts at 0 and increases by exactly 1 on every successful
	// mutation. Mutations are compare-and-swap on (ID, Version).
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
