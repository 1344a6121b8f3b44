package models

import "time"

// AssetShare is a grant from an asset's owner to another subject. At most one
// row exists per (asset, grantee) pair.
type AssetShare struct {
	AssetID     string
	GranteeID   string
	CanDownload bool
	CreatedAt   time.Time
}
