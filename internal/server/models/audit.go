package models

import "time"

// DownloadAudit is an append-only record written on every successful signed
// download-URL issuance. Never updated or deleted.
type DownloadAudit struct {
	AssetID   string
	SubjectID string
	CreatedAt time.Time
}
