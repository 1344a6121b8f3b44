package models

import "time"

// UploadTicket is a one-time capability binding a subject to a pending
// upload. One ticket exists per asset; Used is a one-way latch flipped in the
// same transaction as the asset's terminal status transition.
type UploadTicket struct {
	AssetID   string
	SubjectID string
	// Nonce is an opaque anti-replay marker returned to the client.
	Nonce string
	// Mime and Size are copies of the values declared at slot creation,
	// validated against the hasher's observations on finalize.
	Mime string
	Size int64
	// StoragePath is copied from the asset to prevent drift.
	StoragePath string
	ExpiresAt   time.Time
	Used        bool
}

// Expired reports whether the ticket has lapsed at the given instant.
func (t *UploadTicket) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
