// Package models holds the client-side views of server objects.
package models

import (
	"fmt"
	"time"
)

// Asset mirrors the server's asset representation as returned by the API.
type Asset struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Mime      string    `json:"mime"`
	Size      int64     `json:"size"`
	Status    string    `json:"status"`
	SHA256    string    `json:"sha256,omitempty"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Asset) String() string {
	return fmt.Sprintf("%s  v%d  %-9s  %8d  %s", a.ID, a.Version, a.Status, a.Size, a.Filename)
}

// UploadSlot is what the server hands back for a requested upload.
type UploadSlot struct {
	AssetID     string    `json:"asset_id"`
	StoragePath string    `json:"storage_path"`
	UploadURL   string    `json:"upload_url"`
	ExpiresAt   time.Time `json:"expires_at"`
	Nonce       string    `json:"nonce"`
}

// DownloadLink is a short-lived signed retrieval URL.
type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AssetList is one page of the listing.
type AssetList struct {
	Items       []*Asset `json:"items"`
	EndCursor   string   `json:"end_cursor"`
	HasNextPage bool     `json:"has_next_page"`
}
