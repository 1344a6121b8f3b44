package assets

import (
	"context"
	"time"

	"github.com/dmitrijs2005/mediavault/internal/server/models"
)

// ListCursor is a keyset-pagination position: the (created_at, id) pair of
// the last row of the previous page.
type ListCursor struct {
	CreatedAt time.Time
	ID        string
}

// Repository persists assets. Every mutation is compare-and-swap on
// (id, expected version) and returns common.ErrVersionConflict when the row
// has moved on.
type Repository interface {
	Create(ctx context.Context, asset *models.Asset) error
	GetByID(ctx context.Context, id string) (*models.Asset, error)
	List(ctx context.Context, subjectID string, filter string, after *ListCursor, limit int) ([]*models.Asset, error)
	UpdateFilename(ctx context.Context, id string, filename string, expectedVersion int64) error
	MarkReady(ctx context.Context, id string, sha256 string, expectedVersion int64) error
	MarkCorrupt(ctx context.Context, id string, expectedVersion int64) error
	TouchVersion(ctx context.Context, id string, expectedVersion int64) error
	Delete(ctx context.Context, id string, expectedVersion int64) error
}
