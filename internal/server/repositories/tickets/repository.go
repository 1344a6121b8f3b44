package tickets

import (
	"context"

	"github.com/dmitrijs2005/mediavault/internal/server/models"
)

// Repository persists upload tickets. There is exactly one ticket per asset;
// Used is a one-way latch.
type Repository interface {
	Create(ctx context.Context, ticket *models.UploadTicket) error
	GetByAssetID(ctx context.Context, assetID string) (*models.UploadTicket, error)
	MarkUsed(ctx context.Context, assetID string) error
}
