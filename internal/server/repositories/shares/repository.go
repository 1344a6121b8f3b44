package shares

import (
	"context"

	"github.com/dmitrijs2005/mediavault/internal/server/models"
)

// Repository persists share grants. One row per (asset, grantee) pair.
type Repository interface {
	Upsert(ctx context.Context, share *models.AssetShare) error
	Get(ctx context.Context, assetID string, granteeID string) (*models.AssetShare, error)
	Delete(ctx context.Context, assetID string, granteeID string) error
	DeleteForAsset(ctx context.Context, assetID string) error
}
