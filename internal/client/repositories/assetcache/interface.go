package assetcache

import (
	"context"

	"github.com/dmitrijs2005/mediavault/internal/client/models"
)

// Repository stores the last listing fetched from the server so the CLI can
// show it while offline. The cache is replaced wholesale on each refresh.
type Repository interface {
	ReplaceAll(ctx context.Context, assets []*models.Asset) error
	GetAll(ctx context.Context) ([]*models.Asset, error)
	GetByID(ctx context.Context, id string) (*models.Asset, error)
}
