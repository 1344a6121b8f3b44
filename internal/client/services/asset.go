// Package services contains client-side orchestration between the API client,
// the local cache, and the filesystem.
package services

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/mediavault/internal/client/models"
	"github.com/dmitrijs2005/mediavault/internal/client/repositories/assetcache"
	"github.com/dmitrijs2005/mediavault/internal/filex"
	"github.com/dmitrijs2005/mediavault/internal/netx"
)

// APIClient is the server surface the service needs; api.Client satisfies it.
type APIClient interface {
	Ping(ctx context.Context) error
	CreateUploadSlot(ctx context.Context, filename, mimeType string, size int64) (*models.UploadSlot, error)
	Finalize(ctx context.Context, assetID, sha256 string, expectedVersion int64) (*models.Asset, error)
	List(ctx context.Context, after string, first int, filter string) (*models.AssetList, error)
	Rename(ctx context.Context, assetID, filename string, expectedVersion int64) (*models.Asset, error)
	DownloadURL(ctx context.Context, assetID string) (*models.DownloadLink, error)
	Share(ctx context.Context, assetID, granteeID string, canDownload bool, expectedVersion int64) (*models.Asset, error)
	RevokeShare(ctx context.Context, assetID, granteeID string, expectedVersion int64) (*models.Asset, error)
	Delete(ctx context.Context, assetID string, expectedVersion int64) error
}

type AssetService struct {
	api   APIClient
	cache assetcache.Repository
}

func NewAssetService(api APIClient, cache assetcache.Repository) *AssetService {
	return &AssetService{api: api, cache: cache}
}

const listPageSize = 100

// Refresh pulls the complete listing from the server, replaces the local
// cache with it, and returns the fresh items.
func (s *AssetService) Refresh(ctx context.Context) ([]*models.Asset, error) {

	var all []*models.Asset
	after := ""

	for {
		page, err := s.api.List(ctx, after, listPageSize, "")
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if !page.HasNextPage {
			break
		}
		after = page.EndCursor
	}

	if err := s.cache.ReplaceAll(ctx, all); err != nil {
		return nil, fmt.Errorf("cache update: %w", err)
	}

	return all, nil
}

// ListCached returns the last listing seen from the server, for offline use.
func (s *AssetService) ListCached(ctx context.Context) ([]*models.Asset, error) {
	return s.cache.GetAll(ctx)
}

// GetCached returns one cached asset, mainly to resolve the current version
// before a mutation.
func (s *AssetService) GetCached(ctx context.Context, id string) (*models.Asset, error) {
	return s.cache.GetByID(ctx, id)
}

// Upload pushes a local file through the full flow: request a slot, PUT the
// bytes to the signed URL, then finalize with the locally computed SHA-256.
func (s *AssetService) Upload(ctx context.Context, path string) (*models.Asset, error) {

	hash, size, err := filex.HashFile(path)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(path)
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	slot, err := s.api.CreateUploadSlot(ctx, filename, mimeType, size)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := netx.UploadToS3PresignedURL(slot.UploadURL, data); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	// A fresh draft is always at version 0.
	return s.api.Finalize(ctx, slot.AssetID, hash, 0)
}

// Download resolves a signed URL for the asset and saves it under destDir,
// named by the server-side filename when the cache knows it.
func (s *AssetService) Download(ctx context.Context, assetID, destDir string) (string, error) {

	link, err := s.api.DownloadURL(ctx, assetID)
	if err != nil {
		return "", err
	}

	name := assetID
	if cached, err := s.cache.GetByID(ctx, assetID); err == nil {
		name = cached.Filename
	}

	dest := filepath.Join(destDir, name)
	if err := netx.DownloadFromPresignedURL(link.URL, dest); err != nil {
		return "", err
	}

	return dest, nil
}
