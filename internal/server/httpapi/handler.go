package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/logging"
	"github.com/dmitrijs2005/mediavault/internal/server/models"
	"github.com/dmitrijs2005/mediavault/internal/server/services"
	"github.com/gin-gonic/gin"
)

// AssetManager is the slice of the asset service the HTTP layer consumes.
type AssetManager interface {
	CreateUploadSlot(ctx context.Context, subjectID, filename, mime string, size int64) (*services.UploadSlot, error)
	Finalize(ctx context.Context, subjectID, assetID, clientSHA256 string, expectedVersion int64) (*models.Asset, error)
	List(ctx context.Context, subjectID, afterCursor string, first int, filter string) (*services.AssetPage, error)
	Rename(ctx context.Context, subjectID, assetID, newFilename string, expectedVersion int64) (*models.Asset, error)
	GetDownloadURL(ctx context.Context, subjectID, assetID string) (*services.DownloadLink, error)
	Share(ctx context.Context, subjectID, assetID, granteeID string, canDownload bool, expectedVersion int64) (*models.Asset, error)
	RevokeShare(ctx context.Context, subjectID, assetID, granteeID string, expectedVersion int64) (*models.Asset, error)
	Delete(ctx context.Context, subjectID, assetID string, expectedVersion int64) error
}

// AssetHandler exposes the asset lifecycle over JSON.
type AssetHandler struct {
	assets AssetManager
	logger logging.Logger
}

func NewAssetHandler(assets AssetManager, logger logging.Logger) *AssetHandler {
	return &AssetHandler{assets: assets, logger: logger.With("module", "http_handler")}
}

// writeError maps service sentinels to HTTP statuses. Anything unrecognized
// is a 500 whose detail stays out of the response body.
func (h *AssetHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrIntegrity):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "version conflict"})
	default:
		h.logger.Error(c.Request.Context(), "internal error", "path", c.FullPath(), "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type assetResponse struct {
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

func toAssetResponse(a *models.Asset) assetResponse {
	return assetResponse{
		ID:        a.ID,
		Filename:  a.Filename,
		Mime:      a.Mime,
		Size:      a.Size,
		Status:    string(a.Status),
		SHA256:    a.SHA256,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// CreateUploadSlot handles POST /api/assets/upload-slot.
func (h *AssetHandler) CreateUploadSlot(c *gin.Context) {
	subjectID, ok := getSubjectIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		Filename string `json:"filename" binding:"required"`
		Mime     string `json:"mime" binding:"required"`
		Size     int64  `json:"size" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	slot, err := h.assets.CreateUploadSlot(c.Request.Context(), subjectID, req.Filename, req.Mime, req.Size)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"asset_id":     slot.AssetID,
		"storage_path": slot.StoragePath,
		"upload_url":   slot.UploadURL,
		"expires_at":   slot.ExpiresAt,
		"nonce":        slot.Nonce,
	})
}

// Finalize handles POST /api/assets/:id/finalize.
func (h *AssetHandler) Finalize(c *gin.Context) {
	subjectID, ok := getSubjectIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		SHA256          string `json:"sha256" binding:"required"`
		ExpectedVersion *int64 `json:"expected_version" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	asset, err := h.assets.Finalize(c.Request.Context(), subjectID, c.Param("id"), req.SHA256, *req.ExpectedVersion)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAssetResponse(asset))
}

// List handles GET /api/assets?first=&after=&filter=.
func (h *AssetHandler) List(c *gin.Context) {
	subjectID, ok := getSubjectIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var q struct {
		First  int    `form:"first"`
		After  string `form:"after"`
		Filter string `form:"filter"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}

	page, err := h.assets.List(c.Request.Context(), subjectID, q.After, q.First, q.Filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	items := make([]assetResponse, 0, len(page.Items))
	for _, a := range page.Items {
		items = append(items, toAssetResponse(a))
	}

	c.JSON(http.StatusOK, gin.H{
		"items":         items,
		"end_cursor":    page.EndCursor,
		"has_next_page": page.HasNextPage,
	})
}

// Rename handles PATCH /api/assets/:id.
func (h *AssetHandler) Rename(c *gin.Context) {
	subjectID, ok := getSubjectIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		Filename        string `json:"filename" binding:"required"`
		ExpectedVersion *int64 `json:"expected_version" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	asset, err := h.assets.Rename(c.Request.Context(), subjectID, c.Param("id"), req.Filename, *req.ExpectedVersion)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAssetResponse(asset))
}

// DownloadURL handles POST /api/assets/:id/download-url.
func (h *AssetHandler) DownloadURL(c *gin.Context) {
	subjectID, ok := getSubjectIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	link, err := h.assets.GetDownloadURL(c.Request.Context(), subjectID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":        link.URL,
		"expires_at": link.ExpiresAt,
	})
}

// Share handles PUT /api/assets/:id/shares/:granteeID.
func (h *AssetHandler) Share(c *gin.Context) {
	subjectID, ok := getSubjectIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		CanDownload     bool   `json:"can_download"`
		ExpectedVersion *int64 `json:"expected_version" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	asset, err := h.assets.Share(c.Request.Context(), subjectID, c.Param("id"), c.Param("granteeID"), req.CanDownload, *req.ExpectedVersion)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAssetResponse(asset))
}

// RevokeShare handles DELETE /api/assets/:id/shares/:granteeID.
func (h *AssetHandler) RevokeShare(c *gin.Context) {
	subjectID, ok := getSubjectIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		ExpectedVersion *int64 `json:"expected_version" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	asset, err := h.assets.RevokeShare(c.Request.Context(), subjectID, c.Param("id"), c.Param("granteeID"), *req.ExpectedVersion)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAssetResponse(asset))
}

// Delete handles DELETE /api/assets/:id.
func (h *AssetHandler) Delete(c *gin.Context) {
	subjectID, ok := getSubjectIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		ExpectedVersion *int64 `json:"expected_version" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.assets.Delete(c.Request.Context(), subjectID, c.Param("id"), *req.ExpectedVersion); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
