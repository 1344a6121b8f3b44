// Package services contains server-side business logic. This file implements
// AssetService, which owns the asset lifecycle: upload slots, finalize
// verification, versioned mutations, and signed download URLs.
package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/dbx"
	"github.com/dmitrijs2005/mediavault/internal/logging"
	"github.com/dmitrijs2005/mediavault/internal/randx"
	"github.com/dmitrijs2005/mediavault/internal/sanitize"
	sc "github.com/dmitrijs2005/mediavault/internal/server/config"
	"github.com/dmitrijs2005/mediavault/internal/server/hasher"
	"github.com/dmitrijs2005/mediavault/internal/server/models"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/assets"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/mediavault/internal/server/storage"
	"github.com/google/uuid"
)

// allowedMimes is the fixed upload allow-list: common image types and PDF.
var allowedMimes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"application/pdf": {},
}

func mimeAllowed(mime string) bool {
	_, ok := allowedMimes[mime]
	return ok
}

// nonceBytes is the entropy of the upload-ticket anti-replay nonce.
const nonceBytes = 16

// UploadSlot is returned to a client that requested an upload.
type UploadSlot struct {
	AssetID     string
	StoragePath string
	UploadURL   string
	ExpiresAt   time.Time
	Nonce       string
}

// DownloadLink is a short-lived signed retrieval URL.
type DownloadLink struct {
	URL       string
	ExpiresAt time.Time
}

// AssetPage is one page of a subject's asset listing.
type AssetPage struct {
	Items       []*models.Asset
	EndCursor   string
	HasNextPage bool
}

// AssetService implements the asset lifecycle. Serialization of concurrent
// mutations happens entirely at the persistence boundary through the
// compare-and-swap in the assets repository; the service holds no locks.
type AssetService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	signer      storage.Signer
	verifier    hasher.Verifier
	config      *sc.Config
	logger      logging.Logger
}

func NewAssetService(db *sql.DB, m repomanager.RepositoryManager, signer storage.Signer,
	verifier hasher.Verifier, config *sc.Config, logger logging.Logger) *AssetService {
	return &AssetService{
		db:          db,
		repomanager: m,
		signer:      signer,
		verifier:    verifier,
		config:      config,
		logger:      logger.With("module", "asset_service"),
	}
}

// storageKeyFor builds the deterministic object key for a new asset:
// grouped by owner and year/month, collision-free via the asset id.
func storageKeyFor(ownerID, assetID, filename string, now time.Time) string {
	return fmt.Sprintf("private/%s/%d/%02d/%s-%s", ownerID, now.Year(), int(now.Month()), assetID, filename)
}

// CreateUploadSlot creates a draft asset plus its one-time upload ticket and
// returns a presigned PUT URL for the client to populate the storage path.
// Asset and ticket are inserted in one transaction so a draft can never exist
// without its ticket.
func (s *AssetService) CreateUploadSlot(ctx context.Context, subjectID, filename, mime string, size int64) (*UploadSlot, error) {

	if !mimeAllowed(mime) {
		return nil, fmt.Errorf("%w: mime type %q is not allowed", common.ErrBadRequest, mime)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive", common.ErrBadRequest)
	}

	safe := sanitize.Filename(filename)
	assetID := uuid.New().String()
	now := time.Now()
	path := storageKeyFor(subjectID, assetID, safe, now)

	nonce, err := randx.MakeRandHexString(nonceBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating nonce: %w", err)
	}

	expiresAt := now.Add(s.config.UploadTicketTTL)

	// Presigning has no side effects, so do it before touching the database.
	uploadURL, err := s.signer.SignUpload(ctx, path, s.config.UploadTicketTTL)
	if err != nil {
		return nil, fmt.Errorf("error signing upload url: %w", err)
	}

	asset := &models.Asset{
		ID:          assetID,
		OwnerID:     subjectID,
		Filename:    safe,
		Mime:        mime,
		Size:        size,
		StoragePath: path,
		Status:      models.StatusUploading,
	}
	ticket := &models.UploadTicket{
		AssetID:     assetID,
		SubjectID:   subjectID,
		Nonce:       nonce,
		Mime:        mime,
		Size:        size,
		StoragePath: path,
		ExpiresAt:   expiresAt,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Assets(tx).Create(ctx, asset); err != nil {
			return err
		}
		return s.repomanager.Tickets(tx).Create(ctx, ticket)
	})
	if err != nil {
		return nil, fmt.Errorf("error creating upload slot: %w", err)
	}

	return &UploadSlot{
		AssetID:     assetID,
		StoragePath: path,
		UploadURL:   uploadURL,
		ExpiresAt:   expiresAt,
		Nonce:       nonce,
	}, nil
}

// Finalize runs the integrity-verification protocol for an uploaded object
// and promotes the asset to ready, or condemns it to corrupt.
//
// A ticket that was already consumed makes the call idempotent: the current
// asset is returned without re-invoking the hasher. An object the hasher
// cannot find leaves all state untouched so the client can retry once the
// upload lands; an object that is present but wrong is terminal.
func (s *AssetService) Finalize(ctx context.Context, subjectID, assetID, clientSHA256 string, expectedVersion int64) (*models.Asset, error) {

	ticketRepo := s.repomanager.Tickets(s.db)
	assetRepo := s.repomanager.Assets(s.db)

	ticket, err := ticketRepo.GetByAssetID(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if ticket.SubjectID != subjectID {
		return nil, common.ErrForbidden
	}

	if ticket.Used {
		return assetRepo.GetByID(ctx, assetID)
	}

	if ticket.Expired(time.Now()) {
		return nil, fmt.Errorf("%w: upload ticket expired", common.ErrBadRequest)
	}

	observed, err := s.verifier.Hash(ctx, ticket.StoragePath)
	if err != nil {
		if errors.Is(err, hasher.ErrObjectMissing) {
			// The object never arrived. No state change: the ticket stays
			// unused and finalize can be retried.
			return nil, fmt.Errorf("%w: object not found in storage", common.ErrIntegrity)
		}
		return nil, fmt.Errorf("content hasher: %w", err)
	}

	if reason := verifyObservation(ticket, observed, clientSHA256); reason != "" {
		if err := s.condemn(ctx, assetID, expectedVersion); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", common.ErrIntegrity, reason)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Tickets(tx).MarkUsed(ctx, assetID); err != nil {
			return err
		}
		return s.repomanager.Assets(tx).MarkReady(ctx, assetID, observed.SHA256, expectedVersion)
	})
	if err != nil {
		return nil, err
	}

	return assetRepo.GetByID(ctx, assetID)
}

// verifyObservation validates the hasher's view of the object against the
// ticket and the client's claim, in fixed order, returning the first failure.
func verifyObservation(ticket *models.UploadTicket, observed *hasher.Result, clientSHA256 string) string {
	if observed.Size != ticket.Size {
		return fmt.Sprintf("size mismatch: declared %d, stored %d", ticket.Size, observed.Size)
	}
	if !mimeAllowed(ticket.Mime) {
		return fmt.Sprintf("mime type %q is not allowed", ticket.Mime)
	}
	if observed.SHA256 != clientSHA256 {
		return "sha256 mismatch"
	}
	return ""
}

// condemn performs the terminal uploading→corrupt transition, consuming the
// ticket in the same transaction.
func (s *AssetService) condemn(ctx context.Context, assetID string, expectedVersion int64) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Tickets(tx).MarkUsed(ctx, assetID); err != nil {
			return err
		}
		return s.repomanager.Assets(tx).MarkCorrupt(ctx, assetID, expectedVersion)
	})
}

// Rename changes the asset's filename under the usual compare-and-swap.
func (s *AssetService) Rename(ctx context.Context, subjectID, assetID, newFilename string, expectedVersion int64) (*models.Asset, error) {

	assetRepo := s.repomanager.Assets(s.db)

	asset, err := assetRepo.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.OwnerID != subjectID {
		return nil, common.ErrForbidden
	}

	safe := sanitize.Filename(newFilename)
	if err := assetRepo.UpdateFilename(ctx, assetID, safe, expectedVersion); err != nil {
		return nil, err
	}

	return assetRepo.GetByID(ctx, assetID)
}

// List returns one page of the assets the subject owns or has been granted,
// newest first, with an opaque keyset cursor and an optional filename filter.
func (s *AssetService) List(ctx context.Context, subjectID, afterCursor string, first int, filter string) (*AssetPage, error) {

	if first <= 0 {
		first = 20
	}
	if first > 100 {
		first = 100
	}

	var after *assets.ListCursor
	if afterCursor != "" {
		decoded, err := decodeCursor(afterCursor)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid cursor", common.ErrBadRequest)
		}
		after = decoded
	}

	// one extra row to detect whether a next page exists
	items, err := s.repomanager.Assets(s.db).List(ctx, subjectID, filter, after, first+1)
	if err != nil {
		return nil, err
	}

	page := &AssetPage{}
	if len(items) > first {
		page.HasNextPage = true
		items = items[:first]
	}
	page.Items = items
	if len(items) > 0 {
		last := items[len(items)-1]
		page.EndCursor = encodeCursor(&assets.ListCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return page, nil
}

func encodeCursor(c *assets.ListCursor) string {
	raw := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (*assets.ListCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, errors.New("malformed cursor")
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, err
	}
	return &assets.ListCursor{CreatedAt: ts, ID: parts[1]}, nil
}

// GetDownloadURL authorizes the subject, requires the asset to be ready, and
// issues a signed retrieval URL. Authorization is evaluated before the status
// check so an unauthorized caller learns nothing about the asset's state.
func (s *AssetService) GetDownloadURL(ctx context.Context, subjectID, assetID string) (*DownloadLink, error) {

	asset, err := s.repomanager.Assets(s.db).GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeDownload(ctx, subjectID, asset); err != nil {
		return nil, err
	}

	if asset.Status != models.StatusReady {
		return nil, fmt.Errorf("%w: asset is not ready for download", common.ErrBadRequest)
	}

	url, err := s.signer.SignDownload(ctx, asset.StoragePath, s.config.DownloadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("error signing download url: %w", err)
	}

	// The URL is already minted; a failed audit insert must not withhold it.
	audit := &models.DownloadAudit{AssetID: assetID, SubjectID: subjectID}
	if err := s.repomanager.Audits(s.db).Create(ctx, audit); err != nil {
		s.logger.Error(ctx, "download audit insert failed", "asset_id", assetID, "error", err.Error())
	}

	return &DownloadLink{
		URL:       url,
		ExpiresAt: time.Now().Add(s.config.DownloadURLTTL),
	}, nil
}

// authorizeDownload allows the owner, or a grantee whose share carries
// can_download. Everyone else is Forbidden.
func (s *AssetService) authorizeDownload(ctx context.Context, subjectID string, asset *models.Asset) error {
	if asset.OwnerID == subjectID {
		return nil
	}

	share, err := s.repomanager.Shares(s.db).Get(ctx, asset.ID, subjectID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrForbidden
		}
		return err
	}
	if !share.CanDownload {
		return common.ErrForbidden
	}

	return nil
}

// Share grants (or updates) a download permission for another subject. The
// grant bumps the asset's version so it is serialized against concurrent
// mutations like any other change.
func (s *AssetService) Share(ctx context.Context, subjectID, assetID, granteeID string, canDownload bool, expectedVersion int64) (*models.Asset, error) {

	assetRepo := s.repomanager.Assets(s.db)

	asset, err := assetRepo.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.OwnerID != subjectID {
		return nil, common.ErrForbidden
	}
	if granteeID == asset.OwnerID {
		return nil, fmt.Errorf("%w: cannot share an asset with its owner", common.ErrBadRequest)
	}

	share := &models.AssetShare{AssetID: assetID, GranteeID: granteeID, CanDownload: canDownload}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Shares(tx).Upsert(ctx, share); err != nil {
			return err
		}
		return s.repomanager.Assets(tx).TouchVersion(ctx, assetID, expectedVersion)
	})
	if err != nil {
		return nil, err
	}

	return assetRepo.GetByID(ctx, assetID)
}

// RevokeShare removes a grant, with the same version bump as Share.
func (s *AssetService) RevokeShare(ctx context.Context, subjectID, assetID, granteeID string, expectedVersion int64) (*models.Asset, error) {

	assetRepo := s.repomanager.Assets(s.db)

	asset, err := assetRepo.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.OwnerID != subjectID {
		return nil, common.ErrForbidden
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Shares(tx).Delete(ctx, assetID, granteeID); err != nil {
			return err
		}
		return s.repomanager.Assets(tx).TouchVersion(ctx, assetID, expectedVersion)
	})
	if err != nil {
		return nil, err
	}

	return assetRepo.GetByID(ctx, assetID)
}

// Delete removes the asset row and its shares; the upload ticket goes with
// the asset via the schema. Audit records are kept.
func (s *AssetService) Delete(ctx context.Context, subjectID, assetID string, expectedVersion int64) error {

	asset, err := s.repomanager.Assets(s.db).GetByID(ctx, assetID)
	if err != nil {
		return err
	}
	if asset.OwnerID != subjectID {
		return common.ErrForbidden
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Shares(tx).DeleteForAsset(ctx, assetID); err != nil {
			return err
		}
		return s.repomanager.Assets(tx).Delete(ctx, assetID, expectedVersion)
	})
}
