package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/dbx"
	"github.com/dmitrijs2005/mediavault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, share *models.AssetShare) error {

	query :=
		`INSERT INTO asset_shares (asset_id, grantee_id, can_download)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (asset_id, grantee_id)
		 DO UPDATE SET can_download = EXCLUDED.can_download`

	_, err := r.db.ExecContext(ctx, query, share.AssetID, share.GranteeID, share.CanDownload)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, assetID string, granteeID string) (*models.AssetShare, error) {
	query :=
		`SELECT asset_id, grantee_id, can_download, created_at
		 FROM asset_shares WHERE asset_id = $1 AND grantee_id = $2`

	s := &models.AssetShare{}
	err := r.db.QueryRowContext(ctx, query, assetID, granteeID).Scan(
		&s.AssetID, &s.GranteeID, &s.CanDownload, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, assetID string, granteeID string) error {
	query := `DELETE FROM asset_shares WHERE asset_id = $1 AND grantee_id = $2`

	res, err := r.db.ExecContext(ctx, query, assetID, granteeID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) DeleteForAsset(ctx context.Context, assetID string) error {
	query := `DELETE FROM asset_shares WHERE asset_id = $1`

	if _, err := r.db.ExecContext(ctx, query, assetID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
