package tickets

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

func (r *PostgresRepository) Create(ctx context.Context, ticket *models.UploadTicket) error {

	query :=
		`INSERT INTO upload_tickets (asset_id, subject_id, nonce, mime, size, storage_path, expires_at, used)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)`

	_, err := r.db.ExecContext(ctx, query,
		ticket.AssetID, ticket.SubjectID, ticket.Nonce, ticket.Mime, ticket.Size,
		ticket.StoragePath, ticket.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByAssetID(ctx context.Context, assetID string) (*models.UploadTicket, error) {
	query :=
		`SELECT asset_id, subject_id, nonce, mime, size, storage_path, expires_at, used
		 FROM upload_tickets WHERE asset_id = $1`

	t := &models.UploadTicket{}
	err := r.db.QueryRowContext(ctx, query, assetID).Scan(
		&t.AssetID, &t.SubjectID, &t.Nonce, &t.Mime, &t.Size,
		&t.StoragePath, &t.ExpiresAt, &t.Used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

// MarkUsed flips the ticket's used latch. The used = FALSE guard makes the
// flip observable exactly once even under concurrent finalize attempts.
func (r *PostgresRepository) MarkUsed(ctx context.Context, assetID string) error {
	query := `UPDATE upload_tickets SET used = TRUE WHERE asset_id = $1 AND used = FALSE`

	res, err := r.db.ExecContext(ctx, query, assetID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return common.ErrVersionConflict
	}

	return nil
}
