package assets

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

const assetColumns = `id, owner_id, filename, mime, size, storage_path, status, sha256, version, created_at, updated_at`

func scanAsset(row interface{ Scan(dest ...any) error }) (*models.Asset, error) {
	a := &models.Asset{}
	err := row.Scan(&a.ID, &a.OwnerID, &a.Filename, &a.Mime, &a.Size, &a.StoragePath,
		&a.Status, &a.SHA256, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, asset *models.Asset) error {

	query :=
		`INSERT INTO assets (id, owner_id, filename, mime, size, storage_path, status, sha256, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, '', 0)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		asset.ID, asset.OwnerID, asset.Filename, asset.Mime, asset.Size,
		asset.StoragePath, asset.Status).Scan(&asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`

	a, err := scanAsset(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return a, nil
}

// List returns assets the subject owns or has a share on, newest first, with
// keyset pagination on (created_at, id). An empty filter matches everything;
// otherwise filter is a case-insensitive substring match on the filename.
func (r *PostgresRepository) List(ctx context.Context, subjectID string, filter string, after *ListCursor, limit int) ([]*models.Asset, error) {

	query := `SELECT ` + assetColumns + ` FROM assets a
		WHERE (a.owner_id = $1 OR EXISTS (
			SELECT 1 FROM asset_shares s WHERE s.asset_id = a.id AND s.grantee_id = $1))
		AND ($2 = '' OR a.filename ILIKE '%' || $2 || '%')`

	args := []any{subjectID, filter}
	if after != nil {
		query += ` AND (a.created_at, a.id) < ($3, $4)`
		args = append(args, after.CreatedAt, after.ID)
	}
	query += fmt.Sprintf(` ORDER BY a.created_at DESC, a.id DESC LIMIT %d`, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select assets: %w", err)
	}
	defer rows.Close()

	var result []*models.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) UpdateFilename(ctx context.Context, id string, filename string, expectedVersion int64) error {
	query :=
		`UPDATE assets SET filename = $1, version = version + 1, updated_at = now()
		 WHERE id = $2 AND version = $3`

	return r.execCAS(ctx, query, filename, id, expectedVersion)
}

func (r *PostgresRepository) MarkReady(ctx context.Context, id string, sha256 string, expectedVersion int64) error {
	query :=
		`UPDATE assets SET status = $1, sha256 = $2, version = version + 1, updated_at = now()
		 WHERE id = $3 AND version = $4`

	return r.execCAS(ctx, query, models.StatusReady, sha256, id, expectedVersion)
}

func (r *PostgresRepository) MarkCorrupt(ctx context.Context, id string, expectedVersion int64) error {
	query :=
		`UPDATE assets SET status = $1, version = version + 1, updated_at = now()
		 WHERE id = $2 AND version = $3`

	return r.execCAS(ctx, query, models.StatusCorrupt, id, expectedVersion)
}

// TouchVersion advances the version without changing any other field. Share
// mutations use it so that every grant or revoke is serialized through the
// same optimistic lock as the rest of the asset's history.
func (r *PostgresRepository) TouchVersion(ctx context.Context, id string, expectedVersion int64) error {
	query :=
		`UPDATE assets SET version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $2`

	return r.execCAS(ctx, query, id, expectedVersion)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string, expectedVersion int64) error {
	query := `DELETE FROM assets WHERE id = $1 AND version = $2`

	return r.execCAS(ctx, query, id, expectedVersion)
}

// execCAS runs a mutation guarded by the optimistic version check and maps a
// zero rows-affected result to common.ErrVersionConflict.
func (r *PostgresRepository) execCAS(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}

	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrVersionConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
