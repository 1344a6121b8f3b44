package audits

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mediavault/internal/dbx"
	"github.com/dmitrijs2005/mediavault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, audit *models.DownloadAudit) error {

	query :=
		`INSERT INTO download_audits (asset_id, subject_id)
		 VALUES ($1, $2)`

	_, err := r.db.ExecContext(ctx, query, audit.AssetID, audit.SubjectID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
