// Package assetcache persists a local copy of the server-side asset listing
// in SQLite.
package assetcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/dmitrijs2005/mediavault/internal/client/migrations"
	"github.com/dmitrijs2005/mediavault/internal/client/models"
	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	// Set the database dialect
	if err := goose.SetDialect("sqlite3"); err != nil {
		log.Fatal("failed to set goose dialect:", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (or creates) the cache file and applies migrations.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		return nil, err
	}

	return db, nil
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, assets []*models.Asset) error {

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `delete from asset_cache`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	query := `insert into asset_cache (id, filename, mime, size, status, sha256, version, created_at, updated_at)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, a := range assets {
		_, err := tx.ExecContext(ctx, query,
			a.ID, a.Filename, a.Mime, a.Size, a.Status, a.SHA256, a.Version, a.CreatedAt, a.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert asset: %w", err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]*models.Asset, error) {

	query := `select id, filename, mime, size, status, sha256, version, created_at, updated_at
			from asset_cache order by created_at desc, id desc`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select assets: %w", err)
	}

	var result []*models.Asset

	defer rows.Close()
	for rows.Next() {
		var item = &models.Asset{}
		err := rows.Scan(&item.ID, &item.Filename, &item.Mime, &item.Size, &item.Status,
			&item.SHA256, &item.Version, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Asset, error) {

	query := `select id, filename, mime, size, status, sha256, version, created_at, updated_at
			from asset_cache where id=?`
	row := r.db.QueryRowContext(ctx, query, id)

	a := &models.Asset{}
	err := row.Scan(&a.ID, &a.Filename, &a.Mime, &a.Size, &a.Status,
		&a.SHA256, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select asset: %w", err)
	}

	return a, nil
}
