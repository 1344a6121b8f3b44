package tickets

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(5 * time.Minute)

	mock.ExpectExec(`INSERT\s+INTO\s+upload_tickets`).
		WithArgs("a1", "u1", "nonce", "image/png", int64(10), "path", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.UploadTicket{
		AssetID:     "a1",
		SubjectID:   "u1",
		Nonce:       "nonce",
		Mime:        "image/png",
		Size:        10,
		StoragePath: "path",
		ExpiresAt:   exp,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByAssetID_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(time.Minute)
	rows := sqlmock.NewRows([]string{
		"asset_id", "subject_id", "nonce", "mime", "size", "storage_path", "expires_at", "used",
	}).AddRow("a1", "u1", "n", "image/png", int64(10), "p", exp, false)

	mock.ExpectQuery(`SELECT .* FROM upload_tickets WHERE asset_id = \$1`).
		WithArgs("a1").
		WillReturnRows(rows)

	got, err := repo.GetByAssetID(context.Background(), "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SubjectID != "u1" || got.Used {
		t.Fatalf("unexpected ticket: %+v", got)
	}
}

func TestGetByAssetID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM upload_tickets WHERE asset_id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByAssetID(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMarkUsed_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE upload_tickets SET used = TRUE WHERE asset_id = \$1 AND used = FALSE`).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkUsed(context.Background(), "a1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMarkUsed_AlreadyUsed(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE upload_tickets SET used = TRUE`).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkUsed(context.Background(), "a1")
	if !errors.Is(err, common.ErrVersionConflict) {
		t.Fatalf("want ErrVersionConflict, got %v", err)
	}
}
