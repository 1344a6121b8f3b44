package assets

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
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

func assetRows(a *models.Asset) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "owner_id", "filename", "mime", "size", "storage_path",
		"status", "sha256", "version", "created_at", "updated_at",
	}).AddRow(a.ID, a.OwnerID, a.Filename, a.Mime, a.Size, a.StoragePath,
		a.Status, a.SHA256, a.Version, a.CreatedAt, a.UpdatedAt)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	q := `(?s)^INSERT\s+INTO\s+assets\b.*RETURNING\s+created_at,\s*updated_at`

	mock.ExpectQuery(q).
		WithArgs("a1", "u1", "report.pdf", "application/pdf", int64(1024), "private/u1/2026/08/a1-report.pdf", string(models.StatusUploading)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	a := &models.Asset{
		ID:          "a1",
		OwnerID:     "u1",
		Filename:    "report.pdf",
		Mime:        "application/pdf",
		Size:        1024,
		StoragePath: "private/u1/2026/08/a1-report.pdf",
		Status:      models.StatusUploading,
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.CreatedAt.Equal(now) {
		t.Fatalf("expected created_at to be populated")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM assets WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGetByID_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	want := &models.Asset{
		ID: "a1", OwnerID: "u1", Filename: "cat.png", Mime: "image/png",
		Size: 10, StoragePath: "p", Status: models.StatusReady,
		SHA256: "abc", Version: 1, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}

	mock.ExpectQuery(`SELECT .* FROM assets WHERE id = \$1`).
		WithArgs("a1").
		WillReturnRows(assetRows(want))

	got, err := repo.GetByID(context.Background(), "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != want.ID || got.Status != want.Status || got.Version != want.Version {
		t.Fatalf("unexpected asset: %+v", got)
	}
}

func TestUpdateFilename_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `UPDATE assets SET filename = \$1, version = version \+ 1, updated_at = now\(\)\s+WHERE id = \$2 AND version = \$3`

	mock.ExpectExec(q).
		WithArgs("renamed.pdf", "a1", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateFilename(context.Background(), "a1", "renamed.pdf", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateFilename_VersionConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE assets SET filename = \$1`).
		WithArgs("renamed.pdf", "a1", int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateFilename(context.Background(), "a1", "renamed.pdf", 0)
	if !errors.Is(err, common.ErrVersionConflict) {
		t.Fatalf("want ErrVersionConflict, got %v", err)
	}
}

func TestMarkReady_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `UPDATE assets SET status = \$1, sha256 = \$2, version = version \+ 1, updated_at = now\(\)\s+WHERE id = \$3 AND version = \$4`

	mock.ExpectExec(q).
		WithArgs(string(models.StatusReady), "deadbeef", "a1", int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkReady(context.Background(), "a1", "deadbeef", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMarkCorrupt_VersionConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE assets SET status = \$1, version = version \+ 1`).
		WithArgs(string(models.StatusCorrupt), "a1", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkCorrupt(context.Background(), "a1", 2)
	if !errors.Is(err, common.ErrVersionConflict) {
		t.Fatalf("want ErrVersionConflict, got %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM assets WHERE id = \$1 AND version = \$2`).
		WithArgs("a1", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "a1", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExecCAS_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE assets SET version = version \+ 1`).
		WithArgs("a1", int64(0)).
		WillReturnError(errors.New("db down"))

	err := repo.TouchVersion(context.Background(), "a1", 0)
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestList_FirstPage(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := &models.Asset{
		ID: "a1", OwnerID: "u1", Filename: "cat.png", Mime: "image/png",
		Size: 10, StoragePath: "p", Status: models.StatusReady,
		SHA256: "abc", Version: 1, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}

	mock.ExpectQuery(`(?s)SELECT .* FROM assets a\s+WHERE \(a\.owner_id = \$1 OR EXISTS`).
		WithArgs("u1", "").
		WillReturnRows(assetRows(a))

	got, err := repo.List(context.Background(), "u1", "", nil, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a1" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestList_WithCursor(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	after := &ListCursor{CreatedAt: time.Now(), ID: "a5"}

	mock.ExpectQuery(`(?s)SELECT .* FROM assets a.*\(a\.created_at, a\.id\) < \(\$3, \$4\)`).
		WithArgs("u1", "cat", after.CreatedAt, after.ID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "filename", "mime", "size", "storage_path",
			"status", "sha256", "version", "created_at", "updated_at",
		}))

	got, err := repo.List(context.Background(), "u1", "cat", after, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty page, got %d rows", len(got))
	}
}
