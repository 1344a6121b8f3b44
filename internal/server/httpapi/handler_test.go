package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/logging"
	"github.com/dmitrijs2005/mediavault/internal/server/models"
	"github.com/dmitrijs2005/mediavault/internal/server/services"
	"github.com/gin-gonic/gin"
)

type fakeAssetManager struct {
	slot    *services.UploadSlot
	asset   *models.Asset
	page    *services.AssetPage
	link    *services.DownloadLink
	err     error
	lastSHA string
}

func (f *fakeAssetManager) CreateUploadSlot(ctx context.Context, subjectID, filename, mime string, size int64) (*services.UploadSlot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.slot, nil
}

func (f *fakeAssetManager) Finalize(ctx context.Context, subjectID, assetID, clientSHA256 string, expectedVersion int64) (*models.Asset, error) {
	f.lastSHA = clientSHA256
	if f.err != nil {
		return nil, f.err
	}
	return f.asset, nil
}

func (f *fakeAssetManager) List(ctx context.Context, subjectID, afterCursor string, first int, filter string) (*services.AssetPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *fakeAssetManager) Rename(ctx context.Context, subjectID, assetID, newFilename string, expectedVersion int64) (*models.Asset, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.asset, nil
}

func (f *fakeAssetManager) GetDownloadURL(ctx context.Context, subjectID, assetID string) (*services.DownloadLink, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.link, nil
}

func (f *fakeAssetManager) Share(ctx context.Context, subjectID, assetID, granteeID string, canDownload bool, expectedVersion int64) (*models.Asset, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.asset, nil
}

func (f *fakeAssetManager) RevokeShare(ctx context.Context, subjectID, assetID, granteeID string, expectedVersion int64) (*models.Asset, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.asset, nil
}

func (f *fakeAssetManager) Delete(ctx context.Context, subjectID, assetID string, expectedVersion int64) error {
	return f.err
}

func newHandlerTestRouter(m *fakeAssetManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := NewAssetHandler(m, logger)

	r := gin.New()
	// stand-in for the auth middleware: a fixed subject
	r.Use(func(c *gin.Context) { c.Set(subjectIDKey, "u1") })

	r.GET("/api/assets", h.List)
	r.POST("/api/assets/upload-slot", h.CreateUploadSlot)
	r.POST("/api/assets/:id/finalize", h.Finalize)
	r.PATCH("/api/assets/:id", h.Rename)
	r.DELETE("/api/assets/:id", h.Delete)
	r.POST("/api/assets/:id/download-url", h.DownloadURL)
	r.PUT("/api/assets/:id/shares/:granteeID", h.Share)
	r.DELETE("/api/assets/:id/shares/:granteeID", h.RevokeShare)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateUploadSlotHandler(t *testing.T) {
	m := &fakeAssetManager{slot: &services.UploadSlot{
		AssetID:   "a1",
		UploadURL: "http://signed-put",
		ExpiresAt: time.Now().Add(5 * time.Minute),
		Nonce:     "deadbeef",
	}}
	r := newHandlerTestRouter(m)

	w := doJSON(t, r, http.MethodPost, "/api/assets/upload-slot",
		`{"filename":"a.pdf","mime":"application/pdf","size":10}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["asset_id"] != "a1" || resp["upload_url"] != "http://signed-put" {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestCreateUploadSlotHandler_MissingFields(t *testing.T) {
	r := newHandlerTestRouter(&fakeAssetManager{})

	w := doJSON(t, r, http.MethodPost, "/api/assets/upload-slot", `{"filename":"a.pdf"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", w.Code)
	}
}

func TestFinalizeHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"not found", common.ErrNotFound, http.StatusNotFound},
		{"forbidden", common.ErrForbidden, http.StatusForbidden},
		{"expired ticket", common.ErrBadRequest, http.StatusBadRequest},
		{"integrity", common.ErrIntegrity, http.StatusUnprocessableEntity},
		{"version conflict", common.ErrVersionConflict, http.StatusConflict},
		{"internal", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeAssetManager{
				err:   tt.err,
				asset: &models.Asset{ID: "a1", Status: models.StatusReady, Version: 1},
			}
			r := newHandlerTestRouter(m)

			w := doJSON(t, r, http.MethodPost, "/api/assets/a1/finalize",
				`{"sha256":"abc","expected_version":0}`)
			if w.Code != tt.want {
				t.Fatalf("want %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestFinalizeHandler_ExpectedVersionRequired(t *testing.T) {
	r := newHandlerTestRouter(&fakeAssetManager{})

	w := doJSON(t, r, http.MethodPost, "/api/assets/a1/finalize", `{"sha256":"abc"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400 when expected_version is absent, got %d", w.Code)
	}
}

func TestFinalizeHandler_ZeroVersionAccepted(t *testing.T) {
	// version 0 is a legal expected version for a fresh draft and must not be
	// confused with the field being absent
	m := &fakeAssetManager{asset: &models.Asset{ID: "a1", Status: models.StatusReady, Version: 1}}
	r := newHandlerTestRouter(m)

	w := doJSON(t, r, http.MethodPost, "/api/assets/a1/finalize",
		`{"sha256":"abc","expected_version":0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}
	if m.lastSHA != "abc" {
		t.Fatalf("client hash not passed through: %q", m.lastSHA)
	}
}

func TestListHandler(t *testing.T) {
	m := &fakeAssetManager{page: &services.AssetPage{
		Items: []*models.Asset{
			{ID: "a1", Filename: "one.pdf", Status: models.StatusReady, Version: 1},
			{ID: "a2", Filename: "two.png", Status: models.StatusReady, Version: 3},
		},
		EndCursor:   "cursor",
		HasNextPage: true,
	}}
	r := newHandlerTestRouter(m)

	w := doJSON(t, r, http.MethodGet, "/api/assets?first=2&filter=pdf", "")
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}

	var resp struct {
		Items       []assetResponse `json:"items"`
		EndCursor   string          `json:"end_cursor"`
		HasNextPage bool            `json:"has_next_page"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Items) != 2 || !resp.HasNextPage || resp.EndCursor != "cursor" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRenameHandler_Conflict(t *testing.T) {
	r := newHandlerTestRouter(&fakeAssetManager{err: common.ErrVersionConflict})

	w := doJSON(t, r, http.MethodPatch, "/api/assets/a1",
		`{"filename":"new.pdf","expected_version":1}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d", w.Code)
	}
}

func TestDownloadURLHandler(t *testing.T) {
	m := &fakeAssetManager{link: &services.DownloadLink{
		URL:       "http://signed-get",
		ExpiresAt: time.Now().Add(90 * time.Second),
	}}
	r := newHandlerTestRouter(m)

	w := doJSON(t, r, http.MethodPost, "/api/assets/a1/download-url", "")
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["url"] != "http://signed-get" {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestDownloadURLHandler_Forbidden(t *testing.T) {
	r := newHandlerTestRouter(&fakeAssetManager{err: common.ErrForbidden})

	w := doJSON(t, r, http.MethodPost, "/api/assets/a1/download-url", "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("want 403, got %d", w.Code)
	}
}

func TestDeleteHandler(t *testing.T) {
	m := &fakeAssetManager{}
	r := newHandlerTestRouter(m)

	w := doJSON(t, r, http.MethodDelete, "/api/assets/a1", `{"expected_version":2}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("want 204, got %d", w.Code)
	}
}

func TestShareHandler(t *testing.T) {
	m := &fakeAssetManager{asset: &models.Asset{ID: "a1", Version: 2}}
	r := newHandlerTestRouter(m)

	w := doJSON(t, r, http.MethodPut, "/api/assets/a1/shares/u2",
		`{"can_download":true,"expected_version":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRevokeShareHandler(t *testing.T) {
	m := &fakeAssetManager{asset: &models.Asset{ID: "a1", Version: 3}}
	r := newHandlerTestRouter(m)

	w := doJSON(t, r, http.MethodDelete, "/api/assets/a1/shares/u2",
		`{"expected_version":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}
}
