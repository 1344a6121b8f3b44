// Package api implements the HTTP client for the mediavault server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/mediavault/internal/client/models"
	"github.com/dmitrijs2005/mediavault/internal/common"
)

// Client talks to the server's JSON API. All calls attach the configured
// bearer token; API-level failures come back as common sentinel errors so
// callers can branch with errors.Is.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetAccessToken replaces the bearer token used for subsequent calls.
func (c *Client) SetAccessToken(token string) {
	c.accessToken = token
}

// errFromStatus converts an HTTP status into the matching sentinel.
func errFromStatus(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)
	detail := payload.Error
	if detail == "" {
		detail = http.StatusText(status)
	}

	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", common.ErrUnauthenticated, detail)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", common.ErrForbidden, detail)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", common.ErrNotFound, detail)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", common.ErrBadRequest, detail)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", common.ErrIntegrity, detail)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", common.ErrVersionConflict, detail)
	default:
		return fmt.Errorf("server returned %d: %s", status, detail)
	}
}

// do executes one request and decodes a JSON response into out (when out is
// non-nil and the status is successful).
func (c *Client) do(ctx context.Context, method, path string, reqBody any, out any) error {

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errFromStatus(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// Ping probes server reachability via the unauthenticated health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) CreateUploadSlot(ctx context.Context, filename, mime string, size int64) (*models.UploadSlot, error) {
	req := map[string]any{"filename": filename, "mime": mime, "size": size}
	slot := &models.UploadSlot{}
	if err := c.do(ctx, http.MethodPost, "/api/assets/upload-slot", req, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (c *Client) Finalize(ctx context.Context, assetID, sha256 string, expectedVersion int64) (*models.Asset, error) {
	req := map[string]any{"sha256": sha256, "expected_version": expectedVersion}
	asset := &models.Asset{}
	if err := c.do(ctx, http.MethodPost, "/api/assets/"+url.PathEscape(assetID)+"/finalize", req, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

func (c *Client) List(ctx context.Context, after string, first int, filter string) (*models.AssetList, error) {
	q := url.Values{}
	if after != "" {
		q.Set("after", after)
	}
	if first > 0 {
		q.Set("first", strconv.Itoa(first))
	}
	if filter != "" {
		q.Set("filter", filter)
	}

	path := "/api/assets"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	list := &models.AssetList{}
	if err := c.do(ctx, http.MethodGet, path, nil, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) Rename(ctx context.Context, assetID, filename string, expectedVersion int64) (*models.Asset, error) {
	req := map[string]any{"filename": filename, "expected_version": expectedVersion}
	asset := &models.Asset{}
	if err := c.do(ctx, http.MethodPatch, "/api/assets/"+url.PathEscape(assetID), req, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

func (c *Client) DownloadURL(ctx context.Context, assetID string) (*models.DownloadLink, error) {
	link := &models.DownloadLink{}
	if err := c.do(ctx, http.MethodPost, "/api/assets/"+url.PathEscape(assetID)+"/download-url", nil, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (c *Client) Share(ctx context.Context, assetID, granteeID string, canDownload bool, expectedVersion int64) (*models.Asset, error) {
	req := map[string]any{"can_download": canDownload, "expected_version": expectedVersion}
	asset := &models.Asset{}
	path := "/api/assets/" + url.PathEscape(assetID) + "/shares/" + url.PathEscape(granteeID)
	if err := c.do(ctx, http.MethodPut, path, req, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

func (c *Client) RevokeShare(ctx context.Context, assetID, granteeID string, expectedVersion int64) (*models.Asset, error) {
	req := map[string]any{"expected_version": expectedVersion}
	asset := &models.Asset{}
	path := "/api/assets/" + url.PathEscape(assetID) + "/shares/" + url.PathEscape(granteeID)
	if err := c.do(ctx, http.MethodDelete, path, req, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

func (c *Client) Delete(ctx context.Context, assetID string, expectedVersion int64) error {
	req := map[string]any{"expected_version": expectedVersion}
	return c.do(ctx, http.MethodDelete, "/api/assets/"+url.PathEscape(assetID), req, nil)
}
