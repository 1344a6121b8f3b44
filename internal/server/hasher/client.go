// Package hasher calls the external content-hash service used during upload
// finalization. The service streams the object out of storage and reports its
// SHA-256 and byte size; the core never touches the bytes itself.
package hasher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrObjectMissing is returned when the service reports that the object does
// not exist or cannot be read. Callers must treat this differently from a
// transport failure: the upload simply has not arrived yet.
var ErrObjectMissing = errors.New("object missing")

// Result is the hasher's observation of a stored object.
type Result struct {
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// Verifier computes the server-side view of an uploaded object.
type Verifier interface {
	Hash(ctx context.Context, path string) (*Result, error)
}

// Client is an HTTP Verifier. The shared secret authenticates this server to
// the hash service; the service is never exposed to end users.
type Client struct {
	endpoint string
	secret   string
	client   *http.Client
}

func NewClient(endpoint, secret string) *Client {
	return &Client{
		endpoint: endpoint,
		secret:   secret,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type hashRequest struct {
	Path   string `json:"path"`
	Secret string `json:"secret"`
}

func (c *Client) Hash(ctx context.Context, path string) (*Result, error) {

	body, err := json.Marshal(hashRequest{Path: path, Secret: c.secret})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hasher request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrObjectMissing
	default:
		return nil, fmt.Errorf("hasher: unexpected status %d", resp.StatusCode)
	}

	result := &Result{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if result.SHA256 == "" {
		return nil, fmt.Errorf("hasher: empty sha256 in response")
	}

	return result, nil
}
