package syncengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/capverde/posagent/internal/order"
)

// HTTPUploader posts orders to the server's idempotent upsert endpoint:
// PUT {base}/orders/{id} with the full order as the JSON body.
//
// Any 2xx is success. Non-2xx and transport errors are retryable
// failures - the order stays queued.
type HTTPUploader struct {
	baseURL string
	client  *http.Client
}

// NewHTTPUploader creates an uploader against the given base URL with a
// bounded per-request timeout.
func NewHTTPUploader(baseURL string, timeout time.Duration) *HTTPUploader {
	return &HTTPUploader{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Upsert implements Uploader.
func (u *HTTPUploader) Upsert(ctx context.Context, o order.Order) error {
	body, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal order %s: %w", o.ID, err)
	}

	url := u.baseURL + "/orders/" + o.ID
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("upsert order %s: %w", o.ID, err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upsert order %s: server returned %s", o.ID, resp.Status)
	}

	return nil
}
