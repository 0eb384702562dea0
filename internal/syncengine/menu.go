package syncengine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/capverde/posagent/internal/order"
)

// FetchMenu downloads the current catalog from GET {base}/menu. The
// caller replaces the local cache with the result; fetch and replace
// together are the clear-then-repopulate refresh.
func (u *HTTPUploader) FetchMenu(ctx context.Context) ([]order.MenuItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+"/menu", nil)
	if err != nil {
		return nil, fmt.Errorf("build menu request: %w", err)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch menu: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch menu: server returned %s", resp.Status)
	}

	var items []order.MenuItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}

	now := time.Now().UTC()
	for i := range items {
		items[i].CachedAt = now
	}
	return items, nil
}
