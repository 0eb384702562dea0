package netmon

import (
	"context"
	"net/http"
	"time"
)

// HTTPProber probes reachability with a HEAD request against the sync
// server. Any HTTP response counts as reachable - a 500 from the server
// still means the link is up; only transport errors mean offline.
type HTTPProber struct {
	url    string
	client *http.Client
}

// NewHTTPProber creates a prober against the given URL with a bounded
// per-probe timeout.
func NewHTTPProber(url string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Probe implements Prober.
func (p *HTTPProber) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
