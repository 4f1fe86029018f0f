package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/baldawsari/pdf-downloader-mcp/internal/domain"
	"github.com/baldawsari/pdf-downloader-mcp/internal/port"
)

// Client implements port.Transport over net/http. Attempt deadlines
// come from the caller's context; the client itself carries no total
// timeout so large transfers are not cut off mid-body.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// Ensure Client implements port.Transport
var _ port.Transport = (*Client)(nil)

// New creates a transport presenting the given User-Agent.
func New(userAgent string) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,

		// Raw bytes for binary documents, saves CPU on both ends
		DisableCompression: true,

		// Response header timeout, not total download timeout
		ResponseHeaderTimeout: 30 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   0,
		},
		userAgent: userAgent,
	}
}

// Factory adapts New to port.TransportFactory.
func Factory(userAgent string) port.Transport {
	return New(userAgent)
}

// Probe issues a HEAD request to learn range support and total size.
func (c *Client) Probe(ctx context.Context, url string) (port.ProbeInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return port.ProbeInfo{}, fmt.Errorf("create probe request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return port.ProbeInfo{}, fmt.Errorf("probe failed: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return port.ProbeInfo{}, domain.NewStatusError(
			resp.StatusCode, http.StatusText(resp.StatusCode), resp.Header.Get("Retry-After"))
	}

	info := port.ProbeInfo{
		SupportsRange: resp.Header.Get("Accept-Ranges") == "bytes",
	}
	if resp.ContentLength > 0 {
		info.TotalSize = resp.ContentLength
	}

	return info, nil
}

// Fetch starts a GET transfer, requesting a byte range from offset
// when offset is positive.
func (c *Client) Fetch(ctx context.Context, url string, offset int64) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	if offset > 0 && resp.StatusCode == http.StatusOK {
		// Full body instead of 206: appending it would corrupt the
		// partial file, so the caller must restart from zero.
		drainAndClose(resp.Body)
		return nil, domain.ErrRangeIgnored
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryAfter := resp.Header.Get("Retry-After")
		drainAndClose(resp.Body)
		return nil, domain.NewStatusError(resp.StatusCode, http.StatusText(resp.StatusCode), retryAfter)
	}

	return resp.Body, nil
}

// Close releases idle connections held by this transport.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/pdf,application/octet-stream,*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}

// drainAndClose consumes a bounded amount of the body so the
// connection can be reused, then closes it.
func drainAndClose(body io.ReadCloser) {
	io.CopyN(io.Discard, body, 32*1024)
	body.Close()
}
