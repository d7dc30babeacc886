package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"remotejobs/aggregator/internal/ai"
)

const (
	httpTimeout = 15 * time.Second
	userAgent   = "remote-jobs-aggregator/1.0"
)

// Fetcher retrieves raw listings from one platform.
type Fetcher interface {
	// Platform returns the source_platform identifier the fetcher writes.
	Platform() string

	// Fetch returns every listing currently published on the platform.
	Fetch(ctx context.Context) ([]ai.RawListing, error)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// fetchBody GETs url and returns the response body, enforcing a 200 status.
func fetchBody(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/rss+xml, application/xml")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d: %s", url, resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

// fetchJSON GETs url and unmarshals the body into out.
func fetchJSON(ctx context.Context, client *http.Client, url string, out any) error {
	body, err := fetchBody(ctx, client, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
