package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Hosts that block scrapers but have open-source frontends mirroring their
// content. The swap happens before any fetch.
var frontendSwaps = map[string]string{
	"www.reuters.com": "neuters.de",
	"x.com":           "nitter.net",
}

// NewHTTPClient returns the client all strategies share.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// rewriteLink applies the open-source frontend swap when one exists.
func rewriteLink(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return link
	}
	if replacement, ok := frontendSwaps[parsed.Host]; ok {
		parsed.Host = replacement
		return parsed.String()
	}
	return link
}

// fetchPage GETs a link with browser-like headers; several news sites serve
// scrapers an empty shell otherwise. Callers own the response body.
func fetchPage(ctx context.Context, client *http.Client, link string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp, nil
}
