// Package discover finds new tenant boards by querying a SearXNG instance
// for board-host URLs and registering the matches.
package discover

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to one SearXNG instance. The JSON format must be enabled in
// the instance's settings.yml.
type Client struct {
	baseURL   string
	engines   string
	hc        *http.Client
	retryWait time.Duration
}

func NewClient(baseURL string, engines []string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		engines:   strings.Join(engines, ","),
		hc:        &http.Client{Timeout: 30 * time.Second},
		retryWait: time.Second,
	}
}

const searchRetries = 3

// Search runs one query page and returns the result URLs. A rate-limited
// instance (429) is retried with growing waits before the query is given
// up; any other failure fails the call.
func (c *Client) Search(ctx context.Context, query string, page int) ([]string, error) {
	params := url.Values{
		"q":          {query},
		"format":     {"json"},
		"pageno":     {fmt.Sprint(page)},
		"language":   {"en"},
		"safesearch": {"0"},
	}
	if c.engines != "" {
		params.Set("engines", c.engines)
	}
	endpoint := c.baseURL + "/search?" + params.Encode()

	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.hc.Do(req)
		if err != nil {
			return nil, err
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt >= searchRetries {
				return nil, fmt.Errorf("searx rate limited after %d attempts", attempt)
			}
			wait := time.Duration(1<<attempt) * c.retryWait
			slog.Debug("searx rate limited, backing off", "attempt", attempt, "wait", wait)
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("searx status %d", resp.StatusCode)
		}

		var payload struct {
			Results []struct {
				URL string `json:"url"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("searx payload: %w", err)
		}

		urls := make([]string, 0, len(payload.Results))
		for _, r := range payload.Results {
			if r.URL != "" {
				urls = append(urls, r.URL)
			}
		}
		return urls, nil
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
