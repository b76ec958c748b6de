// Package fetch is the rate-limited HTTP layer shared by every collector:
// per-host politeness, browser identity headers, bounded timeouts, and the
// retry policy for transient failures.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ATS edges answer bot-looking clients with blocks, so requests carry a
// desktop browser identity.
const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/143.0.0.0 Safari/537.36"
	acceptLanguage = "en-US,en;q=0.9"
)

type Config struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxAttempts       int
	BackoffBase       time.Duration
	ProxyURL          string
}

type Client struct {
	hc          *http.Client
	limiter     *hostLimiters
	maxAttempts int
	backoffBase time.Duration
}

func New(cfg Config) (*Client, error) {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if cfg.ProxyURL != "" {
		u, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	return &Client{
		hc: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		limiter:     newHostLimiters(cfg.RequestsPerSecond, cfg.Burst),
		maxAttempts: attempts,
		backoffBase: cfg.BackoffBase,
	}, nil
}

// Result is a completed HTTP exchange. Any status, including errors, is a
// Result; only the absence of a response is an error.
type Result struct {
	Status int
	Body   []byte
}

// OK reports whether the exchange produced a usable payload.
func (r *Result) OK() bool { return r.Status >= 200 && r.Status < 400 }

// Blocked reports the status ATS edges answer with when they refuse a
// client outright. Blocked tenants are recorded, never retried.
func (r *Result) Blocked() bool { return r.Status == http.StatusInternalServerError }

// Fetch performs one polite GET. The per-host limiter is awaited first, so
// a single slow host cannot be hammered even across tenants.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	if err := c.limiter.wait(ctx, rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// a truncated body is a transport failure, not a partial success
		return nil, err
	}
	return &Result{Status: resp.StatusCode, Body: body}, nil
}
