package fetch

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

// retryable statuses are upstream hiccups worth another attempt. 500 is
// excluded: tenants answer it as a hard block and retrying only burns the
// politeness budget.
func retryable(status int) bool {
	return status > 500 && status < 600
}

// FetchWithRetry applies the retry policy on top of Fetch: transport
// failures and retryable 5xx back off (delay doubling per attempt, with
// jitter) up to MaxAttempts; every other response is returned on first
// answer. Exhausted retries surface the last outcome so the caller can
// record it.
func (c *Client) FetchWithRetry(ctx context.Context, rawURL string) (*Result, error) {
	delay := c.backoffBase

	var (
		res *Result
		err error
	)
	for attempt := 1; ; attempt++ {
		res, err = c.Fetch(ctx, rawURL)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err == nil && !retryable(res.Status) {
			return res, nil
		}
		if attempt >= c.maxAttempts {
			break
		}

		if err != nil {
			slog.Debug("fetch failed, backing off", "url", rawURL, "attempt", attempt, "err", err)
		} else {
			slog.Debug("fetch failed, backing off", "url", rawURL, "attempt", attempt, "status", res.Status)
		}
		if serr := sleepCtx(ctx, withJitter(delay)); serr != nil {
			return nil, serr
		}
		delay *= 2
	}

	if err != nil {
		return nil, &TransportError{URL: rawURL, Attempts: c.maxAttempts, Err: err}
	}
	return res, nil
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	return d + time.Duration(rand.Int63n(int64(d/2+1)))
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
