// Package scheduler decides when a tenant is due for a fetch and drives
// periodic harvest loops.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/stapply-ai/job-map/internal/domain"
)

// ShouldFetch applies the freshness window. The window is measured from the
// last request, successful or not, so a failing tenant is not hammered on
// every run; it waits out the same window as a healthy one. force bypasses
// the window entirely. The returned age is zero when no prior attempt is
// on record.
func ShouldFetch(c *domain.TenantCache, now time.Time, window time.Duration, force bool) (bool, time.Duration) {
	if force || c == nil {
		return true, 0
	}

	last := c.LastRequest
	if last.IsZero() && c.LastScraped != nil {
		last = *c.LastScraped
	}
	if last.IsZero() {
		return true, 0
	}

	age := now.Sub(last.Time)
	return age >= window, age
}

type Task func(ctx context.Context) error

// Every runs task immediately and then once per interval until ctx ends.
// The task runs inline, so a slow pass delays the next tick instead of
// overlapping it.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	run := func() {
		if err := task(ctx); err != nil {
			slog.Error("scheduled task failed", "task", name, "err", err)
		}
	}

	run()

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
