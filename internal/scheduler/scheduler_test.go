package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stapply-ai/job-map/internal/domain"
)

func TestShouldFetch(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour

	withLastRequest := func(age time.Duration, status int) *domain.TenantCache {
		c := &domain.TenantCache{Slug: "acme", Status: status}
		c.LastRequest = domain.NewTime(now.Add(-age))
		return c
	}

	tests := []struct {
		name      string
		cache     *domain.TenantCache
		force     bool
		wantFetch bool
		wantAge   time.Duration
	}{
		{
			name:      "never scraped",
			cache:     nil,
			wantFetch: true,
		},
		{
			name:      "force bypasses window",
			cache:     withLastRequest(time.Hour, 200),
			force:     true,
			wantFetch: true,
		},
		{
			name:      "fresh is skipped",
			cache:     withLastRequest(6*time.Hour, 200),
			wantFetch: false,
			wantAge:   6 * time.Hour,
		},
		{
			name:      "stale is fetched",
			cache:     withLastRequest(25*time.Hour, 200),
			wantFetch: true,
			wantAge:   25 * time.Hour,
		},
		{
			name:      "exactly at window is fetched",
			cache:     withLastRequest(window, 200),
			wantFetch: true,
			wantAge:   window,
		},
		{
			name:      "recent failure still waits out the window",
			cache:     withLastRequest(time.Hour, 500),
			wantFetch: false,
			wantAge:   time.Hour,
		},
		{
			name:      "recent transport failure still waits out the window",
			cache:     withLastRequest(2*time.Hour, domain.StatusTransportFailure),
			wantFetch: false,
			wantAge:   2 * time.Hour,
		},
		{
			name:      "cache without timestamps is fetched",
			cache:     &domain.TenantCache{Slug: "acme"},
			wantFetch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetch, age := ShouldFetch(tt.cache, now, window, tt.force)
			assert.Equal(t, tt.wantFetch, fetch)
			if tt.wantAge > 0 {
				assert.Equal(t, tt.wantAge, age)
			}
		})
	}
}

func TestShouldFetchFallsBackToLastScraped(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	scraped := domain.NewTime(now.Add(-3 * time.Hour))
	c := &domain.TenantCache{Slug: "acme", LastScraped: &scraped}

	fetch, age := ShouldFetch(c, now, 24*time.Hour, false)
	assert.False(t, fetch)
	assert.Equal(t, 3*time.Hour, age)
}

func TestEveryRunsImmediatelyThenOnTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan struct{})
	go func() {
		Every(ctx, 20*time.Millisecond, "test", func(context.Context) error {
			if runs.Add(1) >= 3 {
				cancel()
			}
			return nil
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Every did not stop after cancel")
	}
	require.GreaterOrEqual(t, runs.Load(), int32(3))
}
