package scrape

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stapply-ai/job-map/internal/cache"
	"github.com/stapply-ai/job-map/internal/domain"
)

func newRunner(t *testing.T, store *cache.Store, window time.Duration) *Runner {
	t.Helper()
	return &Runner{
		Client:      newTestClient(t),
		Store:       store,
		Window:      window,
		Concurrency: 2,
		MaxPages:    200,
	}
}

func TestRunnerScrapesAndCaches(t *testing.T) {
	b := &board{pages: 1, perPage: 2}
	_, src, tenant := b.start(t)
	store := cache.NewStore(t.TempDir())

	sum, err := newRunner(t, store, 0).Run(context.Background(), src, []domain.Tenant{tenant})
	require.NoError(t, err)
	assert.Equal(t, Summary{Scraped: 1, Jobs: 2}, sum)

	entry, err := store.Load(tenant.Platform, tenant.Slug)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, http.StatusOK, entry.Status)
	assert.Equal(t, 2, entry.JobCount)
	require.NotNil(t, entry.LastScraped)
	assert.True(t, entry.LastRequest.Equal(entry.LastScraped.Time))
	assert.Equal(t, "Acme", entry.Company)
}

func TestRunnerSkipsFreshTenant(t *testing.T) {
	b := &board{pages: 1, perPage: 2}
	_, src, tenant := b.start(t)
	store := cache.NewStore(t.TempDir())

	prior := domain.NewTenantCache(tenant)
	prior.RecordScrape([]domain.JobRecord{{JobID: "1", JobTitle: "Cached"}}, 200, domain.Now())
	require.NoError(t, store.Save(tenant.Platform, prior))

	sum, err := newRunner(t, store, 24*time.Hour).Run(context.Background(), src, []domain.Tenant{tenant})
	require.NoError(t, err)
	assert.Equal(t, Summary{Skipped: 1, Jobs: 1}, sum, "cached job count is reported")
	assert.Zero(t, b.listCalls.Load(), "no request goes out for a fresh tenant")
}

func TestRunnerForceBypassesWindow(t *testing.T) {
	b := &board{pages: 1, perPage: 2}
	_, src, tenant := b.start(t)
	store := cache.NewStore(t.TempDir())

	prior := domain.NewTenantCache(tenant)
	prior.RecordScrape(nil, 200, domain.Now())
	require.NoError(t, store.Save(tenant.Platform, prior))

	r := newRunner(t, store, 24*time.Hour)
	r.Force = true
	sum, err := r.Run(context.Background(), src, []domain.Tenant{tenant})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Scraped)
	assert.Positive(t, b.listCalls.Load())
}

func TestRunnerRecordsFailure(t *testing.T) {
	b := &board{pages: 1, perPage: 2, failPage: 1, failStatus: http.StatusInternalServerError}
	_, src, tenant := b.start(t)
	store := cache.NewStore(t.TempDir())

	sum, err := newRunner(t, store, 0).Run(context.Background(), src, []domain.Tenant{tenant})
	require.NoError(t, err)
	assert.Equal(t, Summary{Failed: 1}, sum)
	assert.True(t, sum.Failures())

	entry, err := store.Load(tenant.Platform, tenant.Slug)
	require.NoError(t, err)
	require.NotNil(t, entry, "a failed pass still writes a cache entry")
	assert.Equal(t, http.StatusInternalServerError, entry.Status)
	assert.Zero(t, entry.JobCount)
	assert.Nil(t, entry.LastScraped, "never-succeeded tenant has no scrape time")
	assert.False(t, entry.LastRequest.IsZero())
}

func TestRunnerFailureKeepsLastScraped(t *testing.T) {
	b := &board{pages: 1, perPage: 2, failPage: 1, failStatus: http.StatusInternalServerError}
	_, src, tenant := b.start(t)
	store := cache.NewStore(t.TempDir())

	t0 := domain.NewTime(time.Now().Add(-48 * time.Hour))
	prior := domain.NewTenantCache(tenant)
	prior.RecordScrape([]domain.JobRecord{{JobID: "1", JobTitle: "Old"}}, 200, t0)
	require.NoError(t, store.Save(tenant.Platform, prior))

	sum, err := newRunner(t, store, 24*time.Hour).Run(context.Background(), src, []domain.Tenant{tenant})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)

	entry, err := store.Load(tenant.Platform, tenant.Slug)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Zero(t, entry.JobCount, "stale jobs do not survive a failed pass")
	assert.Empty(t, entry.Jobs)
	require.NotNil(t, entry.LastScraped)
	assert.True(t, entry.LastScraped.Equal(t0.Time), "last successful scrape time survives")
	assert.True(t, entry.LastRequest.After(t0.Time))
}

func TestRunnerCancellationLeavesCacheUntouched(t *testing.T) {
	b := &board{pages: 1, perPage: 2}
	_, src, tenant := b.start(t)
	store := cache.NewStore(t.TempDir())

	prior := domain.NewTenantCache(tenant)
	prior.RecordScrape([]domain.JobRecord{{JobID: "1", JobTitle: "Kept"}}, 200, domain.NewTime(time.Now().Add(-48*time.Hour)))
	require.NoError(t, store.Save(tenant.Platform, prior))
	before, err := os.ReadFile(store.Path(tenant.Platform, tenant.Slug))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := newRunner(t, store, 24*time.Hour).Run(ctx, src, []domain.Tenant{tenant})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, sum.Failed)

	after, err := os.ReadFile(store.Path(tenant.Platform, tenant.Slug))
	require.NoError(t, err)
	assert.Equal(t, before, after, "an interrupted pass never rewrites the cache")
}

func TestRunnerMixedTenants(t *testing.T) {
	good := &board{pages: 1, perPage: 3}
	_, src, goodTenant := good.start(t)
	bad := &board{pages: 1, perPage: 1, failPage: 1, failStatus: http.StatusInternalServerError}
	_, _, badTenant := bad.start(t)
	badTenant.Slug = "globex"
	store := cache.NewStore(t.TempDir())

	// both boards speak the same wire format, one source serves both
	sum, err := newRunner(t, store, 0).Run(context.Background(), src, []domain.Tenant{goodTenant, badTenant})
	require.NoError(t, err)
	assert.Equal(t, Summary{Scraped: 1, Failed: 1, Jobs: 3}, sum)
}
