package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stapply-ai/job-map/internal/domain"
)

func openTest(t *testing.T) *Registry {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "tenants.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestUpsertAndList(t *testing.T) {
	r := openTest(t)
	ctx := context.Background()

	added, err := r.Upsert(ctx, domain.Tenant{Platform: "greenhouse", Slug: "acme", Name: "Acme", URL: "https://boards.greenhouse.io/acme"})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = r.Upsert(ctx, domain.Tenant{Platform: "greenhouse", Slug: "acme", Name: "Acme Renamed", URL: "https://other"})
	require.NoError(t, err)
	assert.False(t, added, "same platform and slug is not a new tenant")

	tenants, err := r.List(ctx, "greenhouse")
	require.NoError(t, err)
	require.Len(t, tenants, 1)
	assert.Equal(t, "Acme", tenants[0].Name, "existing name is not overwritten")
	assert.Equal(t, "https://boards.greenhouse.io/acme", tenants[0].URL)
	assert.True(t, tenants[0].Active)
}

func TestUpsertBackfillsEmptyName(t *testing.T) {
	r := openTest(t)
	ctx := context.Background()

	_, err := r.Upsert(ctx, domain.Tenant{Platform: "lever", Slug: "acme", URL: "https://jobs.lever.co/acme"})
	require.NoError(t, err)
	_, err = r.Upsert(ctx, domain.Tenant{Platform: "lever", Slug: "acme", Name: "Acme", URL: "https://jobs.lever.co/acme"})
	require.NoError(t, err)

	tenants, err := r.List(ctx, "lever")
	require.NoError(t, err)
	require.Len(t, tenants, 1)
	assert.Equal(t, "Acme", tenants[0].Name)
}

func TestListOrderAndPlatformFilter(t *testing.T) {
	r := openTest(t)
	ctx := context.Background()

	for _, tn := range []domain.Tenant{
		{Platform: "lever", Slug: "zeta", URL: "https://jobs.lever.co/zeta"},
		{Platform: "lever", Slug: "alpha", URL: "https://jobs.lever.co/alpha"},
		{Platform: "ashby", Slug: "mid", URL: "https://jobs.ashbyhq.com/mid"},
	} {
		_, err := r.Upsert(ctx, tn)
		require.NoError(t, err)
	}

	lever, err := r.List(ctx, "lever")
	require.NoError(t, err)
	require.Len(t, lever, 2)
	assert.Equal(t, "alpha", lever[0].Slug)
	assert.Equal(t, "zeta", lever[1].Slug)

	all, err := r.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "ashby", all[0].Platform, "platform is the primary order")
}

func TestDeactivateAndReactivate(t *testing.T) {
	r := openTest(t)
	ctx := context.Background()

	tn := domain.Tenant{Platform: "workable", Slug: "acme", URL: "https://apply.workable.com/acme"}
	_, err := r.Upsert(ctx, tn)
	require.NoError(t, err)

	ok, err := r.Deactivate(ctx, "workable", "acme")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Deactivate(ctx, "workable", "acme")
	require.NoError(t, err)
	assert.False(t, ok, "already retired")

	tenants, err := r.List(ctx, "workable")
	require.NoError(t, err)
	assert.Empty(t, tenants, "retired tenants never list")

	got, found, err := r.Get(ctx, "workable", "acme")
	require.NoError(t, err)
	require.True(t, found, "retired tenants still resolve by slug")
	assert.False(t, got.Active)

	_, err = r.Upsert(ctx, tn)
	require.NoError(t, err)
	tenants, err = r.List(ctx, "workable")
	require.NoError(t, err)
	assert.Len(t, tenants, 1, "re-registering reactivates")
}

func TestGetMissing(t *testing.T) {
	r := openTest(t)
	_, found, err := r.Get(context.Background(), "greenhouse", "ghost")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestImportCSV(t *testing.T) {
	r := openTest(t)
	ctx := context.Background()

	sheet := filepath.Join(t.TempDir(), "companies.csv")
	require.NoError(t, os.WriteFile(sheet, []byte(
		"name,url\n"+
			"Acme,https://boards.greenhouse.io/acme\n"+
			",https://boards.greenhouse.io/globex\n"+
			"NoURL,\n"+
			"Acme Again,https://boards.greenhouse.io/acme\n"), 0o644))

	slugFor := func(url string) string {
		return strings.TrimPrefix(url, "https://boards.greenhouse.io/")
	}

	added, err := r.ImportCSV(ctx, "greenhouse", sheet, slugFor)
	require.NoError(t, err)
	assert.Equal(t, 2, added, "blank url and duplicate rows do not count")

	tenants, err := r.List(ctx, "greenhouse")
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, "acme", tenants[0].Slug)
	assert.Equal(t, "Unknown", tenants[1].Name, "missing name defaults")
}

func TestImportCSVURLOnlySheet(t *testing.T) {
	r := openTest(t)

	sheet := filepath.Join(t.TempDir(), "companies.csv")
	require.NoError(t, os.WriteFile(sheet, []byte(
		"url\nhttps://jobs.ashbyhq.com/acme\n"), 0o644))

	added, err := r.ImportCSV(context.Background(), "ashby", sheet, func(url string) string {
		return strings.TrimPrefix(url, "https://jobs.ashbyhq.com/")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
}
