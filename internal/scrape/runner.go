package scrape

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stapply-ai/job-map/internal/cache"
	"github.com/stapply-ai/job-map/internal/domain"
	"github.com/stapply-ai/job-map/internal/fetch"
	"github.com/stapply-ai/job-map/internal/scheduler"
)

// Runner harvests a set of tenants for one platform. Tenants run
// concurrently up to Concurrency; requests inside one tenant stay strictly
// sequential in its walker.
type Runner struct {
	Client        *fetch.Client
	Store         *cache.Store
	Window        time.Duration
	Force         bool
	Concurrency   int
	MaxPages      int
	TenantTimeout time.Duration // 0 = no per-tenant deadline
}

// Summary counts one batch. Jobs includes cached counts of skipped tenants.
type Summary struct {
	Scraped int
	Skipped int
	Failed  int
	Jobs    int
}

func (s Summary) Failures() bool { return s.Failed > 0 }

type tenantState int

const (
	tenantScraped tenantState = iota
	tenantSkipped
	tenantFailed
)

// Run fans the tenants out over an errgroup. Per-tenant failures are
// recorded in their caches and counted; only cancellation aborts the batch.
func (r *Runner) Run(ctx context.Context, src Source, tenants []domain.Tenant) (Summary, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Concurrency)

	type outcome struct {
		state tenantState
		jobs  int
	}
	results := make(chan outcome, len(tenants))

	for _, t := range tenants {
		t := t
		g.Go(func() error {
			state, jobs := r.harvestTenant(gctx, src, t)
			results <- outcome{state, jobs}
			return nil
		})
	}

	_ = g.Wait()
	close(results)

	var s Summary
	for o := range results {
		switch o.state {
		case tenantScraped:
			s.Scraped++
		case tenantSkipped:
			s.Skipped++
		default:
			s.Failed++
		}
		s.Jobs += o.jobs
	}

	slog.Info("platform pass done",
		"platform", src.Name(),
		"scraped", s.Scraped, "skipped", s.Skipped, "failed", s.Failed,
		"jobs", s.Jobs)
	return s, ctx.Err()
}

func (r *Runner) harvestTenant(ctx context.Context, src Source, t domain.Tenant) (tenantState, int) {
	log := slog.With("platform", src.Name(), "slug", t.Slug)

	prior, err := r.Store.Load(t.Platform, t.Slug)
	if err != nil {
		log.Warn("cache unreadable, treating as never scraped", "err", err)
		prior = nil
	}

	due, age := scheduler.ShouldFetch(prior, time.Now(), r.Window, r.Force)
	if !due {
		log.Info("skipping fresh tenant",
			"age", age.Round(time.Minute), "cached_jobs", prior.JobCount)
		return tenantSkipped, prior.JobCount
	}

	if r.TenantTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.TenantTimeout)
		defer cancel()
	}

	entry := prior
	if entry == nil {
		entry = domain.NewTenantCache(t)
	}
	if t.Name != "" {
		entry.Company = t.Name
	}
	if t.URL != "" {
		entry.URL = t.URL
	}

	log.Info("fetching job index", "url", t.URL)
	walker := &Walker{Client: r.Client, MaxPages: r.MaxPages}
	pass, err := walker.Run(ctx, src, t)
	now := domain.Now()

	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		// interrupted, leave the cache exactly as it was
		log.Warn("pass interrupted, cache untouched", "err", err)
		return tenantFailed, 0

	case err != nil:
		entry.RecordFailure(pass.Status, now)
		if serr := r.Store.Save(t.Platform, entry); serr != nil {
			log.Error("cache save failed", "err", serr)
		}
		log.Warn("tenant failed", "status", pass.Status, "err", err)
		return tenantFailed, 0

	case pass.Partial:
		entry.RecordPartial(pass.Jobs, pass.Status, now)
		if serr := r.Store.Save(t.Platform, entry); serr != nil {
			log.Error("cache save failed", "err", serr)
			return tenantFailed, len(pass.Jobs)
		}
		log.Warn("tenant truncated mid-walk",
			"status", pass.Status, "jobs", len(pass.Jobs), "skipped_postings", pass.Skipped)
		return tenantFailed, len(pass.Jobs)

	default:
		entry.RecordScrape(pass.Jobs, pass.Status, now)
		if serr := r.Store.Save(t.Platform, entry); serr != nil {
			log.Error("cache save failed", "err", serr)
			return tenantFailed, len(pass.Jobs)
		}
		log.Info("tenant scraped",
			"jobs", len(pass.Jobs), "pages", pass.Pages, "skipped_postings", pass.Skipped)
		return tenantScraped, len(pass.Jobs)
	}
}
