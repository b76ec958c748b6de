package scrape

import (
	"context"
	"fmt"
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/stapply-ai/job-map/internal/domain"
	"github.com/stapply-ai/job-map/internal/fetch"
)

// Walker drives one tenant's pass: strictly sequential page fetches, lead
// de-duplication, detail fetches, normalization.
type Walker struct {
	Client   *fetch.Client
	MaxPages int
}

// Pass is the outcome of walking one tenant.
type Pass struct {
	Jobs    []domain.JobRecord
	Status  int  // last HTTP status observed; 0 when no response was obtained
	Pages   int  // list pages that yielded new leads
	Skipped int  // postings dropped: malformed, failed detail, duplicate id
	Partial bool // the walk ended on a failing page after the first
}

// Run walks the tenant's list pages until a page yields nothing new, the
// page limit is hit, or a page fails. A first-page failure is returned as
// an error; a later one truncates the walk and marks the pass partial.
// The returned Pass is always usable for cache recording.
func (w *Walker) Run(ctx context.Context, src Source, t domain.Tenant) (*Pass, error) {
	pass := &Pass{Status: domain.StatusTransportFailure}
	seenURLs := mapset.NewSet[string]()
	seenIDs := mapset.NewSet[string]()

	for page := 1; page <= w.MaxPages; page++ {
		pageURL := src.PageURL(t, page)
		if pageURL == "" {
			break
		}

		res, err := w.Client.FetchWithRetry(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return pass, ctx.Err()
			}
			if page == 1 {
				return pass, err
			}
			slog.Warn("list page failed mid-walk, keeping earlier pages",
				"platform", src.Name(), "slug", t.Slug, "page", page, "err", err)
			pass.Partial = true
			break
		}
		pass.Status = res.Status
		if !res.OK() {
			if page == 1 {
				return pass, fmt.Errorf("list page %s: status %d", pageURL, res.Status)
			}
			slog.Warn("list page failed mid-walk, keeping earlier pages",
				"platform", src.Name(), "slug", t.Slug, "page", page, "status", res.Status)
			pass.Partial = true
			break
		}

		leads, err := src.ParseList(t, page, res.Body)
		if err != nil {
			if page == 1 {
				return pass, fmt.Errorf("parse list page %s: %w", pageURL, err)
			}
			slog.Warn("list page unparseable mid-walk, keeping earlier pages",
				"platform", src.Name(), "slug", t.Slug, "page", page, "err", err)
			pass.Partial = true
			break
		}

		// loop/overlap safety: a page with nothing unseen ends the walk
		var fresh []Lead
		for _, l := range leads {
			if l.URL == "" || seenURLs.Contains(l.URL) {
				continue
			}
			seenURLs.Add(l.URL)
			fresh = append(fresh, l)
		}
		if len(fresh) == 0 {
			break
		}
		pass.Pages++
		slog.Debug("list page parsed",
			"platform", src.Name(), "slug", t.Slug, "page", page, "leads", len(fresh))

		for _, l := range fresh {
			if ctx.Err() != nil {
				return pass, ctx.Err()
			}
			rec, ok := w.resolve(ctx, src, t, l)
			if !ok || rec.JobID == "" || seenIDs.Contains(rec.JobID) {
				pass.Skipped++
				continue
			}
			seenIDs.Add(rec.JobID)
			pass.Jobs = append(pass.Jobs, rec)
		}
	}

	return pass, nil
}

// resolve fetches the detail page when the platform needs one and
// normalizes the posting. Failures here cost one posting, never the pass.
func (w *Walker) resolve(ctx context.Context, src Source, t domain.Tenant, l Lead) (domain.JobRecord, bool) {
	var detail []byte
	if detailURL := src.DetailURL(l); detailURL != "" {
		res, err := w.Client.FetchWithRetry(ctx, detailURL)
		if err != nil {
			slog.Debug("detail fetch failed, posting skipped", "url", detailURL, "err", err)
			return domain.JobRecord{}, false
		}
		if !res.OK() {
			slog.Debug("detail fetch failed, posting skipped", "url", detailURL, "status", res.Status)
			return domain.JobRecord{}, false
		}
		detail = res.Body
	}

	rec, err := src.Normalize(t, l, detail)
	if err != nil {
		slog.Debug("posting unparseable, skipped", "url", l.URL, "err", err)
		return domain.JobRecord{}, false
	}
	return rec, true
}
