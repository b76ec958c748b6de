package discover

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/stapply-ai/job-map/internal/domain"
	"github.com/stapply-ai/job-map/internal/registry"
)

// queryTemplates are the search strategies, broadest first; %s is the
// platform's primary board domain. MaxQueries trims the list from the
// back, so the broad queries always run.
var queryTemplates = []string{
	"site:%s",
	"site:%s careers",
	"site:%s jobs",
	"site:%s hiring",
	`site:%s "we're hiring"`,
	"site:%s apply now",
	"site:%s software engineer",
	"site:%s product manager",
	"site:%s data scientist",
	"site:%s designer",
	"site:%s sales",
	"site:%s marketing",
	"site:%s remote",
	`site:%s "San Francisco"`,
	`site:%s "New York"`,
	`site:%s "London"`,
	`site:%s "Berlin"`,
	`site:%s "Bangalore"`,
	`site:%s "Toronto"`,
	"site:%s startup",
}

// Delays between requests keep a shared SearXNG instance from rate
// limiting the whole pass.
const (
	DefaultPageDelay  = 2 * time.Second
	DefaultQueryDelay = 3 * time.Second
)

// Finder discovers boards for one platform at a time: search, extract
// board roots, register whatever is new.
type Finder struct {
	Client        *Client
	Registry      *registry.Registry
	MaxQueries    int
	PagesPerQuery int
	PageDelay     time.Duration
	QueryDelay    time.Duration
}

// Run searches for boards of one platform and registers the new ones.
// slugFor is the platform's url-to-slug rule. Returns how many tenants
// were added; individual query failures are logged and skipped.
func (f *Finder) Run(ctx context.Context, platform string, slugFor func(boardURL string) string) (int, error) {
	pat, ok := boardPatterns[platform]
	if !ok {
		return 0, fmt.Errorf("no discovery patterns for platform %q", platform)
	}
	site := pat.domains[0]

	queries := queryTemplates
	if f.MaxQueries > 0 && len(queries) > f.MaxQueries {
		queries = queries[:f.MaxQueries]
	}
	pages := f.PagesPerQuery
	if pages < 1 {
		pages = 1
	}

	found := mapset.NewSet[string]()
	added := 0
	for qi, tmpl := range queries {
		query := fmt.Sprintf(tmpl, site)
		log := slog.With("platform", platform, "query", query)

		for page := 1; page <= pages; page++ {
			urls, err := f.Client.Search(ctx, query, page)
			if err != nil {
				if ctx.Err() != nil {
					return added, ctx.Err()
				}
				log.Warn("query failed, moving on", "page", page, "err", err)
				break
			}
			if len(urls) == 0 {
				break
			}

			for _, u := range urls {
				board := pat.matchBoard(u)
				if board == "" || !found.Add(board) {
					continue
				}
				isNew, err := f.Registry.Upsert(ctx, domain.Tenant{
					Platform:     platform,
					Slug:         slugFor(board),
					URL:          board,
					DiscoveredAt: time.Now().UTC(),
				})
				if err != nil {
					return added, fmt.Errorf("register %s: %w", board, err)
				}
				if isNew {
					added++
					log.Info("new board registered", "url", board)
				}
			}

			if page < pages && f.PageDelay > 0 {
				if err := sleepCtx(ctx, f.PageDelay); err != nil {
					return added, err
				}
			}
		}

		if qi < len(queries)-1 && f.QueryDelay > 0 {
			if err := sleepCtx(ctx, f.QueryDelay); err != nil {
				return added, err
			}
		}
	}

	slog.Info("discovery pass done",
		"platform", platform, "boards_seen", found.Cardinality(), "added", added)
	return added, nil
}
