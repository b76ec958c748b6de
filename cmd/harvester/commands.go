package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/stapply-ai/job-map/internal/cache"
	"github.com/stapply-ai/job-map/internal/discover"
	"github.com/stapply-ai/job-map/internal/domain"
	"github.com/stapply-ai/job-map/internal/export"
	"github.com/stapply-ai/job-map/internal/fetch"
	"github.com/stapply-ai/job-map/internal/registry"
	"github.com/stapply-ai/job-map/internal/scheduler"
	"github.com/stapply-ai/job-map/internal/scrape"
	"github.com/stapply-ai/job-map/internal/scrape/ashby"
	"github.com/stapply-ai/job-map/internal/scrape/greenhouse"
	"github.com/stapply-ai/job-map/internal/scrape/lever"
	"github.com/stapply-ai/job-map/internal/scrape/smartrecruiters"
	"github.com/stapply-ai/job-map/internal/scrape/workable"
	"github.com/stapply-ai/job-map/internal/scrape/workday"
	"github.com/stapply-ai/job-map/internal/secrets"
)

func (a *app) sources() map[string]scrape.Source {
	return map[string]scrape.Source{
		greenhouse.Name:      greenhouse.Source{},
		lever.Name:           lever.Source{},
		ashby.Name:           ashby.Source{},
		workable.Name:        workable.Source{},
		smartrecruiters.Name: smartrecruiters.Source{},
		workday.Name:         workday.Source{},
	}
}

func (a *app) platformNames() []string {
	srcs := a.sources()
	names := make([]string, 0, len(srcs))
	for name := range srcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *app) resolvePlatforms(arg string) ([]string, error) {
	if arg == "" || arg == "all" {
		return a.platformNames(), nil
	}
	if _, ok := a.sources()[arg]; !ok {
		return nil, fmt.Errorf("unknown platform %q (known: %s)", arg, strings.Join(a.platformNames(), ", "))
	}
	return []string{arg}, nil
}

// lock serializes cache and export writes across harvester processes.
func (a *app) lock() (func(), error) {
	l := flock.New(filepath.Join(a.cfg.App.DataDir, "harvester.lock"))
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", l.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("another harvester holds %s", l.Path())
	}
	return func() { _ = l.Unlock() }, nil
}

func (a *app) openRegistry() (*registry.Registry, error) {
	return registry.Open(filepath.Join(a.cfg.App.DataDir, "harvester.db"))
}

func (a *app) newFetchClient() (*fetch.Client, error) {
	proxyURL, err := secrets.ApplyProxyPassword(a.cfg.Fetch.ProxyURL)
	if err != nil {
		return nil, err
	}
	return fetch.New(fetch.Config{
		Timeout:           time.Duration(a.cfg.Fetch.TimeoutSeconds) * time.Second,
		RequestsPerSecond: a.cfg.Fetch.RequestsPerSecond,
		Burst:             a.cfg.Fetch.Burst,
		MaxAttempts:       a.cfg.Fetch.MaxAttempts,
		BackoffBase:       time.Duration(a.cfg.Fetch.BackoffBaseSeconds * float64(time.Second)),
		ProxyURL:          proxyURL,
	})
}

func (a *app) newRunner(client *fetch.Client, force bool) *scrape.Runner {
	return &scrape.Runner{
		Client:        client,
		Store:         cache.NewStore(a.cfg.App.DataDir),
		Window:        time.Duration(a.cfg.Scrape.WindowHours) * time.Hour,
		Force:         force,
		Concurrency:   a.cfg.Scrape.Concurrency,
		MaxPages:      a.cfg.Scrape.MaxPages,
		TenantTimeout: time.Duration(a.cfg.Scrape.TenantTimeoutMinutes) * time.Minute,
	}
}

func (a *app) newExporter() *export.Exporter {
	return &export.Exporter{
		Store:   cache.NewStore(a.cfg.App.DataDir),
		DataDir: a.cfg.App.DataDir,
	}
}

func (a *app) cmdRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	force := fs.Bool("force", false, "bypass the freshness window")
	_ = fs.Parse(args)

	platformArg, slug := "all", ""
	if rest := fs.Args(); len(rest) > 0 {
		platformArg = rest[0]
		if len(rest) > 1 {
			slug = rest[1]
		}
	}
	if slug != "" && platformArg == "all" {
		return errors.New("a tenant slug needs an explicit platform")
	}

	platforms, err := a.resolvePlatforms(platformArg)
	if err != nil {
		return err
	}

	unlock, err := a.lock()
	if err != nil {
		return err
	}
	defer unlock()

	reg, err := a.openRegistry()
	if err != nil {
		return err
	}
	defer reg.Close()

	client, err := a.newFetchClient()
	if err != nil {
		return err
	}
	runner := a.newRunner(client, *force)

	var total scrape.Summary
	for _, platform := range platforms {
		tenants, err := reg.List(ctx, platform)
		if err != nil {
			return err
		}
		if slug != "" {
			tenants = filterSlug(tenants, slug)
			if len(tenants) == 0 {
				return fmt.Errorf("tenant %s/%s is not registered", platform, slug)
			}
		}
		if len(tenants) == 0 {
			slog.Info("no tenants registered", "platform", platform)
			continue
		}

		sum, err := runner.Run(ctx, a.sources()[platform], tenants)
		total.Scraped += sum.Scraped
		total.Skipped += sum.Skipped
		total.Failed += sum.Failed
		total.Jobs += sum.Jobs
		if err != nil {
			return err
		}
	}

	slog.Info("harvest done",
		"scraped", total.Scraped, "skipped", total.Skipped,
		"failed", total.Failed, "jobs", total.Jobs)
	if total.Failures() {
		return fmt.Errorf("%d tenants failed", total.Failed)
	}
	return nil
}

func filterSlug(tenants []domain.Tenant, slug string) []domain.Tenant {
	var out []domain.Tenant
	for _, t := range tenants {
		if t.Slug == slug {
			out = append(out, t)
		}
	}
	return out
}

func (a *app) cmdExport(args []string) error {
	platformArg := "all"
	if len(args) > 0 {
		platformArg = args[0]
	}
	platforms, err := a.resolvePlatforms(platformArg)
	if err != nil {
		return err
	}

	unlock, err := a.lock()
	if err != nil {
		return err
	}
	defer unlock()

	e := a.newExporter()
	for _, platform := range platforms {
		table, diff, err := e.Export(platform)
		if err != nil {
			return fmt.Errorf("export %s: %w", platform, err)
		}
		if diff != "" {
			slog.Info("exported", "platform", platform, "table", table, "diff", diff)
		} else {
			slog.Info("exported", "platform", platform, "table", table)
		}
	}
	return nil
}

func (a *app) cmdGather(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("gather takes no arguments, got %q", args[0])
	}

	unlock, err := a.lock()
	if err != nil {
		return err
	}
	defer unlock()

	path, rows, err := a.newExporter().Gather(a.platformNames())
	if err != nil {
		return err
	}
	slog.Info("gathered", "rows", rows, "table", path)
	return nil
}

func (a *app) cmdDiscover(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	platformFlag := fs.String("platform", "", "discover one platform only")
	maxQueries := fs.Int("max-queries", a.cfg.Discover.MaxQueries, "query strategies per platform")
	pages := fs.Int("pages", a.cfg.Discover.PagesPerQuery, "result pages per query")
	_ = fs.Parse(args)

	if a.cfg.Discover.SearxURL == "" {
		fmt.Fprintln(os.Stderr, "SEARXNG_URL is not set; discovery needs a SearXNG instance")
		os.Exit(2)
	}

	platforms := discover.Platforms()
	if *platformFlag != "" {
		var err error
		if platforms, err = a.resolvePlatforms(*platformFlag); err != nil {
			return err
		}
	}

	reg, err := a.openRegistry()
	if err != nil {
		return err
	}
	defer reg.Close()

	f := &discover.Finder{
		Client:        discover.NewClient(a.cfg.Discover.SearxURL, a.cfg.Discover.Engines),
		Registry:      reg,
		MaxQueries:    *maxQueries,
		PagesPerQuery: *pages,
		PageDelay:     discover.DefaultPageDelay,
		QueryDelay:    discover.DefaultQueryDelay,
	}

	total := 0
	for _, platform := range platforms {
		added, err := f.Run(ctx, platform, a.sources()[platform].Slug)
		total += added
		if err != nil {
			return err
		}
	}
	slog.Info("discovery done", "added", total)
	return nil
}

func (a *app) cmdTenants(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("tenants needs a subcommand: add, import, list, remove")
	}
	sub, rest := args[0], args[1:]

	reg, err := a.openRegistry()
	if err != nil {
		return err
	}
	defer reg.Close()

	switch sub {
	case "add":
		fs := flag.NewFlagSet("tenants add", flag.ExitOnError)
		name := fs.String("name", "", "company display name")
		_ = fs.Parse(rest)
		pos := fs.Args()
		if len(pos) < 2 {
			return errors.New("usage: tenants add [-name s] <platform> <board_url>")
		}
		platform, boardURL := pos[0], pos[1]
		src, ok := a.sources()[platform]
		if !ok {
			return fmt.Errorf("unknown platform %q", platform)
		}
		t := domain.Tenant{Platform: platform, Slug: src.Slug(boardURL), Name: *name, URL: boardURL}
		added, err := reg.Upsert(ctx, t)
		if err != nil {
			return err
		}
		if added {
			slog.Info("tenant added", "platform", platform, "slug", t.Slug)
		} else {
			slog.Info("tenant already registered", "platform", platform, "slug", t.Slug)
		}

	case "import":
		if len(rest) < 2 {
			return errors.New("usage: tenants import <platform> <csv_path>")
		}
		platform, path := rest[0], rest[1]
		src, ok := a.sources()[platform]
		if !ok {
			return fmt.Errorf("unknown platform %q", platform)
		}
		added, err := reg.ImportCSV(ctx, platform, path, src.Slug)
		if err != nil {
			return err
		}
		slog.Info("import done", "platform", platform, "added", added)

	case "list":
		platform := ""
		if len(rest) > 0 {
			if _, err := a.resolvePlatforms(rest[0]); err != nil {
				return err
			}
			platform = rest[0]
		}
		tenants, err := reg.List(ctx, platform)
		if err != nil {
			return err
		}
		for _, t := range tenants {
			fmt.Printf("%s\t%s\t%s\t%s\n", t.Platform, t.Slug, t.Name, t.URL)
		}

	case "remove":
		if len(rest) < 2 {
			return errors.New("usage: tenants remove <platform> <slug>")
		}
		removed, err := reg.Deactivate(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("tenant %s/%s is not registered", rest[0], rest[1])
		}
		slog.Info("tenant removed", "platform", rest[0], "slug", rest[1])

	default:
		return fmt.Errorf("unknown tenants subcommand %q", sub)
	}
	return nil
}

func (a *app) cmdWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	interval := fs.Duration("interval", 6*time.Hour, "delay between harvest passes")
	_ = fs.Parse(args)

	unlock, err := a.lock()
	if err != nil {
		return err
	}
	defer unlock()

	reg, err := a.openRegistry()
	if err != nil {
		return err
	}
	defer reg.Close()

	client, err := a.newFetchClient()
	if err != nil {
		return err
	}
	runner := a.newRunner(client, false)
	e := a.newExporter()

	task := func(ctx context.Context) error {
		for _, platform := range a.platformNames() {
			tenants, err := reg.List(ctx, platform)
			if err != nil {
				return err
			}
			if len(tenants) == 0 {
				continue
			}
			sum, err := runner.Run(ctx, a.sources()[platform], tenants)
			slog.Info("pass done", "platform", platform,
				"scraped", sum.Scraped, "skipped", sum.Skipped,
				"failed", sum.Failed, "jobs", sum.Jobs)
			if err != nil {
				return err
			}
			if _, _, err := e.Export(platform); err != nil {
				return err
			}
		}
		path, rows, err := e.Gather(a.platformNames())
		if err != nil {
			return err
		}
		slog.Info("gathered", "rows", rows, "table", path)
		return nil
	}

	scheduler.Every(ctx, *interval, "harvest", task)
	return nil
}

func (a *app) cmdProxy(args []string) error {
	if len(args) == 0 {
		return errors.New("proxy needs a subcommand: set-password, clear-password")
	}

	account := secrets.ProxyKeyringAccount(a.cfg.Fetch.ProxyURL)
	if account == "" {
		return errors.New("fetch.proxy_url has no username, so there is no password to manage")
	}

	switch args[0] {
	case "set-password":
		fmt.Fprint(os.Stderr, "Proxy password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if err := secrets.SetProxyPassword(account, strings.TrimSpace(line)); err != nil {
			return err
		}
		slog.Info("proxy password stored", "account", account)

	case "clear-password":
		if err := secrets.DeleteProxyPassword(account); err != nil {
			return err
		}
		slog.Info("proxy password removed", "account", account)

	default:
		return fmt.Errorf("unknown proxy subcommand %q", args[0])
	}
	return nil
}
