package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/stapply-ai/job-map/internal/config"
	"github.com/stapply-ai/job-map/internal/logging"
)

const usageText = `harvester - incremental job-board harvester

Usage:
  harvester run [-force] [platform|all] [slug]
        fetch stale tenants and refresh their caches
  harvester export [platform|all]
        write per-platform jobs tables and diffs
  harvester gather
        merge the platform tables into one jobs.csv
  harvester discover [-platform p] [-max-queries n] [-pages n]
        find new boards via SearXNG and register them
  harvester tenants add [-name s] <platform> <board_url>
  harvester tenants import <platform> <csv_path>
  harvester tenants list [platform]
  harvester tenants remove <platform> <slug>
  harvester watch [-interval 6h]
        periodic run + export + gather loop
  harvester proxy set-password|clear-password
        manage the proxy credential in the OS keychain

Environment:
  JOBMAP_CONFIG    config file path (default config/config.yml)
  JOBMAP_DATA_DIR  overrides app.data_dir
  SEARXNG_URL      SearXNG endpoint, required by discover
`

type app struct {
	cfg config.Config
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Print(usageText)
		return
	}

	cfgPath := os.Getenv("JOBMAP_CONFIG")
	if cfgPath == "" {
		cfgPath = filepath.Join("config", "config.yml")
	}
	if err := config.EnsureDefault(cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "config bootstrap failed: %v\n", err)
		os.Exit(2)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed (%s): %v\n", cfgPath, err)
		os.Exit(2)
	}
	cfg.ApplyEnv()
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logging.Setup(cfg.App.LogLevel, cfg.App.LogFormat)

	if err := os.MkdirAll(cfg.App.DataDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "data dir: %v\n", err)
		os.Exit(2)
	}

	a := &app{cfg: cfg}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "run":
		err = a.cmdRun(ctx, args)
	case "export":
		err = a.cmdExport(args)
	case "gather":
		err = a.cmdGather(args)
	case "discover":
		err = a.cmdDiscover(ctx, args)
	case "tenants":
		err = a.cmdTenants(ctx, args)
	case "watch":
		err = a.cmdWatch(ctx, args)
	case "proxy":
		err = a.cmdProxy(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usageText)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("command failed", "cmd", cmd, "err", err)
		os.Exit(1)
	}
}
