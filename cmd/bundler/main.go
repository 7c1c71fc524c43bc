package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/bundler/internal/build"
	"git.home.luguber.info/inful/bundler/internal/config"
	"git.home.luguber.info/inful/bundler/internal/errors"
	"git.home.luguber.info/inful/bundler/internal/eventstore"
	"git.home.luguber.info/inful/bundler/internal/metrics"
	"git.home.luguber.info/inful/bundler/internal/version"
)

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"bundler.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `help:"Print version information and exit"`

	Build struct {
		Mode          string `short:"m" help:"Override the configured build mode (development or production)"`
		Output        string `short:"o" help:"Override the configured output directory"`
		MetricsListen string `help:"Serve Prometheus metrics on this address while building"`
	} `cmd:"" help:"Build the bundle from configured entry points"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Graph struct {
		Entry string `short:"e" help:"Limit output to modules reachable from one entry"`
	} `cmd:"" help:"Resolve and print the module graph without emitting output"`

	History struct {
		Limit int    `short:"n" help:"Number of recent builds to show" default:"10"`
		Build string `help:"Show the event log of one build ID"`
	} `cmd:"" help:"Show recent build history"`
}

func main() {
	kctx := kong.Parse(&CLI, kong.Vars{"version": version.String()})

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel()})))

	adapter := errors.NewCLIErrorAdapter(CLI.Verbose, slog.Default())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch kctx.Command() {
	case "build":
		adapter.HandleError(runBuild(ctx))
	case "init":
		adapter.HandleError(config.Init(CLI.Config, CLI.Init.Force))
	case "graph":
		adapter.HandleError(runGraph(ctx))
	case "history":
		adapter.HandleError(runHistory(ctx))
	}
}

func logLevel() slog.Level {
	if CLI.Verbose {
		return slog.LevelDebug
	}
	var lvl slog.Level
	if raw := os.Getenv("BUNDLER_LOG_LEVEL"); raw != "" {
		if err := lvl.UnmarshalText([]byte(raw)); err != nil {
			return slog.LevelInfo
		}
	}
	return lvl
}

func runBuild(ctx context.Context) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if CLI.Build.Mode != "" {
		if err := cfg.OverrideMode(CLI.Build.Mode); err != nil {
			return err
		}
	}
	if CLI.Build.Output != "" {
		cfg.Output = filepath.Clean(CLI.Build.Output)
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if CLI.Build.MetricsListen != "" {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		srv := &http.Server{
			Addr:              CLI.Build.MetricsListen,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Warn("metrics listener failed", "error", err)
			}
		}()
		defer srv.Close()
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := build.NewService(recorder, store).Run(ctx, build.Request{Config: cfg})
	if err != nil {
		return err
	}

	fmt.Printf("build %s: %d modules, %d chunks in %s\n",
		res.Status, res.Modules, res.Chunks, res.Duration.Round(time.Millisecond))
	for _, e := range res.Manifest.Entries {
		fmt.Printf("  %-10s %s\n", e.Kind, e.File)
	}
	return nil
}

func runGraph(ctx context.Context) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	g, err := build.NewService(nil, nil).ResolveGraph(ctx, cfg)
	if err != nil {
		return err
	}

	for _, id := range g.IDs() {
		if CLI.Graph.Entry != "" && !reachedBy(g.ReachedBy(id), CLI.Graph.Entry) {
			continue
		}
		m := g.Module(id)
		fmt.Printf("%s [%s]\n", id, m.Capability)
		for _, imp := range m.Imports {
			marker := ""
			if imp.DevOnly {
				marker = " (dev-only)"
			}
			fmt.Printf("  -> %s%s\n", imp.Target, marker)
		}
	}
	return nil
}

func reachedBy(entries []string, name string) bool {
	for _, e := range entries {
		if e == name {
			return true
		}
	}
	return false
}

func runHistory(ctx context.Context) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if cfg.Build.HistoryDB == "" {
		return fmt.Errorf("no history database configured (set build.history_db)")
	}

	store, err := eventstore.NewSQLiteStore(cfg.Build.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	if CLI.History.Build != "" {
		events, err := store.EventsForBuild(ctx, CLI.History.Build)
		if err != nil {
			return err
		}
		for _, e := range events {
			fmt.Printf("%s  %-16s %s\n", e.Timestamp.Format(time.RFC3339), e.Type, e.Detail)
		}
		return nil
	}

	builds, err := store.RecentBuilds(ctx, CLI.History.Limit)
	if err != nil {
		return err
	}
	for _, b := range builds {
		duration := ""
		if !b.FinishedAt.IsZero() {
			duration = b.FinishedAt.Sub(b.StartedAt).Round(time.Second).String()
		}
		fmt.Printf("%s  %-11s %-8s %4d modules %3d chunks  %s\n",
			b.StartedAt.Format(time.RFC3339), b.Mode, b.Outcome, b.Modules, b.Chunks, duration)
	}
	return nil
}

// openStore opens the configured history database, degrading to a no-op store
// when history is disabled.
func openStore(cfg *config.Config) (eventstore.Store, error) {
	if cfg.Build.HistoryDB == "" {
		return eventstore.NoopStore{}, nil
	}
	if cfg.Build.HistoryDB != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Build.HistoryDB), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	return eventstore.NewSQLiteStore(cfg.Build.HistoryDB)
}
