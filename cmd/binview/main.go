package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ritzau/binview/pkg/api"
	"github.com/ritzau/binview/pkg/config"
	"github.com/ritzau/binview/pkg/logging"
	"github.com/ritzau/binview/pkg/output"
	"github.com/ritzau/binview/pkg/render"
	"github.com/ritzau/binview/pkg/results"
	"github.com/ritzau/binview/pkg/session"
	"github.com/ritzau/binview/pkg/source"
	"github.com/ritzau/binview/pkg/watcher"
	"github.com/ritzau/binview/pkg/web"
	"github.com/spf13/pflag"
)

func main() {
	// Parse command-line flags
	f := pflag.NewFlagSet("binview", pflag.ExitOnError)
	f.String("backend", "http://localhost:8000/api", "Analysis backend base URL")
	f.String("results-dir", "", "Serve <module>.json result files from this directory instead of the backend")
	f.Bool("web", false, "Start web server instead of printing to console")
	f.Int("port", 8080, "Port for web server (only used with --web)")
	f.Bool("watch", false, "Reload open views when result files change (needs --results-dir)")
	f.Bool("open", true, "Open the browser (only used with --web)")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.Bool("log-json", false, "Log in JSON instead of the compact console format")
	f.Duration("timeout", 30*time.Second, "Backend request timeout")
	f.Int("retries", 2, "Retries of failed backend requests")
	f.String("module", "call_graph", "Module to report on")
	f.String("oid", "", "File OID to report on")
	f.String("collection", "", "Collection the OID belongs to")
	f.String("select", "", "Node id (call graph) or function name (control flow) to highlight")
	f.String("file", "", "Read module results from this file instead of retrieving them")
	f.String("export", "", "Write the drawn graph with its highlight to this SVG file")
	f.Parse(os.Args[1:])

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.SetLevel(level)
	if cfg.LogJSON {
		logging.SetJSONOutput()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := newSource(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.WebMode {
		if err := runWeb(ctx, cfg, src); err != nil {
			logging.Fatal("web server failed", "error", err)
		}
		return
	}

	if err := runReport(ctx, cfg, src); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newSource(cfg *config.Config) (source.Source, error) {
	if cfg.Offline() {
		return source.NewDir(cfg.ResultsDir)
	}
	client := api.NewClient(cfg.Backend, api.Options{
		Timeout: cfg.Timeout,
		Retries: cfg.Retries,
	})
	return source.NewBackend(client), nil
}

func runReport(ctx context.Context, cfg *config.Config, src source.Source) error {
	collection := cfg.Collection
	if cfg.Offline() && collection == "" {
		collection = source.LocalCollection
	}
	key := session.Key{Collection: collection, OID: cfg.OID, Module: cfg.Module}

	var raw []byte
	var err error
	from := cfg.Backend
	switch {
	case cfg.File != "":
		from = cfg.File
		raw, err = os.ReadFile(cfg.File)
	default:
		if cfg.Offline() {
			from = cfg.ResultsDir
		}
		raw, err = src.Results(ctx, key.Collection, key.OID, key.Module)
	}
	if err != nil {
		return fmt.Errorf("loading %s results: %w", cfg.Module, err)
	}

	store := session.NewStore(nil)
	sess, err := store.Open(key, raw)
	if err != nil {
		return err
	}

	view := sess.View()
	if cfg.Select != "" {
		if sess.Kind() == results.KindControlFlow {
			view = sess.SelectFunction(cfg.Select)
		} else {
			view = sess.SelectNode(cfg.Select)
		}
	}

	// Print colorized report to console
	output.PrintViewReport(os.Stdout, from, view)

	if cfg.Export != "" {
		return export(ctx, cfg.Export, view)
	}
	return nil
}

func export(ctx context.Context, path string, view *session.View) error {
	dot, ok := view.DOT()
	if !ok {
		return fmt.Errorf("export: %s results have no graph to draw", view.Key.Module)
	}
	svg, err := render.RenderSVG(ctx, dot)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := os.WriteFile(path, svg, 0o644); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	logging.Info("exported graph", "path", path)
	return nil
}

func runWeb(ctx context.Context, cfg *config.Config, src source.Source) error {
	server := web.NewServer(src)

	if cfg.Watch {
		dir, ok := src.(*source.Dir)
		if !ok {
			return fmt.Errorf("--watch needs --results-dir")
		}
		if err := watcher.Run(ctx, server.Store(), dir, 300*time.Millisecond, 2*time.Second); err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
	}

	url := fmt.Sprintf("http://localhost:%d", cfg.Port)
	logging.Info("starting binview", "url", url, "source", describe(cfg))

	if cfg.OpenBrowser {
		go func() {
			// Wait a moment for server to start
			time.Sleep(500 * time.Millisecond)
			openBrowser(url)
		}()
	}

	return server.Start(ctx, cfg.Port)
}

func describe(cfg *config.Config) string {
	if cfg.Offline() {
		return "dir:" + cfg.ResultsDir
	}
	return strings.TrimRight(cfg.Backend, "/")
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("cannot open browser", "platform", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
