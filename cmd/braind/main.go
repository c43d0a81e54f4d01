// Command braind is the knowledge-and-task orchestration server: it
// serves the full /api/v1 surface (internal/httpapi) over an Entry
// Service, Dependency Engine, Feature Engine, and Claim Registry
// backed by a notebook of markdown entries. Flag parsing, base-path
// resolution, and the confirmed-bind-then-health-poll startup
// sequence are adapted from the teacher's cmd/cliaimonitor/main.go.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/brainforge/braind/internal/claims"
	"github.com/brainforge/braind/internal/config"
	"github.com/brainforge/braind/internal/entries"
	"github.com/brainforge/braind/internal/httpapi"
	"github.com/brainforge/braind/internal/logging"
	"github.com/brainforge/braind/internal/notebook"
	"github.com/brainforge/braind/internal/notebook/metastore"
)

func main() {
	configPath := flag.String("config", "", "server config file (YAML); missing file falls back to defaults")
	notebookRoot := flag.String("notebook-root", "", "override notebook_root from config")
	httpAddr := flag.String("addr", "", "override http_addr from config")
	verbose := flag.Bool("verbose", false, "enable debug-level logging")
	flag.Parse()

	basePath, err := getBasePath()
	if err != nil {
		logging.Stderr("braind: failed to determine base path: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		logging.Stderr("braind: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *notebookRoot != "" {
		cfg.NotebookRoot = *notebookRoot
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *verbose {
		cfg.Logging.Verbose = true
	}
	cfg.ResolvePaths(basePath)

	log, err := logging.New(logging.Config{Verbose: cfg.Logging.Verbose, Console: cfg.Logging.Console})
	if err != nil {
		logging.Stderr("braind: failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := os.MkdirAll(cfg.NotebookRoot, 0o755); err != nil {
		log.Error("failed to create notebook root", zap.Error(err))
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		log.Error("failed to create state dir", zap.Error(err))
		os.Exit(1)
	}

	meta, err := metastore.Open(cfg.MetaDBPath)
	if err != nil {
		log.Error("failed to open metadata store", zap.Error(err))
		os.Exit(1)
	}
	defer meta.Close()

	var adapter notebook.Adapter
	if cfg.RichBackend.Binary != "" {
		adapter = notebook.NewRichBackend(cfg.RichBackend.Binary, cfg.NotebookRoot)
		log.Info("using rich notebook backend", zap.String("binary", cfg.RichBackend.Binary))
	} else {
		adapter = notebook.NewDirectFileBackend(cfg.NotebookRoot)
		log.Info("using direct-file notebook backend")
	}

	entrySvc := entries.New(cfg.NotebookRoot, adapter, meta)
	claimRegistry := claims.New()

	router := httpapi.NewRouter(httpapi.Deps{
		Entries: entrySvc,
		Claims:  claimRegistry,
		Meta:    meta,
		Log:     log,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	if !waitForHealth(cfg.HTTPAddr, serverErr) {
		log.Error("server failed to become ready within timeout")
		os.Exit(1)
	}
	log.Info("braind ready", zap.String("addr", cfg.HTTPAddr), zap.String("notebook_root", cfg.NotebookRoot))

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error("server exited unexpectedly", zap.Error(err))
		os.Exit(1)
	case sig := <-shutdown:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("braind stopped")
}

// waitForHealth polls GET /health for up to five seconds (50 * 100ms,
// the teacher's exact retry budget) before declaring startup failed.
func waitForHealth(addr string, serverErr <-chan error) bool {
	url := fmt.Sprintf("http://%s/api/v1/health", normalizeAddr(addr))
	client := &http.Client{Timeout: 500 * time.Millisecond}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)

		select {
		case <-serverErr:
			return false
		default:
		}

		resp, err := client.Get(url)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return true
		}
	}
	return false
}

// normalizeAddr rewrites a bind address like ":8177" into a dialable
// "localhost:8177" for the local health check.
func normalizeAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

// getBasePath resolves the directory config-relative paths are
// anchored to: the running executable's directory, falling back to
// the current working directory, mirroring the teacher's getBasePath.
func getBasePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return os.Getwd()
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		resolved = exe
	}
	return filepath.Dir(resolved), nil
}
