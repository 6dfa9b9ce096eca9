package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/silverdict-go/silverdict/internal/enginelog"
	"github.com/silverdict-go/silverdict/internal/httpapi"
	"github.com/silverdict-go/silverdict/internal/langops"
	"github.com/silverdict-go/silverdict/internal/queryengine"
	"github.com/silverdict-go/silverdict/internal/settings"
)

func newServeCmd() *cobra.Command {
	var addr string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Ingest the catalog and serve lookups over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), resourcesRoot, addr, watch)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8282", "HTTP listen address")
	cmd.Flags().BoolVar(&watch, "watch", true, "watch the dictionaries source directory for changes")

	return cmd
}

func runServe(ctx context.Context, resourcesRoot, addr string, watch bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, cleanup, err := enginelog.Setup(enginelog.DefaultConfig(resourcesRoot))
	if err != nil {
		return err
	}
	defer cleanup()

	catalog, store, err := openCatalogAndStore(resourcesRoot, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	fts, err := queryengine.OpenFTSIndex(filepath.Join(resourcesRoot, "fts"))
	if err != nil {
		return err
	}
	defer fts.Close()

	spellers := langops.NewSpellerRegistry(nil)

	engine, err := buildEngine(ctx, catalog, store, fts, spellers, resourcesRoot, logger)
	if err != nil {
		return err
	}

	cacheRoot := filepath.Join(resourcesRoot, "cache")
	server := httpapi.New(engine, catalog, cacheRoot, logger)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}

	if watch {
		go watchSources(ctx, catalog, logger)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// watchSources re-scans the catalog's registered dictionary source
// directories for changes, debounced, so dropping a new dictionary file
// in place is picked up without a restart.
func watchSources(ctx context.Context, catalog *settings.Catalog, logger *slog.Logger) {
	seen := map[string]bool{}
	for _, d := range catalog.Dictionaries() {
		dir := filepath.Dir(d.SourcePath)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		dir := dir
		go func() {
			if err := settings.WatchSourceDir(ctx, dir, 2*time.Second, logger, func() {
				if _, err := catalog.Scan(dir); err != nil {
					logger.Warn("rescan failed", "dir", dir, "error", err)
				}
			}); err != nil {
				logger.Warn("watch failed", "dir", dir, "error", err)
			}
		}()
	}
}
