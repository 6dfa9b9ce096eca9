package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/silverdict-go/silverdict/internal/indexstore"
	"github.com/silverdict-go/silverdict/internal/langops"
	"github.com/silverdict-go/silverdict/internal/markup/dsl"
	"github.com/silverdict-go/silverdict/internal/markup/mdxhtml"
	"github.com/silverdict-go/silverdict/internal/markup/stardict"
	"github.com/silverdict-go/silverdict/internal/queryengine"
	"github.com/silverdict-go/silverdict/internal/readers"
	readersdsl "github.com/silverdict-go/silverdict/internal/readers/dsl"
	readersmdx "github.com/silverdict-go/silverdict/internal/readers/mdx"
	readersstardict "github.com/silverdict-go/silverdict/internal/readers/stardict"
	"github.com/silverdict-go/silverdict/internal/settings"
)

// cacheDirFor returns the per-dictionary resource cache directory under
// resourcesRoot/cache, created on demand by each format's reader/markup
// converter as it extracts companion media.
func cacheDirFor(resourcesRoot, dictionaryID string) string {
	return filepath.Join(resourcesRoot, "cache", dictionaryID)
}

// openReader opens the format-specific reader for d, wiring it to the
// shared store and the right markup converter.
func openReader(d settings.Dictionary, resourcesRoot string, store readers.Store) (readers.Reader, error) {
	cacheDir := cacheDirFor(resourcesRoot, d.ID)

	switch d.Format {
	case settings.FormatMDX:
		markup := mdxhtml.NewCleaner(d.ID, filepath.Dir(d.SourcePath), cacheDir, "")
		return readersmdx.Open(d.SourcePath, d.ID, cacheDir, store, markup)
	case settings.FormatStarDict:
		markup := stardict.NewCleaner(d.ID)
		return readersstardict.Open(d.SourcePath, d.ID, store, markup)
	case settings.FormatDSL:
		resourcesZip := ""
		if zipPath := d.SourcePath + ".files.zip"; fileExists(zipPath) {
			resourcesZip = zipPath
		} else if filesDir := d.SourcePath + ".files"; fileExists(filesDir) && !fileExists(cacheDir) {
			if err := os.MkdirAll(filepath.Dir(cacheDir), 0o755); err != nil {
				return nil, fmt.Errorf("create cache directory for %s: %w", d.ID, err)
			}
			if err := os.Symlink(filesDir, cacheDir); err != nil {
				return nil, fmt.Errorf("link %s into cache: %w", filesDir, err)
			}
		}
		markup := dsl.NewConverter(d.ID, cacheDir, resourcesZip)
		return readersdsl.Open(d.SourcePath, d.ID, store, markup)
	default:
		return nil, fmt.Errorf("unsupported dictionary format %q for %s", d.Format, d.ID)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// buildEngine opens every catalog dictionary's reader, ingests it into
// store, seeds fts with its headwords, and returns a ready-to-serve
// queryengine.Engine. A dictionary whose source file fails to open is
// logged and skipped rather than aborting startup, so one broken source
// doesn't take the whole catalog down.
func buildEngine(ctx context.Context, catalog *settings.Catalog, store *indexstore.Store, fts *queryengine.FTSIndex, spellers *langops.SpellerRegistry, resourcesRoot string, log *slog.Logger) (*queryengine.Engine, error) {
	opts := []queryengine.Option{}
	if fts != nil {
		opts = append(opts, queryengine.WithFTS(fts))
	}
	if spellers != nil {
		opts = append(opts, queryengine.WithSpellers(spellers))
	}
	engine := queryengine.New(catalog, store, opts...)

	for _, d := range catalog.Dictionaries() {
		reader, err := openReader(d, resourcesRoot, store)
		if err != nil {
			log.Warn("skipping dictionary: open failed", "dictionary_id", d.ID, "error", err)
			continue
		}
		if err := reader.Ingest(ctx); err != nil {
			log.Warn("skipping dictionary: ingest failed", "dictionary_id", d.ID, "error", err)
			_ = reader.Close()
			continue
		}
		engine.RegisterReader(reader)

		if fts != nil {
			words, err := store.Words(ctx, d.ID)
			if err != nil {
				log.Warn("fts seed failed", "dictionary_id", d.ID, "error", err)
			} else if err := fts.IndexBatch(d.ID, words); err != nil {
				log.Warn("fts index batch failed", "dictionary_id", d.ID, "error", err)
			}
		}
	}

	return engine, nil
}

func openCatalogAndStore(resourcesRoot string, log *slog.Logger) (*settings.Catalog, *indexstore.Store, error) {
	catalog, err := settings.Open(filepath.Join(resourcesRoot, "settings"))
	if err != nil {
		return nil, nil, fmt.Errorf("open settings: %w", err)
	}
	store, err := indexstore.Open(filepath.Join(resourcesRoot, "dictionaries.db"), log)
	if err != nil {
		return nil, nil, fmt.Errorf("open index store: %w", err)
	}
	return catalog, store, nil
}
