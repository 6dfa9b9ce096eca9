package settings

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// extensionFormats maps a source file extension to the format it implies.
// ".mdx" and the StarDict ".ifo"/DSL ".dsl"(.dz) companions are detected by
// suffix; MDD/IDX/SYN/DICT companions are not top-level catalog entries.
var extensionFormats = map[string]Format{
	".mdx": FormatMDX,
	".ifo": FormatStarDict,
	".dsl": FormatDSL,
}

func formatFromPath(path string) (Format, bool) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".dsl.dz") {
		return FormatDSL, true
	}
	ext := filepath.Ext(lower)
	f, ok := extensionFormats[ext]
	return f, ok
}

// Scan walks dir for recognizable dictionary source files and adds any not
// already in the catalog (keyed by source_path), generating a fresh
// dictionary_id for each. Scan never removes an existing entry — the set
// of dictionaries after Scan is always a superset of the prior set.
func (c *Catalog) Scan(dir string) ([]Dictionary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	known := map[string]bool{}
	existingIDs := map[string]bool{}
	for _, d := range c.dictionaries {
		known[d.SourcePath] = true
		existingIDs[d.ID] = true
	}

	var added []Dictionary
	err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || known[path] {
			return nil
		}
		format, ok := formatFromPath(path)
		if !ok {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		displayName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		id := GenerateDictionaryID(displayName, existingIDs)
		existingIDs[id] = true
		known[path] = true
		d := Dictionary{
			ID:          id,
			DisplayName: displayName,
			Format:      format,
			SourcePath:  path,
			FileMtime:   info.ModTime().Unix(),
		}
		c.dictionaries[id] = d
		added = append(added, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(added) > 0 {
		if err := c.saveDictionaries(); err != nil {
			return nil, err
		}
	}
	return added, nil
}

// StaleDictionaries returns the catalog entries whose source file's mtime
// on disk no longer matches the recorded FileMtime.
func (c *Catalog) StaleDictionaries() []Dictionary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var stale []Dictionary
	for _, d := range c.dictionaries {
		info, err := os.Stat(d.SourcePath)
		if err != nil {
			continue
		}
		if info.ModTime().Unix() != d.FileMtime {
			stale = append(stale, d)
		}
	}
	return stale
}

// TouchMtime updates the recorded mtime for a dictionary after successful
// re-ingestion.
func (c *Catalog) TouchMtime(id string, mtime int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.dictionaries[id]
	if !ok {
		return nil
	}
	d.FileMtime = mtime
	c.dictionaries[id] = d
	return c.saveDictionaries()
}

// WatchSourceDir watches dir for new or modified dictionary source files
// and invokes onChange after each debounced burst of filesystem events,
// until ctx is cancelled. onChange receives no event details: the catalog
// works at whole-directory granularity (rescans rather than per-file
// diffing).
func WatchSourceDir(ctx context.Context, dir string, debounce time.Duration, log *slog.Logger, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return err
	}
	go func() {
		defer w.Close()
		var timer *time.Timer
		fire := make(chan struct{}, 1)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if log != nil {
					log.Debug("source directory event", "path", ev.Name, "op", ev.Op.String())
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				if log != nil {
					log.Warn("source directory watch error", "error", err)
				}
			case <-fire:
				onChange()
			}
		}
	}()
	return nil
}
