package mdx

import (
	"context"
	"encoding/gob"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
	"github.com/silverdict-go/silverdict/internal/indexstore"
	"github.com/silverdict-go/silverdict/internal/langops"
	"github.com/silverdict-go/silverdict/internal/readers"
)

// snapshotFileName is the per-dictionary header cache file.
const snapshotFileName = "mdx.gob"

type snapshot struct {
	Header Header
	Index  RecordIndex
}

type decoder struct {
	file *os.File
	idx  RecordIndex
}

func (d *decoder) Decode(offset, size int64) ([]byte, error) {
	return d.idx.Decode(d.file, offset, size)
}

func (d *decoder) Close() error { return d.file.Close() }

// Reader decodes one MDX dictionary.
type Reader struct {
	readers.Base
	path        string
	cacheDir    string
	pendingKeys []KeyEntry
}

// Open opens the MDX file at path, restoring a cached header snapshot
// from cacheDir when present, and extracting any companion .mdd resources
// into cacheDir on first load.
func Open(path, dictionaryID, cacheDir string, store readers.Store, markup readers.MarkupConverter) (*Reader, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "create mdx cache dir", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "open mdx file", err)
	}

	snap, haveSnapshot, err := loadSnapshot(cacheDir)
	if err != nil {
		f.Close()
		return nil, err
	}

	var idx RecordIndex
	var keyEntries []KeyEntry
	if haveSnapshot {
		idx = snap.Index
	} else {
		h, err := parseHeader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		if h.Encrypted != 0 {
			f.Close()
			return nil, engineerrs.New(engineerrs.ErrCodeUnsupportedVersion, "mdx: encrypted containers are not supported", nil)
		}
		var keyBlockEnd int64
		keyEntries, keyBlockEnd, err = parseKeyBlocks(f, h)
		if err != nil {
			f.Close()
			return nil, err
		}
		idx, err = buildRecordIndex(f, h, keyBlockEnd)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := extractMDDCompanions(path, cacheDir); err != nil {
			f.Close()
			return nil, err
		}
		if err := saveSnapshot(cacheDir, snapshot{Header: h, Index: idx}); err != nil {
			f.Close()
			return nil, err
		}
	}

	dec := &decoder{file: f, idx: idx}
	r := &Reader{
		path:        path,
		cacheDir:    cacheDir,
		pendingKeys: keyEntries,
		Base:        readers.NewBase(dictionaryID, readers.FormatMDX, store, dec, markup),
	}
	return r, nil
}

func loadSnapshot(cacheDir string) (snapshot, bool, error) {
	p := filepath.Join(cacheDir, snapshotFileName)
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return snapshot{}, false, nil
		}
		return snapshot{}, false, engineerrs.New(engineerrs.ErrCodeIndexStore, "open mdx snapshot", err)
	}
	defer f.Close()
	var s snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return snapshot{}, false, nil // treat a corrupt snapshot as absent; re-parse from source
	}
	return s, true, nil
}

func saveSnapshot(cacheDir string, s snapshot) error {
	p := filepath.Join(cacheDir, snapshotFileName)
	f, err := os.Create(p)
	if err != nil {
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "create mdx snapshot", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(s); err != nil {
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "write mdx snapshot", err)
	}
	return nil
}

// extractMDDCompanions extracts name.mdd, name.1.mdd, name.2.mdd, ... into
// cacheDir; an absent MDD is not an error.
func extractMDDCompanions(mdxPath, cacheDir string) error {
	base := strings.TrimSuffix(mdxPath, filepath.Ext(mdxPath))
	candidates := []string{base + ".mdd", base + ".MDD"}
	for i := 1; ; i++ {
		next := []string{
			base + "." + strconv.Itoa(i) + ".mdd",
			base + "." + strconv.Itoa(i) + ".MDD",
		}
		found := false
		for _, c := range next {
			if _, err := os.Stat(c); err == nil {
				candidates = append(candidates, c)
				found = true
				break
			}
		}
		if !found {
			break
		}
	}

	for _, mddPath := range candidates {
		if _, err := os.Stat(mddPath); err != nil {
			continue
		}
		resources, err := ReadMDD(mddPath)
		if err != nil {
			return err
		}
		for _, res := range resources {
			dest := filepath.Join(cacheDir, filepath.FromSlash(res.Path))
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return engineerrs.New(engineerrs.ErrCodeIndexStore, "create mdd resource dir", err)
			}
			if err := os.WriteFile(dest, res.Data, 0o644); err != nil {
				return engineerrs.New(engineerrs.ErrCodeIndexStore, "write mdd resource", err)
			}
		}
	}
	return nil
}

// Ingest streams this dictionary's key set into the index store if it is
// not already present.
func (r *Reader) Ingest(ctx context.Context) error {
	if len(r.pendingKeys) == 0 {
		return nil // either already ingested, or restored from a snapshot that dropped the key list
	}
	exists, err := r.Store().Exists(ctx, langops.Simplify(r.pendingKeys[0].Text), []string{r.DictionaryID()})
	if err != nil {
		return err
	}
	if exists {
		r.pendingKeys = nil
		return nil
	}

	if err := r.Store().DropEntryIndex(); err != nil {
		return err
	}
	for i, e := range r.pendingKeys {
		size := int64(-1)
		if i+1 < len(r.pendingKeys) {
			size = int64(r.pendingKeys[i+1].Offset) - int64(e.Offset)
		}
		row := indexstore.EntryRow{
			Key:            langops.Simplify(e.Text),
			DictionaryName: r.DictionaryID(),
			Word:           e.Text,
			Offset:         int64(e.Offset),
			Size:           size,
		}
		if err := r.Store().BulkInsert([]indexstore.EntryRow{row}); err != nil {
			return err
		}
	}
	if err := r.Store().Commit(); err != nil {
		return err
	}
	if err := r.Store().CreateEntryIndex(); err != nil {
		return err
	}
	r.pendingKeys = nil // drop the in-memory key list after ingestion
	return nil
}
