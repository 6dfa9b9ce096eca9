package dsl

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/silverdict-go/silverdict/internal/blockcodec"
	"github.com/silverdict-go/silverdict/internal/engineerrs"
	"github.com/silverdict-go/silverdict/internal/indexstore"
	"github.com/silverdict-go/silverdict/internal/langops"
	"github.com/silverdict-go/silverdict/internal/readers"
)

const backupSuffix = ".old"

type decoder struct {
	body *blockcodec.Reader
}

func (d *decoder) Decode(offset, size int64) ([]byte, error) {
	return d.body.Read(offset, int(size))
}

func (d *decoder) Close() error { return d.body.Close() }

// Reader decodes one DSL dictionary, normalizing its source to UTF-8 and
// dictzip-compressing it in place on first load.
type Reader struct {
	readers.Base
	pendingEntries []Entry
	DisplayName    string // set if a "#NAME" header overrides the catalog-derived name
}

// Open opens the DSL dictionary at path (.dsl or .dsl.dz). The first time a
// given source is seen, its original bytes are preserved at path+".old" and
// the source is rewritten in place as normalized, dictzip-compressed UTF-8.
// Later opens detect the ".old" backup and read the already-normalized
// source directly, without re-parsing headwords.
func Open(path, dictionaryID string, store readers.Store, markup readers.MarkupConverter) (*Reader, error) {
	normalizedPath, entries, err := normalizeInPlace(path)
	if err != nil {
		return nil, err
	}

	body, err := blockcodec.Open(normalizedPath)
	if err != nil {
		return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "open normalized dsl body", err)
	}

	dec := &decoder{body: body}
	r := &Reader{
		pendingEntries: entries,
		Base:           readers.NewBase(dictionaryID, readers.FormatDSL, store, dec, markup),
	}
	if n := body.Len(); n > 0 {
		if n > 4096 {
			n = 4096
		}
		if head, err := body.Read(0, int(n)); err == nil {
			if name, ok := ExtractDisplayName(string(head)); ok {
				r.DisplayName = name
			}
		}
	}
	return r, nil
}

// normalizeInPlace backs up path's original bytes to path+".old" and
// rewrites the dictionary as normalized, dictzip-compressed UTF-8 at its
// canonical "<base>.dz" location, returning the parsed entries. If the
// backup already exists, normalization already happened on a prior run:
// the canonical path is returned with no entries, since the index store
// already holds them.
func normalizeInPlace(path string) (normalizedPath string, entries []Entry, err error) {
	base := strings.TrimSuffix(path, ".dz")
	normalizedPath = base + ".dz"
	backupPath := path + backupSuffix

	if _, err := os.Stat(backupPath); err == nil {
		return normalizedPath, nil, nil
	}

	raw, err := readSource(path)
	if err != nil {
		return "", nil, err
	}
	text, err := Normalize(raw)
	if err != nil {
		return "", nil, err
	}
	entries = ParseEntries(text)

	if err := os.Rename(path, backupPath); err != nil {
		return "", nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "back up dsl source", err)
	}
	if err := compressNormalized(text, normalizedPath); err != nil {
		return "", nil, err
	}
	return normalizedPath, entries, nil
}

// readSource loads a .dsl file's raw bytes, transparently handling the
// dictzip-compressed .dsl.dz case.
func readSource(path string) ([]byte, error) {
	if strings.HasSuffix(path, ".dz") {
		r, err := blockcodec.Open(path)
		if err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "open compressed dsl source", err)
		}
		defer r.Close()
		return r.Read(0, int(r.Len()))
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "open dsl source", err)
	}
	return raw, nil
}

func compressNormalized(text, destPath string) error {
	tmp := destPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "create normalized dsl cache file", err)
	}
	if err := blockcodec.Compress(bytes.NewReader([]byte(text)), f, blockcodec.CompressOptions{}); err != nil {
		f.Close()
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "compress normalized dsl source", err)
	}
	if err := f.Close(); err != nil {
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "close normalized dsl cache file", err)
	}
	if err := os.Rename(tmp, destPath); err != nil {
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "finalize normalized dsl cache file", err)
	}
	return nil
}

// Ingest streams this dictionary's parsed headword groups into the index
// store if it is not already present.
func (r *Reader) Ingest(ctx context.Context) error {
	if len(r.pendingEntries) == 0 {
		return nil
	}
	exists, err := r.Store().Exists(ctx, langops.Simplify(r.pendingEntries[0].Headwords[0]), []string{r.DictionaryID()})
	if err != nil {
		return err
	}
	if exists {
		r.pendingEntries = nil
		return nil
	}

	if err := r.Store().DropEntryIndex(); err != nil {
		return err
	}
	for _, e := range r.pendingEntries {
		for _, headword := range e.Headwords {
			row := indexstore.EntryRow{
				Key:            langops.Simplify(headword),
				DictionaryName: r.DictionaryID(),
				Word:           headword,
				Offset:         e.Offset,
				Size:           e.Size,
			}
			if err := r.Store().BulkInsert([]indexstore.EntryRow{row}); err != nil {
				return err
			}
		}
	}
	if err := r.Store().Commit(); err != nil {
		return err
	}
	if err := r.Store().CreateEntryIndex(); err != nil {
		return err
	}
	r.pendingEntries = nil
	return nil
}
