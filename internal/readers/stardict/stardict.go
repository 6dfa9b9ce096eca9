package stardict

import (
	"context"
	"os"
	"strings"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
	"github.com/silverdict-go/silverdict/internal/indexstore"
	"github.com/silverdict-go/silverdict/internal/langops"
	"github.com/silverdict-go/silverdict/internal/readers"
)

// synonymMarkup decorates a MarkupConverter, appending a "Syn: ..." links
// line to the converted article of any headword with synonym sidecar
// entries, mirroring the owning headword's article rather than giving
// each synonym its own queryable entry.
type synonymMarkup struct {
	inner    readers.MarkupConverter
	synonyms map[string][]string
}

func buildSynonymMap(idx []IdxEntry, syn []SynEntry) map[string][]string {
	m := make(map[string][]string)
	for _, s := range syn {
		if int(s.Index) >= len(idx) {
			continue // malformed .syn entry pointing past the idx table
		}
		headword := idx[s.Index].Word
		m[headword] = append(m[headword], s.Word)
	}
	return m
}

func (s *synonymMarkup) Convert(dictionaryID, headword string, raw []byte) (string, error) {
	html, err := s.inner.Convert(dictionaryID, headword, raw)
	if err != nil {
		return "", err
	}
	syns := s.synonyms[headword]
	if len(syns) == 0 {
		return html, nil
	}
	links := make([]string, len(syns))
	for i, syn := range syns {
		links[i] = `<a href="/api/lookup/` + dictionaryID + `/` + syn + `">` + syn + `</a>`
	}
	return html + `<div>Syn: ` + strings.Join(links, ", ") + `</div>`, nil
}

type decoder struct {
	body dictBody
	ifo  Ifo
}

func (d *decoder) Decode(offset, size int64) ([]byte, error) {
	raw, err := d.body.Read(offset, int(size))
	if err != nil {
		return nil, engineerrs.New(engineerrs.ErrCodeDecodeError, "read stardict record", err)
	}
	records, err := ParseRecords(raw, d.ifo.SameTypeSequence)
	if err != nil {
		return nil, err
	}
	return EncodeRecords(records), nil
}

func (d *decoder) Close() error { return d.body.Close() }

// Reader decodes one StarDict dictionary (the .ifo/.idx/.syn/.dict(.dz)
// companion-file family).
type Reader struct {
	readers.Base
	pendingIdx []IdxEntry
}

// filenames derives the four StarDict companion paths from a base path
// with any extension stripped (mirrors the .ifo/.idx[.gz]/.dict.dz/.syn
// naming convention).
func filenames(basePath string) (ifoPath, idxPath, dictPath, synPath string) {
	base := strings.TrimSuffix(basePath, ".ifo")
	ifoPath = base + ".ifo"
	idxPath = base + ".idx"
	if _, err := os.Stat(idxPath); err != nil {
		idxPath += ".gz"
	}
	dictPath = base + ".dict.dz"
	synPath = base + ".syn"
	return
}

// Open opens the StarDict dictionary whose .ifo metadata file is at path.
func Open(path, dictionaryID string, store readers.Store, markup readers.MarkupConverter) (*Reader, error) {
	ifoPath, idxPath, dictPath, synPath := filenames(path)

	ifo, err := ParseIfo(ifoPath)
	if err != nil {
		return nil, err
	}

	idxEntries, err := ParseIdx(idxPath, ifo.IdxOffsetBits)
	if err != nil {
		return nil, err
	}

	synEntries, err := ParseSyn(synPath)
	if err != nil {
		return nil, err
	}

	compressed := true
	if _, err := os.Stat(dictPath); err != nil {
		dictPath = strings.TrimSuffix(dictPath, ".dz")
		compressed = false
	}
	body, err := OpenDictBody(dictPath, compressed)
	if err != nil {
		return nil, err
	}

	dec := &decoder{body: body, ifo: ifo}
	wrappedMarkup := &synonymMarkup{inner: markup, synonyms: buildSynonymMap(idxEntries, synEntries)}
	r := &Reader{
		pendingIdx: idxEntries,
		Base:       readers.NewBase(dictionaryID, readers.FormatStarDict, store, dec, wrappedMarkup),
	}
	return r, nil
}

// Ingest streams this dictionary's headwords into the index store. Synonyms
// are never given their own entry: synonymMarkup appends them as a links
// line on the headword's own article instead.
func (r *Reader) Ingest(ctx context.Context) error {
	if len(r.pendingIdx) == 0 {
		return nil
	}
	exists, err := r.Store().Exists(ctx, langops.Simplify(r.pendingIdx[0].Word), []string{r.DictionaryID()})
	if err != nil {
		return err
	}
	if exists {
		r.pendingIdx = nil
		return nil
	}

	if err := r.Store().DropEntryIndex(); err != nil {
		return err
	}
	for _, e := range r.pendingIdx {
		row := indexstore.EntryRow{
			Key:            langops.Simplify(e.Word),
			DictionaryName: r.DictionaryID(),
			Word:           e.Word,
			Offset:         e.Offset,
			Size:           e.Size,
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
	r.pendingIdx = nil
	return nil
}
