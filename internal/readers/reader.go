// Package readers implements the format-specific dictionary decoders:
// MDX, StarDict, and DSL. Each Reader owns the open handle(s) to its
// source file, ingests its key set into an IndexStore on first load, and
// decodes (offset, size) ranges into marked-up article text.
package readers

import (
	"context"

	"github.com/silverdict-go/silverdict/internal/indexstore"
)

// ArticleSeparator joins multiple matched articles in one response
// (base_reader.py's "_ARTICLE_SEPARATOR").
const ArticleSeparator = "\n<hr />\n"

// Format identifies which closed-variant decoder a Reader implements.
type Format string

const (
	FormatMDX      Format = "MDX"
	FormatStarDict Format = "StarDict"
	FormatDSL      Format = "DSL"
)

// Reader is the common contract every format-specific decoder satisfies.
// All operations key on the caller's dictionary_id, which scopes their
// IndexStore queries.
type Reader interface {
	// DictionaryID returns this reader's catalog identifier.
	DictionaryID() string

	// Format reports which on-disk layout this reader decodes.
	Format() Format

	// Ingest populates IndexStore with this dictionary's key set if it is
	// not already present. Safe to call repeatedly; a no-op after the
	// first successful call.
	Ingest(ctx context.Context) error

	// ArticleByKey looks up every entry for simplifiedKey, decodes each,
	// runs the result through the markup pipeline, and joins with
	// ArticleSeparator.
	ArticleByKey(ctx context.Context, simplifiedKey string) (string, error)

	// ArticleByWord is the same lookup keyed on the stored original
	// headword rather than its simplified form.
	ArticleByWord(ctx context.Context, word string) (string, error)

	// ArticlesByKeys concatenates ArticleByKey results in key order.
	ArticlesByKeys(ctx context.Context, keys []string) (string, error)

	// Close releases the reader's open file handle(s).
	Close() error
}

// Decoder is implemented by each format's low-level payload decoder: given
// a byte range into the source file's uncompressed stream, it returns the
// raw (pre-markup) article text.
type Decoder interface {
	Decode(offset, size int64) ([]byte, error)
	Close() error
}

// Store is the subset of indexstore.Store a Reader needs for ingestion and
// lookup, narrowed so readers can be tested against a fake.
type Store interface {
	BulkInsert(rows []indexstore.EntryRow) error
	Commit() error
	DropEntryIndex() error
	CreateEntryIndex() error
	GetEntries(ctx context.Context, key, dictionaryName string) ([]indexstore.Entry, error)
	GetEntriesByWord(ctx context.Context, word, dictionaryName string) ([]indexstore.Entry, error)
	Exists(ctx context.Context, key string, dictionaries []string) (bool, error)
}

// MarkupConverter renders a single raw article body (already located by
// offset/size) into the common HTML dialect for one dictionary. headword
// is the entry's stored original word, which StarDict and DSL converters
// prepend as a "<h3 class=\"headword\">" heading. Readers depend on this
// narrow interface rather than the concrete markup package to avoid an
// import cycle between readers and markup.
type MarkupConverter interface {
	Convert(dictionaryID, headword string, raw []byte) (string, error)
}
