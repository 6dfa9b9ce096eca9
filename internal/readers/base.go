package readers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
	"github.com/silverdict-go/silverdict/internal/indexstore"
)

// Base implements the shared ArticleByKey/ArticleByWord/ArticlesByKeys
// logic common to every format, so MDX, StarDict, and DSL readers only
// need to supply a Decoder and register their own ingestion. Each
// format's Reader embeds Base and adds its own Ingest method.
type Base struct {
	dictionaryID string
	format       Format
	store        Store
	decoder      Decoder
	markup       MarkupConverter
}

// NewBase constructs the shared lookup/decode/markup plumbing for one
// format-specific Reader.
func NewBase(dictionaryID string, format Format, store Store, decoder Decoder, markup MarkupConverter) Base {
	return Base{dictionaryID: dictionaryID, format: format, store: store, decoder: decoder, markup: markup}
}

func (b *Base) DictionaryID() string { return b.dictionaryID }
func (b *Base) Format() Format       { return b.format }

// Store exposes the underlying index store so a format Reader can run its
// own Ingest logic without re-deriving the lookup plumbing.
func (b *Base) Store() Store { return b.store }

func (b *Base) articleForEntries(ctx context.Context, entries []indexstore.Entry, err error, key string) (string, error) {
	if err != nil {
		return "", engineerrs.New(engineerrs.ErrCodeIndexStore, "lookup entries for "+key, err)
	}
	if len(entries) == 0 {
		return "", engineerrs.NotFound("entry", key)
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		raw, err := b.decoder.Decode(e.Offset, e.Size)
		if err != nil {
			return "", engineerrs.ArticleUnavailable(b.dictionaryID, key, err)
		}
		html, err := b.markup.Convert(b.dictionaryID, e.Word, raw)
		if err != nil {
			return "", engineerrs.ArticleUnavailable(b.dictionaryID, key, err)
		}
		parts = append(parts, html)
	}
	return strings.Join(parts, ArticleSeparator), nil
}

// ArticleByKey looks up simplifiedKey via the (key, dictionary_name, word)
// composite index.
func (b *Base) ArticleByKey(ctx context.Context, simplifiedKey string) (string, error) {
	entries, err := b.store.GetEntries(ctx, simplifiedKey, b.dictionaryID)
	return b.articleForEntries(ctx, entries, err, simplifiedKey)
}

// ArticleByWord looks up word via the original headword column, for
// callers such as the anki/FTS consumers that resolve by display text
// rather than simplified key.
func (b *Base) ArticleByWord(ctx context.Context, word string) (string, error) {
	entries, err := b.store.GetEntriesByWord(ctx, word, b.dictionaryID)
	return b.articleForEntries(ctx, entries, err, word)
}

// ArticlesByKeys concatenates ArticleByKey results for each key, sorted
// into key order.
func (b *Base) ArticlesByKeys(ctx context.Context, keys []string) (string, error) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	parts := make([]string, 0, len(sorted))
	for _, k := range sorted {
		article, err := b.ArticleByKey(ctx, k)
		if err != nil {
			if engineerrs.Is(err, engineerrs.ErrCodeEntryNotFound) {
				continue
			}
			return "", err
		}
		parts = append(parts, article)
	}
	if len(parts) == 0 {
		return "", engineerrs.NotFound("entry", fmt.Sprintf("%v", keys))
	}
	return strings.Join(parts, ArticleSeparator), nil
}

func (b *Base) Close() error { return b.decoder.Close() }
