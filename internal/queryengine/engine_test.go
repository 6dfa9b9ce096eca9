package queryengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
	"github.com/silverdict-go/silverdict/internal/indexstore"
	"github.com/silverdict-go/silverdict/internal/readers"
	"github.com/silverdict-go/silverdict/internal/settings"
)

// fakeReader is a minimal in-memory readers.Reader for exercising Engine
// without a real MDX/StarDict/DSL source file.
type fakeReader struct {
	id         string
	byKey      map[string]string
	byWord     map[string]string
	failOnKeys map[string]bool
}

func newFakeReader(id string) *fakeReader {
	return &fakeReader{id: id, byKey: map[string]string{}, byWord: map[string]string{}}
}

func (f *fakeReader) DictionaryID() string            { return f.id }
func (f *fakeReader) Format() readers.Format          { return readers.FormatMDX }
func (f *fakeReader) Ingest(ctx context.Context) error { return nil }
func (f *fakeReader) Close() error                     { return nil }

func (f *fakeReader) ArticleByKey(ctx context.Context, key string) (string, error) {
	if f.failOnKeys[key] {
		return "", engineerrs.ArticleUnavailable(f.id, key, nil)
	}
	body, ok := f.byKey[key]
	if !ok {
		return "", engineerrs.NotFound("entry", key)
	}
	return body, nil
}

func (f *fakeReader) ArticleByWord(ctx context.Context, word string) (string, error) {
	body, ok := f.byWord[word]
	if !ok {
		return "", engineerrs.NotFound("entry", word)
	}
	return body, nil
}

func (f *fakeReader) ArticlesByKeys(ctx context.Context, keys []string) (string, error) {
	var out string
	found := false
	for _, k := range keys {
		body, err := f.ArticleByKey(ctx, k)
		if err != nil {
			continue
		}
		if found {
			out += readers.ArticleSeparator
		}
		out += body
		found = true
	}
	if !found {
		return "", engineerrs.NotFound("entry", keys[0])
	}
	return out, nil
}

func newTestCatalog(t *testing.T) *settings.Catalog {
	t.Helper()
	c, err := settings.Open(t.TempDir())
	require.NoError(t, err)
	return c
}

func newTestStore(t *testing.T) *indexstore.Store {
	t.Helper()
	s, err := indexstore.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.DropEntryIndex())
	return s
}

func insertRows(t *testing.T, s *indexstore.Store, rows []indexstore.EntryRow) {
	t.Helper()
	require.NoError(t, s.BulkInsert(rows))
	require.NoError(t, s.Commit())
	require.NoError(t, s.CreateEntryIndex())
}

// scenario 1: query(G, "apple") finds an exact headword with no speller
// configured for the group's language.
func TestQueryExactMatchNoSpeller(t *testing.T) {
	store := newTestStore(t)
	insertRows(t, store, []indexstore.EntryRow{
		{Key: "apple", DictionaryName: "dict-a", Word: "apple", Offset: 0, Size: 1},
	})

	catalog := newTestCatalog(t)
	require.NoError(t, catalog.AddDictionary(settings.Dictionary{ID: "dict-a", DisplayName: "A"}))
	require.NoError(t, catalog.UpsertGroup(settings.Group{Name: "en", Langs: []string{"en"}}))
	require.NoError(t, catalog.Junction("dict-a", "en"))

	reader := newFakeReader("dict-a")
	reader.byKey["apple"] = `<h3 class="headword">apple</h3>fruit`

	engine := New(catalog, store)
	engine.RegisterReader(reader)

	results, err := engine.Query(context.Background(), "en", "apple")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Contains(t, results[0].Body, `<h3 class="headword">apple</h3>`)
}

// scenario: query against an unknown group returns a not-found error.
func TestQueryUnknownGroup(t *testing.T) {
	store := newTestStore(t)
	catalog := newTestCatalog(t)
	engine := New(catalog, store)

	_, err := engine.Query(context.Background(), "missing", "apple")
	require.Error(t, err)
	require.True(t, engineerrs.Is(err, engineerrs.ErrCodeGroupNotFound))
}

// a dictionary whose decode fails is dropped from the merged result rather
// than aborting the whole group query.
func TestQueryDropsFailingDictionary(t *testing.T) {
	store := newTestStore(t)
	insertRows(t, store, []indexstore.EntryRow{
		{Key: "apple", DictionaryName: "dict-a", Word: "apple", Offset: 0, Size: 1},
		{Key: "apple", DictionaryName: "dict-b", Word: "apple", Offset: 0, Size: 1},
	})

	catalog := newTestCatalog(t)
	require.NoError(t, catalog.AddDictionary(settings.Dictionary{ID: "dict-a", DisplayName: "A"}))
	require.NoError(t, catalog.AddDictionary(settings.Dictionary{ID: "dict-b", DisplayName: "B"}))
	require.NoError(t, catalog.UpsertGroup(settings.Group{Name: "en", Langs: []string{"en"}}))
	require.NoError(t, catalog.Junction("dict-a", "en"))
	require.NoError(t, catalog.Junction("dict-b", "en"))

	okReader := newFakeReader("dict-a")
	okReader.byKey["apple"] = "ok body"
	badReader := newFakeReader("dict-b")
	badReader.failOnKeys = map[string]bool{"apple": true}

	engine := New(catalog, store)
	engine.RegisterReader(okReader)
	engine.RegisterReader(badReader)

	results, err := engine.Query(context.Background(), "en", "apple")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "dict-a", results[0].DictionaryID)
}

// scenario: suggestions always returns exactly SuggestionCap() entries,
// padding unused slots with "".
func TestSuggestionsPadsToCap(t *testing.T) {
	store := newTestStore(t)
	insertRows(t, store, []indexstore.EntryRow{
		{Key: "apple", DictionaryName: "dict-a", Word: "apple", Offset: 0, Size: 1},
		{Key: "applesauce", DictionaryName: "dict-a", Word: "applesauce", Offset: 1, Size: 1},
	})

	catalog := newTestCatalog(t)
	require.NoError(t, catalog.AddDictionary(settings.Dictionary{ID: "dict-a", DisplayName: "A"}))
	require.NoError(t, catalog.UpsertGroup(settings.Group{Name: "en", Langs: []string{"en"}}))
	require.NoError(t, catalog.Junction("dict-a", "en"))
	require.NoError(t, catalog.SetSuggestionCap(5))

	engine := New(catalog, store)

	suggestions, err := engine.Suggestions(context.Background(), "en", "app")
	require.NoError(t, err)
	require.Len(t, suggestions, 5)
	require.Contains(t, suggestions, "apple")
	require.Contains(t, suggestions, "applesauce")
}

// scenario: a wildcard query short-circuits straight to Like, bypassing
// prefix/n-gram expansion.
func TestSuggestionsWildcardUsesLike(t *testing.T) {
	store := newTestStore(t)
	insertRows(t, store, []indexstore.EntryRow{
		{Key: "apple", DictionaryName: "dict-a", Word: "apple", Offset: 0, Size: 1},
		{Key: "grape", DictionaryName: "dict-a", Word: "grape", Offset: 1, Size: 1},
	})

	catalog := newTestCatalog(t)
	require.NoError(t, catalog.AddDictionary(settings.Dictionary{ID: "dict-a", DisplayName: "A"}))
	require.NoError(t, catalog.UpsertGroup(settings.Group{Name: "en", Langs: []string{"en"}}))
	require.NoError(t, catalog.Junction("dict-a", "en"))
	require.NoError(t, catalog.SetSuggestionCap(5))

	engine := New(catalog, store)

	suggestions, err := engine.Suggestions(context.Background(), "en", "^le")
	require.NoError(t, err)
	require.Contains(t, suggestions, "apple")
	require.NotContains(t, suggestions, "grape")
}

// FTS reports Group Not Found when no FTS index is configured.
func TestFTSWithoutIndexReportsNotFound(t *testing.T) {
	store := newTestStore(t)
	catalog := newTestCatalog(t)
	require.NoError(t, catalog.UpsertGroup(settings.Group{Name: "en", Langs: []string{"en"}}))

	engine := New(catalog, store)
	_, err := engine.FTS(context.Background(), "en", "appl", 10)
	require.Error(t, err)
	require.True(t, engineerrs.Is(err, engineerrs.ErrCodeGroupNotFound))
}

func TestDedupAutoplayKeepsFirstOccurrenceOnly(t *testing.T) {
	results := []ArticleResult{
		{DictionaryID: "a", Body: `<audio controls autoplay src="/api/cache/a/hello.wav">hello.wav</audio> word`},
		{DictionaryID: "b", Body: `<audio controls autoplay src="/api/cache/b/hello.wav">hello.wav</audio> word`},
	}
	dedupAutoplay(results)
	require.Contains(t, results[0].Body, "autoplay")
	require.NotContains(t, results[1].Body, "autoplay")
	require.Contains(t, results[1].Body, `<audio controls src="/api/cache/b/hello.wav">hello.wav</audio>`)
}

func TestLegacyLookupURLRewrite(t *testing.T) {
	results := []ArticleResult{
		{DictionaryID: "dict-a", Body: `<a href="/api/lookup/dict-a/apple">apple</a>`},
	}
	catalog := newTestCatalog(t)
	engine := New(catalog, nil)
	engine.postProcess(results)
	require.Contains(t, results[0].Body, "/api/query/dict-a/apple")
}
