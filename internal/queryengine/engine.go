// Package queryengine implements QueryEngine: suggestions, the multi-
// dictionary article lookup, and full-text search, wired on top of
// settings.Catalog, indexstore, readers, and langops, the same way
// internal/search/engine.go wires store/embed/telemetry into one Engine
// that fans a single request out across backends and merges the results.
package queryengine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
	"github.com/silverdict-go/silverdict/internal/langops"
	"github.com/silverdict-go/silverdict/internal/readers"
	"github.com/silverdict-go/silverdict/internal/settings"
)

// IndexStore is the subset of indexstore.Store QueryEngine needs, narrowed
// so the engine can be tested against a fake rather than a real database.
type IndexStore interface {
	Exists(ctx context.Context, key string, dicts []string) (bool, error)
	Prefix(ctx context.Context, keys []string, dicts []string, exclude map[string]bool, limit int) ([]string, error)
	Like(ctx context.Context, pattern string, dicts []string, limit int) ([]string, error)
	KeysLookup(ctx context.Context, keys []string, dicts []string, exclude map[string]bool, limit int) ([]string, error)
	ExpandKey(ctx context.Context, input string, fromKeysNotWords bool) ([]string, error)
}

// Catalog is the subset of settings.Catalog QueryEngine needs.
type Catalog interface {
	Group(name string) (settings.Group, bool)
	GroupMembers(name string) []string
	Dictionary(id string) (settings.Dictionary, bool)
	SuggestionCap() int
	SuggestionMode() string
	Patches(dictionaryID string) []settings.HTMLPatch
	AppendHistory(k string) error
}

// ArticleResult is one dictionary's contribution to a Query response.
type ArticleResult struct {
	DictionaryID string
	DisplayName  string
	Body         string
}

// Engine implements Suggestions, Query, and FTS over a catalog of
// registered readers, an IndexStore, and an optional FTSIndex/speller
// registry.
type Engine struct {
	catalog  Catalog
	store    IndexStore
	spellers *langops.SpellerRegistry
	fts      *FTSIndex

	readers map[string]readers.Reader
}

// Option configures optional collaborators at construction time.
type Option func(*Engine)

// WithSpellers installs the stemmer/speller registry used for orthographic
// forms and spelling-suggestion fallback. A nil registry (the default)
// degrades those steps to empty results.
func WithSpellers(r *langops.SpellerRegistry) Option {
	return func(e *Engine) { e.spellers = r }
}

// WithFTS installs the full-text headword index used by FTS. Without it,
// FTS reports the group as not found.
func WithFTS(f *FTSIndex) Option {
	return func(e *Engine) { e.fts = f }
}

// New builds an Engine over catalog and store.
func New(catalog Catalog, store IndexStore, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		store:   store,
		readers: map[string]readers.Reader{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterReader makes r available for article lookups under its own
// DictionaryID.
func (e *Engine) RegisterReader(r readers.Reader) {
	e.readers[r.DictionaryID()] = r
}

// expandKeys builds the suggestions-path key set: simplify(k) itself, plus
// every transliteration of it that one of langs' scripts recognizes.
func expandKeys(keySimplified string, langs []string) []string {
	seen := map[string]bool{keySimplified: true}
	out := []string{keySimplified}
	for _, v := range langops.Transliterate(keySimplified, langs) {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func toExcludeSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// Suggestions implements suggestions(G,k): up to SuggestionCap() candidate
// headwords for key within group groupName, always returning exactly that
// many entries (padding with "" when candidates run out).
func (e *Engine) Suggestions(ctx context.Context, groupName, key string) ([]string, error) {
	group, ok := e.catalog.Group(groupName)
	if !ok {
		return nil, engineerrs.NotFound("group", groupName)
	}
	dicts := e.catalog.GroupMembers(groupName)
	n := e.catalog.SuggestionCap()
	if n <= 0 {
		return nil, nil
	}

	var candidates []string

	// Step 1: a wildcard query short-circuits straight to Like, skipping
	// every other step.
	keySimplified := langops.Simplify(key)
	if indexStoreHasWildcard(keySimplified) {
		words, err := e.store.Like(ctx, keySimplified, dicts, n)
		if err != nil {
			return nil, err
		}
		candidates = words
	} else {
		keys := expandKeys(keySimplified, group.Langs)

		// Step 3: orthographic forms (accent-restored candidates) whose
		// simplified form already exists in the index, checked first so a
		// speller-backed language surfaces its preferred spelling ahead of
		// a raw substring match.
		for _, k := range keys {
			for _, form := range e.spellers.OrthographicForms(k, group.Langs) {
				if len(candidates) >= n {
					break
				}
				exists, err := e.store.Exists(ctx, langops.Simplify(form), dicts)
				if err != nil {
					return nil, err
				}
				if exists {
					candidates = append(candidates, form)
				}
			}
		}

		// Step 4: prefix search across every expanded key.
		if len(candidates) < n {
			more, err := e.store.Prefix(ctx, keys, dicts, toExcludeSet(candidates), n-len(candidates))
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, more...)
		}

		// Step 5: both-sides mode additionally n-gram-expands every key and
		// looks up the expansion's exact keys, catching substring matches
		// prefix search alone would miss.
		if len(candidates) < n && e.catalog.SuggestionMode() == settings.SuggestionModeBothSides {
			var expanded []string
			for _, k := range keys {
				ek, err := e.store.ExpandKey(ctx, k, true)
				if err != nil {
					return nil, err
				}
				expanded = append(expanded, ek...)
			}
			more, err := e.store.KeysLookup(ctx, expanded, dicts, toExcludeSet(candidates), n-len(candidates))
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, more...)
		}

		// Step 6: nothing matched directly; fall back to the speller's
		// spelling suggestions, filtered to keys that actually exist.
		if len(candidates) == 0 {
			var confirmed []string
			for _, s := range e.spellers.SpellingSuggestions(key, group.Langs) {
				sk := langops.Simplify(s)
				exists, err := e.store.Exists(ctx, sk, dicts)
				if err != nil {
					return nil, err
				}
				if exists {
					confirmed = append(confirmed, sk)
				}
			}
			words, err := e.store.KeysLookup(ctx, confirmed, dicts, nil, n)
			if err != nil {
				return nil, err
			}
			candidates = words
		}
	}

	// Step 7: always return exactly N entries.
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	for len(candidates) < n {
		candidates = append(candidates, "")
	}
	return candidates, nil
}

func indexStoreHasWildcard(s string) bool {
	return strings.ContainsAny(s, "^+")
}

// buildQueryKeys constructs the article-path key set. The literal group
// grammar for this step omits simplify(k) itself (unlike the suggestions
// path, which includes it explicitly) and relies entirely on stem/
// transliterate to populate keys. With no speller configured for lang(G)
// and a query that doesn't match any of the el/ar/zh transliteration
// gates, that leaves keys empty and a plain lookup of an exact headword
// would never resolve. simplify(k) is included here unconditionally to
// keep that exact-match path working regardless of speller availability.
func buildQueryKeys(key string, langs []string) []string {
	keySimplified := langops.Simplify(key)
	seen := map[string]bool{keySimplified: true}
	keys := []string{keySimplified}
	for _, v := range langops.Transliterate(keySimplified, langs) {
		if seen[v] {
			continue
		}
		seen[v] = true
		keys = append(keys, v)
	}
	return keys
}

// Query implements query(G,k): the merged article body from every
// dictionary in groupName whose index contains an entry for k (or one of
// its stemmed/transliterated forms), fetched concurrently per dictionary.
func (e *Engine) Query(ctx context.Context, groupName, key string) ([]ArticleResult, error) {
	group, ok := e.catalog.Group(groupName)
	if !ok {
		return nil, engineerrs.NotFound("group", groupName)
	}
	dicts := e.catalog.GroupMembers(groupName)

	var stemmedKeys []string
	if e.spellers != nil {
		for _, s := range e.spellers.Stem(key, group.Langs) {
			stemmedKeys = append(stemmedKeys, langops.Simplify(s))
		}
	}
	keys := buildQueryKeys(key, group.Langs)
	for _, sk := range stemmedKeys {
		found := false
		for _, k := range keys {
			if k == sk {
				found = true
				break
			}
		}
		if !found {
			keys = append(keys, sk)
		}
	}

	slots := make([]*ArticleResult, len(dicts))
	g, gctx := errgroup.WithContext(ctx)
	for i, dictID := range dicts {
		i, dictID := i, dictID
		g.Go(func() error {
			result, err := e.fetchArticle(gctx, dictID, keys)
			if err != nil {
				// A single dictionary's failure (e.g. ArticleUnavailable)
				// drops it from the result rather than aborting the group.
				return nil
			}
			slots[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]ArticleResult, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			out = append(out, *r)
		}
	}

	e.postProcess(out)

	if len(out) > 0 {
		_ = e.catalog.AppendHistory(key)
	}
	return out, nil
}

func (e *Engine) fetchArticle(ctx context.Context, dictID string, keys []string) (*ArticleResult, error) {
	var existingKeys []string
	for _, k := range keys {
		exists, err := e.store.Exists(ctx, k, []string{dictID})
		if err != nil {
			return nil, err
		}
		if exists {
			existingKeys = append(existingKeys, k)
		}
	}
	if len(existingKeys) == 0 {
		return nil, engineerrs.NotFound("entry", dictID)
	}

	reader, ok := e.readers[dictID]
	if !ok {
		return nil, engineerrs.NotFound("dictionary", dictID)
	}
	body, err := reader.ArticlesByKeys(ctx, existingKeys)
	if err != nil {
		return nil, err
	}

	d, _ := e.catalog.Dictionary(dictID)
	return &ArticleResult{DictionaryID: dictID, DisplayName: d.DisplayName, Body: body}, nil
}

// Lookup implements the legacy single-dictionary lookup: an exact
// simplified-key match against dictionaryID only, with no group,
// stemming, or transliteration involved. It records key in history on
// success, mirroring the legacy endpoint's unconditional history write.
func (e *Engine) Lookup(ctx context.Context, dictionaryID, key string) (string, error) {
	if _, ok := e.catalog.Dictionary(dictionaryID); !ok {
		return "", engineerrs.NotFound("dictionary", dictionaryID)
	}
	result, err := e.fetchArticle(ctx, dictionaryID, []string{langops.Simplify(key)})
	if err != nil {
		return "", err
	}
	results := []ArticleResult{*result}
	e.postProcess(results)
	_ = e.catalog.AppendHistory(key)
	return results[0].Body, nil
}

// FTS implements the full-text headword search path: it resolves the top
// matching headwords across groupName's dictionaries via the FTS index,
// fetches each match's article, and applies the same post-processing as
// Query.
func (e *Engine) FTS(ctx context.Context, groupName, query string, limit int) ([]ArticleResult, error) {
	if e.fts == nil {
		return nil, engineerrs.NotFound("group", groupName)
	}
	_, ok := e.catalog.Group(groupName)
	if !ok {
		return nil, engineerrs.NotFound("group", groupName)
	}
	dicts := e.catalog.GroupMembers(groupName)

	hits, err := e.fts.Search(ctx, query, dicts, limit)
	if err != nil {
		return nil, err
	}

	out := make([]ArticleResult, 0, len(hits))
	for _, hit := range hits {
		reader, ok := e.readers[hit.DictionaryID]
		if !ok {
			continue
		}
		body, err := reader.ArticleByWord(ctx, hit.Headword)
		if err != nil {
			continue
		}
		d, _ := e.catalog.Dictionary(hit.DictionaryID)
		out = append(out, ArticleResult{DictionaryID: hit.DictionaryID, DisplayName: d.DisplayName, Body: body})
	}
	e.postProcess(out)
	return out, nil
}

var (
	audioAutoplayPattern = regexp.MustCompile(`<audio\b[^>]*\bautoplay\b[^>]*>`)
	autoplayAttr         = regexp.MustCompile(`\bautoplay\s*`)
	legacyLookupURL      = regexp.MustCompile(`/api/lookup/([^/"']+)/([^/"'?]+)`)
	cacheURLPattern      = regexp.MustCompile(`/api/cache/[^"'()\s]+`)
)

// postProcess applies the conversions common to every article-producing
// path, in place, across the whole result set: autoplay dedup (only the
// first occurrence across all dictionaries survives), legacy lookup URL
// rewriting, and per-dictionary HTML patches. Chinese script conversion is
// left to the caller via ConvertChineseResults, since it depends on a per-group
// preference this engine does not itself hold.
func (e *Engine) postProcess(results []ArticleResult) {
	dedupAutoplay(results)
	for i := range results {
		// The legacy URL only carries a dictionary id, not the group it
		// was queried under, so the rewrite keeps that id in the new
		// path's group position; it is at worst a self-link for callers
		// that group dictionaries one-per-group.
		results[i].Body = legacyLookupURL.ReplaceAllString(results[i].Body, "/api/query/$1/$2")
		for _, patch := range e.catalog.Patches(results[i].DictionaryID) {
			results[i].Body = strings.ReplaceAll(results[i].Body, patch.Find, patch.Replace)
		}
	}
}

// dedupAutoplay strips the autoplay attribute from every <audio> tag in
// results after the first one in document order, so only one playback
// button auto-starts when several dictionaries embed the same sound.
func dedupAutoplay(results []ArticleResult) {
	seen := false
	for i := range results {
		results[i].Body = audioAutoplayPattern.ReplaceAllStringFunc(results[i].Body, func(match string) string {
			if !seen {
				seen = true
				return match
			}
			return autoplayAttr.ReplaceAllString(match, "")
		})
	}
}

// shieldCacheURLs replaces every /api/cache/... substring in html with a
// placeholder before Chinese conversion runs, then restores the originals
// afterward, so a conversion library never rewrites characters inside a
// resource path.
func shieldCacheURLs(html string, convert func(string) string) string {
	var shielded []string
	placeholderFor := func(i int) string { return fmt.Sprintf("\x00CACHEURL%d\x00", i) }

	withPlaceholders := cacheURLPattern.ReplaceAllStringFunc(html, func(match string) string {
		shielded = append(shielded, match)
		return placeholderFor(len(shielded) - 1)
	})

	converted := convert(withPlaceholders)

	for i, original := range shielded {
		converted = strings.ReplaceAll(converted, placeholderFor(i), original)
	}
	return converted
}

// ConvertChineseResults applies langops.ConvertChinese to every result
// body, shielding /api/cache/... substrings from the conversion.
func ConvertChineseResults(results []ArticleResult, preference string) {
	for i := range results {
		results[i].Body = shieldCacheURLs(results[i].Body, func(h string) string {
			return langops.ConvertChinese(h, preference)
		})
	}
}
