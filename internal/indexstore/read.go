package indexstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
)

// PrefixUpperBound is the pragmatic high-codepoint sentinel used to
// approximate `key LIKE k%` with a range scan: `key >= k AND key <
// k+PrefixUpperBound`. Known limitation: this under-covers keys containing
// astral-plane CJK extensions above U+3134A; widening it is out of scope
// here, not silently done.
const PrefixUpperBound = rune(0x3134A)

func dictPlaceholders(dicts []string) (string, []any) {
	if len(dicts) == 0 {
		return "1=0", nil
	}
	ph := make([]string, len(dicts))
	args := make([]any, len(dicts))
	for i, d := range dicts {
		ph[i] = "?"
		args[i] = d
	}
	return "dictionary_name IN (" + strings.Join(ph, ",") + ")", args
}

// Words returns the distinct headwords stored for dictionaryName, used to
// seed the full-text headword index after ingestion.
func (s *Store) Words(ctx context.Context, dictionaryName string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT word FROM entries WHERE dictionary_name = ?`, dictionaryName)
	if err != nil {
		return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "query words", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "scan word", err)
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "iterate words", err)
	}
	return words, nil
}

// Exists reports whether key has at least one entry in any of dicts.
func (s *Store) Exists(ctx context.Context, key string, dicts []string) (bool, error) {
	clause, args := dictPlaceholders(dicts)
	args = append([]any{key}, args...)
	row := s.db.QueryRowContext(ctx, `SELECT 1 FROM entries WHERE key = ? AND `+clause+` LIMIT 1`, args...)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, engineerrs.New(engineerrs.ErrCodeIndexStore, "exists query", err)
	}
	return true, nil
}

// GetEntries returns all (word, offset, size) tuples for key in dict.
func (s *Store) GetEntries(ctx context.Context, key, dict string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT word, offset, size FROM entries WHERE key = ? AND dictionary_name = ? ORDER BY word`,
		key, dict)
	if err != nil {
		return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "get_entries query", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Word, &e.Offset, &e.Size); err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "scan entry", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetEntriesByWord returns all (word, offset, size) tuples whose original
// headword equals word in dict, for Reader.ArticleByWord lookups.
func (s *Store) GetEntriesByWord(ctx context.Context, word, dict string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT word, offset, size FROM entries WHERE word = ? AND dictionary_name = ? ORDER BY word`,
		word, dict)
	if err != nil {
		return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "get_entries_by_word query", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Word, &e.Offset, &e.Size); err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "scan entry", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prefix implements prefix(keys, D, exclude_words, L): for
// each key in order, distinct words with key in [k, k+PrefixUpperBound),
// restricted to dicts and not in exclude, sorted by key, accumulating
// until L words total.
func (s *Store) Prefix(ctx context.Context, keys []string, dicts []string, exclude map[string]bool, limit int) ([]string, error) {
	clause, dictArgs := dictPlaceholders(dicts)
	var out []string
	seen := make(map[string]bool)

	for _, k := range keys {
		if len(out) >= limit {
			break
		}
		upper := k + string(PrefixUpperBound)
		args := append([]any{k, upper}, dictArgs...)
		rows, err := s.db.QueryContext(ctx,
			`SELECT DISTINCT word, key FROM entries WHERE key >= ? AND key < ? AND `+clause+` ORDER BY key`,
			args...)
		if err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "prefix query", err)
		}
		for rows.Next() {
			var word, key string
			if err := rows.Scan(&word, &key); err != nil {
				_ = rows.Close()
				return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "scan prefix row", err)
			}
			if exclude[word] || seen[word] {
				continue
			}
			seen[word] = true
			out = append(out, word)
			if len(out) >= limit {
				break
			}
		}
		_ = rows.Close()
	}
	return out, nil
}

// Like implements like(pattern, D, L): pattern may contain `^`
// (arbitrary run, translated to SQL `%`) and `+` (single character,
// translated to SQL `_`); any literal `%`/`_` in pattern are escaped first.
func (s *Store) Like(ctx context.Context, pattern string, dicts []string, limit int) ([]string, error) {
	sqlPattern := TranslateWildcards(pattern)
	clause, dictArgs := dictPlaceholders(dicts)
	args := append([]any{sqlPattern}, dictArgs...)

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT word FROM entries WHERE key LIKE ? ESCAPE '\' AND `+clause+` ORDER BY key LIMIT ?`,
		append(args, limit)...)
	if err != nil {
		return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "like query", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "scan like row", err)
		}
		out = append(out, word)
	}
	return out, rows.Err()
}

// TranslateWildcards converts the engine's `^`/`+` wildcard syntax to
// SQL LIKE `%`/`_`, escaping any literal SQL metacharacters first.
func TranslateWildcards(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '^':
			b.WriteByte('%')
		case '+':
			b.WriteByte('_')
		case '%', '_', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HasWildcard reports whether s contains an engine wildcard character.
func HasWildcard(s string) bool {
	return strings.ContainsAny(s, "^+")
}

// KeysLookup implements keys_lookup(keys, D, exclude_words, L):
// exact-key lookup across keys, distinct words, excluding exclude, capped
// at limit.
func (s *Store) KeysLookup(ctx context.Context, keys []string, dicts []string, exclude map[string]bool, limit int) ([]string, error) {
	clause, dictArgs := dictPlaceholders(dicts)
	var out []string
	seen := make(map[string]bool)

	for _, k := range keys {
		if len(out) >= limit {
			break
		}
		args := append([]any{k}, dictArgs...)
		rows, err := s.db.QueryContext(ctx,
			`SELECT DISTINCT word FROM entries WHERE key = ? AND `+clause+` ORDER BY word`, args...)
		if err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "keys_lookup query", err)
		}
		for rows.Next() {
			var word string
			if err := rows.Scan(&word); err != nil {
				_ = rows.Close()
				return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "scan keys_lookup row", err)
			}
			if exclude[word] || seen[word] {
				continue
			}
			seen[word] = true
			out = append(out, word)
			if len(out) >= limit {
				break
			}
		}
		_ = rows.Close()
	}
	return out, nil
}

// ExpandKey implements expand_key(input, from_keys_not_words):
// tokenizes input into length-4 n-grams, intersects their postings, and
// resolves the surviving rowids to keys (or words) containing input as a
// contiguous substring.
func (s *Store) ExpandKey(ctx context.Context, input string, fromKeysNotWords bool) ([]string, error) {
	grams := NGrams(input)
	if len(grams) == 0 {
		return nil, nil
	}

	var ids []int64
	for i, g := range grams {
		postings, err := s.postingsFor(ctx, g)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			ids = postings
			continue
		}
		ids = intersectSorted(ids, postings)
		if len(ids) == 0 {
			return nil, nil
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	column := "word"
	if fromKeysNotWords {
		column = "key"
	}
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = "?"
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT DISTINCT %s FROM entries WHERE id IN (%s)`, column, strings.Join(ph, ",")), args...)
	if err != nil {
		return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "expand_key resolve", err)
	}
	defer rows.Close()

	lowerInput := strings.ToLower(input)
	var out []string
	for rows.Next() {
		var candidate string
		if err := rows.Scan(&candidate); err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "scan expand_key row", err)
		}
		if strings.Contains(strings.ToLower(candidate), lowerInput) {
			out = append(out, candidate)
		}
	}
	return out, rows.Err()
}

func (s *Store) postingsFor(ctx context.Context, gram string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT idxs FROM ngrams WHERE ngram = ?`, gram)
	if err != nil {
		return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "ngram postings query", err)
	}
	defer rows.Close()

	var all []int64
	for rows.Next() {
		var idxs string
		if err := rows.Scan(&idxs); err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "scan ngram row", err)
		}
		all = append(all, decodePostings(idxs)...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all, rows.Err()
}

func intersectSorted(a, b []int64) []int64 {
	var out []int64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			if len(out) == 0 || out[len(out)-1] != a[i] {
				out = append(out, a[i])
			}
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
