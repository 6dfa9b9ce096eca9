package indexstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBulkInsertAndExists(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.DropEntryIndex())
	require.NoError(t, s.BulkInsert([]EntryRow{
		{Key: "apple", DictionaryName: "dict-a", Word: "Apple", Offset: 0, Size: 10},
		{Key: "apple", DictionaryName: "dict-a", Word: "apple", Offset: 10, Size: 5},
		{Key: "pple", DictionaryName: "dict-a", Word: "pple", Offset: 15, Size: 5},
	}))
	require.NoError(t, s.Commit())
	require.NoError(t, s.CreateEntryIndex())

	ctx := context.Background()
	ok, err := s.Exists(ctx, "apple", []string{"dict-a"})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Exists(ctx, "banana", []string{"dict-a"})
	require.NoError(t, err)
	require.False(t, ok)

	entries, err := s.GetEntries(ctx, "apple", "dict-a")
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestPrefixOrderingAndCap(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.BulkInsert([]EntryRow{
		{Key: "apple", DictionaryName: "d", Word: "Apple", Offset: 0, Size: 1},
		{Key: "apple", DictionaryName: "d", Word: "apple", Offset: 1, Size: 1},
		{Key: "applesauce", DictionaryName: "d", Word: "applesauce", Offset: 2, Size: 1},
		{Key: "pple", DictionaryName: "d", Word: "pple", Offset: 3, Size: 1},
	}))
	require.NoError(t, s.Commit())

	ctx := context.Background()
	words, err := s.Prefix(ctx, []string{"app"}, []string{"d"}, nil, 10)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Apple", "apple", "applesauce"}, words)

	words, err = s.Prefix(ctx, []string{"app"}, []string{"d"}, nil, 1)
	require.NoError(t, err)
	require.Len(t, words, 1)
}

func TestRebuildNGramTableAndExpandKey(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.BulkInsert([]EntryRow{
		{Key: "onomatopoeia", DictionaryName: "d", Word: "onomatopoeia", Offset: 0, Size: 1},
		{Key: "phenomenon", DictionaryName: "d", Word: "phenomenon", Offset: 1, Size: 1},
	}))
	require.NoError(t, s.Commit())

	ctx := context.Background()
	require.NoError(t, s.RebuildNGramTable(ctx, false))

	candidates, err := s.ExpandKey(ctx, "onom", true)
	require.NoError(t, err)
	require.Contains(t, candidates, "onomatopoeia")
	require.NotContains(t, candidates, "phenomenon")
}

func TestLikeWildcardTranslation(t *testing.T) {
	require.Equal(t, "%abc%", TranslateWildcards("^abc^"))
	require.Equal(t, "a_c", TranslateWildcards("a+c"))
	require.True(t, HasWildcard("a^b"))
	require.False(t, HasWildcard("abc"))
}

func TestDeleteDictionaryCascades(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.BulkInsert([]EntryRow{
		{Key: "cat", DictionaryName: "d1", Word: "cat", Offset: 0, Size: 1},
		{Key: "cat", DictionaryName: "d2", Word: "cat", Offset: 1, Size: 1},
	}))
	require.NoError(t, s.Commit())
	require.NoError(t, s.RebuildNGramTable(context.Background(), false))

	require.NoError(t, s.DeleteDictionary("d1"))

	ctx := context.Background()
	ok, err := s.Exists(ctx, "cat", []string{"d1"})
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.Exists(ctx, "cat", []string{"d2"})
	require.NoError(t, err)
	require.True(t, ok)
}
