package queryengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestFTSIndex(t *testing.T) *FTSIndex {
	t.Helper()
	idx, err := OpenFTSIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestFTSIndexSearchMatchesAndFilters(t *testing.T) {
	idx := newTestFTSIndex(t)
	require.NoError(t, idx.IndexBatch("dict-a", []string{"apple", "application", "pineapple"}))
	require.NoError(t, idx.IndexBatch("dict-b", []string{"apple pie"}))

	hits, err := idx.Search(context.Background(), "apple", nil, 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	hits, err = idx.Search(context.Background(), "apple", []string{"dict-a"}, 10)
	require.NoError(t, err)
	for _, h := range hits {
		require.Equal(t, "dict-a", h.DictionaryID)
	}
}

func TestFTSIndexDeleteRemovesDictionaryDocs(t *testing.T) {
	idx := newTestFTSIndex(t)
	require.NoError(t, idx.IndexBatch("dict-a", []string{"apple"}))
	require.NoError(t, idx.IndexBatch("dict-b", []string{"apple"}))

	require.NoError(t, idx.Delete(context.Background(), "dict-a"))

	hits, err := idx.Search(context.Background(), "apple", nil, 10)
	require.NoError(t, err)
	for _, h := range hits {
		require.NotEqual(t, "dict-a", h.DictionaryID)
	}
}

func TestFTSIndexEmptyQueryReturnsNoHits(t *testing.T) {
	idx := newTestFTSIndex(t)
	require.NoError(t, idx.IndexBatch("dict-a", []string{"apple"}))

	hits, err := idx.Search(context.Background(), "   ", nil, 10)
	require.NoError(t, err)
	require.Empty(t, hits)
}
