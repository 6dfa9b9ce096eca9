package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDictionaryIDIsCSSSafeAndUnique(t *testing.T) {
	existing := map[string]bool{}
	id1 := GenerateDictionaryID("Oxford English!!", existing)
	existing[id1] = true
	id2 := GenerateDictionaryID("Oxford English!!", existing)
	assert.NotEqual(t, id1, id2)
	for _, r := range id1 {
		assert.False(t, r == ' ' || r == '!')
	}
}

func TestCatalogAddAndPersist(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	require.NoError(t, err)

	d := Dictionary{ID: "dict-a", DisplayName: "A", Format: FormatMDX, SourcePath: "/x/a.mdx"}
	require.NoError(t, c.AddDictionary(d))

	c2, err := Open(dir)
	require.NoError(t, err)
	got, ok := c2.Dictionary("dict-a")
	require.True(t, ok)
	assert.Equal(t, d, got)
}

func TestScanIsAdditive(t *testing.T) {
	dir := t.TempDir()
	srcDir := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.mdx"), []byte("x"), 0o644))

	c, err := Open(dir)
	require.NoError(t, err)

	added, err := c.Scan(srcDir)
	require.NoError(t, err)
	require.Len(t, added, 1)

	before := c.Dictionaries()

	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "b.mdx"), []byte("y"), 0o644))
	_, err = c.Scan(srcDir)
	require.NoError(t, err)

	after := c.Dictionaries()
	assert.True(t, len(after) >= len(before))
	beforeIDs := map[string]bool{}
	for _, d := range before {
		beforeIDs[d.ID] = true
	}
	for id := range beforeIDs {
		found := false
		for _, d := range after {
			if d.ID == id {
				found = true
			}
		}
		assert.True(t, found, "scan must not remove %s", id)
	}
}

func TestAppendHistoryDedupAndCap(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	require.NoError(t, err)
	c.historySize = 3

	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, c.AppendHistory(k))
	}
	assert.Equal(t, []string{"d", "c", "b"}, c.History())

	require.NoError(t, c.AppendHistory("b"))
	assert.Equal(t, []string{"b", "d", "c"}, c.History())
}

func TestGroupMembersCatalogOrder(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, c.AddDictionary(Dictionary{ID: "b-dict", Format: FormatMDX}))
	require.NoError(t, c.AddDictionary(Dictionary{ID: "a-dict", Format: FormatMDX}))
	require.NoError(t, c.Junction("b-dict", "g"))
	require.NoError(t, c.Junction("a-dict", "g"))

	members := c.GroupMembers("g")
	assert.Equal(t, []string{"a-dict", "b-dict"}, members)
}
