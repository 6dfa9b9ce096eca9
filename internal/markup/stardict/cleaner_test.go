package stardict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	readerstardict "github.com/silverdict-go/silverdict/internal/readers/stardict"
)

func encode(t *testing.T, records []readerstardict.Record) []byte {
	t.Helper()
	return readerstardict.EncodeRecords(records)
}

func TestConvertPlainTextWrapsInParagraph(t *testing.T) {
	c := NewCleaner("dict-x")
	raw := encode(t, []readerstardict.Record{{CType: 'm', Data: []byte("a fruit")}})
	out, err := c.Convert("dict-x", "apple", raw)
	require.NoError(t, err)
	assert.Contains(t, out, `<h3 class="headword">apple</h3>`)
	assert.Contains(t, out, "<p>a fruit</p>")
}

func TestConvertHTMLFixesCrossRef(t *testing.T) {
	c := NewCleaner("dict-x")
	raw := encode(t, []readerstardict.Record{{CType: 'h', Data: []byte(`see <a href="bword://banana">banana</a>`)}})
	out, err := c.Convert("dict-x", "apple", raw)
	require.NoError(t, err)
	assert.Contains(t, out, `href="/api/lookup/dict-x/banana"`)
}

func TestConvertFixesImgSrcPath(t *testing.T) {
	c := NewCleaner("dict-x")
	raw := encode(t, []readerstardict.Record{{CType: 'h', Data: []byte(`<img src="pic.png">`)}})
	out, err := c.Convert("dict-x", "apple", raw)
	require.NoError(t, err)
	assert.Contains(t, out, `src="/api/cache/dict-x/pic.png"`)
}

func TestConvertRemovesOuterArticleDiv(t *testing.T) {
	c := NewCleaner("dict-x")
	raw := encode(t, []readerstardict.Record{{CType: 'h', Data: []byte(`<div class="article">body text</div>`)}})
	out, err := c.Convert("dict-x", "apple", raw)
	require.NoError(t, err)
	assert.Contains(t, out, "body text")
	assert.NotContains(t, out, `class="article"`)
}

func TestConvertXDXFLiftsResourceAndCleansHTML(t *testing.T) {
	c := NewCleaner("dict-x")
	raw := encode(t, []readerstardict.Record{{CType: 'x', Data: []byte(`<k>cat</k> <rref>cat.png</rref>`)}})
	out, err := c.Convert("dict-x", "cat", raw)
	require.NoError(t, err)
	assert.Contains(t, out, "<b>cat</b>")
	assert.Contains(t, out, `src="/api/cache/dict-x/cat.png"`)
}

func TestConvertLowercasesMixedCaseTags(t *testing.T) {
	c := NewCleaner("dict-x")
	raw := encode(t, []readerstardict.Record{{CType: 'h', Data: []byte(`<IMG src="a.png">text<BR>`)}})
	out, err := c.Convert("dict-x", "apple", raw)
	require.NoError(t, err)
	assert.Contains(t, out, "<img")
	assert.Contains(t, out, "<br>")
}
