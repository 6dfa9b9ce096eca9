package mdxhtml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertRewritesEntryLinks(t *testing.T) {
	c := NewCleaner("dict-x", "", "", "")
	out, err := c.Convert("dict-x", "", []byte(`see <a href="entry://banana">banana</a>`))
	require.NoError(t, err)
	assert.Contains(t, out, `href="/api/lookup/dict-x/banana"`)
}

func TestConvertRewritesInternalFragmentLink(t *testing.T) {
	c := NewCleaner("dict-x", "", "", "")
	out, err := c.Convert("dict-x", "", []byte(`<a href="entry://#nav1">jump</a>`))
	require.NoError(t, err)
	assert.Contains(t, out, `href="#nav1"`)
}

func TestConvertHandlesAtAtAtLink(t *testing.T) {
	c := NewCleaner("dict-x", "", "", "")
	out, err := c.Convert("dict-x", "", []byte("@@@LINK=otherword\n"))
	require.NoError(t, err)
	assert.Equal(t, `<a href="/api/lookup/dict-x/otherword">otherword</a>`, out)
}

func TestConvertRewritesSoundLinkWithAutoplayOnFirstOnly(t *testing.T) {
	c := NewCleaner("dict-x", "", "", "")
	raw := `<a href="sound://a.mp3">play a</a> and <a href="sound://b.mp3">play b</a>`
	out, err := c.Convert("dict-x", "", []byte(raw))
	require.NoError(t, err)
	assert.Contains(t, out, `<audio controls autoplay src="/api/cache/dict-x/a.mp3">play a</audio>`)
	assert.Contains(t, out, `<audio controls  src="/api/cache/dict-x/b.mp3">play b</audio>`)
}

func TestConvertRewritesFileImgSrc(t *testing.T) {
	c := NewCleaner("dict-x", "", "", "")
	out, err := c.Convert("dict-x", "", []byte(`<img src="file://pic.png">`))
	require.NoError(t, err)
	assert.Contains(t, out, `src="/api/cache/dict-x/pic.png"`)
}

func TestConvertNormalizesSingleQuotedAttrs(t *testing.T) {
	c := NewCleaner("dict-x", "", "", "")
	out, err := c.Convert("dict-x", "", []byte(`<span class='word'>w</span>`))
	require.NoError(t, err)
	assert.Contains(t, out, `class="word"`)
}

func TestFlattenNestedA(t *testing.T) {
	out := flattenNestedA(`<a class="ref" href="/x"><span class="orth">badly</span></a>`, 3)
	assert.Equal(t, `<a class="ref" href="/x">badly</a>`, out)
}
