package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertPrependsHeadword(t *testing.T) {
	c := NewConverter("dict-x", t.TempDir(), "")
	out, err := c.Convert("dict-x", "apple", []byte("a fruit"))
	require.NoError(t, err)
	assert.Contains(t, out, `<h3 class="headword">apple</h3>`)
}

func TestConvertTranslatesBoldAndItalic(t *testing.T) {
	c := NewConverter("dict-x", t.TempDir(), "")
	out, err := c.Convert("dict-x", "w", []byte("[b]bold[/b] and [i]italic[/i]"))
	require.NoError(t, err)
	assert.Contains(t, out, "<b>bold</b>")
	assert.Contains(t, out, "<i>italic</i>")
}

func TestConvertTranslatesMarginIndent(t *testing.T) {
	c := NewConverter("dict-x", t.TempDir(), "")
	out, err := c.Convert("dict-x", "w", []byte("[m2]indented[/m]"))
	require.NoError(t, err)
	assert.Contains(t, out, `<div style="margin-left:2em">indented</div>`)
}

func TestConvertAppliesHrShortcut(t *testing.T) {
	c := NewConverter("dict-x", t.TempDir(), "")
	out, err := c.Convert("dict-x", "w", []byte("[m1]----[/m]"))
	require.NoError(t, err)
	assert.Contains(t, out, "<hr/>")
}

func TestConvertResolvesCrossReference(t *testing.T) {
	c := NewConverter("dict-x", t.TempDir(), "")
	out, err := c.Convert("dict-x", "w", []byte("[ref]banana[/ref]"))
	require.NoError(t, err)
	assert.Contains(t, out, `href="/api/lookup/dict-x/banana"`)
}

func TestConvertRewritesImageMediaReference(t *testing.T) {
	c := NewConverter("dict-x", t.TempDir(), "")
	out, err := c.Convert("dict-x", "w", []byte("[s]pic.png[/s]"))
	require.NoError(t, err)
	assert.Contains(t, out, `<img src="/api/cache/dict-x/pic.png" />`)
}

func TestConvertRewritesSoundMediaReferenceWithAutoplayOnce(t *testing.T) {
	c := NewConverter("dict-x", t.TempDir(), "")
	out, err := c.Convert("dict-x", "w", []byte("[s]a.mp3[/s] and [s]b.mp3[/s]"))
	require.NoError(t, err)
	assert.Contains(t, out, `<audio controls autoplay src="/api/cache/dict-x/a.mp3">a.mp3</audio>`)
	assert.Contains(t, out, `<audio controls  src="/api/cache/dict-x/b.mp3">b.mp3</audio>`)
}

func TestConvertHandlesImplicitParagraphWrap(t *testing.T) {
	c := NewConverter("dict-x", t.TempDir(), "")
	out, err := c.Convert("dict-x", "w", []byte("no paragraph tag here"))
	require.NoError(t, err)
	assert.Contains(t, out, "no paragraph tag here")
}
