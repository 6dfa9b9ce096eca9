package xdxf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertLiftsImageResource(t *testing.T) {
	out := Convert(`<ar><k>cat</k><def>a feline <rref>cat.png</rref></def></ar>`)
	assert.Contains(t, out, `<img src="cat.png" />`)
}

func TestConvertLiftsSoundResource(t *testing.T) {
	out := Convert(`<ar><def><rref>meow.mp3</rref></def></ar>`)
	assert.Contains(t, out, `<audio controls autoplay src="meow.mp3">audio</audio>`)
}

func TestConvertLiftsDownloadLinkForUnknownResource(t *testing.T) {
	out := Convert(`<ar><def><rref>notes.pdf</rref></def></ar>`)
	assert.Contains(t, out, `<a href="notes.pdf">download media</a>`)
}

func TestConvertTranslatesStructuralTags(t *testing.T) {
	out := Convert(`<k>cat</k>`)
	assert.Equal(t, `<b>cat</b>`, out)
}
