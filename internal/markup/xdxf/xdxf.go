// Package xdxf converts the XDXF dictionary markup dialect to HTML and
// lifts its <rref> resource references into concrete media tags, ahead
// of the common HTML cleaner pass.
package xdxf

import (
	"regexp"
	"strings"
)

var rrefPattern = regexp.MustCompile(`(?is)<\s*rref\s*>(.*?)<\s*/\s*rref\s*>`)

// rrefPlaceholder stands in for a lifted <rref> while translateTags runs;
// it carries no angle brackets, so translateTags leaves it in place.
const rrefPlaceholder = "\x00rref\x00"

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "svg": true,
	"bmp": true, "tif": true, "tiff": true, "ico": true, "webp": true,
	"avif": true, "apng": true, "jfif": true, "pjpeg": true, "pjp": true,
}

var soundExtensions = map[string]bool{
	"mp3": true, "ogg": true, "wav": true, "wave": true,
}

// tagTranslation maps an XDXF element name to its HTML equivalent. XDXF's
// structural tags (<ar>, <k>, <def>) mostly correspond 1:1 to inline HTML
// elements once article/entry wrapping is stripped by the caller.
var tagTranslation = map[string]string{
	"ar":  "div",
	"k":   "b",
	"def": "div",
	"dtrn": "span",
	"b":   "b",
	"i":   "i",
	"sub": "sub",
	"sup": "sup",
	"c":   "span",
	"abr": "abbr",
	"ex":  "i",
	"co":  "span",
	"kref": "a",
	"iref": "a",
	"rref": "img",
}

var xdxfTag = regexp.MustCompile(`(?is)<\s*(/?)\s*([a-zA-Z_][\w-]*)((?:\s+[^<>]*)?)>`)

// Convert transforms one XDXF article fragment into an HTML fragment.
func Convert(fragment string) string {
	var resources []string
	withPlaceholders := rrefPattern.ReplaceAllStringFunc(fragment, func(m string) string {
		groups := rrefPattern.FindStringSubmatch(m)
		resources = append(resources, strings.TrimSpace(groups[1]))
		return rrefPlaceholder
	})

	html := translateTags(withPlaceholders)

	for _, resource := range resources {
		html = strings.Replace(html, rrefPlaceholder, resourceHTML(resource), 1)
	}
	return html
}

// translateTags rewrites XDXF element names to their HTML equivalents,
// dropping any attributes XDXF elements carry (they do not map onto the
// HTML vocabulary we emit).
func translateTags(xdxf string) string {
	return xdxfTag.ReplaceAllStringFunc(xdxf, func(m string) string {
		groups := xdxfTag.FindStringSubmatch(m)
		closing, name := groups[1], strings.ToLower(groups[2])
		html, ok := tagTranslation[name]
		if !ok {
			return ""
		}
		if closing != "" {
			return "</" + html + ">"
		}
		return "<" + html + ">"
	})
}

func resourceHTML(resource string) string {
	ext := ""
	if i := strings.LastIndex(resource, "."); i >= 0 {
		ext = strings.ToLower(resource[i+1:])
	}
	switch {
	case imageExtensions[ext]:
		return `<img src="` + resource + `" />`
	case soundExtensions[ext]:
		return `<audio controls autoplay src="` + resource + `">audio</audio>`
	default:
		return `<a href="` + resource + `">download media</a>`
	}
}
