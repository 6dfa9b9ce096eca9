// Package stardict cleans the markup StarDict dict-body records carry,
// dispatching per content type before handing the result to the shared
// HTML sanitising steps. Distinct from internal/readers/stardict, which
// decodes the on-disk .ifo/.idx/.dict(.dz) files this package cleans the
// output of.
package stardict

import (
	"regexp"
	"strings"

	"github.com/silverdict-go/silverdict/internal/markup/htmltok"
	"github.com/silverdict-go/silverdict/internal/markup/xdxf"
	readerstardict "github.com/silverdict-go/silverdict/internal/readers/stardict"
)

var nonPrintingChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f-\x9f]`)
var singleQuotedAttr = regexp.MustCompile(`='([^']*)'([ >])`)

// mixedCaseTags maps the mixed-case tag spellings observed in the wild to
// their lowercase form, e.g. "<IMG" and "<A HREF=".
var mixedCaseTags = []string{"<BR>", "<br/>", "<BR/>", "<IMG", "<A HREF=", "<A NAME=", "<B>", "</B>", "<I>", "</I>"}

// Cleaner converts one StarDict dictionary's decoded dict-body records
// into the common HTML dialect.
type Cleaner struct {
	dictionaryID string
}

// NewCleaner builds a Cleaner for one dictionary.
func NewCleaner(dictionaryID string) *Cleaner {
	return &Cleaner{dictionaryID: dictionaryID}
}

// Convert implements readers.MarkupConverter. raw is the wire-encoded
// record list produced by internal/readers/stardict's Decoder: repeated
// (cttype, length, payload) tuples, one per dict-body segment.
func (c *Cleaner) Convert(dictionaryID, headword string, raw []byte) (string, error) {
	records, err := readerstardict.DecodeRecords(raw)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, r := range records {
		switch r.CType {
		case 'm', 't', 'y':
			parts = append(parts, "<p>"+string(r.Data)+"</p>")
		case 'g', 'h':
			parts = append(parts, c.cleanHTML(string(r.Data)))
		case 'x':
			parts = append(parts, c.cleanHTML(xdxf.Convert(string(r.Data))))
		}
	}

	body := strings.Join(parts, "\n")
	return `<h3 class="headword">` + headword + "</h3>" + body, nil
}

// cleanHTML applies the StarDict HTML-subset transformations: lowercase
// mixed-case tag spellings, normalise quoting, fix bword:// cross
// references and lemma hrefs, fix resource src paths, rewrite
// image-extension anchors to the cache root, and strip a wrapping
// <div class="article">.
func (c *Cleaner) cleanHTML(html string) string {
	html = nonPrintingChars.ReplaceAllString(html, "")
	html = lowerHTMLTags(html)
	html = singleQuotedAttr.ReplaceAllString(html, `="$1"$2`)
	html = c.fixCrossRef(html)
	html = c.fixLemmaHref(html)
	html = c.fixSrcPath(html, "<img")
	html = c.fixSrcPath(html, "<source")
	html = c.fixImgLink(html)
	html = removeOuterArticleDiv(html)
	return html
}

func lowerHTMLTags(html string) string {
	for _, tag := range mixedCaseTags {
		html = strings.ReplaceAll(html, tag, strings.ToLower(tag))
	}
	return html
}

// fixCrossRef rewrites bword://word hrefs to the dictionary's lookup
// route.
func (c *Cleaner) fixCrossRef(html string) string {
	lookupRoot := "/api/lookup/" + c.dictionaryID + "/"
	return strings.ReplaceAll(html, "bword://", lookupRoot)
}

// fixLemmaHref fixes hrefs inside <span class="lemma">, which StarDict
// dictionaries sometimes leave as a bare word rather than a bword:// URI.
func (c *Cleaner) fixLemmaHref(html string) string {
	lookupRoot := "/api/lookup/" + c.dictionaryID + "/"
	marker := `class="lemma"`
	pos := 0
	for {
		idx := strings.Index(html[pos:], marker)
		if idx < 0 {
			break
		}
		spanStart := pos + idx
		value, start, end, found := htmltok.AttrValue(html, spanStart, len(html), "href")
		if !found || strings.Contains(value, "://") {
			pos = spanStart + len(marker)
			continue
		}
		html = htmltok.ReplaceRange(html, start, end, lookupRoot+value)
		pos = end
	}
	return html
}

// fixSrcPath rewrites a relative src="..." attribute on tags starting
// with tagPrefix to the per-dictionary resource cache route.
func (c *Cleaner) fixSrcPath(html, tagPrefix string) string {
	hrefRoot := "/api/cache/" + c.dictionaryID + "/"
	pos := 0
	for {
		span, ok := htmltok.FindTag(html, tagPrefix, pos)
		if !ok {
			break
		}
		value, start, end, found := htmltok.AttrValue(html, span.Start, span.End, "src")
		if !found || strings.Contains(value, "://") {
			pos = span.End + 1
			continue
		}
		newValue := hrefRoot + value
		html = htmltok.ReplaceRange(html, start, end, newValue)
		pos = start + len(newValue)
	}
	return html
}

// fixImgLink rewrites <a href="...ext"> anchors whose href ends in an
// image extension to point at the resource cache route, for dictionaries
// that link to images rather than embedding them.
func (c *Cleaner) fixImgLink(html string) string {
	hrefRoot := "/api/cache/" + c.dictionaryID + "/"
	pos := 0
	for {
		span, ok := htmltok.FindTag(html, "<a ", pos)
		if !ok {
			break
		}
		value, start, end, found := htmltok.AttrValue(html, span.Start, span.End, "href")
		if !found || strings.Contains(value, "://") || !hasImageExtension(value) {
			pos = span.End + 1
			continue
		}
		newValue := hrefRoot + value
		html = htmltok.ReplaceRange(html, start, end, newValue)
		pos = start + len(newValue)
	}
	return html
}

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "svg": true,
	"bmp": true, "webp": true,
}

func hasImageExtension(path string) bool {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return false
	}
	return imageExtensions[strings.ToLower(path[i+1:])]
}

// removeOuterArticleDiv strips a wrapping <div class="article">...</div>
// when the whole body is enclosed in one.
func removeOuterArticleDiv(html string) string {
	trimmed := strings.TrimSpace(html)
	const openPrefix = `<div class="article">`
	if !strings.HasPrefix(trimmed, openPrefix) || !strings.HasSuffix(trimmed, "</div>") {
		return html
	}
	inner := trimmed[len(openPrefix) : len(trimmed)-len("</div>")]
	return inner
}
