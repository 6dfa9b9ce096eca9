// Package mdxhtml cleans the HTML-subset markup MDX dictionaries embed,
// rewriting its proprietary URI schemes and resource references into the
// engine's common article dialect.
package mdxhtml

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/silverdict-go/silverdict/internal/markup/htmltok"
)

var nonPrintingChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f-\x9f]`)
var singleQuotedAttr = regexp.MustCompile(`='([^']*)'([ >])`)
var compactHTMLIndex = regexp.MustCompile("`(\\d+)`")

// compactRule is one (opening, closing) tag pair a numbered placeholder
// expands to.
type compactRule struct{ prefix, suffix string }

// Cleaner converts one MDX dictionary's raw article bytes to the common
// HTML dialect. One Cleaner is constructed per dictionary so it can
// resolve relative .css/.js paths against that dictionary's source and
// cache directories.
type Cleaner struct {
	dictionaryID string
	sourceDir    string // directory containing the original .mdx file
	cacheDir     string // per-dictionary resource cache directory
	rules        map[string]compactRule
}

// NewCleaner builds a Cleaner for one dictionary. styles, when non-empty,
// is the compact-HTML style table supplied alongside the dictionary's
// header: groups of three lines (index, opening tag, closing tag).
func NewCleaner(dictionaryID, sourceDir, cacheDir, styles string) *Cleaner {
	c := &Cleaner{dictionaryID: dictionaryID, sourceDir: sourceDir, cacheDir: cacheDir}
	if styles != "" {
		c.rules = make(map[string]compactRule)
		lines := strings.Split(styles, "\n")
		for i := 0; i+2 < len(lines); i += 3 {
			c.rules[lines[i]] = compactRule{prefix: lines[i+1], suffix: lines[i+2]}
		}
	}
	return c
}

// Convert implements readers.MarkupConverter. MDX articles embed their own
// headword display inline, so unlike the StarDict and DSL converters this
// one does not synthesize a "<h3 class=\"headword\">" heading.
func (c *Cleaner) Convert(dictionaryID, headword string, raw []byte) (string, error) {
	html := string(raw)
	html = nonPrintingChars.ReplaceAllString(html, "")
	if c.rules != nil {
		html = c.expandCompactHTML(html)
	}
	html = singleQuotedAttr.ReplaceAllString(html, `="$1"$2`)
	html = c.fixFilePath(html, ".css")
	html = c.fixFilePath(html, ".js")
	html = strings.ReplaceAll(html, "entry://#", "#")
	html = c.fixEntryCrossRef(html)
	html = c.fixSoundLink(html)
	html = c.fixImgSrc(html)
	return html, nil
}

// expandCompactHTML replaces `N`-style numbered placeholders with the
// configured (prefix, suffix) pair, closing the previous placeholder's
// suffix before opening the next.
func (c *Cleaner) expandCompactHTML(html string) string {
	matches := compactHTMLIndex.FindAllStringSubmatchIndex(html, -1)
	if len(matches) == 0 {
		return html
	}
	var buf strings.Builder
	pos := 0
	lastSuffix := ""
	for _, m := range matches {
		buf.WriteString(html[pos:m[0]])
		buf.WriteString(lastSuffix)
		index := html[m[2]:m[3]]
		rule, ok := c.rules[index]
		if ok {
			buf.WriteString(rule.prefix)
			lastSuffix = rule.suffix
		}
		pos = m[1]
	}
	buf.WriteString(lastSuffix)
	return buf.String()
}

// fixFilePath resolves a relative resource reference ending in extension,
// copying it from the dictionary's source directory into its resource
// cache on demand, and rewrites the reference to the cache's HTTP path.
func (c *Cleaner) fixFilePath(html, extension string) string {
	pos := 0
	for {
		idx := strings.Index(html[pos:], extension)
		if idx < 0 {
			break
		}
		extPos := pos + idx
		quoteStart := strings.LastIndex(html[:extPos], "\"") + 1
		filename := html[quoteStart : extPos+len(extension)]

		if c.sourceDir != "" && c.cacheDir != "" && !strings.Contains(filename, "://") {
			src := filepath.Join(c.sourceDir, filename)
			dst := filepath.Join(c.cacheDir, filename)
			copyIfNewer(src, dst)
		}

		hrefRoot := "/api/cache/" + c.dictionaryID + "/"
		html = htmltok.ReplaceRange(html, quoteStart, quoteStart, hrefRoot)
		pos = extPos + len(hrefRoot) + len(extension)
	}
	return html
}

func copyIfNewer(src, dst string) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return
	}
	if dstInfo, err := os.Stat(dst); err == nil {
		if !srcInfo.ModTime().After(dstInfo.ModTime()) {
			return
		}
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(dst), 0o755)
	_ = os.WriteFile(dst, data, 0o644)
}

// fixEntryCrossRef rewrites entry:// links to lookup URLs, handling the
// "@@@LINK=word" whole-article redirect convention and flattening nested
// <a> elements up to three levels deep (dictionaries observed in the wild
// never nest deeper than that).
func (c *Cleaner) fixEntryCrossRef(html string) string {
	lookupRoot := "/api/lookup/" + c.dictionaryID + "/"
	if strings.HasPrefix(html, "@@@LINK=") {
		linked := strings.TrimRight(html[len("@@@LINK="):], " \t\r\n")
		return `<a href="` + lookupRoot + linked + `">` + linked + "</a>"
	}
	html = strings.ReplaceAll(html, "entry://", lookupRoot)
	return flattenNestedA(html, 3)
}

// flattenNestedA removes the innermost element(s) nested directly inside
// an <a>, preserving their text content, up to depth levels.
func flattenNestedA(html string, depth int) string {
	for ; depth > 0; depth-- {
		changed := false
		searchFrom := 0
		for {
			aStart := strings.Index(html[searchFrom:], "<a")
			if aStart < 0 {
				break
			}
			aStart += searchFrom
			aTagEnd := strings.Index(html[aStart:], ">")
			if aTagEnd < 0 {
				break
			}
			aTagEnd += aStart
			innerStart := strings.Index(html[aTagEnd+1:], ">")
			if innerStart < 0 {
				break
			}
			innerStart += aTagEnd + 1 + 1

			if closeBefore := strings.Index(html[aTagEnd+1:innerStart], "</a>"); closeBefore >= 0 {
				searchFrom = aTagEnd + 1
				continue
			}
			innerEnd := strings.Index(html[innerStart:], "</")
			if innerEnd < 0 {
				break
			}
			innerEnd += innerStart
			inner := html[innerStart:innerEnd]
			closeStart := strings.Index(html[innerEnd:], "</a>")
			if closeStart < 0 {
				break
			}
			closeStart += innerEnd
			html = html[:aTagEnd+1] + inner + html[closeStart:]
			changed = true
			searchFrom = aTagEnd + 1 + len(inner)
		}
		if !changed {
			break
		}
	}
	return html
}

// fixSoundLink rewrites sound://path anchors into <audio> elements; the
// first one in document order keeps the autoplay attribute.
func (c *Cleaner) fixSoundLink(html string) string {
	hrefRoot := "/api/cache/" + c.dictionaryID + "/"
	autoplay := "autoplay"
	for {
		linkStart := strings.Index(html, "sound://")
		if linkStart < 0 {
			break
		}
		linkEnd := strings.Index(html[linkStart:], "\"")
		if linkEnd < 0 {
			break
		}
		linkEnd += linkStart
		originalLink := html[linkStart:linkEnd]
		soundSrc := hrefRoot + strings.TrimPrefix(originalLink, "sound://")

		innerStart := strings.Index(html[linkEnd:], ">")
		if innerStart < 0 {
			break
		}
		innerStart += linkEnd + 1
		innerEnd := strings.Index(html[innerStart:], "</a>")
		if innerEnd < 0 {
			break
		}
		innerEnd += innerStart
		inner := html[innerStart:innerEnd]

		outerStart := strings.LastIndex(html[:linkStart], "<a")
		if outerStart < 0 {
			break
		}
		outerEnd := strings.Index(html[innerEnd:], "</a>")
		if outerEnd < 0 {
			break
		}
		outerEnd += innerEnd + len("</a>")

		element := `<audio controls ` + autoplay + ` src="` + soundSrc + `">` + inner + `</audio>`
		html = html[:outerStart] + element + html[outerEnd:]
		autoplay = ""
	}
	return html
}

// fixImgSrc rewrites file://-prefixed <img src> references to the
// per-dictionary cache path.
func (c *Cleaner) fixImgSrc(html string) string {
	hrefRoot := "/api/cache/" + c.dictionaryID + "/"
	pos := 0
	for {
		span, ok := htmltok.FindTag(html, "<img", pos)
		if !ok {
			break
		}
		value, start, end, found := htmltok.AttrValue(html, span.Start, span.End, "src")
		if !found {
			pos = span.End + 1
			continue
		}
		newValue := hrefRoot + strings.TrimPrefix(value, "file://")
		html = htmltok.ReplaceRange(html, start, end, newValue)
		pos = start + len(newValue)
	}
	return html
}
