// Package dsl translates Lingvo DSL tag soup into the common HTML
// dialect: bracket tags, shortcut runs, cross-references, and embedded
// media references sourced from a companion .files.zip archive or
// .files directory.
package dsl

import (
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var reBracketsBlocks = regexp.MustCompile(`\{\{[^}]*\}\}`)
var reLangOpen = regexp.MustCompile(`\[lang[^\]]*\]`)
var reMOpen = regexp.MustCompile(`\[m\d\]`)
var reCOpenColor = regexp.MustCompile(`\[c (\w+)\]`)
var reM = regexp.MustCompile(`\[m(\d)\](.*?)\[/m\]`)
var reEnd = regexp.MustCompile(`\\\n`)
var reRef = regexp.MustCompile(`<<(.*?)>>`)
var reRemnantM = regexp.MustCompile(`\[(?:/m|m[^]]*)\]`)
var reEscapedRef = regexp.MustCompile(`&lt;&lt;([^&]+)&gt;&gt;`)
var reOpenM1dash = regexp.MustCompile(`\[m1\](?:-{2,})\[/m\]`)
var reOpenMNdash = regexp.MustCompile(`\[m(\d)\](?:-{2,})\[/m\]`)

var imageExtensions = extensionSet("jpg", "jpeg", "png", "gif", "svg", "bmp", "tif", "tiff", "ico", "webp", "avif", "apng", "jfif", "pjpeg", "pjp")
var soundExtensions = extensionSet("mp3", "ogg", "wav", "wave")
var videoExtensions = extensionSet("mp4", "webm", "ogv", "ogg")

func extensionSet(exts ...string) map[string]bool {
	set := make(map[string]bool, len(exts)*2)
	for _, e := range exts {
		set[e] = true
		set[strings.ToUpper(e)] = true
	}
	return set
}

// Converter converts one DSL dictionary's decoded article text into the
// common HTML dialect, extracting referenced media from its resources
// directory on demand.
type Converter struct {
	dictionaryID  string
	resourcesDir  string
	hrefRoot      string
	lookupRoot    string
	resourcesFile string // .files.zip path, if any; "" when a .files directory is symlinked into resourcesDir instead
	extractor     func(zipPath, destDir string, names []string) error
}

// NewConverter builds a Converter for one dictionary. resourcesDir is the
// per-dictionary cache directory articles' media references resolve
// against; resourcesZip, when non-empty, is a companion .files.zip to
// lazily extract named members from as they are referenced.
func NewConverter(dictionaryID, resourcesDir, resourcesZip string) *Converter {
	return &Converter{
		dictionaryID:  dictionaryID,
		resourcesDir:  resourcesDir,
		hrefRoot:      "/api/cache/" + dictionaryID + "/",
		lookupRoot:    "/api/lookup/" + dictionaryID + "/",
		resourcesFile: resourcesZip,
		extractor:     extractZipMembers,
	}
}

// Convert implements readers.MarkupConverter.
func (c *Converter) Convert(dictionaryID, headword string, raw []byte) (string, error) {
	text := string(raw)
	text = closeUnterminatedMLines(text)
	text = c.cleanTags(text)
	text = c.cleanHTML(text)
	return `<h3 class="headword">` + headword + "</h3>" + text, nil
}

// closeUnterminatedMLines appends a missing [/m] to indented lines that
// open an [mN] block but never close it on the same line.
func closeUnterminatedMLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, " [m") && !strings.HasSuffix(line, "[/m]") {
			lines[i] = line + "[/m]"
		}
	}
	return strings.Join(lines, "\n")
}

func (c *Converter) cleanTags(text string) string {
	text = reBracketsBlocks.ReplaceAllString(text, "")

	for _, tag := range []string{"[trn]", "[/trn]", "[trs]", "[/trs]", "[!trn]", "[/!trn]", "[!trs]", "[/!trs]"} {
		text = strings.ReplaceAll(text, tag, "")
	}

	text = reLangOpen.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "[/lang]", "")

	text = strings.ReplaceAll(text, "[com]", "")
	text = strings.ReplaceAll(text, "[/com]", "")

	text = html.EscapeString(html.UnescapeString(text))

	text = strings.ReplaceAll(text, "[t]", `<font face="Helvetica" class="dsl_t">`)
	text = strings.ReplaceAll(text, "[/t]", "</font>")

	text = reEnd.ReplaceAllString(text, "<br/>")

	text = strings.ReplaceAll(text, "[m]", "[m1]")
	if !reMOpen.MatchString(text) {
		text = "[m1]" + text + "[/m]"
	}

	text = applyShortcuts(text)

	text = reM.ReplaceAllString(text, `<div style="margin-left:$1em">$2</div>`)

	text = strings.ReplaceAll(text, "[']", "<u>")
	text = strings.ReplaceAll(text, "[/']", "</u>")
	text = strings.ReplaceAll(text, "[b]", "<b>")
	text = strings.ReplaceAll(text, "[/b]", "</b>")
	text = strings.ReplaceAll(text, "[i]", "<i>")
	text = strings.ReplaceAll(text, "[/i]", "</i>")
	text = strings.ReplaceAll(text, "[u]", "<u>")
	text = strings.ReplaceAll(text, "[/u]", "</u>")
	text = strings.ReplaceAll(text, "[sup]", "<sup>")
	text = strings.ReplaceAll(text, "[/sup]", "</sup>")
	text = strings.ReplaceAll(text, "[sub]", "<sub>")
	text = strings.ReplaceAll(text, "[/sub]", "</sub>")

	text = strings.ReplaceAll(text, "[c]", `<font color="green">`)
	text = reCOpenColor.ReplaceAllString(text, `<font color="$1">`)
	text = strings.ReplaceAll(text, "[/c]", "</font>")

	text = strings.ReplaceAll(text, "[ex]", `<span class="ex"><font color="steelblue">`)
	text = strings.ReplaceAll(text, "[/ex]", "</font></span>")

	text = strings.ReplaceAll(text, "[*]", `<span class="sec">`)
	text = strings.ReplaceAll(text, "[/*]", "</span>")

	text = strings.ReplaceAll(text, "[p]", `<i class="p"><font color="green">`)
	text = strings.ReplaceAll(text, "[/p]", "</font></i>")

	text = strings.ReplaceAll(text, "[ref]", "<<")
	text = strings.ReplaceAll(text, "[/ref]", ">>")
	text = strings.ReplaceAll(text, "[url]", "<<")
	text = strings.ReplaceAll(text, "[/url]", ">>")
	text = reRef.ReplaceAllStringFunc(text, func(m string) string {
		groups := reRef.FindStringSubmatch(m)
		return c.makeAHref(groups[1])
	})

	text = strings.ReplaceAll(text, `\[`, "[")
	text = strings.ReplaceAll(text, `\]`, "]")

	return strings.ReplaceAll(text, "\n", "<br/>")
}

func (c *Converter) makeAHref(word string) string {
	return `<a href="` + c.lookupRoot + word + `">` + html.EscapeString(word) + "</a>"
}

func applyShortcuts(text string) string {
	text = reOpenM1dash.ReplaceAllString(text, "<hr/>")
	text = reOpenMNdash.ReplaceAllString(text, `<hr style="margin-left:$1em"/>`)
	return text
}

func (c *Converter) cleanHTML(text string) string {
	text = strings.ReplaceAll(text, `\ `, "")
	text = reRemnantM.ReplaceAllString(text, "")
	text = reEscapedRef.ReplaceAllStringFunc(text, func(m string) string {
		groups := reEscapedRef.FindStringSubmatch(m)
		word := groups[1]
		return `<a href="` + c.lookupRoot + word + `">` + word + "</a>"
	})

	text, toExtract := c.correctMediaReferences(text)
	if len(toExtract) > 0 && c.resourcesFile != "" {
		if _, err := os.Stat(c.resourcesFile); err == nil {
			_ = c.extractor(c.resourcesFile, c.resourcesDir, toExtract)
		}
	}
	return text
}

// correctMediaReferences rewrites [s]media[/s] spans into the media tag
// matching the referenced file's extension, tracking any reference whose
// file is not yet present in the resources directory for lazy
// extraction. The first sound reference keeps autoplay; every later one
// strips it.
func (c *Converter) correctMediaReferences(text string) (string, []string) {
	var toExtract []string
	autoplay := "autoplay"
	searchFrom := 0
	for {
		start := strings.Index(text[searchFrom:], "[s]")
		if start < 0 {
			break
		}
		start += searchFrom
		end := strings.Index(text[start:], "[/s]")
		if end < 0 {
			break
		}
		end += start
		mediaName := text[start+len("[s]") : end]

		if _, err := os.Stat(filepath.Join(c.resourcesDir, mediaName)); os.IsNotExist(err) {
			toExtract = append(toExtract, mediaName)
		}

		mediaRef := c.hrefRoot + mediaName
		ext := extensionOf(mediaName)
		var replacement string
		switch {
		case imageExtensions[ext]:
			replacement = `<img src="` + mediaRef + `" />`
		case soundExtensions[ext]:
			replacement = `<audio controls ` + autoplay + ` src="` + mediaRef + `">` + mediaName + `</audio>`
			autoplay = ""
		case videoExtensions[ext]:
			replacement = `<video controls src="` + mediaRef + `">video</video>`
		default:
			replacement = `<a href="` + mediaRef + `">` + mediaName + "</a>"
		}

		full := "[s]" + mediaName + "[/s]"
		text = strings.ReplaceAll(text, full, replacement)
		searchFrom = 0 // the replacement may have shortened text; rescan from start
	}
	return text, toExtract
}

func extensionOf(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

