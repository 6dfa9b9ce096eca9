// Package htmltok provides minimal substring-scanning helpers shared by
// the format-specific markup cleaners. The source markup here is never
// well-formed XML/HTML, so a strict parser tends to choke on it; instead
// the cleaners scan for literal tag/attribute substrings the way hand
// dictionary-authoring tools actually emit them, matching how both the
// MDX and StarDict cleaners walk their input.
package htmltok

import "strings"

// TagSpan is one open-tag occurrence: Start is the index of its "<" and
// End the index of its closing ">".
type TagSpan struct {
	Start, End int
}

// FindTag returns the span of the next occurrence of an opening tag
// whose literal text starts with prefix (e.g. "<img", "<a href=\""),
// searching from from. found is false once no more occurrences remain.
func FindTag(html, prefix string, from int) (span TagSpan, found bool) {
	start := strings.Index(html[from:], prefix)
	if start < 0 {
		return TagSpan{}, false
	}
	start += from
	end := strings.Index(html[start:], ">")
	if end < 0 {
		return TagSpan{}, false
	}
	return TagSpan{Start: start, End: start + end}, true
}

// AttrValue returns the value of attr="..." within html[from:to), and
// whether it was present.
func AttrValue(html string, from, to int, attr string) (value string, startPos, endPos int, found bool) {
	needle := " " + attr + "=\""
	rel := strings.Index(html[from:to], needle)
	if rel < 0 {
		return "", 0, 0, false
	}
	valStart := from + rel + len(needle)
	rel2 := strings.Index(html[valStart:to], "\"")
	if rel2 < 0 {
		return "", 0, 0, false
	}
	valEnd := valStart + rel2
	return html[valStart:valEnd], valStart, valEnd, true
}

// ReplaceRange substitutes html[start:end] with replacement.
func ReplaceRange(html string, start, end int, replacement string) string {
	return html[:start] + replacement + html[end:]
}
