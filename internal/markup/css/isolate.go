// Package css isolates a dictionary's stylesheet to its own article
// namespace by prepending "#<dictionary_id>" to every selector, so
// per-dictionary styles cannot bleed into other articles rendered on the
// same page.
package css

import (
	"strings"
)

const isolatedMarker = "/* Isolated */"

var atRulePrefixes = []string{"@import", "@font-face", "@namespace", "@charset", "@media"}

// Isolate rewrites source so every selector is scoped under
// "#<dictionaryID>". Calling Isolate on already-isolated source is a
// no-op, detected via a marker comment at the top of the file.
func Isolate(source, dictionaryID string) string {
	if strings.HasPrefix(strings.TrimSpace(source), isolatedMarker) {
		return source
	}
	return isolatedMarker + "\n" + isolateBody(source, dictionaryID)
}

func isolateBody(source, dictionaryID string) string {
	var out strings.Builder
	pos := 0
	for pos < len(source) {
		if atRule, end, ok := matchAtRuleBoundary(source, pos, dictionaryID); ok {
			out.WriteString(atRule)
			pos = end
			continue
		}

		brace := strings.IndexByte(source[pos:], '{')
		if brace < 0 {
			out.WriteString(source[pos:])
			break
		}
		brace += pos

		selectors := source[pos:brace]
		out.WriteString(scopeSelectors(selectors, dictionaryID))
		out.WriteString("{")

		closeBrace := matchingCloseBrace(source, brace)
		out.WriteString(source[brace+1 : closeBrace+1])
		pos = closeBrace + 1
	}
	return out.String()
}

// matchAtRuleBoundary recognizes @page (dropped entirely) and the
// boundary-preserving at-rules (@import/@font-face/@namespace/@charset,
// emitted unchanged up to their terminating ';', and @media, whose body
// is scoped recursively).
func matchAtRuleBoundary(source string, pos int, dictionaryID string) (string, int, bool) {
	trimmedStart := pos
	for trimmedStart < len(source) && (source[trimmedStart] == ' ' || source[trimmedStart] == '\n' || source[trimmedStart] == '\t') {
		trimmedStart++
	}
	if trimmedStart >= len(source) || source[trimmedStart] != '@' {
		return "", 0, false
	}

	if strings.HasPrefix(source[trimmedStart:], "@page") {
		brace := strings.IndexByte(source[trimmedStart:], '{')
		if brace < 0 {
			return source[pos:trimmedStart], trimmedStart, true
		}
		brace += trimmedStart
		close := matchingCloseBrace(source, brace)
		return source[pos:trimmedStart], close + 1, true
	}

	for _, prefix := range atRulePrefixes[:4] { // import/font-face/namespace/charset: statement-terminated
		if strings.HasPrefix(source[trimmedStart:], prefix) {
			semi := strings.IndexByte(source[trimmedStart:], ';')
			if semi < 0 {
				return source[pos:], len(source), true
			}
			semi += trimmedStart
			return source[pos : semi+1], semi + 1, true
		}
	}

	if strings.HasPrefix(source[trimmedStart:], "@media") {
		brace := strings.IndexByte(source[trimmedStart:], '{')
		if brace < 0 {
			return source[pos:], len(source), true
		}
		brace += trimmedStart
		close := matchingCloseBrace(source, brace)
		header := source[pos : brace+1]
		body := source[brace+1 : close]
		return header + isolateBody(body, dictionaryID) + "}", close + 1, true
	}

	return "", 0, false
}

func matchingCloseBrace(source string, openBrace int) int {
	depth := 0
	for i := openBrace; i < len(source); i++ {
		switch source[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(source) - 1
}

func scopeSelectors(selectors, dictionaryID string) string {
	scope := "#" + dictionaryID
	parts := strings.Split(selectors, ",")
	for i, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			parts[i] = part
			continue
		}
		if trimmed == "html" || trimmed == "body" {
			parts[i] = " " + trimmed + " " + scope + " "
			continue
		}
		parts[i] = " " + scope + " " + trimmed + " "
	}
	return strings.Join(parts, ",")
}
