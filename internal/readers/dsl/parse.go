package dsl

import (
	"bytes"
	"strings"
)

// Entry is one parsed DSL headword group: every alias that shares the
// content span starting at Offset, length Size, in the normalized source.
type Entry struct {
	Headwords []string
	Offset    int64
	Size      int64
}

// readLine returns the line starting at pos (excluding its terminating
// '\n'), the offset immediately after it, and whether pos was already at
// end of input.
func readLine(data []byte, pos int) (line []byte, next int, eof bool) {
	if pos >= len(data) {
		return nil, pos, true
	}
	if idx := bytes.IndexByte(data[pos:], '\n'); idx >= 0 {
		return data[pos : pos+idx], pos + idx + 1, false
	}
	return data[pos:], len(data), false
}

// headwordVariants expands one raw headword line into its searchable
// forms: the line itself, plus each "x and y"-joined alias split out.
func headwordVariants(line string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	variants := []string{trimmed}
	if strings.Contains(trimmed, " and ") {
		for _, part := range strings.Split(trimmed, " and ") {
			if part = strings.TrimSpace(part); part != "" {
				variants = append(variants, part)
			}
		}
	}
	return variants
}

// readContentEndOffset scans forward from pos (the start of an entry's
// definition block) past any indented or comment lines, returning the
// offset of the first line that begins a new headword (or end of input).
func readContentEndOffset(data []byte, pos int) int {
	for {
		lineStart := pos
		line, next, eof := readLine(data, pos)
		if eof {
			return pos
		}
		if len(line) > 0 && line[0] == '#' {
			pos = next
			continue
		}
		if len(line) == 0 || (line[0] != ' ' && line[0] != '\t') {
			return lineStart
		}
		pos = next
	}
}

// ParseEntries walks a normalized DSL source and returns one Entry per
// headword group. Multiple consecutive non-indented lines before the
// first indented line are treated as aliases sharing one definition span.
func ParseEntries(text string) []Entry {
	data := []byte(text)
	pos := 0
	var entries []Entry

	for pos < len(data) {
		line, next, eof := readLine(data, pos)
		if eof {
			break
		}
		if len(line) == 0 || line[0] == '#' || line[0] == ' ' || line[0] == '\t' {
			pos = next
			continue
		}

		seen := map[string]bool{}
		var headwords []string
		addVariants := func(l string) {
			for _, v := range headwordVariants(l) {
				if !seen[v] {
					seen[v] = true
					headwords = append(headwords, v)
				}
			}
		}
		addVariants(string(line))
		pos = next

		for pos < len(data) && data[pos] != ' ' && data[pos] != '\t' {
			line2, next2, eof2 := readLine(data, pos)
			if eof2 {
				break
			}
			addVariants(string(line2))
			pos = next2
		}

		contentStart := pos
		contentEnd := readContentEndOffset(data, contentStart)
		if len(headwords) > 0 {
			entries = append(entries, Entry{
				Headwords: headwords,
				Offset:    int64(contentStart),
				Size:      int64(contentEnd - contentStart),
			})
		}
		pos = contentEnd
	}
	return entries
}

// ExtractDisplayName returns the dictionary display name from a "#NAME"
// header line, if present.
func ExtractDisplayName(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(line, "#") || !strings.Contains(line, "#NAME") {
			continue
		}
		start := strings.Index(line, "\"")
		end := strings.LastIndex(line, "\"")
		if start >= 0 && end > start {
			return line[start+1 : end], true
		}
	}
	return "", false
}
