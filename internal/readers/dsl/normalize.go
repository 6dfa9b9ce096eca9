package dsl

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
)

// nonPrintingChars matches the DSL control characters that editors leave
// behind: C0 controls other than tab/CR/LF, plus the C1 range.
var nonPrintingChars = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f-\x9f]")

// decodeSource converts a raw .dsl file's bytes to a UTF-8 string,
// detecting UTF-16LE/BE by BOM and falling back to UTF-8 (with or
// without its own BOM) otherwise.
func decodeSource(raw []byte) (string, error) {
	switch {
	case bytes.HasPrefix(raw, []byte{0xff, 0xfe}):
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(raw)
		if err != nil {
			return "", engineerrs.New(engineerrs.ErrCodeCorruptStream, "decode utf-16le dsl source", err)
		}
		return string(out), nil
	case bytes.HasPrefix(raw, []byte{0xfe, 0xff}):
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(raw)
		if err != nil {
			return "", engineerrs.New(engineerrs.ErrCodeCorruptStream, "decode utf-16be dsl source", err)
		}
		return string(out), nil
	default:
		return strings.TrimPrefix(string(raw), "﻿"), nil
	}
}

// cleanupText removes the BOM (if decodeSource left one), the mid-string
// "middle dot in braces" marker some DSLs use as a stray separator, and
// all non-printing control characters.
func cleanupText(text string) string {
	text = strings.Replace(text, "﻿", "", 1)
	text = strings.ReplaceAll(text, "{·}", "")
	text = nonPrintingChars.ReplaceAllString(text, "")
	return text
}

// cleanupOpeningWhitespace collapses a line's leading whitespace run to a
// single leading space, preserving the tab/space distinction DSL relies on
// to mark continuation lines without letting deeply nested indentation
// balloon article HTML.
func cleanupOpeningWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			lines[i] = " " + strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}

// Normalize applies the full source-cleanup pipeline to a freshly decoded
// .dsl file's contents.
func Normalize(raw []byte) (string, error) {
	text, err := decodeSource(raw)
	if err != nil {
		return "", err
	}
	text = cleanupText(text)
	text = cleanupOpeningWhitespace(text)
	return text, nil
}
