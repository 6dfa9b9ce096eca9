// Package langops implements LangOps: Unicode folding,
// ligature expansion, transliteration, and the stemmer/speller interface.
// Grounded on the original implementation's BaseReader.simplify and
// langs/__init__.py (see _examples/original_source), reworked around
// golang.org/x/text's NFKD normalizer in place of Python's unicodedata.
package langops

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var ligatureReplacer = strings.NewReplacer(
	"œ", "oe", "æ", "ae", "Æ", "AE", "Œ", "OE",
)

// StripDiacritics removes combining marks by NFKD-decomposing text and
// dropping any rune in Unicode category Mn.
func StripDiacritics(text string) string {
	decomposed := norm.NFKD.String(text)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// RemovePunctuationAndSpaces drops every rune whose Unicode category starts
// with P (punctuation) or Z (separator).
func RemovePunctuationAndSpaces(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.In(r, unicode.Z) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ExpandLigatures expands 'œ'/'æ' (and their uppercase forms) to their
// two-letter equivalents.
func ExpandLigatures(text string) string {
	return ligatureReplacer.Replace(text)
}

// Simplify is the canonical key transform: strip
// diacritics, drop punctuation/whitespace, expand ligatures, casefold.
// It is idempotent: Simplify(Simplify(x)) == Simplify(x).
func Simplify(text string) string {
	text = StripDiacritics(text)
	text = RemovePunctuationAndSpaces(text)
	text = ExpandLigatures(text)
	return strings.ToLower(text)
}
