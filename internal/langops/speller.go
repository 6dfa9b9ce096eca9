package langops

import "strings"

// Speller is the thin interface to an external stemmer/speller module. It
// is intentionally narrow: the engine only ever needs stems and
// suggestions for a single language at a time. No speller implementation
// ships with the core; the zero value of SpellerRegistry degrades every
// LangOps call that depends on one to an empty result — no orthographic
// forms and no spelling suggestions.
type Speller interface {
	Stem(word string) []string
	Suggest(word string) []string
}

// SpellerRegistry maps ISO-639-1 codes to a Speller, one per configured
// language (mirroring the original's per-language HunSpell instance map).
type SpellerRegistry struct {
	spellers map[string]Speller
}

// NewSpellerRegistry builds a registry from a lang -> Speller map. A nil or
// empty map is valid and causes every lookup to report ExternalUnavailable
// behavior (empty results).
func NewSpellerRegistry(spellers map[string]Speller) *SpellerRegistry {
	return &SpellerRegistry{spellers: spellers}
}

// Available reports whether at least one of langs has a registered speller.
func (r *SpellerRegistry) Available(langs []string) bool {
	if r == nil {
		return false
	}
	for _, l := range langs {
		if _, ok := r.spellers[l]; ok {
			return true
		}
	}
	return false
}

// Stem returns the dictionary-form stems of word across every speller-
// backed language in langs.
func (r *SpellerRegistry) Stem(word string, langs []string) []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, l := range langs {
		sp, ok := r.spellers[l]
		if !ok {
			continue
		}
		out = append(out, sp.Stem(word)...)
	}
	return out
}

// SpellingSuggestions returns candidate corrections for word, further
// stemmed (the original re-stems each raw suggestion because a suggestion
// may only restore diacritics, e.g. "deplacons" -> "déplaçons" -> stem).
func (r *SpellerRegistry) SpellingSuggestions(word string, langs []string) []string {
	if r == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, l := range langs {
		sp, ok := r.spellers[l]
		if !ok {
			continue
		}
		for _, suggestion := range sp.Suggest(word) {
			for _, stem := range sp.Stem(suggestion) {
				if seen[stem] {
					continue
				}
				seen[stem] = true
				out = append(out, stem)
			}
		}
	}
	return out
}

// OrthographicForms returns accent-restored candidates whose simplification
// equals keySimplified and which contain no separator characters.
func (r *SpellerRegistry) OrthographicForms(keySimplified string, langs []string) []string {
	if r == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, l := range langs {
		sp, ok := r.spellers[l]
		if !ok {
			continue
		}
		for _, suggestion := range sp.Suggest(keySimplified) {
			if strings.ContainsAny(suggestion, " \t") {
				continue
			}
			if Simplify(suggestion) != keySimplified {
				continue
			}
			if seen[suggestion] {
				continue
			}
			seen[suggestion] = true
			out = append(out, suggestion)
		}
	}
	return out
}
