package langops

import (
	"strings"
	"unicode"
)

// Beta Code mapping: α β γ δ ε ζ η θ ι κ λ μ ν ξ ο π ρ σ/ς τ υ φ χ ψ ω
// <-> a b g d e z h q i k l m n c o p r s t u f x y w (bijective except
// that both σ and ς map to Latin 's').
var greekToLatin = map[rune]rune{
	'α': 'a', 'β': 'b', 'γ': 'g', 'δ': 'd', 'ε': 'e', 'ζ': 'z', 'η': 'h',
	'θ': 'q', 'ι': 'i', 'κ': 'k', 'λ': 'l', 'μ': 'm', 'ν': 'n', 'ξ': 'c',
	'ο': 'o', 'π': 'p', 'ρ': 'r', 'σ': 's', 'ς': 's', 'τ': 't', 'υ': 'u',
	'φ': 'f', 'χ': 'x', 'ψ': 'y', 'ω': 'w',
}

var latinToGreek = map[rune]rune{
	'a': 'α', 'b': 'β', 'g': 'γ', 'd': 'δ', 'e': 'ε', 'z': 'ζ', 'h': 'η',
	'q': 'θ', 'i': 'ι', 'k': 'κ', 'l': 'λ', 'm': 'μ', 'n': 'ν', 'c': 'ξ',
	'o': 'ο', 'p': 'π', 'r': 'ρ', 's': 'σ', 't': 'τ', 'u': 'υ',
	'f': 'φ', 'x': 'χ', 'y': 'ψ', 'w': 'ω',
}

// IsGreek reports whether s contains any Greek or Latin letters — matching
// the permissive original check so a Beta Code query (pure Latin) is still
// routed through Greek transliteration.
func IsGreek(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Greek, r) || unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}

// latinToGreekString converts Beta Code Latin letters into Greek script,
// replacing a trailing sigma with the final form ς.
func latinToGreekString(s string) string {
	runes := []rune(s)
	out := make([]rune, len(runes))
	for i, r := range runes {
		if g, ok := latinToGreek[r]; ok {
			out[i] = g
		} else {
			out[i] = r
		}
	}
	// Replace word-final sigma (σ at end of string or before a space) with ς.
	result := string(out)
	words := strings.Fields(result)
	for i, w := range words {
		if strings.HasSuffix(w, "σ") {
			words[i] = strings.TrimSuffix(w, "σ") + "ς"
		}
	}
	if len(words) == 0 {
		if strings.HasSuffix(result, "σ") {
			return strings.TrimSuffix(result, "σ") + "ς"
		}
		return result
	}
	return strings.Join(words, " ")
}

func greekToLatinString(s string) string {
	runes := []rune(s)
	out := make([]rune, len(runes))
	for i, r := range runes {
		if l, ok := greekToLatin[r]; ok {
			out[i] = l
		} else {
			out[i] = r
		}
	}
	return string(out)
}

// TransliterateGreek returns both directions: Beta Code read as Greek, and
// the input transliterated into Latin.
func TransliterateGreek(s string) []string {
	return []string{latinToGreekString(s), greekToLatinString(s)}
}
