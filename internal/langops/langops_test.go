package langops

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplifyIdempotent(t *testing.T) {
	cases := []string{
		"Café", "RÉSUMÉ", "œuvre", "Æsop", "  spaced  out  ",
		"naïve-garçon", "日本語", "", "Straße",
	}
	for _, c := range cases {
		once := Simplify(c)
		twice := Simplify(once)
		assert.Equal(t, once, twice, "Simplify not idempotent for %q", c)
	}
}

func TestSimplifyDropsDiacriticsAndPunctuation(t *testing.T) {
	assert.Equal(t, "cafe", Simplify("Café"))
	assert.Equal(t, "resume", Simplify("Résumé"))
	assert.Equal(t, "oeuvre", Simplify("œuvre"))
	assert.Equal(t, "garconnaif", Simplify("garçon, naïf!"))
}

func TestGreekTransliterationRoundTrip(t *testing.T) {
	variants := TransliterateGreek("anthropos")
	require.Len(t, variants, 2)
	// Word-final sigma must render as final-form ς, not medial σ.
	assert.True(t, len(variants[0]) > 0)
	assert.Equal(t, 'ς', []rune(variants[0])[len([]rune(variants[0]))-1])
	assert.Equal(t, "anthropos", variants[1])

	// Greek input passed back through Latin transliteration recovers the
	// original letters (both sigma forms fold to 's').
	assert.Equal(t, "anthropos", greekToLatinString(variants[0]))
}

func TestIsGreekPermissive(t *testing.T) {
	assert.True(t, IsGreek("ανθρωπος"))
	assert.True(t, IsGreek("anthropos"))
	assert.False(t, IsGreek("日本語"))
}

func TestArabicTransliteration(t *testing.T) {
	assert.True(t, IsArabicTransliterated("Abd"))
	assert.False(t, IsArabicTransliterated(""))
	assert.False(t, IsArabicTransliterated("Abd!"))

	out := TransliterateArabic("Abd")
	require.Len(t, out, 1)
	assert.Equal(t, "ابد", out[0])
}

func TestChineseIdentityFallback(t *testing.T) {
	assert.True(t, IsChinese("汉字"))
	assert.False(t, IsChinese("hanzi"))

	out := TransliterateChinese("汉字")
	require.Len(t, out, 2)
	assert.Equal(t, "汉字", out[0])
	assert.Equal(t, "汉字", out[1])
}

type fakeConverter struct{}

func (fakeConverter) ToTraditional(s string) string { return s + "#trad" }
func (fakeConverter) ToSimplified(s string) string  { return s + "#simp" }

func TestSetChineseConverter(t *testing.T) {
	defer SetChineseConverter(nil)
	SetChineseConverter(fakeConverter{})
	out := TransliterateChinese("汉字")
	assert.Equal(t, []string{"汉字#trad", "汉字#simp"}, out)

	SetChineseConverter(nil)
	out = TransliterateChinese("汉字")
	assert.Equal(t, []string{"汉字", "汉字"}, out)
}

func TestTransliterateDedupesAcrossLangs(t *testing.T) {
	out := Transliterate("abs", []string{"el", "el", "unknown-lang"})
	require.Len(t, out, 2)
}

type fakeSpeller struct {
	stems   map[string][]string
	suggest map[string][]string
}

func (f fakeSpeller) Stem(word string) []string    { return f.stems[word] }
func (f fakeSpeller) Suggest(word string) []string { return f.suggest[word] }

func TestSpellerRegistryNilIsSafe(t *testing.T) {
	var r *SpellerRegistry
	assert.False(t, r.Available([]string{"en"}))
	assert.Nil(t, r.Stem("cats", []string{"en"}))
	assert.Nil(t, r.SpellingSuggestions("cats", []string{"en"}))
	assert.Nil(t, r.OrthographicForms("cats", []string{"en"}))
}

func TestSpellerRegistryEmptyMapDegrades(t *testing.T) {
	r := NewSpellerRegistry(nil)
	assert.False(t, r.Available([]string{"en"}))
	assert.Empty(t, r.Stem("cats", []string{"en"}))
}

func TestSpellerRegistryStemAndSuggestions(t *testing.T) {
	sp := fakeSpeller{
		stems: map[string][]string{
			"cats":     {"cat"},
			"deplacon": {"deplacon"},
			"deplacons": {"deplacer"},
		},
		suggest: map[string][]string{
			"cat": {"deplacons"},
		},
	}
	r := NewSpellerRegistry(map[string]Speller{"en": sp})

	assert.True(t, r.Available([]string{"fr", "en"}))
	assert.Equal(t, []string{"cat"}, r.Stem("cats", []string{"en"}))

	suggestions := r.SpellingSuggestions("cat", []string{"en"})
	assert.Equal(t, []string{"deplacer"}, suggestions)
}

func TestSpellerRegistryOrthographicForms(t *testing.T) {
	sp := fakeSpeller{
		suggest: map[string][]string{
			"avo": {"avó", "avô", "avo tree", "xyz"},
		},
	}
	r := NewSpellerRegistry(map[string]Speller{"pt": sp})

	forms := r.OrthographicForms("avo", []string{"pt"})
	sort.Strings(forms)
	assert.Equal(t, []string{"avó", "avô"}, forms)
}
