package langops

// IsLang holds the per-language query-membership predicates keyed by
// ISO-639-1 code, used to decide whether a query string looks enough like
// that language to be worth transliterating.
var IsLang = map[string]func(string) bool{
	"el": IsGreek,
	"ar": IsArabicTransliterated,
	"zh": IsChinese,
}

// TransliterateFuncs holds the per-language transliteration functions keyed
// by ISO-639-1 code.
var TransliterateFuncs = map[string]func(string) []string{
	"el": TransliterateGreek,
	"ar": TransliterateArabic,
	"zh": TransliterateChinese,
}

// Transliterate dedupes the union of transliterate[l](text) over every lang
// in langs whose IsLang predicate accepts text, mirroring the original's
// _transliterate_key gate: transliteration only runs for a language whose
// script/encoding the query string actually looks like.
func Transliterate(text string, langs []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, lang := range langs {
		fn, ok := TransliterateFuncs[lang]
		if !ok {
			continue
		}
		if is, ok := IsLang[lang]; ok && !is(text) {
			continue
		}
		for _, v := range fn(text) {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
