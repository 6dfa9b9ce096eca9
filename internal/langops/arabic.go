package langops

// Buckwalter transliteration table (ASCII -> Arabic script), per
// https://en.wikipedia.org/wiki/Buckwalter_transliteration.
var buckwalterToArabic = map[rune]rune{
	'\'': 'ء', '|': 'آ', '>': 'أ', '&': 'ؤ', '<': 'إ',
	'}': 'ئ', 'A': 'ا', 'b': 'ب', 'p': 'ة', 't': 'ت',
	'v': 'ث', 'j': 'ج', 'H': 'ح', 'x': 'خ', 'd': 'د',
	'*': 'ذ', 'r': 'ر', 'z': 'ز', 's': 'س', '$': 'ش',
	'S': 'ص', 'D': 'ض', 'T': 'ط', 'Z': 'ظ', 'E': 'ع',
	'g': 'غ', '_': 'ـ', 'f': 'ف', 'q': 'ق', 'k': 'ك',
	'l': 'ل', 'm': 'م', 'n': 'ن', 'h': 'ه', 'w': 'و',
	'Y': 'ى', 'y': 'ي', 'F': 'ً', 'N': 'ٌ', 'K': 'ٍ',
	'a': 'َ', 'u': 'ُ', 'i': 'ِ', '~': 'ّ', 'o': 'ْ',
	'`': 'ٰ', '{': 'ٱ',
}

// IsArabicTransliterated reports whether every rune of s is a Buckwalter
// ASCII code point.
func IsArabicTransliterated(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if _, ok := buckwalterToArabic[r]; !ok {
			return false
		}
	}
	return true
}

// TransliterateArabic converts Buckwalter ASCII into Arabic script. It is
// one-directional (the original implementation never reconstructs
// Buckwalter from Arabic), so the list carries a single element.
func TransliterateArabic(s string) []string {
	runes := []rune(s)
	out := make([]rune, len(runes))
	for i, r := range runes {
		if a, ok := buckwalterToArabic[r]; ok {
			out[i] = a
		} else {
			out[i] = r
		}
	}
	return []string{string(out)}
}
