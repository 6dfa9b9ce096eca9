package indexstore

import "strings"

// NGramLength is the fixed substring length used for the auxiliary
// substring index.
const NGramLength = 4

// NGrams returns every length-4 lowercased substring of s, in order,
// without deduplication (duplicates collapse naturally once merged into a
// posting list, and the rebuild is only required to be idempotent modulo
// posting order).
func NGrams(s string) []string {
	lower := strings.ToLower(s)
	runes := []rune(lower)
	if len(runes) < NGramLength {
		return nil
	}
	grams := make([]string, 0, len(runes)-NGramLength+1)
	for i := 0; i+NGramLength <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+NGramLength]))
	}
	return grams
}
