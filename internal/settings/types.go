// Package settings implements the persistent catalog of dictionaries,
// groups, and their junction relation, plus query history and
// miscellaneous preferences, following the YAML-file-per-concern layout
// and merge/validate idiom of the teacher's internal/config package.
package settings

import (
	"strconv"
	"strings"
)

// Format identifies a source dictionary's on-disk layout.
type Format string

const (
	FormatMDX      Format = "MDX"
	FormatStarDict Format = "StarDict"
	FormatDSL      Format = "DSL"
)

// Dictionary is one catalog entry.
type Dictionary struct {
	ID          string `yaml:"id" json:"id"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	Format      Format `yaml:"format" json:"format"`
	SourcePath  string `yaml:"source_path" json:"source_path"`
	FileMtime   int64  `yaml:"file_mtime" json:"file_mtime"`
}

// Group is a named, ordered selection of dictionaries with language tags.
// Dictionaries are referenced by ID; the display order of a group's
// members is the catalog order of its dictionaries, not insertion order
// into the junction.
type Group struct {
	Name  string   `yaml:"name" json:"name"`
	Langs []string `yaml:"langs" json:"langs"`
}

// HasLang reports whether l is one of the group's language tags.
func (g Group) HasLang(l string) bool {
	for _, x := range g.Langs {
		if x == l {
			return true
		}
	}
	return false
}

// dictionaryIDPrefix guarantees every generated ID is a non-empty, valid
// CSS identifier fragment regardless of the display name's content.
const dictionaryIDPrefix = "dict-"

// GenerateDictionaryID derives a CSS-selector-safe, catalog-unique id from
// displayName.
func GenerateDictionaryID(displayName string, existing map[string]bool) string {
	var b strings.Builder
	for _, r := range strings.ToLower(displayName) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	base := dictionaryIDPrefix + strings.Trim(b.String(), "-")
	if base == dictionaryIDPrefix {
		base = dictionaryIDPrefix + "unnamed"
	}
	id := base
	for n := 2; existing[id]; n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	return id
}
