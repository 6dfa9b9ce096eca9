package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func TestNormalizeUTF16LE(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	raw, err := enc.Bytes([]byte("#NAME \"Test\"\napple\n def: a fruit\n"))
	require.NoError(t, err)

	text, err := Normalize(raw)
	require.NoError(t, err)
	assert.Contains(t, text, "apple")
	assert.Contains(t, text, "def: a fruit")
}

func TestCleanupTextRemovesMarkersAndControlChars(t *testing.T) {
	text := cleanupText("﻿hello{·}world\x01!")
	assert.Equal(t, "helloworld!", text)
}

func TestCleanupOpeningWhitespaceCollapsesIndent(t *testing.T) {
	out := cleanupOpeningWhitespace("word\n\t\tdefinition line\n\nmore")
	assert.Equal(t, "word\n definition line\n\nmore", out)
}

func TestParseEntriesSingleHeadword(t *testing.T) {
	text := "apple\n def: a fruit\n banana\npear\n def: another fruit\n"
	entries := ParseEntries(text)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"apple"}, entries[0].Headwords)
	assert.Equal(t, []string{"pear"}, entries[1].Headwords)
}

func TestParseEntriesAndJoinedHeadwords(t *testing.T) {
	text := "cat and dog\n def: household pets\n"
	entries := ParseEntries(text)
	require.Len(t, entries, 1)
	assert.ElementsMatch(t, []string{"cat and dog", "cat", "dog"}, entries[0].Headwords)
}

func TestParseEntriesMultiLineHeadwordGroup(t *testing.T) {
	text := "alpha\nbeta\n def: first two letters\ngamma\n def: third letter\n"
	entries := ParseEntries(text)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"alpha", "beta"}, entries[0].Headwords)
	assert.Equal(t, []string{"gamma"}, entries[1].Headwords)
}

func TestParseEntriesComputesOffsetAndSizeOfContentOnly(t *testing.T) {
	text := "apple\n def one\n def two\nbanana\n def three\n"
	entries := ParseEntries(text)
	require.Len(t, entries, 2)
	assert.Equal(t, " def one\n def two\n", text[entries[0].Offset:entries[0].Offset+entries[0].Size])
	assert.Equal(t, " def three\n", text[entries[1].Offset:entries[1].Offset+entries[1].Size])
}

func TestExtractDisplayName(t *testing.T) {
	name, ok := ExtractDisplayName("#NAME \"My Dictionary\"\n#INDEX_LANGUAGE \"English\"\napple\n")
	require.True(t, ok)
	assert.Equal(t, "My Dictionary", name)
}

func TestExtractDisplayNameAbsent(t *testing.T) {
	_, ok := ExtractDisplayName("apple\n def: a fruit\n")
	assert.False(t, ok)
}
