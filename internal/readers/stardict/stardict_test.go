package stardict

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.ifo")
	content := "StarDict's dict ifo file\nversion=2.4.2\nwordcount=2\nsametypesequence=m\nbookname=Test Dict\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ifo, err := ParseIfo(path)
	require.NoError(t, err)
	assert.Equal(t, "2.4.2", ifo.Version)
	assert.Equal(t, 2, ifo.WordCount)
	assert.Equal(t, "m", ifo.SameTypeSequence)
	assert.Equal(t, 32, ifo.IdxOffsetBits)
	assert.Equal(t, "Test Dict", ifo.BookName)
}

func TestParseIfoRejectsUnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.ifo")
	require.NoError(t, os.WriteFile(path, []byte("version=9.9.9\n"), 0o644))

	_, err := ParseIfo(path)
	require.Error(t, err)
}

func writeIdxEntry(buf *bytes.Buffer, word string, offset uint32, size uint32) {
	buf.WriteString(word)
	buf.WriteByte(0)
	binary.Write(buf, binary.BigEndian, offset)
	binary.Write(buf, binary.BigEndian, size)
}

func TestParseIdx32Bit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.idx")
	var buf bytes.Buffer
	writeIdxEntry(&buf, "apple", 0, 20)
	writeIdxEntry(&buf, "banana", 20, 30)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	entries, err := ParseIdx(path, 32)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, IdxEntry{Word: "apple", Offset: 0, Size: 20}, entries[0])
	assert.Equal(t, IdxEntry{Word: "banana", Offset: 20, Size: 30}, entries[1])
}

func TestParseSyn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.syn")
	var buf bytes.Buffer
	buf.WriteString("appl")
	buf.WriteByte(0)
	binary.Write(&buf, binary.BigEndian, uint32(0))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	entries, err := ParseSyn(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, SynEntry{Word: "appl", Index: 0}, entries[0])
}

func TestParseSynMissingFileIsNotAnError(t *testing.T) {
	entries, err := ParseSyn(filepath.Join(t.TempDir(), "missing.syn"))
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestBuildSynonymMapGroupsByHeadword(t *testing.T) {
	idx := []IdxEntry{
		{Word: "apple", Offset: 0, Size: 10},
		{Word: "banana", Offset: 10, Size: 10},
	}
	syn := []SynEntry{
		{Word: "appl", Index: 0},
		{Word: "macintosh", Index: 0},
		{Word: "nanner", Index: 1},
	}

	m := buildSynonymMap(idx, syn)
	assert.Equal(t, []string{"appl", "macintosh"}, m["apple"])
	assert.Equal(t, []string{"nanner"}, m["banana"])
}

func TestBuildSynonymMapSkipsOutOfRangeIndex(t *testing.T) {
	idx := []IdxEntry{{Word: "apple", Offset: 0, Size: 10}}
	syn := []SynEntry{{Word: "appl", Index: 5}}

	m := buildSynonymMap(idx, syn)
	assert.Empty(t, m)
}

type stubMarkup struct{}

func (stubMarkup) Convert(dictionaryID, headword string, raw []byte) (string, error) {
	return string(raw), nil
}

func TestSynonymMarkupAppendsLinksOnlyForHeadwordsWithSynonyms(t *testing.T) {
	markup := &synonymMarkup{
		inner:    stubMarkup{},
		synonyms: map[string][]string{"apple": {"appl", "macintosh"}},
	}

	withSyn, err := markup.Convert("dict-a", "apple", []byte("a fruit"))
	require.NoError(t, err)
	assert.Contains(t, withSyn, "a fruit")
	assert.Contains(t, withSyn, `<div>Syn: `)
	assert.Contains(t, withSyn, `<a href="/api/lookup/dict-a/appl">appl</a>`)
	assert.Contains(t, withSyn, `<a href="/api/lookup/dict-a/macintosh">macintosh</a>`)

	withoutSyn, err := markup.Convert("dict-a", "banana", []byte("another fruit"))
	require.NoError(t, err)
	assert.Equal(t, "another fruit", withoutSyn)
}

func TestParseRecordsSameTypeSequenceSingleText(t *testing.T) {
	raw := []byte("An article body.")
	records, err := ParseRecords(raw, "m")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, byte('m'), records[0].CType)
	assert.Equal(t, raw, records[0].Data)
}

func TestParseRecordsSameTypeSequenceMultiText(t *testing.T) {
	var raw bytes.Buffer
	raw.WriteString("short gloss")
	raw.WriteByte(0)
	raw.WriteString("longer explanation")
	records, err := ParseRecords(raw.Bytes(), "tm")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Record{CType: 't', Data: []byte("short gloss")}, records[0])
	assert.Equal(t, Record{CType: 'm', Data: []byte("longer explanation")}, records[1])
}

func TestParseRecordsMixedTypeSequence(t *testing.T) {
	var raw bytes.Buffer
	raw.WriteByte('m')
	raw.WriteString("plain text")
	raw.WriteByte(0)
	raw.WriteByte('h')
	raw.WriteString("<b>html</b>")

	records, err := ParseRecords(raw.Bytes(), "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Record{CType: 'm', Data: []byte("plain text")}, records[0])
	assert.Equal(t, Record{CType: 'h', Data: []byte("<b>html</b>")}, records[1])
}

func TestEncodeDecodeRecordsRoundTrip(t *testing.T) {
	records := []Record{
		{CType: 'm', Data: []byte("hello")},
		{CType: 'h', Data: []byte("<p>world</p>")},
	}
	out, err := DecodeRecords(EncodeRecords(records))
	require.NoError(t, err)
	assert.Equal(t, records, out)
}
