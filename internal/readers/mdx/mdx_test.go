package mdx

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBlockRaw(t *testing.T) {
	payload := []byte("hello world")
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(blockTypeRaw))
	binary.Write(&buf, binary.BigEndian, uint32(0))
	buf.Write(payload)

	out, err := decodeBlock(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestDecodeBlockZlib(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog")
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	zw.Write(payload)
	zw.Close()

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(blockTypeZlib))
	binary.Write(&buf, binary.BigEndian, uint32(0))
	buf.Write(compressed.Bytes())

	out, err := decodeBlock(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestDecodeBlockLZOUnsupported(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(blockTypeLZO))
	binary.Write(&buf, binary.BigEndian, uint32(0))
	buf.Write([]byte("whatever"))

	_, err := decodeBlock(buf.Bytes())
	assert.ErrorIs(t, err, ErrLZOUnsupported)
}

func TestSplitKeyBlockUTF8(t *testing.T) {
	var buf bytes.Buffer
	writeEntry := func(offset uint64, text string) {
		binary.Write(&buf, binary.BigEndian, offset)
		buf.WriteString(text)
		buf.WriteByte(0)
	}
	writeEntry(0, "Apple")
	writeEntry(120, "apple")

	entries := splitKeyBlock(buf.Bytes(), true, "UTF-8")
	require.Len(t, entries, 2)
	assert.Equal(t, KeyEntry{Offset: 0, Text: "Apple"}, entries[0])
	assert.Equal(t, KeyEntry{Offset: 120, Text: "apple"}, entries[1])
}

func TestDecodeKeyBlockInfoRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	writeBlockInfo := func(numEntries, compSize, decompSize uint64, head, tail string) {
		binary.Write(&buf, binary.BigEndian, numEntries)
		binary.Write(&buf, binary.BigEndian, uint16(len(head)))
		buf.WriteString(head)
		buf.WriteByte(0)
		binary.Write(&buf, binary.BigEndian, uint16(len(tail)))
		buf.WriteString(tail)
		buf.WriteByte(0)
		binary.Write(&buf, binary.BigEndian, compSize)
		binary.Write(&buf, binary.BigEndian, decompSize)
	}
	writeBlockInfo(2, 100, 200, "Apple", "apple")
	writeBlockInfo(1, 50, 90, "pple", "pple")

	metas, err := decodeKeyBlockInfo(buf.Bytes(), 2, true, "UTF-8")
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, keyBlockMeta{compressedSize: 100, decompressedSize: 200}, metas[0])
	assert.Equal(t, keyBlockMeta{compressedSize: 50, decompressedSize: 90}, metas[1])
}

func TestRecordIndexDecode(t *testing.T) {
	payload := []byte("0123456789ABCDEF")
	var compressed bytes.Buffer
	binary.Write(&compressed, binary.LittleEndian, uint32(blockTypeRaw))
	binary.Write(&compressed, binary.BigEndian, uint32(0))
	compressed.Write(payload)

	idx := RecordIndex{Entries: []recordBlockEntry{{
		UncompressedStart: 0,
		UncompressedSize:  int64(len(payload)),
		FileOffset:        0,
		CompressedSize:    int64(compressed.Len()),
	}}}

	out, err := idx.Decode(bytes.NewReader(compressed.Bytes()), 3, 4)
	require.NoError(t, err)
	assert.Equal(t, "3456", string(out))

	// size == -1 reads to the end of the owning block.
	out, err = idx.Decode(bytes.NewReader(compressed.Bytes()), 10, -1)
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF", string(out))
}
