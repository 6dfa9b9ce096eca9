package mdx

import (
	"encoding/binary"
	"io"
	"strings"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
)

// KeyEntry is one (uncompressed_offset, headword) pair from the key
// section.
type KeyEntry struct {
	Offset uint64
	Text   string
}

type keyBlockMeta struct {
	compressedSize   uint64
	decompressedSize uint64
}

// parseKeyBlocks reads the key-block section starting at h.KeyBlockOffset
// and returns the flattened, in-order list of every key across every key
// block: each key is an (uncompressed_offset, headword_bytes) pair.
func parseKeyBlocks(r io.ReadSeeker, h Header) ([]KeyEntry, int64, error) {
	wide := h.NumberWidth() == 8
	if _, err := r.Seek(h.KeyBlockOffset, io.SeekStart); err != nil {
		return nil, 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "seek key block section", err)
	}

	numKeyBlocks, err := readNumber(r, wide)
	if err != nil {
		return nil, 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "read num_key_blocks", err)
	}
	if _, err := readNumber(r, wide); err != nil { // num_entries (unused directly; re-derived below)
		return nil, 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "read num_entries", err)
	}
	if h.Version >= 2.0 {
		if _, err := readNumber(r, wide); err != nil { // key_block_info_decompressed_size
			return nil, 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "read key_block_info_decomp_size", err)
		}
	}
	keyBlockInfoSize, err := readNumber(r, wide)
	if err != nil {
		return nil, 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "read key_block_info_size", err)
	}
	if _, err := readNumber(r, wide); err != nil { // key_block_size (total compressed key block bytes)
		return nil, 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "read key_block_size", err)
	}
	if h.Version >= 2.0 {
		if _, err := io.CopyN(io.Discard, r, 4); err != nil { // adler32 of the above fields
			return nil, 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "read key section checksum", err)
		}
	}

	infoRaw := make([]byte, keyBlockInfoSize)
	if _, err := io.ReadFull(r, infoRaw); err != nil {
		return nil, 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "read key_block_info", err)
	}
	var infoDecoded []byte
	if h.Version >= 2.0 {
		infoDecoded, err = decodeBlock(infoRaw)
		if err != nil {
			return nil, 0, err
		}
	} else {
		infoDecoded = infoRaw
	}

	metas, err := decodeKeyBlockInfo(infoDecoded, int(numKeyBlocks), wide, h.Encoding)
	if err != nil {
		return nil, 0, err
	}

	var entries []KeyEntry
	for _, m := range metas {
		raw := make([]byte, m.compressedSize)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "read key block", err)
		}
		decoded, err := decodeBlock(raw)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, splitKeyBlock(decoded, wide, h.Encoding)...)
	}
	end, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "tell end of key block section", err)
	}
	return entries, end, nil
}

// decodeKeyBlockInfo parses the (num_entries, text_head, text_tail,
// compressed_size, decompressed_size) tuples describing each key block.
// The text_head/text_tail fields are a binary-search optimization the
// core does not need (ingestion streams every key regardless), so they
// are only used to compute how many bytes to skip.
func decodeKeyBlockInfo(info []byte, numBlocks int, wide bool, encoding string) ([]keyBlockMeta, error) {
	numberWidth := 4
	if wide {
		numberWidth = 8
	}
	byteWidth := 1
	textTerm := 0
	if wide {
		byteWidth = 2
		textTerm = 1
	}
	isUTF16 := encoding == "UTF-16"

	var metas []keyBlockMeta
	i := 0
	for len(metas) < numBlocks {
		if i+numberWidth > len(info) {
			return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "key_block_info truncated", nil)
		}
		i += numberWidth // num_entries in this block (unused; recomputed by splitKeyBlock)

		headSize, err := readFixedWidthUint(info, i, byteWidth)
		if err != nil {
			return nil, err
		}
		i += byteWidth
		if isUTF16 {
			i += (headSize + textTerm) * 2
		} else {
			i += headSize + textTerm
		}

		tailSize, err := readFixedWidthUint(info, i, byteWidth)
		if err != nil {
			return nil, err
		}
		i += byteWidth
		if isUTF16 {
			i += (tailSize + textTerm) * 2
		} else {
			i += tailSize + textTerm
		}

		if i+2*numberWidth > len(info) {
			return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "key_block_info truncated (sizes)", nil)
		}
		compSize := numberFrom(info[i:i+numberWidth], wide)
		i += numberWidth
		decompSize := numberFrom(info[i:i+numberWidth], wide)
		i += numberWidth

		metas = append(metas, keyBlockMeta{compressedSize: compSize, decompressedSize: decompSize})
	}
	return metas, nil
}

func readFixedWidthUint(buf []byte, offset, width int) (int, error) {
	if offset+width > len(buf) {
		return 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "key_block_info field out of range", nil)
	}
	if width == 1 {
		return int(buf[offset]), nil
	}
	return int(binary.BigEndian.Uint16(buf[offset : offset+2])), nil
}

// splitKeyBlock parses one decompressed key block into its (offset, text)
// entries: each entry is a number (key id / uncompressed offset) followed
// by a NUL(-NUL for UTF-16)-terminated headword string.
func splitKeyBlock(block []byte, wide bool, encoding string) []KeyEntry {
	numberWidth := 4
	if wide {
		numberWidth = 8
	}
	delimWidth := 1
	if encoding == "UTF-16" {
		delimWidth = 2
	}

	var entries []KeyEntry
	i := 0
	for i+numberWidth <= len(block) {
		offset := numberFrom(block[i:i+numberWidth], wide)
		i += numberWidth

		start := i
		end := len(block)
		for j := i; j+delimWidth <= len(block); j += delimWidth {
			isNull := true
			for k := 0; k < delimWidth; k++ {
				if block[j+k] != 0 {
					isNull = false
					break
				}
			}
			if isNull {
				end = j
				break
			}
		}
		text := decodeKeyText(block[start:end], encoding)
		i = end + delimWidth
		entries = append(entries, KeyEntry{Offset: offset, Text: strings.TrimSpace(text)})
	}
	return entries
}

func decodeKeyText(b []byte, encoding string) string {
	if encoding == "UTF-16" {
		return decodeUTF16LE(bytesTrimNull(b))
	}
	return string(b)
}
