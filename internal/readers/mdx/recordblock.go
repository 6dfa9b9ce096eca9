package mdx

import (
	"io"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
)

// recordBlockEntry describes one compressed record block: the cumulative
// uncompressed offset range it covers, and where its compressed bytes
// start in the source file.
type recordBlockEntry struct {
	UncompressedStart int64
	UncompressedSize  int64
	FileOffset        int64
	CompressedSize    int64
}

// RecordIndex is the snapshot needed to decode any (offset, size) range
// without re-parsing the record-block-info section.
type RecordIndex struct {
	Version int // 1 for v1/v2 layout, 3 for v3 layout
	Entries []recordBlockEntry
}

// buildRecordIndex parses the record-block section that immediately
// follows the key-block section, dispatching on the header version field.
func buildRecordIndex(r io.ReadSeeker, h Header, keyBlockSectionEnd int64) (RecordIndex, error) {
	if h.Version >= 3.0 {
		return buildRecordIndexV3(r, keyBlockSectionEnd)
	}
	return buildRecordIndexV1V2(r, h, keyBlockSectionEnd)
}

func buildRecordIndexV1V2(r io.ReadSeeker, h Header, at int64) (RecordIndex, error) {
	wide := h.NumberWidth() == 8
	if _, err := r.Seek(at, io.SeekStart); err != nil {
		return RecordIndex{}, engineerrs.New(engineerrs.ErrCodeCorruptStream, "seek record block section", err)
	}
	numRecordBlocks, err := readNumber(r, wide)
	if err != nil {
		return RecordIndex{}, engineerrs.New(engineerrs.ErrCodeCorruptStream, "read num_record_blocks", err)
	}
	if _, err := readNumber(r, wide); err != nil { // num_entries
		return RecordIndex{}, engineerrs.New(engineerrs.ErrCodeCorruptStream, "read record num_entries", err)
	}
	if _, err := readNumber(r, wide); err != nil { // record_block_info_size
		return RecordIndex{}, engineerrs.New(engineerrs.ErrCodeCorruptStream, "read record_block_info_size", err)
	}
	if _, err := readNumber(r, wide); err != nil { // record_block_size (total)
		return RecordIndex{}, engineerrs.New(engineerrs.ErrCodeCorruptStream, "read record_block_size", err)
	}

	var entries []recordBlockEntry
	var decompOffset, fileOffset int64
	fileOffset, err = r.Seek(0, io.SeekCurrent)
	if err != nil {
		return RecordIndex{}, engineerrs.New(engineerrs.ErrCodeCorruptStream, "tell record info offset", err)
	}
	// Record-block-info entries are raw (compressed_size, decompressed_size)
	// number pairs with no text fields, unlike key-block-info.
	fileOffset += int64(numRecordBlocks) * int64(2*h.NumberWidth())

	for i := uint64(0); i < numRecordBlocks; i++ {
		compSize, err := readNumber(r, wide)
		if err != nil {
			return RecordIndex{}, engineerrs.New(engineerrs.ErrCodeCorruptStream, "read record block comp size", err)
		}
		decompSize, err := readNumber(r, wide)
		if err != nil {
			return RecordIndex{}, engineerrs.New(engineerrs.ErrCodeCorruptStream, "read record block decomp size", err)
		}
		entries = append(entries, recordBlockEntry{
			UncompressedStart: decompOffset,
			UncompressedSize:  int64(decompSize),
			FileOffset:        fileOffset,
			CompressedSize:    int64(compSize),
		})
		decompOffset += int64(decompSize)
		fileOffset += int64(compSize)
	}
	return RecordIndex{Version: 1, Entries: entries}, nil
}

func buildRecordIndexV3(r io.ReadSeeker, at int64) (RecordIndex, error) {
	if _, err := r.Seek(at, io.SeekStart); err != nil {
		return RecordIndex{}, engineerrs.New(engineerrs.ErrCodeCorruptStream, "seek record block section", err)
	}
	numRecordBlocks, err := mustReadUint32BE(r)
	if err != nil {
		return RecordIndex{}, err
	}

	var entries []recordBlockEntry
	var decompOffset int64
	for i := uint32(0); i < numRecordBlocks; i++ {
		decompSize, err := mustReadUint32BE(r)
		if err != nil {
			return RecordIndex{}, err
		}
		compSize, err := mustReadUint32BE(r)
		if err != nil {
			return RecordIndex{}, err
		}
		fileOffset, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return RecordIndex{}, engineerrs.New(engineerrs.ErrCodeCorruptStream, "tell v3 record offset", err)
		}
		entries = append(entries, recordBlockEntry{
			UncompressedStart: decompOffset,
			UncompressedSize:  int64(decompSize),
			FileOffset:        fileOffset,
			CompressedSize:    int64(compSize),
		})
		decompOffset += int64(decompSize)
		if _, err := r.Seek(int64(compSize), io.SeekCurrent); err != nil {
			return RecordIndex{}, engineerrs.New(engineerrs.ErrCodeCorruptStream, "skip v3 record block", err)
		}
	}
	return RecordIndex{Version: 3, Entries: entries}, nil
}

// Decode returns the raw (pre-markup) bytes at [offset, offset+size) in
// the record section's uncompressed stream. size < 0 means "read to the
// end of the owning record block".
func (idx RecordIndex) Decode(r io.ReaderAt, offset, size int64) ([]byte, error) {
	for _, e := range idx.Entries {
		if offset < e.UncompressedStart || offset >= e.UncompressedStart+e.UncompressedSize {
			continue
		}
		raw := make([]byte, e.CompressedSize)
		if _, err := r.ReadAt(raw, e.FileOffset); err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "read record block", err)
		}
		var decoded []byte
		var err error
		if idx.Version == 3 {
			decoded, err = decodeBlockV3(raw, e.UncompressedSize)
		} else {
			decoded, err = decodeBlock(raw)
		}
		if err != nil {
			return nil, err
		}
		start := offset - e.UncompressedStart
		end := int64(len(decoded))
		if size >= 0 && start+size < end {
			end = start + size
		}
		if start > int64(len(decoded)) || end > int64(len(decoded)) || start > end {
			return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "record slice out of range", nil)
		}
		return decoded[start:end], nil
	}
	return nil, engineerrs.New(engineerrs.ErrCodeDecodeError, "offset not covered by any record block", nil)
}

// decodeBlockV3 is identical to decodeBlock but the v3 container omits the
// per-block adler32/type framing found in v1/v2 payloads in some
// encoders; MDX v3 files observed in the wild still carry the 8-byte
// (type, adler32) header, so the same decoder applies.
func decodeBlockV3(raw []byte, _ int64) ([]byte, error) {
	return decodeBlock(raw)
}
