// Package blockcodec implements BlockCodec, the random-access reader/writer
// for idzip/dictzip-style framed DEFLATE streams. A file is
// one or more concatenated gzip members; each member's EXTRA field carries
// a "Random Access" (RA) subfield enumerating the compressed size of every
// fixed-size uncompressed chunk in that member, so readers can seek
// directly to the chunk containing a given uncompressed offset instead of
// inflating the whole stream.
//
// Grounded on the gzip/dictzip header parsing in ianlewis/go-dictzip's
// reader.go (see _examples/other_examples), adapted to support multiple
// members per file and a writer side.
package blockcodec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
)

// DefaultChunkSize is the default uncompressed chunk size.
const DefaultChunkSize = 58315

// MaxMemberChunks is the maximum number of chunks a single gzip member may
// carry before a new member must be started.
const MaxMemberChunks = 32700

const (
	gzipID1      = 0x1f
	gzipID2      = 0x8b
	gzipDeflate  = 0x08
	flagExtra    = 1 << 2
	flagName     = 1 << 3
	flagComment  = 1 << 4
	flagHCRC     = 1 << 1
	raSubfieldV1 = byte('R')
	raSubfieldV2 = byte('A')
)

// member describes one gzip member's framing: where its compressed chunks
// live in the file, and where its uncompressed bytes sit in the logical
// (concatenation-of-members) uncompressed stream.
type member struct {
	dataOffset         int64 // file offset of the first compressed chunk
	chunkSize          int   // uncompressed size of every chunk but the last
	chunkCompressed    []int // compressed size of each chunk, in order
	chunkFileOffsets   []int64
	uncompressedStart  int64 // offset of this member's first byte in the logical stream
	uncompressedLength int64 // total uncompressed bytes in this member (from ISIZE)
}

// readMemberHeader parses one gzip+RA header starting at the reader's
// current position. It returns the member's metadata and the file offset
// immediately following the header (where chunk 0's compressed bytes start).
func readMemberHeader(r io.ReadSeeker) (member, int64, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return member{}, 0, fmt.Errorf("seek: %w", err)
	}

	head := make([]byte, 10)
	if _, err := io.ReadFull(r, head); err != nil {
		return member{}, 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "short gzip header", err)
	}
	if head[0] != gzipID1 || head[1] != gzipID2 {
		return member{}, 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "bad gzip magic", nil)
	}
	if head[2] != gzipDeflate {
		return member{}, 0, engineerrs.New(engineerrs.ErrCodeUnsupportedVersion, "unsupported compression method", nil)
	}
	flg := head[3]

	if flg&flagExtra == 0 {
		return member{}, 0, errNoRandomAccess
	}

	xlenBuf := make([]byte, 2)
	if _, err := io.ReadFull(r, xlenBuf); err != nil {
		return member{}, 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "short EXTRA length", err)
	}
	xlen := binary.LittleEndian.Uint16(xlenBuf)
	extra := make([]byte, xlen)
	if _, err := io.ReadFull(r, extra); err != nil {
		return member{}, 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "short EXTRA field", err)
	}

	chunkSize, sizes, found, err := parseRASubfield(extra)
	if err != nil {
		return member{}, 0, err
	}
	if !found {
		return member{}, 0, errNoRandomAccess
	}

	if flg&flagName != 0 {
		if _, err := readCString(r); err != nil {
			return member{}, 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "short NAME field", err)
		}
	}
	if flg&flagComment != 0 {
		if _, err := readCString(r); err != nil {
			return member{}, 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "short COMMENT field", err)
		}
	}
	if flg&flagHCRC != 0 {
		crcBuf := make([]byte, 2)
		if _, err := io.ReadFull(r, crcBuf); err != nil {
			return member{}, 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "short HCRC", err)
		}
	}

	dataOffset, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return member{}, 0, fmt.Errorf("seek: %w", err)
	}

	offsets := make([]int64, len(sizes))
	cur := dataOffset
	total := int64(0)
	for i, sz := range sizes {
		offsets[i] = cur
		cur += int64(sz)
		total += int64(sz)
	}

	// Skip compressed payload to reach the 8-byte trailer (CRC32 + ISIZE).
	if _, err := r.Seek(cur, io.SeekStart); err != nil {
		return member{}, 0, fmt.Errorf("seek to trailer: %w", err)
	}
	trailer := make([]byte, 8)
	if _, err := io.ReadFull(r, trailer); err != nil {
		return member{}, 0, engineerrs.New(engineerrs.ErrCodeTrailingData, "short gzip trailer", err)
	}
	isize := int64(binary.LittleEndian.Uint32(trailer[4:8]))

	m := member{
		dataOffset:         dataOffset,
		chunkSize:          chunkSize,
		chunkCompressed:    sizes,
		chunkFileOffsets:   offsets,
		uncompressedLength: isize,
	}

	memberEnd, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return member{}, 0, fmt.Errorf("seek: %w", err)
	}
	_ = start
	return m, memberEnd, nil
}

// errNoRandomAccess signals that a member lacks the RA extra subfield; the
// Reader falls back to whole-stream decoding for the file that contains it.
var errNoRandomAccess = engineerrs.New(engineerrs.ErrCodeUnsupportedVersion, "no random-access extra field", nil)

func parseRASubfield(extra []byte) (chunkSize int, sizes []int, found bool, err error) {
	br := bytes.NewReader(extra)
	for br.Len() > 0 {
		hdr := make([]byte, 4)
		if _, err := io.ReadFull(br, hdr); err != nil {
			return 0, nil, false, engineerrs.New(engineerrs.ErrCodeCorruptStream, "short EXTRA subfield header", err)
		}
		si1, si2 := hdr[0], hdr[1]
		length := binary.LittleEndian.Uint16(hdr[2:4])
		data := make([]byte, length)
		if _, err := io.ReadFull(br, data); err != nil {
			return 0, nil, false, engineerrs.New(engineerrs.ErrCodeCorruptStream, "short EXTRA subfield data", err)
		}
		if si1 == raSubfieldV1 && si2 == raSubfieldV2 {
			cs, ss, err := parseRAData(data)
			if err != nil {
				return 0, nil, false, err
			}
			return cs, ss, true, nil
		}
	}
	return 0, nil, false, nil
}

func parseRAData(data []byte) (int, []int, error) {
	if len(data) < 6 {
		return 0, nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "short RA subfield", nil)
	}
	ver := binary.LittleEndian.Uint16(data[0:2])
	if ver != 1 {
		return 0, nil, engineerrs.New(engineerrs.ErrCodeUnsupportedVersion, fmt.Sprintf("unsupported RA version %d", ver), nil)
	}
	chlen := int(binary.LittleEndian.Uint16(data[2:4]))
	chcnt := int(binary.LittleEndian.Uint16(data[4:6]))
	need := 6 + chcnt*2
	if len(data) < need {
		return 0, nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "RA subfield truncated", nil)
	}
	sizes := make([]int, chcnt)
	for i := 0; i < chcnt; i++ {
		sizes[i] = int(binary.LittleEndian.Uint16(data[6+i*2 : 8+i*2]))
	}
	return chlen, sizes, nil
}

func readCString(r io.Reader) (string, error) {
	var buf bytes.Buffer
	b := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r, b); err != nil {
			return "", err
		}
		if b[0] == 0 {
			return buf.String(), nil
		}
		buf.WriteByte(b[0])
	}
}
