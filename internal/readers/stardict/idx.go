package stardict

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
)

// IdxEntry is one headword -> (offset, size) span into the .dict body.
type IdxEntry struct {
	Word   string
	Offset int64
	Size   int64
}

// ParseIdx reads a StarDict .idx (or gzip-compressed .idx.gz) index: a
// sequence of NUL-terminated UTF-8 words each followed by a big-endian
// offset (4 or 8 bytes, per idxOffsetBits) and a big-endian 4-byte size.
func ParseIdx(path string, idxOffsetBits int) ([]IdxEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "open idx file", err)
	}
	defer f.Close()

	var r io.Reader = f
	if isGzipPath(path) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "open gzipped idx file", err)
		}
		defer gz.Close()
		r = gz
	}

	br := bufio.NewReader(r)
	var entries []IdxEntry
	offsetWidth := 4
	if idxOffsetBits == 64 {
		offsetWidth = 8
	}
	for {
		word, err := br.ReadString(0)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "read idx word", err)
		}
		word = word[:len(word)-1] // drop the NUL terminator

		offBuf := make([]byte, offsetWidth)
		if _, err := io.ReadFull(br, offBuf); err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "short idx offset", err)
		}
		var offset int64
		if offsetWidth == 8 {
			offset = int64(binary.BigEndian.Uint64(offBuf))
		} else {
			offset = int64(binary.BigEndian.Uint32(offBuf))
		}

		sizeBuf := make([]byte, 4)
		if _, err := io.ReadFull(br, sizeBuf); err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "short idx size", err)
		}
		size := int64(binary.BigEndian.Uint32(sizeBuf))

		entries = append(entries, IdxEntry{Word: word, Offset: offset, Size: size})
	}
	return entries, nil
}

func isGzipPath(path string) bool {
	return len(path) > 3 && path[len(path)-3:] == ".gz"
}
