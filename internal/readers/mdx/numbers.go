package mdx

import (
	"encoding/binary"
	"io"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
)

// readNumber reads a big-endian unsigned integer whose width is 8 bytes
// for MDX version >= 2.0 containers, 4 bytes otherwise.
func readNumber(r io.Reader, wide bool) (uint64, error) {
	if wide {
		var v uint64
		err := binary.Read(r, binary.BigEndian, &v)
		return v, err
	}
	var v uint32
	err := binary.Read(r, binary.BigEndian, &v)
	return uint64(v), err
}

func numberFrom(buf []byte, wide bool) uint64 {
	if wide {
		return binary.BigEndian.Uint64(buf)
	}
	return uint64(binary.BigEndian.Uint32(buf))
}

func mustReadUint32BE(r io.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, engineerrs.New(engineerrs.ErrCodeCorruptStream, "read uint32", err)
	}
	return v, nil
}
