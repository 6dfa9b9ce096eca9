package mdx

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
)

// blockType values for a record/key block: the three compression schemes a
// block's (block_type, adler32, payload) triple may carry.
const (
	blockTypeRaw  = 0
	blockTypeLZO  = 1
	blockTypeZlib = 2
)

// ErrLZOUnsupported is returned for MDX v1 legacy-LZO record/key blocks;
// see the package doc comment.
var ErrLZOUnsupported = engineerrs.New(engineerrs.ErrCodeUnsupportedVersion, "mdx: LZO-compressed blocks are not supported", nil)

// decodeBlock decodes one (block_type uint32 LE, adler32 uint32 BE,
// payload) triple into its raw (possibly decompressed) bytes.
func decodeBlock(raw []byte) ([]byte, error) {
	if len(raw) < 8 {
		return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "mdx block shorter than header", nil)
	}
	blockType := binary.LittleEndian.Uint32(raw[0:4])
	payload := raw[8:]

	switch blockType {
	case blockTypeRaw:
		return payload, nil
	case blockTypeLZO:
		return nil, ErrLZOUnsupported
	case blockTypeZlib:
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "mdx zlib block", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "mdx zlib block read", err)
		}
		return out, nil
	default:
		return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "mdx unknown block type", nil)
	}
}
