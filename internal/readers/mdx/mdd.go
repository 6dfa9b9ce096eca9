package mdx

import (
	"os"
	"strings"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
)

// MDDResource is one extracted companion-file resource: its stored path
// (relative, as it will be written under the per-dictionary cache
// directory) and its raw bytes.
type MDDResource struct {
	Path string
	Data []byte
}

// ReadMDD parses a companion .mdd resource container, which shares the
// MDX header/key-block/record-block layout but stores a resource's path
// as the "headword" and its raw bytes as the "record".
func ReadMDD(path string) ([]MDDResource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "open mdd", err)
	}
	defer f.Close()

	h, err := parseHeader(f)
	if err != nil {
		return nil, err
	}
	entries, keyBlockEnd, err := parseKeyBlocks(f, h)
	if err != nil {
		return nil, err
	}
	idx, err := buildRecordIndex(f, h, keyBlockEnd)
	if err != nil {
		return nil, err
	}

	resources := make([]MDDResource, 0, len(entries))
	for i, e := range entries {
		size := int64(-1)
		if i+1 < len(entries) {
			size = int64(entries[i+1].Offset) - int64(e.Offset)
		}
		data, err := idx.Decode(f, int64(e.Offset), size)
		if err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeDecodeError, "decode mdd resource "+e.Text, err)
		}
		resources = append(resources, MDDResource{Path: normalizeResourcePath(e.Text), Data: append([]byte(nil), data...)})
	}
	return resources, nil
}

func normalizeResourcePath(p string) string {
	return strings.TrimLeft(strings.ReplaceAll(p, "\\", "/"), "/")
}
