package stardict

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
)

// SynEntry maps an alternate spelling to the ordinal position of the idx
// entry it is a synonym of.
type SynEntry struct {
	Word  string
	Index uint32
}

// ParseSyn reads a StarDict .syn synonym file: NUL-terminated word followed
// by a big-endian uint32 index into the parsed .idx entry slice.
func ParseSyn(path string) ([]SynEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "open syn file", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var entries []SynEntry
	for {
		word, err := br.ReadString(0)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "read syn word", err)
		}
		word = word[:len(word)-1]

		idxBuf := make([]byte, 4)
		if _, err := io.ReadFull(br, idxBuf); err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "short syn index", err)
		}
		entries = append(entries, SynEntry{Word: word, Index: binary.BigEndian.Uint32(idxBuf)})
	}
	return entries, nil
}
