package stardict

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/silverdict-go/silverdict/internal/blockcodec"
	"github.com/silverdict-go/silverdict/internal/engineerrs"
)

// textContentTypes are the cttypes whose payload is text rather than a
// length-prefixed binary resource: m/t/y (plain text), g (pango, treated
// as HTML), x (xdxf), h (html).
var textContentTypes = map[byte]bool{'m': true, 't': true, 'y': true, 'g': true, 'x': true, 'h': true}

// Record is one (content-type, payload) segment decoded from a .dict body
// span. Non-text segments are kept as raw bytes but are not surfaced by
// the reader (only text cttypes produce an article).
type Record struct {
	CType byte
	Data  []byte
}

// dictBody abstracts over a plain .dict file and a dictzip-compressed
// .dict.dz one.
type dictBody interface {
	Read(offset int64, length int) ([]byte, error)
	Close() error
}

type plainDictBody struct{ f *os.File }

func (p *plainDictBody) Read(offset int64, length int) ([]byte, error) {
	buf := make([]byte, length)
	n, err := p.f.ReadAt(buf, offset)
	if err != nil && n < length {
		return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "short read of dict body", err)
	}
	return buf[:n], nil
}

func (p *plainDictBody) Close() error { return p.f.Close() }

// OpenDictBody opens a StarDict .dict body, transparently handling the
// dictzip-compressed .dict.dz case via blockcodec.
func OpenDictBody(path string, compressed bool) (dictBody, error) {
	if compressed {
		return blockcodec.Open(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "open dict file", err)
	}
	return &plainDictBody{f: f}, nil
}

// ParseRecords splits one (offset, size) span of the dict body into its
// constituent (cttype, payload) records, per the ifo's sametypesequence.
func ParseRecords(raw []byte, sameTypeSequence string) ([]Record, error) {
	if sameTypeSequence != "" {
		return parseSameTypeSequence(raw, sameTypeSequence)
	}
	return parseMixedTypeSequence(raw)
}

func parseSameTypeSequence(raw []byte, sequence string) ([]Record, error) {
	var records []Record
	pos := 0
	types := []byte(sequence)
	for i, ct := range types {
		last := i == len(types)-1
		if textContentTypes[ct] {
			if last {
				records = append(records, Record{CType: ct, Data: raw[pos:]})
				pos = len(raw)
				continue
			}
			end := indexByte(raw[pos:], 0)
			if end < 0 {
				return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "missing text terminator in dict record", nil)
			}
			records = append(records, Record{CType: ct, Data: raw[pos : pos+end]})
			pos += end + 1
			continue
		}
		if pos+4 > len(raw) {
			return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "truncated binary dict segment", nil)
		}
		size := int(binary.BigEndian.Uint32(raw[pos : pos+4]))
		pos += 4
		if pos+size > len(raw) {
			return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "binary dict segment overruns record", nil)
		}
		records = append(records, Record{CType: ct, Data: raw[pos : pos+size]})
		pos += size
	}
	return records, nil
}

func parseMixedTypeSequence(raw []byte) ([]Record, error) {
	var records []Record
	pos := 0
	for pos < len(raw) {
		ct := raw[pos]
		pos++
		last := false
		if textContentTypes[ct] {
			end := indexByte(raw[pos:], 0)
			if end < 0 {
				// Final segment of the record: runs to the end, untermiated.
				records = append(records, Record{CType: ct, Data: raw[pos:]})
				pos = len(raw)
				last = true
			} else {
				records = append(records, Record{CType: ct, Data: raw[pos : pos+end]})
				pos += end + 1
			}
		} else {
			if pos+4 > len(raw) {
				return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "truncated binary dict segment", nil)
			}
			size := int(binary.BigEndian.Uint32(raw[pos : pos+4]))
			pos += 4
			if pos+size > len(raw) {
				return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "binary dict segment overruns record", nil)
			}
			records = append(records, Record{CType: ct, Data: raw[pos : pos+size]})
			pos += size
		}
		if last {
			break
		}
	}
	return records, nil
}

func indexByte(b []byte, c byte) int {
	return bytes.IndexByte(b, c)
}
