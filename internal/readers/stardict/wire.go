package stardict

import (
	"bytes"
	"encoding/binary"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
)

// EncodeRecords serializes decoded dict-body records into the byte format
// this reader's Decoder hands to a MarkupConverter: repeated
// (cttype byte, length uint32 BE, payload) tuples. This lets a
// format-agnostic MarkupConverter still receive enough structure to
// dispatch per content type without readers.Decoder growing a
// StarDict-specific return type.
func EncodeRecords(records []Record) []byte {
	var buf bytes.Buffer
	for _, r := range records {
		buf.WriteByte(r.CType)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(r.Data)))
		buf.Write(lenBuf[:])
		buf.Write(r.Data)
	}
	return buf.Bytes()
}

// DecodeRecords parses bytes produced by EncodeRecords.
func DecodeRecords(raw []byte) ([]Record, error) {
	var records []Record
	pos := 0
	for pos < len(raw) {
		if pos+5 > len(raw) {
			return nil, engineerrs.New(engineerrs.ErrCodeDecodeError, "truncated record wire header", nil)
		}
		ct := raw[pos]
		length := int(binary.BigEndian.Uint32(raw[pos+1 : pos+5]))
		pos += 5
		if pos+length > len(raw) {
			return nil, engineerrs.New(engineerrs.ErrCodeDecodeError, "truncated record wire payload", nil)
		}
		records = append(records, Record{CType: ct, Data: raw[pos : pos+length]})
		pos += length
	}
	return records, nil
}
