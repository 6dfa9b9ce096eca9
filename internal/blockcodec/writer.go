package blockcodec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
)

// CompressOptions configures Compress.
type CompressOptions struct {
	ChunkSize int    // defaults to DefaultChunkSize
	Name      string // original filename trailer; empty omits FNAME
	Level     int    // klauspost/compress flate level; 0 uses flate.DefaultCompression
}

// Compress writes an idzip-framed stream to output, reading input to EOF.
// It uses klauspost/compress/flate rather than the standard library's
// compress/flate because its Writer documents a Flush() that always emits a
// decodable sync-flush boundary — the property BlockCodec's chunk
// independence relies on — whereas the stdlib package only promises "may
// flush" without that guarantee.
func Compress(input io.Reader, output io.Writer, opts CompressOptions) error {
	chunkSize := opts.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	level := opts.Level
	if level == 0 {
		level = flate.DefaultCompression
	}

	buf := make([]byte, chunkSize)
	eof := false
	for !eof {
		var chunks [][]byte
		for len(chunks) < MaxMemberChunks && !eof {
			n, err := io.ReadFull(input, buf)
			if err == io.EOF {
				eof = true
				break
			}
			if err == io.ErrUnexpectedEOF {
				eof = true
			} else if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			chunks = append(chunks, chunk)
			if n < chunkSize {
				eof = true
			}
		}
		if len(chunks) == 0 {
			break
		}
		if err := writeMember(output, chunks, chunkSize, opts.Name, level); err != nil {
			return err
		}
	}
	return nil
}

// writeMember compresses chunks (each with a freshly reset compressor and
// then flushed, so it inflates on its own) into a single gzip member with
// an RA extra subfield describing their compressed sizes.
func writeMember(output io.Writer, chunks [][]byte, chunkSize int, name string, level int) error {
	var body bytes.Buffer
	fw, err := flate.NewWriter(&body, level)
	if err != nil {
		return fmt.Errorf("new flate writer: %w", err)
	}

	crc := crc32.NewIEEE()
	sizes := make([]int, len(chunks))
	var isize int64
	prevLen := 0
	for i, chunk := range chunks {
		if i > 0 {
			// Drop the back-reference window so this chunk does not depend
			// on the previous one's bytes.
			fw.Reset(&body)
		}
		if _, err := fw.Write(chunk); err != nil {
			return fmt.Errorf("deflate chunk: %w", err)
		}
		if err := fw.Flush(); err != nil {
			return fmt.Errorf("flush chunk: %w", err)
		}
		sizes[i] = body.Len() - prevLen
		prevLen = body.Len()
		crc.Write(chunk)
		isize += int64(len(chunk))
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close flate writer: %w", err)
	}
	// Any bytes emitted by Close (the final block) belong to the last chunk.
	if len(sizes) > 0 {
		sizes[len(sizes)-1] += body.Len() - prevLen
	}

	if len(sizes) > MaxMemberChunks {
		return engineerrs.New(engineerrs.ErrCodeInternal, "member exceeds max chunk count", nil)
	}

	if err := writeHeader(output, chunkSize, sizes, name); err != nil {
		return err
	}
	if _, err := output.Write(body.Bytes()); err != nil {
		return fmt.Errorf("write compressed body: %w", err)
	}

	trailer := make([]byte, 8)
	binary.LittleEndian.PutUint32(trailer[0:4], crc.Sum32())
	binary.LittleEndian.PutUint32(trailer[4:8], uint32(isize))
	if _, err := output.Write(trailer); err != nil {
		return fmt.Errorf("write trailer: %w", err)
	}
	return nil
}

func writeHeader(output io.Writer, chunkSize int, sizes []int, name string) error {
	ra := make([]byte, 6+len(sizes)*2)
	binary.LittleEndian.PutUint16(ra[0:2], 1) // version
	binary.LittleEndian.PutUint16(ra[2:4], uint16(chunkSize))
	binary.LittleEndian.PutUint16(ra[4:6], uint16(len(sizes)))
	for i, sz := range sizes {
		binary.LittleEndian.PutUint16(ra[6+i*2:8+i*2], uint16(sz))
	}

	extra := make([]byte, 0, 4+len(ra))
	extra = append(extra, raSubfieldV1, raSubfieldV2)
	extra = append(extra, byte(len(ra)), byte(len(ra)>>8))
	extra = append(extra, ra...)

	flg := byte(flagExtra)
	if name != "" {
		flg |= flagName
	}

	head := []byte{gzipID1, gzipID2, gzipDeflate, flg, 0, 0, 0, 0, 0, 0xff}
	if _, err := output.Write(head); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	xlen := make([]byte, 2)
	binary.LittleEndian.PutUint16(xlen, uint16(len(extra)))
	if _, err := output.Write(xlen); err != nil {
		return fmt.Errorf("write XLEN: %w", err)
	}
	if _, err := output.Write(extra); err != nil {
		return fmt.Errorf("write EXTRA: %w", err)
	}

	if name != "" {
		if _, err := output.Write(append([]byte(name), 0)); err != nil {
			return fmt.Errorf("write NAME: %w", err)
		}
	}
	return nil
}
