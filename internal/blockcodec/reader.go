package blockcodec

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
)

type chunkKey struct {
	member int
	chunk  int
}

// Reader provides random access into an idzip/dictzip file: given an
// uncompressed offset and length, it locates the owning chunk(s) and
// inflates only those.
type Reader struct {
	mu      sync.Mutex
	file    *os.File
	members []member
	cache   *lru.Cache[chunkKey, []byte]

	// randomAccess is false when the file has no RA extra field; Read then
	// falls back to decoding the whole stream sequentially.
	randomAccess bool
	fallback     io.ReadCloser
	fallbackPos  int64
}

// CacheSize is the number of decompressed chunks kept resident. The
// protocol mandates at least one slot; callers may raise it.
const CacheSize = 1

// Open parses all member headers in path (lazily with respect to chunk
// payloads: only header metadata is read up front) and returns a Reader.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	cache, _ := lru.New[chunkKey, []byte](CacheSize)
	rd := &Reader{file: f, cache: cache}

	members, randomAccess, err := parseAllMembers(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	rd.randomAccess = randomAccess
	rd.members = members

	if !randomAccess {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("seek: %w", err)
		}
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "open gzip stream", err)
		}
		rd.fallback = gz
	}

	return rd, nil
}

// parseAllMembers walks every gzip member in the file, computing the
// cumulative uncompressed-offset table. If the first member lacks the RA
// extra field, the whole file is treated as non-random-access.
func parseAllMembers(f *os.File) ([]member, bool, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, false, fmt.Errorf("seek: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, false, fmt.Errorf("stat: %w", err)
	}
	size := fi.Size()

	var members []member
	var cum int64
	pos := int64(0)
	for pos < size {
		if _, err := f.Seek(pos, io.SeekStart); err != nil {
			return nil, false, fmt.Errorf("seek: %w", err)
		}
		m, end, err := readMemberHeader(f)
		if err != nil {
			if err == errNoRandomAccess && len(members) == 0 {
				return nil, false, nil
			}
			return nil, false, err
		}
		m.uncompressedStart = cum
		cum += m.uncompressedLength
		members = append(members, m)
		if end <= pos {
			return nil, false, engineerrs.New(engineerrs.ErrCodeCorruptStream, "member did not advance", nil)
		}
		pos = end
	}
	return members, true, nil
}

// Len returns the total logical uncompressed length of the file.
func (r *Reader) Len() int64 {
	if len(r.members) == 0 {
		return 0
	}
	last := r.members[len(r.members)-1]
	return last.uncompressedStart + last.uncompressedLength
}

// Read returns length uncompressed bytes starting at uncompressed offset
// offset (read(uncompressed_offset, length)).
func (r *Reader) Read(offset int64, length int) ([]byte, error) {
	if offset < 0 || length < 0 {
		return nil, engineerrs.New(engineerrs.ErrCodeDecodeError, "negative offset or length", nil)
	}
	if length == 0 {
		return nil, nil
	}

	if !r.randomAccess {
		return r.readFallback(offset, length)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	midx := sort.Search(len(r.members), func(i int) bool {
		m := r.members[i]
		return m.uncompressedStart+m.uncompressedLength > offset
	})
	if midx >= len(r.members) {
		return nil, io.EOF
	}

	out := make([]byte, 0, length)
	cur := offset
	for len(out) < length && midx < len(r.members) {
		m := r.members[midx]
		if cur >= m.uncompressedStart+m.uncompressedLength {
			midx++
			continue
		}
		localOffset := cur - m.uncompressedStart
		chunkIdx := int(localOffset / int64(m.chunkSize))
		if chunkIdx >= len(m.chunkCompressed) {
			midx++
			continue
		}
		chunk, err := r.readChunk(midx, chunkIdx)
		if err != nil {
			return nil, err
		}
		within := int(localOffset - int64(chunkIdx)*int64(m.chunkSize))
		if within > len(chunk) {
			return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "chunk shorter than expected", nil)
		}
		take := len(chunk) - within
		if remaining := length - len(out); take > remaining {
			take = remaining
		}
		out = append(out, chunk[within:within+take]...)
		cur += int64(take)
	}

	if len(out) < length {
		return out, io.ErrUnexpectedEOF
	}
	return out, nil
}

// readChunk returns the inflated bytes of chunk chunkIdx of member midx,
// consulting (and populating) the one-slot LRU cache.
func (r *Reader) readChunk(midx, chunkIdx int) ([]byte, error) {
	key := chunkKey{midx, chunkIdx}
	if v, ok := r.cache.Get(key); ok {
		return v, nil
	}

	m := r.members[midx]
	fileOff := m.chunkFileOffsets[chunkIdx]
	compSize := m.chunkCompressed[chunkIdx]

	expected := m.chunkSize
	if chunkIdx == len(m.chunkCompressed)-1 {
		expected = int(m.uncompressedLength - int64(chunkIdx)*int64(m.chunkSize))
	}

	compBuf := make([]byte, compSize)
	if _, err := r.file.ReadAt(compBuf, fileOff); err != nil {
		return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "short read of compressed chunk", err)
	}

	fr := flate.NewReader(bytes.NewReader(compBuf))
	defer fr.Close()

	out := make([]byte, expected)
	n, err := io.ReadFull(fr, out)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, engineerrs.New(engineerrs.ErrCodeCorruptStream, "chunk inflate failed", err)
	}
	out = out[:n]

	r.cache.Add(key, out)
	return out, nil
}

// readFallback serves Read for files without an RA extra field by decoding
// the whole stream sequentially from the start (no random access).
func (r *Reader) readFallback(offset int64, length int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if offset < r.fallbackPos {
		if err := r.resetFallback(); err != nil {
			return nil, err
		}
	}
	if offset > r.fallbackPos {
		skip := offset - r.fallbackPos
		if _, err := io.CopyN(io.Discard, r.fallback, skip); err != nil {
			return nil, engineerrs.New(engineerrs.ErrCodeDecodeError, "seek in fallback stream", err)
		}
		r.fallbackPos = offset
	}

	buf := make([]byte, length)
	n, err := io.ReadFull(r.fallback, buf)
	r.fallbackPos += int64(n)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, engineerrs.New(engineerrs.ErrCodeDecodeError, "fallback read failed", err)
	}
	return buf[:n], nil
}

func (r *Reader) resetFallback() error {
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	_ = r.fallback.Close()
	gz, err := gzip.NewReader(r.file)
	if err != nil {
		return engineerrs.New(engineerrs.ErrCodeCorruptStream, "reopen gzip stream", err)
	}
	r.fallback = gz
	r.fallbackPos = 0
	return nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	if r.fallback != nil {
		_ = r.fallback.Close()
	}
	return r.file.Close()
}
