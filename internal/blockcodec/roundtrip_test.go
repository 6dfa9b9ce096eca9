package blockcodec

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressReadRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	data := make([]byte, DefaultChunkSize*3+1234)
	_, err := rng.Read(data)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "dict.dz")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, Compress(bytes.NewReader(data), f, CompressOptions{ChunkSize: 4096, Name: "dict"}))
	require.NoError(t, f.Close())

	rd, err := Open(path)
	require.NoError(t, err)
	defer rd.Close()

	require.True(t, rd.randomAccess)
	require.Equal(t, int64(len(data)), rd.Len())

	cases := []struct{ offset, length int }{
		{0, 10},
		{4096, 100},
		{4090, 20},
		{len(data) - 50, 50},
	}
	for _, c := range cases {
		got, err := rd.Read(int64(c.offset), c.length)
		require.NoError(t, err)
		require.Equal(t, data[c.offset:c.offset+c.length], got)
	}
}

func TestCompressSmallInput(t *testing.T) {
	data := []byte("hello, dictionary")
	dir := t.TempDir()
	path := filepath.Join(dir, "small.dz")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, Compress(bytes.NewReader(data), f, CompressOptions{ChunkSize: 4096}))
	require.NoError(t, f.Close())

	rd, err := Open(path)
	require.NoError(t, err)
	defer rd.Close()

	got, err := rd.Read(0, len(data))
	require.NoError(t, err)
	require.Equal(t, data, got)
}
