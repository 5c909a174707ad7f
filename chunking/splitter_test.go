package chunking

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, size int) (string, []byte) {
	t.Helper()
	content := make([]byte, size)
	for i := range content {
		content[i] = byte('a' + i%26)
	}
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path, content
}

func partSizes(t *testing.T, parts []string) []int64 {
	t.Helper()
	sizes := make([]int64, 0, len(parts))
	for _, p := range parts {
		info, err := os.Stat(p)
		require.NoError(t, err)
		sizes = append(sizes, info.Size())
	}
	return sizes
}

func concat(t *testing.T, parts []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, p := range parts {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		buf.Write(data)
	}
	return buf.Bytes()
}

func TestSplit_ThousandBytesIntoThree(t *testing.T) {
	path, content := writeArtifact(t, 1000)

	res, err := Split(path, Options{Chunks: 3})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "snapshot_parts"), res.Dir)
	assert.Equal(t, []int64{334, 334, 332}, partSizes(t, res.Parts))
	assert.Equal(t, "snapshot.json.part0", filepath.Base(res.Parts[0]))
	assert.Equal(t, "snapshot.json.part2", filepath.Base(res.Parts[2]))

	// original moved, not copied
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, filepath.Join(res.Dir, "snapshot.json"), res.Original)
	moved, err := os.ReadFile(res.Original)
	require.NoError(t, err)
	assert.Equal(t, content, moved)

	assert.Equal(t, content, concat(t, res.Parts))
}

func TestSplit_RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		size int
		opts Options
		want int
	}{
		{"count even", 900, Options{Chunks: 3}, 3},
		{"count uneven", 1001, Options{Chunks: 4}, 4},
		{"size uneven", 1000, Options{ChunkSize: 300}, 4},
		{"size exact", 900, Options{ChunkSize: 300}, 3},
		{"size larger than file", 10, Options{ChunkSize: 4096}, 1},
		{"more chunks than bytes", 5, Options{Chunks: 8}, 5},
		{"no options", 777, Options{}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path, content := writeArtifact(t, tc.size)

			res, err := Split(path, tc.opts)
			require.NoError(t, err)

			assert.Len(t, res.Parts, tc.want)
			assert.Equal(t, content, concat(t, res.Parts))
		})
	}
}

func TestSplit_EmptyArtifact(t *testing.T) {
	path, _ := writeArtifact(t, 0)

	res, err := Split(path, Options{Chunks: 3})
	require.NoError(t, err)

	require.Len(t, res.Parts, 1)
	assert.Equal(t, "snapshot.json.part0", filepath.Base(res.Parts[0]))
	assert.Equal(t, []int64{0}, partSizes(t, res.Parts))
}

func TestSplit_ConflictingOptions(t *testing.T) {
	path, _ := writeArtifact(t, 10)

	_, err := Split(path, Options{Chunks: 2, ChunkSize: 5})
	assert.True(t, errors.Is(err, ErrConflictingOptions))

	_, err = Split(path, Options{Chunks: -1})
	assert.True(t, errors.Is(err, ErrInvalidOptions))

	// nothing was touched
	_, err = os.Stat(path)
	assert.NoError(t, err)
	_, err = os.Stat(PartsDir(path))
	assert.True(t, os.IsNotExist(err))
}

func TestSplit_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	path, _ := writeArtifact(t, 100)

	res, err := Split(path, Options{Chunks: 2})
	require.NoError(t, err)

	for _, p := range append(res.Parts, res.Original) {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o666), info.Mode().Perm(), p)
	}
}

func TestPartSize(t *testing.T) {
	size, err := PartSize(1000, Options{Chunks: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(334), size)

	size, err = PartSize(1000, Options{ChunkSize: 64})
	require.NoError(t, err)
	assert.Equal(t, int64(64), size)

	size, err = PartSize(1000, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), size)
}

func TestPartsDir(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "snapshot_parts"), PartsDir(filepath.Join("out", "snapshot.json")))
	assert.Equal(t, "context_parts", PartsDir("context"))
}

func TestRelocate(t *testing.T) {
	path, content := writeArtifact(t, 50)
	res, err := Split(path, Options{Chunks: 2})
	require.NoError(t, err)

	folder := filepath.Join(t.TempDir(), "archive")
	moved, err := Relocate(res, folder)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(folder, "snapshot_parts"), moved.Dir)
	_, err = os.Stat(res.Dir)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, content, concat(t, moved.Parts))

	// a second relocation onto the same name is refused
	path2, _ := writeArtifact(t, 10)
	res2, err := Split(path2, Options{})
	require.NoError(t, err)
	_, err = Relocate(res2, folder)
	assert.Error(t, err)
}
