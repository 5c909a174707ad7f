// Package chunking splits a snapshot artifact into numbered part files and
// puts them back together.
//
// A split of "out/snapshot.json" produces the directory "out/snapshot_parts"
// holding snapshot.json.part0 ... snapshot.json.partN, a snapshot.json.manifest
// describing every part, and the original snapshot.json moved in beside them.
package chunking

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"
)

// PartsDirSuffix is appended to the artifact path (without extension) to name
// the output directory.
const PartsDirSuffix = "_parts"

var (
	// ErrConflictingOptions is returned when both a chunk count and a chunk
	// size are given.
	ErrConflictingOptions = errors.New("chunk count and chunk size are mutually exclusive")
	// ErrInvalidOptions is returned for negative counts or sizes.
	ErrInvalidOptions = errors.New("chunk count and chunk size must not be negative")
)

// Options select how an artifact is split. With both fields zero the whole
// artifact becomes part0.
type Options struct {
	// Chunks is the number of parts; the part size is ceil(total/Chunks).
	Chunks int
	// ChunkSize is the maximum size of a part in bytes.
	ChunkSize int64
}

// Result describes a finished split.
type Result struct {
	// Dir is the parts directory.
	Dir string
	// Parts are the part file paths in numeric order.
	Parts []string
	// Original is the new location of the split artifact.
	Original string
	Manifest *Manifest
}

// PartsDir returns the output directory used when splitting path.
func PartsDir(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + PartsDirSuffix
}

// PartName returns the file name of part n of an artifact named base.
func PartName(base string, n int) string {
	return fmt.Sprintf("%s.part%d", base, n)
}

// PartSize returns the size of every part but the last for an artifact of
// total bytes.
func PartSize(total int64, opts Options) (int64, error) {
	if opts.Chunks < 0 || opts.ChunkSize < 0 {
		return 0, ErrInvalidOptions
	}
	if opts.Chunks > 0 && opts.ChunkSize > 0 {
		return 0, ErrConflictingOptions
	}
	switch {
	case opts.Chunks > 0:
		chunks := int64(opts.Chunks)
		return (total + chunks - 1) / chunks, nil
	case opts.ChunkSize > 0:
		return opts.ChunkSize, nil
	default:
		return total, nil
	}
}

// Split cuts the file at path into parts and moves the file into the parts
// directory. Parts, the manifest and the moved original are world-writable.
func Split(path string, opts Options) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	total := info.Size()

	size, err := PartSize(total, opts)
	if err != nil {
		return nil, err
	}

	dir := PartsDir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create parts directory %s: %w", dir, err)
	}

	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	base := filepath.Base(path)
	manifest := &Manifest{Source: base, Size: total}
	result := &Result{Dir: dir, Manifest: manifest}
	whole := xxh3.New()

	var offset int64
	for n := 0; ; n++ {
		length := size
		if remaining := total - offset; remaining < length {
			length = remaining
		}

		partPath := filepath.Join(dir, PartName(base, n))
		part, err := writePart(partPath, io.TeeReader(src, whole), length)
		if err != nil {
			return nil, err
		}
		manifest.Parts = append(manifest.Parts, part)
		result.Parts = append(result.Parts, partPath)

		offset += length
		if offset >= total {
			break
		}
	}
	manifest.Hash = formatHash(whole.Sum64())

	if err := src.Close(); err != nil {
		return nil, fmt.Errorf("failed to close %s: %w", path, err)
	}

	if err := WriteManifest(dir, manifest); err != nil {
		return nil, err
	}

	moved := filepath.Join(dir, base)
	if err := os.Rename(path, moved); err != nil {
		return nil, fmt.Errorf("failed to move %s into %s: %w", path, dir, err)
	}
	if err := os.Chmod(moved, 0o666); err != nil {
		return nil, fmt.Errorf("failed to set permissions on %s: %w", moved, err)
	}
	result.Original = moved

	return result, nil
}

func writePart(partPath string, src io.Reader, length int64) (Part, error) {
	f, err := os.Create(partPath)
	if err != nil {
		return Part{}, fmt.Errorf("failed to create part %s: %w", partPath, err)
	}

	h := xxh3.New()
	written, err := io.CopyN(io.MultiWriter(f, h), src, length)
	if err != nil {
		f.Close()
		return Part{}, fmt.Errorf("failed to write part %s: %w", partPath, err)
	}
	if err := f.Close(); err != nil {
		return Part{}, fmt.Errorf("failed to close part %s: %w", partPath, err)
	}
	if err := os.Chmod(partPath, 0o666); err != nil {
		return Part{}, fmt.Errorf("failed to set permissions on %s: %w", partPath, err)
	}

	return Part{
		Name: filepath.Base(partPath),
		Size: written,
		Hash: formatHash(h.Sum64()),
	}, nil
}

// Relocate moves the parts directory of res into folder and returns the
// updated result. The destination must not already hold a directory of the
// same name.
func Relocate(res *Result, folder string) (*Result, error) {
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output folder %s: %w", folder, err)
	}
	target := filepath.Join(folder, filepath.Base(res.Dir))
	if _, err := os.Stat(target); err == nil {
		return nil, fmt.Errorf("destination %s already exists", target)
	}
	if err := os.Rename(res.Dir, target); err != nil {
		return nil, fmt.Errorf("failed to move %s to %s: %w", res.Dir, folder, err)
	}

	moved := &Result{
		Dir:      target,
		Original: filepath.Join(target, filepath.Base(res.Original)),
		Manifest: res.Manifest,
	}
	for _, p := range res.Parts {
		moved.Parts = append(moved.Parts, filepath.Join(target, filepath.Base(p)))
	}
	return moved, nil
}
