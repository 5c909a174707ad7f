package chunking

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/zeebo/xxh3"
)

// ManifestExt is the suffix of the manifest file written next to the parts.
const ManifestExt = ".manifest"

// ErrManifestMismatch is returned by Join when the parts on disk differ from
// what the manifest recorded.
var ErrManifestMismatch = errors.New("parts do not match manifest")

// Part is one manifest entry.
type Part struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Hash string `json:"xxh3"`
}

// Manifest records the parts of one split and the hash of the whole artifact.
type Manifest struct {
	Source string `json:"source"`
	Size   int64  `json:"size"`
	Hash   string `json:"xxh3"`
	Parts  []Part `json:"parts"`
}

func formatHash(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}

// WriteManifest stores m as <source>.manifest in dir.
func WriteManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	path := filepath.Join(dir, m.Source+ManifestExt)
	if err := os.WriteFile(path, data, 0o666); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return os.Chmod(path, 0o666)
}

// ReadManifest loads the single manifest in dir. It returns an error
// satisfying os.IsNotExist when the directory holds none.
func ReadManifest(dir string) (*Manifest, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+ManifestExt))
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, &os.PathError{Op: "open", Path: filepath.Join(dir, "*"+ManifestExt), Err: os.ErrNotExist}
	case 1:
	default:
		return nil, fmt.Errorf("more than one manifest in %s", dir)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", matches[0], err)
	}
	return &m, nil
}

var partNamePattern = regexp.MustCompile(`\.part(\d+)$`)

// PartPaths returns the part files in dir sorted by part number, so part10
// follows part9.
func PartPaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read parts directory %s: %w", dir, err)
	}

	type numbered struct {
		path string
		n    int
	}
	var parts []numbered
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := partNamePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		parts = append(parts, numbered{path: filepath.Join(dir, e.Name()), n: n})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].n < parts[j].n })

	paths := make([]string, 0, len(parts))
	for _, p := range parts {
		paths = append(paths, p.path)
	}
	return paths, nil
}

// Join writes the parts in dir to w in numeric order. When a manifest is
// present every part and the joined whole are checked against it; the
// manifest is returned, or nil when there was none.
func Join(dir string, w io.Writer) (*Manifest, error) {
	paths, err := PartPaths(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no parts found in %s", dir)
	}

	manifest, err := ReadManifest(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if manifest != nil && len(manifest.Parts) != len(paths) {
		return nil, fmt.Errorf("%w: expected %d parts, found %d", ErrManifestMismatch, len(manifest.Parts), len(paths))
	}

	whole := xxh3.New()
	out := io.MultiWriter(w, whole)
	for i, p := range paths {
		h := xxh3.New()
		written, err := copyFile(io.MultiWriter(out, h), p)
		if err != nil {
			return nil, err
		}
		if manifest == nil {
			continue
		}
		want := manifest.Parts[i]
		if want.Name != filepath.Base(p) || want.Size != written || want.Hash != formatHash(h.Sum64()) {
			return nil, fmt.Errorf("%w: %s", ErrManifestMismatch, filepath.Base(p))
		}
	}

	if manifest != nil && manifest.Hash != formatHash(whole.Sum64()) {
		return nil, fmt.Errorf("%w: joined content hash differs", ErrManifestMismatch)
	}
	return manifest, nil
}

// JoinFile reassembles the parts in dir into output. A failed join removes
// the partial output.
func JoinFile(dir, output string) (*Manifest, error) {
	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(output)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", output, err)
	}

	manifest, err := Join(dir, f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close %s: %w", output, closeErr)
	}
	if err != nil {
		os.Remove(output)
		return nil, err
	}
	return manifest, nil
}

func copyFile(w io.Writer, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open part %s: %w", path, err)
	}
	defer f.Close()
	n, err := io.Copy(w, f)
	if err != nil {
		return n, fmt.Errorf("failed to read part %s: %w", path, err)
	}
	return n, nil
}
