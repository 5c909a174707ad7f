package code_analyzer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/brainboost/codesnap/code_analyzer/models"
	"github.com/brainboost/codesnap/utils"
	"github.com/pterm/pterm"
)

// ErrRootNotDirectory is returned when the scan root is missing or is a file.
var ErrRootNotDirectory = errors.New("root is not a directory")

// TreeBuilder assembles a TreeNode hierarchy from slash separated relative
// paths. Every directory is indexed by its relative path so attaching a child
// never searches the tree.
type TreeBuilder struct {
	root  *models.TreeNode
	index map[string]*models.TreeNode
}

// NewTreeBuilder returns a builder whose root directory is named rootName and
// indexed as ".".
func NewTreeBuilder(rootName string) *TreeBuilder {
	root := models.NewDirNode(rootName)
	return &TreeBuilder{
		root:  root,
		index: map[string]*models.TreeNode{".": root},
	}
}

// Root returns the tree built so far.
func (b *TreeBuilder) Root() *models.TreeNode {
	return b.root
}

// AddDir attaches the directory rel to its parent, which must already be
// indexed. Adding an indexed directory again is a no-op.
func (b *TreeBuilder) AddDir(rel string) (*models.TreeNode, error) {
	rel = path.Clean(rel)
	if node, ok := b.index[rel]; ok {
		return node, nil
	}
	parent, ok := b.index[path.Dir(rel)]
	if !ok {
		return nil, fmt.Errorf("parent of %q is not in the tree", rel)
	}
	node := models.NewDirNode(path.Base(rel))
	parent.Children = append(parent.Children, node)
	b.index[rel] = node
	return node, nil
}

// AddFile attaches a file leaf named name under the directory relDir.
func (b *TreeBuilder) AddFile(relDir, name string) (*models.TreeNode, error) {
	parent, ok := b.index[path.Clean(relDir)]
	if !ok {
		return nil, fmt.Errorf("directory %q is not in the tree", relDir)
	}
	node := models.NewFileNode(name)
	parent.Children = append(parent.Children, node)
	return node, nil
}

// Prune removes the directory rel and everything below it.
func (b *TreeBuilder) Prune(rel string) {
	rel = path.Clean(rel)
	node, ok := b.index[rel]
	if !ok || node == b.root {
		return
	}
	if parent, ok := b.index[path.Dir(rel)]; ok {
		for i, child := range parent.Children {
			if child == node {
				parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
				break
			}
		}
	}
	prefix := rel + "/"
	for key := range b.index {
		if key == rel || (len(key) > len(prefix) && key[:len(prefix)] == prefix) {
			delete(b.index, key)
		}
	}
}

// TreeOptions are the inclusion and exclusion rules of a scan.
type TreeOptions struct {
	// AvoidFolders are directory names whose whole subtree is skipped.
	AvoidFolders []string
	// IncludeExtensions qualify a file by name suffix.
	IncludeExtensions []string
	// KeyFiles qualify a file by exact name.
	KeyFiles []string
	// Ignore is matched against relative paths; nil ignores nothing.
	Ignore *utils.IgnoreMatcher
	// SkipPaths are absolute file paths left out of the scan.
	SkipPaths []string
	Logger    *pterm.Logger
}

// Qualifies reports whether a file named name is part of the snapshot.
func (o TreeOptions) Qualifies(name string) bool {
	for _, key := range o.KeyFiles {
		if name == key {
			return true
		}
	}
	return HasAnySuffix(name, o.IncludeExtensions)
}

func (o TreeOptions) avoided(dirName string) bool {
	for _, avoid := range o.AvoidFolders {
		if dirName == avoid {
			return true
		}
	}
	return false
}

func (o TreeOptions) skipped(absPath string) bool {
	for _, p := range o.SkipPaths {
		if p == absPath {
			return true
		}
	}
	return false
}

// fileVisitor is called once per qualifying file with its absolute path and
// slash separated path relative to the root.
type fileVisitor func(absPath, relPath string, d fs.DirEntry)

// BuildTree walks root and returns the tree of every non-excluded directory
// and every qualifying file.
func BuildTree(ctx context.Context, root string, opts TreeOptions) (*models.TreeNode, error) {
	return walkProject(ctx, root, opts, nil)
}

// walkProject performs the single traversal shared by BuildTree and the
// snapshot generator. Children appear in lexical order.
func walkProject(ctx context.Context, root string, opts TreeOptions, visit fileVisitor) (*models.TreeNode, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	if ok, _ := isDir(absRoot); !ok {
		return nil, fmt.Errorf("%s: %w", root, ErrRootNotDirectory)
	}

	logger := opts.Logger
	if logger == nil {
		logger = &pterm.DefaultLogger
	}

	builder := NewTreeBuilder(filepath.Base(absRoot))

	err = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, relErr := filepath.Rel(absRoot, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if walkErr != nil {
			if rel == "." {
				return fmt.Errorf("failed to read %s: %w", absRoot, walkErr)
			}
			logger.Warn("Skipping unreadable path", logger.Args("path", rel, "error", walkErr))
			if d != nil && d.IsDir() {
				builder.Prune(rel)
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if opts.avoided(d.Name()) || opts.Ignore.Match(rel, true) {
				return filepath.SkipDir
			}
			if _, err := builder.AddDir(rel); err != nil {
				return err
			}
			return nil
		}

		if !opts.Qualifies(d.Name()) || !isRegularFile(p, d) {
			return nil
		}
		if opts.Ignore.Match(rel, false) || opts.skipped(p) {
			return nil
		}

		if _, err := builder.AddFile(path.Dir(rel), d.Name()); err != nil {
			return err
		}
		if visit != nil {
			visit(p, rel, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return builder.Root(), nil
}

func isDir(p string) (bool, error) {
	info, err := os.Stat(p)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// isRegularFile follows symlinks, so a link to a regular file qualifies.
func isRegularFile(p string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
