package code_analyzer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/brainboost/codesnap/code_analyzer/models"
	"github.com/brainboost/codesnap/logging"
	"github.com/brainboost/codesnap/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFiles creates every path (slash separated, relative to root) with the
// given content.
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func childNames(n *models.TreeNode) []string {
	names := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		names = append(names, c.Name)
	}
	return names
}

func findChild(n *models.TreeNode, name string) *models.TreeNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestTreeBuilder_IndexedParents(t *testing.T) {
	b := NewTreeBuilder("proj")

	_, err := b.AddDir("src")
	require.NoError(t, err)
	_, err = b.AddDir("src/pkg")
	require.NoError(t, err)
	_, err = b.AddFile("src/pkg", "a.go")
	require.NoError(t, err)
	_, err = b.AddFile(".", "go.mod")
	require.NoError(t, err)

	// re-adding an indexed directory does not duplicate it
	_, err = b.AddDir("src")
	require.NoError(t, err)

	root := b.Root()
	assert.Equal(t, "proj", root.Name)
	assert.Equal(t, []string{"src", "go.mod"}, childNames(root))
	pkg := findChild(findChild(root, "src"), "pkg")
	require.NotNil(t, pkg)
	assert.Equal(t, []string{"a.go"}, childNames(pkg))
}

func TestTreeBuilder_MissingParent(t *testing.T) {
	b := NewTreeBuilder("proj")

	_, err := b.AddDir("a/b")
	assert.Error(t, err)
	_, err = b.AddFile("nope", "x.go")
	assert.Error(t, err)
}

func TestTreeBuilder_Prune(t *testing.T) {
	b := NewTreeBuilder("proj")
	_, _ = b.AddDir("keep")
	_, _ = b.AddDir("drop")
	_, _ = b.AddDir("drop/inner")

	b.Prune("drop")

	assert.Equal(t, []string{"keep"}, childNames(b.Root()))
	_, err := b.AddFile("drop/inner", "x.go")
	assert.Error(t, err)
}

func TestBuildTree_InclusionRules(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.py":           "print(1)\n",
		"Dockerfile":        "FROM scratch\n",
		"notes.bin":         "\x00",
		"lib/util.js":       "",
		"lib/readme.rst":    "",
		"web/index.test.ts": "",
	})

	tree, err := BuildTree(context.Background(), root, TreeOptions{
		IncludeExtensions: []string{".py", ".js", ".ts"},
		KeyFiles:          []string{"Dockerfile"},
		Logger:            logging.Discard(),
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(root), tree.Name)
	assert.True(t, tree.IsDir)
	// lexical walk order, directories kept even when they hold no match
	assert.Equal(t, []string{"Dockerfile", "lib", "main.py", "web"}, childNames(tree))
	assert.Equal(t, []string{"util.js"}, childNames(findChild(tree, "lib")))
	assert.Equal(t, []string{"index.test.ts"}, childNames(findChild(tree, "web")))
	assert.Equal(t, 4, tree.CountFiles())
}

func TestBuildTree_ExcludedAtAnyDepth(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"app.py":                          "",
		"node_modules/left-pad/index.js":  "",
		"src/vendor/dep.py":               "",
		"src/deep/er/node_modules/x/y.js": "",
		"src/deep/er/ok.py":               "",
	})

	tree, err := BuildTree(context.Background(), root, TreeOptions{
		AvoidFolders:      []string{"node_modules", "vendor"},
		IncludeExtensions: []string{".py", ".js"},
		Logger:            logging.Discard(),
	})
	require.NoError(t, err)

	assert.Nil(t, findChild(tree, "node_modules"))
	src := findChild(tree, "src")
	require.NotNil(t, src)
	assert.Nil(t, findChild(src, "vendor"))
	er := findChild(findChild(src, "deep"), "er")
	require.NotNil(t, er)
	assert.Equal(t, []string{"ok.py"}, childNames(er))
	assert.Equal(t, 2, tree.CountFiles())
}

func TestBuildTree_IgnorePatterns(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"api/service.pb.go": "",
		"api/service.go":    "",
		"docs/conf.py":      "",
	})
	ignore, err := utils.NewIgnoreMatcher([]string{"*.pb.go", "docs/"})
	require.NoError(t, err)

	tree, err := BuildTree(context.Background(), root, TreeOptions{
		IncludeExtensions: []string{".go", ".py"},
		Ignore:            ignore,
		Logger:            logging.Discard(),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"api"}, childNames(tree))
	assert.Equal(t, []string{"service.go"}, childNames(findChild(tree, "api")))
}

func TestBuildTree_RootMustBeDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.py")
	writeFiles(t, root, map[string]string{"file.py": ""})

	_, err := BuildTree(context.Background(), file, TreeOptions{})
	assert.True(t, errors.Is(err, ErrRootNotDirectory))

	_, err = BuildTree(context.Background(), filepath.Join(root, "missing"), TreeOptions{})
	assert.True(t, errors.Is(err, ErrRootNotDirectory))
}

func TestBuildTree_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.py": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildTree(ctx, root, TreeOptions{IncludeExtensions: []string{".py"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildTree_UnreadableDirectoryIsSkipped(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for this user")
	}
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.py":          "import os\n",
		"locked/secret.py": "import secret\n",
		"locked/deep/x.py": "import deep\n",
		"zeta/util.py":     "import json\n",
	})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	record, err := newTestGenerator(root, "").Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"main.py", "zeta"}, childNames(record.Tree))
	assert.Nil(t, findChild(record.Tree, "locked"))

	var paths []string
	for _, entry := range record.Sources {
		paths = append(paths, entry.File.RelativePath)
	}
	assert.Equal(t, []string{"main.py", "zeta/util.py"}, paths)
	for _, imp := range record.ExternalLibraries {
		assert.NotEqual(t, "secret", imp.Name)
	}
}
