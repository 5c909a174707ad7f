package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes a fresh command tree from an empty working directory
// and returns what it printed to stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("CODESNAP_LOG_LEVEL", "error")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "demo")
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"dist", "tmp"}, splitList(" dist, ,tmp,"))
	assert.Nil(t, splitList(""))
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "codesnap "+Version+"\n", out)
}

func TestUnknownConfigValueFails(t *testing.T) {
	project := writeProject(t, map[string]string{"main.py": "print(1)\n"})
	_, err := runCommand(t, "snapshot",
		"--root_dir", project,
		"--output_file", filepath.Join(t.TempDir(), "snapshot.json"),
		"--import_extractor", "ast",
	)
	assert.ErrorContains(t, err, "invalid import_extractor")
}
