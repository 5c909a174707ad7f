package code_analyzer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/brainboost/codesnap/code_analyzer/models"
	"github.com/brainboost/codesnap/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(root, output string) *SnapshotGenerator {
	return NewSnapshotGenerator(Options{
		RootDir:           root,
		OutputFile:        output,
		AvoidFolders:      []string{"node_modules", "venv"},
		IncludeExtensions: AllExtensions(),
		KeyFiles:          []string{"Dockerfile", "requirements.txt"},
		Logger:            logging.Discard(),
	}).(*SnapshotGenerator)
}

func TestGenerate_MainPyScenario(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.py": "import os\nfrom sys import path\n",
	})

	record, err := newTestGenerator(root, "").Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(root), record.ProjectName)
	assert.Equal(t, "python", record.ProgrammingLanguage)
	assert.Equal(t, []models.ImportCount{
		{Name: "os", Count: 1},
		{Name: "sys", Count: 1},
	}, record.ExternalLibraries)
	assert.Empty(t, record.Observations)

	require.Len(t, record.Sources, 1)
	file := record.Sources[0].File
	assert.Equal(t, "main.py", file.Name)
	assert.Equal(t, "main.py", file.RelativePath)
	assert.Equal(t, filepath.Join(root, "main.py"), file.FullPath)
	assert.Equal(t, int64(31), file.Size)
	assert.Equal(t, 2, file.Lines)
	assert.Equal(t, "import os\nfrom sys import path\n", file.SourceCode)
	assert.Len(t, file.LastModified, len(LastModifiedLayout))
}

func TestGenerate_EveryQualifyingFileOnce(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Dockerfile":          "FROM golang\n",
		"requirements.txt":    "requests\n",
		"cmd/main.go":         "package main\n",
		"web/src/app.ts":      "import x from 'rxjs';\n",
		"web/src/image.png":   "png",
		"docs/notes.unknown":  "x",
		"node_modules/a/b.js": "import y from 'left-pad';\n",
	})

	record, err := newTestGenerator(root, "").Generate(context.Background())
	require.NoError(t, err)

	var paths []string
	for _, s := range record.Sources {
		paths = append(paths, s.File.RelativePath)
	}
	assert.ElementsMatch(t, []string{"Dockerfile", "requirements.txt", "cmd/main.go", "web/src/app.ts"}, paths)
	assert.Equal(t, []models.ImportCount{{Name: "rxjs", Count: 1}}, record.ExternalLibraries)
	assert.Equal(t, 4, record.Tree.CountFiles())
}

func TestGenerate_EmptyProject(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"README.unknown": "nothing to see"})

	record, err := newTestGenerator(root, "").Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.UnknownLanguage, record.ProgrammingLanguage)
	assert.NotNil(t, record.Sources)
	assert.Empty(t, record.Sources)
	assert.NotNil(t, record.ExternalLibraries)
	assert.Empty(t, record.ExternalLibraries)
	assert.Equal(t, []string{models.NoImportsObservation}, record.Observations)
}

func TestGenerate_SkipsInvalidUTF8(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"good.py": "import json\n",
		"bad.py":  "import os\n\xff\xfe\n",
	})

	record, err := newTestGenerator(root, "").Generate(context.Background())
	require.NoError(t, err)

	require.Len(t, record.Sources, 1)
	assert.Equal(t, "good.py", record.Sources[0].File.Name)
	assert.Equal(t, []models.ImportCount{{Name: "json", Count: 1}}, record.ExternalLibraries)
	// the tree still lists the qualifying file
	assert.Equal(t, 2, record.Tree.CountFiles())
}

func TestGenerate_LanguageDetectionModes(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.js":     "",
		"b/one.py": "",
		"b/two.py": "",
	})

	first := newTestGenerator(root, "")
	record, err := first.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "javascript", record.ProgrammingLanguage)

	majority := newTestGenerator(root, "")
	majority.opts.LanguageDetection = DetectMajority
	record, err = majority.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "python", record.ProgrammingLanguage)
}

func TestLanguageVotes_MajorityTieGoesToFirstSeen(t *testing.T) {
	v := newLanguageVotes()
	v.vote("go")
	v.vote("python")
	v.vote("python")
	v.vote("go")

	assert.Equal(t, "go", v.winner(DetectMajority))
	assert.Equal(t, "go", v.winner(DetectFirst))
	assert.Equal(t, models.UnknownLanguage, newLanguageVotes().winner(DetectFirst))
}

func TestGenerate_FreshTallyPerRun(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"main.py": "import os\n"})
	g := newTestGenerator(root, "")

	first, err := g.Generate(context.Background())
	require.NoError(t, err)
	second, err := g.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.ExternalLibraries, second.ExternalLibraries)
	assert.Equal(t, 1, second.ExternalLibraries[0].Count)
}

func TestGenerate_IgnoreFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".codesnapignore":  "generated/\n",
		"app.py":           "import os\n",
		"generated/gen.py": "import secret_gen\n",
	})

	record, err := newTestGenerator(root, "").Generate(context.Background())
	require.NoError(t, err)

	require.Len(t, record.Sources, 1)
	assert.Equal(t, []models.ImportCount{{Name: "os", Count: 1}}, record.ExternalLibraries)
}

func TestRun_WritesIndentedWorldWritableJSON(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"main.py": "import os\n# <b>&</b>\n"})
	output := filepath.Join(t.TempDir(), "nested", "dir", "snapshot.json")

	record, err := newTestGenerator(root, output).Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "{\n    \"project_name\": "))
	assert.Contains(t, text, `"directory_name": `)
	assert.Contains(t, text, `"file_name": "main.py"`)
	assert.Contains(t, text, `"Source_Code": "import os\n# <b>&</b>\n"`)
	assert.Contains(t, text, `"Relative Path": "main.py"`)

	var decoded models.SnapshotRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, record.ExternalLibraries, decoded.ExternalLibraries)
	assert.Equal(t, record.Tree.CountFiles(), decoded.Tree.CountFiles())

	if runtime.GOOS != "windows" {
		info, err := os.Stat(output)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o666), info.Mode().Perm())
	}
}

func TestRun_OutputInsideRootIsNotScanned(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"main.py": "import os\n"})
	output := filepath.Join(root, "snapshot.json")

	_, err := newTestGenerator(root, output).Run(context.Background())
	require.NoError(t, err)

	record, err := newTestGenerator(root, output).Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, record.Sources, 1)
	assert.Equal(t, "main.py", record.Sources[0].File.Name)
}

func TestWriteSnapshotFile_UnwritableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := WriteSnapshotFile(filepath.Join(blocker, "out", "snapshot.json"), &models.SnapshotRecord{})
	assert.Error(t, err)
}

func TestReadSnapshotFile_RoundTrip(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"src/lib.rs": "extern crate serde;\n"})
	output := filepath.Join(t.TempDir(), "snapshot.json")

	written, err := newTestGenerator(root, output).Run(context.Background())
	require.NoError(t, err)

	read, err := ReadSnapshotFile(output)
	require.NoError(t, err)
	assert.Equal(t, written.ProgrammingLanguage, read.ProgrammingLanguage)
	assert.Equal(t, written.Sources, read.Sources)
}

func TestCountLines(t *testing.T) {
	cases := map[string]int{
		"":                0,
		"a":               1,
		"a\n":             1,
		"a\nb":            2,
		"a\r\nb\r\n":      2,
		"a\rb":            2,
		"\n\n":            2,
		"a\n\nb\n":        3,
		"a\fb":            2,
		"a\vb\x1c":        2,
		"a\x1db\x1e":      2,
		"a\u0085b":        2,
		"a\u2028b\u2029c": 3,
		"é\r\n\r\n":       2,
	}
	for in, want := range cases {
		assert.Equal(t, want, CountLines(in), "%q", in)
	}
}
