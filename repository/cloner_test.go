package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brainboost/codesnap/logging"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commitFile writes name into the repository at dir and commits it.
func commitFile(t *testing.T, repo *gogit.Repository, dir, name, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	w, err := repo.Worktree()
	require.NoError(t, err)
	_, err = w.Add(name)
	require.NoError(t, err)
	_, err = w.Commit("add "+name, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)
}

func upstreamRepo(t *testing.T) (string, *gogit.Repository) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "upstream.git")
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	commitFile(t, repo, dir, "main.py", "import os\n")
	return dir, repo
}

func TestRepoDir(t *testing.T) {
	dest := filepath.Join("src")
	assert.Equal(t, filepath.Join(dest, "codesnap"), RepoDir(dest, "https://github.com/brainboost/codesnap.git"))
	assert.Equal(t, filepath.Join(dest, "tool"), RepoDir(dest, "https://example.com/a/tool/"))
	assert.Equal(t, filepath.Join(dest, "repo"), RepoDir(dest, "git@github.com:me/repo.git"))
}

func TestCloneOrUpdate_ClonesThenPulls(t *testing.T) {
	upstreamDir, upstream := upstreamRepo(t)
	dest := t.TempDir()
	cloner := NewCloner(logging.Discard())

	path, err := cloner.CloneOrUpdate(context.Background(), upstreamDir, dest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "upstream"), path)
	assert.FileExists(t, filepath.Join(path, "main.py"))

	// nothing new upstream
	_, err = cloner.CloneOrUpdate(context.Background(), upstreamDir, dest)
	require.NoError(t, err)

	commitFile(t, upstream, upstreamDir, "util.py", "import sys\n")

	_, err = cloner.CloneOrUpdate(context.Background(), upstreamDir, dest)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(path, "util.py"))
}

func TestCloneOrUpdate_ExistingDirectoryThatIsNotARepo(t *testing.T) {
	dest := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "plain"), 0o755))

	_, err := NewCloner(logging.Discard()).CloneOrUpdate(context.Background(), "https://example.com/plain.git", dest)
	assert.Error(t, err)
}

func TestCloneAll_SkipsFailures(t *testing.T) {
	upstreamDir, _ := upstreamRepo(t)
	dest := filepath.Join(t.TempDir(), "sources")
	missing := filepath.Join(t.TempDir(), "does-not-exist.git")

	paths, err := NewCloner(logging.Discard()).CloneAll(context.Background(), []string{missing, upstreamDir}, dest)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dest, "upstream")}, paths)
	_, statErr := os.Stat(filepath.Join(dest, "does-not-exist"))
	assert.True(t, os.IsNotExist(statErr))
}
