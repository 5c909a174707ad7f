package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/pterm/pterm"
)

// RepoDir returns the working copy path of url under destDir: the last URL
// segment without its ".git" suffix.
func RepoDir(destDir, url string) string {
	name := strings.TrimRight(url, "/")
	if i := strings.LastIndexAny(name, "/\\:"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".git")
	return filepath.Join(destDir, name)
}

// Cloner clones repositories or brings existing working copies up to date.
type Cloner struct {
	logger *pterm.Logger
}

// NewCloner returns a Cloner that reports through logger.
func NewCloner(logger *pterm.Logger) *Cloner {
	if logger == nil {
		logger = &pterm.DefaultLogger
	}
	return &Cloner{logger: logger}
}

// CloneOrUpdate clones url into RepoDir(destDir, url), or fetches and pulls
// when that directory already exists. It returns the working copy path.
func (c *Cloner) CloneOrUpdate(ctx context.Context, url, destDir string) (string, error) {
	repoPath := RepoDir(destDir, url)

	if _, err := os.Stat(repoPath); os.IsNotExist(err) {
		c.logger.Info("Cloning repository", c.logger.Args("url", url, "path", repoPath))
		if _, err := gogit.PlainCloneContext(ctx, repoPath, false, &gogit.CloneOptions{URL: url}); err != nil {
			os.RemoveAll(repoPath)
			return "", fmt.Errorf("failed to clone %s: %w", url, err)
		}
		return repoPath, nil
	}

	c.logger.Info("Repository already exists, pulling updates", c.logger.Args("path", repoPath))
	if err := c.update(ctx, repoPath); err != nil {
		return "", err
	}
	return repoPath, nil
}

func (c *Cloner) update(ctx context.Context, repoPath string) error {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", repoPath, err)
	}

	if err := repo.FetchContext(ctx, &gogit.FetchOptions{}); err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to fetch %s: %w", repoPath, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree of %s: %w", repoPath, err)
	}
	if err := wt.PullContext(ctx, &gogit.PullOptions{}); err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to pull %s: %w", repoPath, err)
	}
	return nil
}

// CloneAll prepares a working copy of every url under destDir and returns the
// paths that succeeded. A failed repository is logged and skipped.
func (c *Cloner) CloneAll(ctx context.Context, urls []string, destDir string) ([]string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	paths := make([]string, 0, len(urls))
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		path, err := c.CloneOrUpdate(ctx, url, destDir)
		if err != nil {
			c.logger.Warn("Skipping repository", c.logger.Args("url", url, "error", err))
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}
