package code_analyzer

import (
	"context"
	"io/fs"
	"path/filepath"
)

// FindSourceDirectories walks start and calls found for every directory that
// directly holds at least one file qualifying under opts. Directories are
// reported in walk order, paths are joined onto start as given. Avoided
// directories are not descended into.
func FindSourceDirectories(ctx context.Context, start string, opts TreeOptions, found func(dir string) error) error {
	ok, err := isDir(start)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRootNotDirectory
	}

	reported := make(map[string]bool)
	return filepath.WalkDir(start, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if p == start {
				return walkErr
			}
			if opts.Logger != nil {
				opts.Logger.Warn("Skipping unreadable path", opts.Logger.Args("path", p, "error", walkErr))
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != start && opts.avoided(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		dir := filepath.Dir(p)
		if reported[dir] || !opts.Qualifies(d.Name()) {
			return nil
		}
		reported[dir] = true
		return found(dir)
	})
}
