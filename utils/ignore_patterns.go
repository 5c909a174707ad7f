package utils

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
)

// IgnoreFileName is the per-project file holding one glob pattern per line.
const IgnoreFileName = ".codesnapignore"

// ignoreCacheEntry holds cached ignore patterns with metadata
type ignoreCacheEntry struct {
	patterns []string
	modTime  time.Time
}

// Global cache for ignore file patterns
var (
	ignoreCache = make(map[string]*ignoreCacheEntry)
	cacheMutex  sync.RWMutex
)

// GetIgnorePatterns reads and returns the patterns from the project's
// .codesnapignore file. If the file does not exist, it returns an empty list.
// Results are cached until the file's modification time changes.
func GetIgnorePatterns(root string) ([]string, error) {
	ignorePath := filepath.Join(root, IgnoreFileName)

	fileInfo, err := os.Stat(ignorePath)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error checking %s: %w", IgnoreFileName, err)
	}

	cacheMutex.RLock()
	if cached, exists := ignoreCache[ignorePath]; exists {
		if fileInfo.ModTime().Equal(cached.modTime) {
			cacheMutex.RUnlock()
			return cached.patterns, nil
		}
	}
	cacheMutex.RUnlock()

	patterns, err := readIgnoreFile(ignorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFileName, err)
	}

	cacheMutex.Lock()
	ignoreCache[ignorePath] = &ignoreCacheEntry{
		patterns: patterns,
		modTime:  fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return patterns, nil
}

// readIgnoreFile returns the non-empty, non-comment lines of the file.
func readIgnoreFile(ignorePath string) ([]string, error) {
	content, err := os.ReadFile(ignorePath)
	if err != nil {
		return nil, err
	}
	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, nil
}

// ClearIgnoreCache drops every cached ignore file.
func ClearIgnoreCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	ignoreCache = make(map[string]*ignoreCacheEntry)
}

type ignoreRule struct {
	glob     glob.Glob
	dirOnly  bool
	baseOnly bool
}

// IgnoreMatcher decides whether a slash separated relative path is ignored.
//
// A pattern ending in "/" only matches directories. A pattern without any
// other "/" is matched against the base name, so "*.min.js" ignores the file
// at every depth; otherwise the pattern is matched against the whole
// relative path, where "*" stays within one segment and "**" spans several.
type IgnoreMatcher struct {
	rules []ignoreRule
}

// NewIgnoreMatcher compiles patterns. A nil or empty list yields a matcher
// that ignores nothing.
func NewIgnoreMatcher(patterns []string) (*IgnoreMatcher, error) {
	m := &IgnoreMatcher{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		rule := ignoreRule{}
		if strings.HasSuffix(p, "/") {
			rule.dirOnly = true
			p = strings.TrimSuffix(p, "/")
		}
		p = strings.TrimPrefix(p, "/")
		rule.baseOnly = !strings.Contains(p, "/")

		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		rule.glob = g
		m.rules = append(m.rules, rule)
	}
	return m, nil
}

// Match reports whether relPath is ignored.
func (m *IgnoreMatcher) Match(relPath string, isDir bool) bool {
	if m == nil {
		return false
	}
	relPath = filepath.ToSlash(relPath)
	base := path.Base(relPath)
	for _, rule := range m.rules {
		if rule.dirOnly && !isDir {
			continue
		}
		subject := relPath
		if rule.baseOnly {
			subject = base
		}
		if rule.glob.Match(subject) {
			return true
		}
	}
	return false
}

// Len returns the number of compiled patterns.
func (m *IgnoreMatcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}
