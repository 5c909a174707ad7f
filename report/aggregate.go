// Package report merges many snapshots into a per-language summary of
// external library usage and renders it as charts, a PDF and a terminal view.
package report

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pterm/pterm"
)

// Summary is the overall report of one GitHub account.
type Summary struct {
	GitHubUserName       string            `json:"github_user_name"`
	ProgrammingLanguages []LanguageSummary `json:"programming_languages"`
}

// LanguageSummary holds the libraries imported by one language's projects.
type LanguageSummary struct {
	ProgrammingLanguage string         `json:"programming_language"`
	LibrariesUsed       []LibraryUsage `json:"libraries_used"`
	FileCount           int            `json:"file_count"`
}

// LibraryUsage is the total import count of one library.
type LibraryUsage struct {
	LibraryName   string `json:"library_name"`
	TimesImported int    `json:"times_imported"`
}

// IsExternalLibrary reports whether name contains none of the internal
// namespace substrings.
func IsExternalLibrary(name string, internal []string) bool {
	for _, ns := range internal {
		if ns != "" && strings.Contains(name, ns) {
			return false
		}
	}
	return true
}

// snapshotEntry is the part of a snapshot the aggregation reads. Libraries
// are decoded loosely so one malformed entry does not reject the file.
type snapshotEntry struct {
	ProgrammingLanguage string                       `json:"programming_language"`
	ExternalLibraries   []map[string]json.RawMessage `json:"external_libraries"`
}

type languageTotals struct {
	libraries []string
	counts    map[string]int
}

// Aggregate walks snapshotsDir for *.json snapshots and merges their external
// libraries per language. file_count is the number of snapshots of that
// language. Libraries are ordered by import count and languages by file
// count, both descending with ties kept in first-seen order. Only languages
// with at least one external library are listed.
func Aggregate(snapshotsDir string, internal []string, logger *pterm.Logger) ([]LanguageSummary, error) {
	if logger == nil {
		logger = &pterm.DefaultLogger
	}

	var languages []string
	fileCounts := make(map[string]int)
	totals := make(map[string]*languageTotals)

	err := filepath.WalkDir(snapshotsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Skipping unreadable snapshot", logger.Args("file", path, "error", err))
			return nil
		}
		var snap snapshotEntry
		if err := json.Unmarshal(data, &snap); err != nil {
			logger.Warn("Skipping file that is not a snapshot", logger.Args("file", path, "error", err))
			return nil
		}

		language := strings.ToLower(snap.ProgrammingLanguage)
		if language == "" {
			return nil
		}
		fileCounts[language]++

		for _, raw := range snap.ExternalLibraries {
			name, count, ok := decodeLibrary(raw)
			if !ok || !IsExternalLibrary(name, internal) {
				logger.Debug("Skipping malformed or non-external library entry", logger.Args("file", path, "entry", fmt.Sprint(raw)))
				continue
			}
			t, seen := totals[language]
			if !seen {
				t = &languageTotals{counts: make(map[string]int)}
				totals[language] = t
				languages = append(languages, language)
			}
			if _, seen := t.counts[name]; !seen {
				t.libraries = append(t.libraries, name)
			}
			t.counts[name] += count
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", snapshotsDir, err)
	}

	out := make([]LanguageSummary, 0, len(languages))
	for _, language := range languages {
		t := totals[language]
		libs := make([]LibraryUsage, 0, len(t.libraries))
		for _, name := range t.libraries {
			libs = append(libs, LibraryUsage{LibraryName: name, TimesImported: t.counts[name]})
		}
		sort.SliceStable(libs, func(i, j int) bool { return libs[i].TimesImported > libs[j].TimesImported })
		out = append(out, LanguageSummary{
			ProgrammingLanguage: language,
			LibrariesUsed:       libs,
			FileCount:           fileCounts[language],
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FileCount > out[j].FileCount })
	return out, nil
}

func decodeLibrary(raw map[string]json.RawMessage) (string, int, bool) {
	nameRaw, ok := raw["import_name"]
	if !ok {
		return "", 0, false
	}
	countRaw, ok := raw["count"]
	if !ok {
		return "", 0, false
	}
	var name string
	var count int
	if json.Unmarshal(nameRaw, &name) != nil || json.Unmarshal(countRaw, &count) != nil {
		return "", 0, false
	}
	return name, count, true
}

// WriteSummary stores s as 4-space indented JSON.
func WriteSummary(path string, s *Summary) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write summary %s: %w", path, err)
	}
	return nil
}

// ReadSummary loads a summary written by WriteSummary.
func ReadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read summary %s: %w", path, err)
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode summary %s: %w", path, err)
	}
	return &s, nil
}

// TopLibraries returns at most n libraries; when some are cut, the rest are
// folded into a final "other" entry. n <= 0 returns libs unchanged.
func TopLibraries(libs []LibraryUsage, n int) []LibraryUsage {
	if n <= 0 || len(libs) <= n {
		return libs
	}
	top := append([]LibraryUsage{}, libs[:n]...)
	rest := 0
	for _, l := range libs[n:] {
		rest += l.TimesImported
	}
	return append(top, LibraryUsage{LibraryName: "other", TimesImported: rest})
}

// Capitalize upper-cases the first letter of s and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
