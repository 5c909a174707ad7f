package code_analyzer

import (
	"regexp"

	"github.com/brainboost/codesnap/code_analyzer/models"
)

// Extractor names accepted by the import_extractor setting.
const (
	ExtractorRegex      = "regex"
	ExtractorTreeSitter = "treesitter"
)

// importPatterns maps a file extension to the import statement of its
// language. Every pattern captures the imported module in group 1 and is
// compiled in multi-line mode so ^ anchors at each line start. Identifier
// characters are Unicode letters, digits and underscore.
var importPatterns = map[string]string{
	".py":    `^\s*(?:import|from)\s+([\p{L}\p{N}_\.]+)`,
	".js":    `^\s*import\s+.*?\s+from\s+['"]([\p{L}\p{N}_\-/]+)['"]`,
	".jsx":   `^\s*import\s+.*?\s+from\s+['"]([\p{L}\p{N}_\-/]+)['"]`,
	".mjs":   `^\s*import\s+.*?\s+from\s+['"]([\p{L}\p{N}_\-/]+)['"]`,
	".ts":    `^\s*import\s+.*?\s+from\s+['"]([\p{L}\p{N}_\-/]+)['"]`,
	".tsx":   `^\s*import\s+.*?\s+from\s+['"]([\p{L}\p{N}_\-/]+)['"]`,
	".java":  `^\s*import\s+([\p{L}\p{N}_\.]+)`,
	".cpp":   `^\s*#\s*include\s*<([\p{L}\p{N}_\./]+)>`,
	".cc":    `^\s*#\s*include\s*<([\p{L}\p{N}_\./]+)>`,
	".hpp":   `^\s*#\s*include\s*<([\p{L}\p{N}_\./]+)>`,
	".h":     `^\s*#\s*include\s*<([\p{L}\p{N}_\./]+)>`,
	".c":     `^\s*#\s*include\s*<([\p{L}\p{N}_\./]+)>`,
	".cs":    `^\s*using\s+([\p{L}\p{N}_\.]+)`,
	".rb":    `^\s*require\s+['"]([\p{L}\p{N}_/]+)['"]`,
	".php":   `^\s*use\s+([\p{L}\p{N}_\\]+)`,
	".go":    `^\s*import\s+['"]([\p{L}\p{N}_/]+)['"]`,
	".rs":    `^\s*extern\s+crate\s+([\p{L}\p{N}_]+)`,
	".dart":  `^\s*import\s+['"]([\p{L}\p{N}_/]+)['"]`,
	".swift": `^\s*import\s+([\p{L}\p{N}_]+)`,
	".kt":    `^\s*import\s+([\p{L}\p{N}_\.]+)`,
	".kts":   `^\s*import\s+([\p{L}\p{N}_\.]+)`,
}

var compiledImportPatterns = compileImportPatterns(importPatterns)

func compileImportPatterns(patterns map[string]string) map[string]*regexp.Regexp {
	compiled := make(map[string]*regexp.Regexp, len(patterns))
	for ext, pattern := range patterns {
		compiled[ext] = regexp.MustCompile(`(?m)` + pattern)
	}
	return compiled
}

// ImportExtractor pulls import names out of a file's content.
type ImportExtractor interface {
	// Extract returns the imports found in content, in order of appearance,
	// and adds each of them to tally. An extension without a registered
	// pattern yields an empty result.
	Extract(content string, ext string, tally *ImportTally) []string
}

// RegexExtractor applies the per-extension pattern table.
type RegexExtractor struct{}

// NewRegexExtractor returns the pattern-table extractor.
func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

func (RegexExtractor) Extract(content string, ext string, tally *ImportTally) []string {
	matches := regexImports(content, ext)
	tally.AddAll(matches)
	return matches
}

// HasImportPattern reports whether ext has a registered pattern.
func HasImportPattern(ext string) bool {
	_, ok := compiledImportPatterns[ext]
	return ok
}

func regexImports(content string, ext string) []string {
	re, ok := compiledImportPatterns[ext]
	if !ok {
		return nil
	}
	var matches []string
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		matches = append(matches, m[1])
	}
	return matches
}

// NewImportExtractor returns the extractor registered under name, falling
// back to the regex table for unknown names.
func NewImportExtractor(name string) ImportExtractor {
	if name == ExtractorTreeSitter {
		return NewTreeSitterExtractor()
	}
	return NewRegexExtractor()
}

// ImportTally counts import names for a single snapshot run and remembers
// the order in which names were first seen.
type ImportTally struct {
	order  []string
	counts map[string]int
}

// NewImportTally returns an empty tally.
func NewImportTally() *ImportTally {
	return &ImportTally{counts: make(map[string]int)}
}

// Add increments the count of name.
func (t *ImportTally) Add(name string) {
	if t == nil {
		return
	}
	if _, ok := t.counts[name]; !ok {
		t.order = append(t.order, name)
	}
	t.counts[name]++
}

// AddAll increments every name in names.
func (t *ImportTally) AddAll(names []string) {
	for _, name := range names {
		t.Add(name)
	}
}

// Count returns the current count of name.
func (t *ImportTally) Count(name string) int {
	if t == nil {
		return 0
	}
	return t.counts[name]
}

// Len returns the number of distinct names.
func (t *ImportTally) Len() int {
	return len(t.order)
}

// Finalize returns the tally as a list in first-insertion order.
func (t *ImportTally) Finalize() []models.ImportCount {
	out := make([]models.ImportCount, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, models.ImportCount{Name: name, Count: t.counts[name]})
	}
	return out
}
