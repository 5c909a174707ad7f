package code_analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/brainboost/codesnap/code_analyzer/contracts"
	"github.com/brainboost/codesnap/code_analyzer/models"
	"github.com/brainboost/codesnap/utils"
	"github.com/pterm/pterm"
)

// Primary language rules accepted by the language_detection setting.
const (
	// DetectFirst reports the language of the first classified file in walk order.
	DetectFirst = "first"
	// DetectMajority reports the language with the most classified files.
	DetectMajority = "majority"
)

// LastModifiedLayout formats FileRecord.LastModified.
const LastModifiedLayout = "2006-01-02 15:04:05"

// Options configure one SnapshotGenerator.
type Options struct {
	RootDir           string
	OutputFile        string
	AvoidFolders      []string
	IncludeExtensions []string
	KeyFiles          []string
	IgnorePatterns    []string
	ImportExtractor   string
	LanguageDetection string
	Logger            *pterm.Logger
}

// SnapshotGenerator scans one project and writes its snapshot. An instance
// owns its tally and language state and must not be shared between runs.
type SnapshotGenerator struct {
	opts      Options
	extractor ImportExtractor
	logger    *pterm.Logger

	tally     *ImportTally
	languages *languageVotes
	sources   []models.SourceEntry
}

// NewSnapshotGenerator returns a generator for opts.
func NewSnapshotGenerator(opts Options) contracts.ISnapshotGenerator {
	logger := opts.Logger
	if logger == nil {
		logger = &pterm.DefaultLogger
	}
	if opts.LanguageDetection == "" {
		opts.LanguageDetection = DetectFirst
	}
	return &SnapshotGenerator{
		opts:      opts,
		extractor: NewImportExtractor(opts.ImportExtractor),
		logger:    logger,
	}
}

// OutputFile returns the path the snapshot is written to.
func (g *SnapshotGenerator) OutputFile() string {
	return g.opts.OutputFile
}

// Generate walks the root once and returns the assembled record.
func (g *SnapshotGenerator) Generate(ctx context.Context) (*models.SnapshotRecord, error) {
	g.tally = NewImportTally()
	g.languages = newLanguageVotes()
	g.sources = []models.SourceEntry{}

	ignore, err := g.ignoreMatcher()
	if err != nil {
		return nil, err
	}

	treeOpts := TreeOptions{
		AvoidFolders:      g.opts.AvoidFolders,
		IncludeExtensions: g.opts.IncludeExtensions,
		KeyFiles:          g.opts.KeyFiles,
		Ignore:            ignore,
		Logger:            g.logger,
	}
	if g.opts.OutputFile != "" {
		if abs, err := filepath.Abs(g.opts.OutputFile); err == nil {
			treeOpts.SkipPaths = []string{abs}
		}
	}

	g.logger.Debug("Scanning project", g.logger.Args("root", g.opts.RootDir))

	tree, err := walkProject(ctx, g.opts.RootDir, treeOpts, g.visitFile)
	if err != nil {
		return nil, err
	}

	record := &models.SnapshotRecord{
		ProjectName:         tree.Name,
		ProgrammingLanguage: g.languages.winner(g.opts.LanguageDetection),
		Tree:                tree,
		Sources:             g.sources,
		ExternalLibraries:   g.tally.Finalize(),
		Observations:        []string{},
	}
	if len(record.ExternalLibraries) == 0 {
		record.Observations = append(record.Observations, models.NoImportsObservation)
	}

	g.logger.Info("Project scanned", g.logger.Args(
		"project", record.ProjectName,
		"language", record.ProgrammingLanguage,
		"files", len(record.Sources),
		"imports", len(record.ExternalLibraries),
	))
	return record, nil
}

func (g *SnapshotGenerator) ignoreMatcher() (*utils.IgnoreMatcher, error) {
	patterns := append([]string{}, g.opts.IgnorePatterns...)
	if g.opts.RootDir != "" {
		fromFile, err := utils.GetIgnorePatterns(g.opts.RootDir)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, fromFile...)
	}
	return utils.NewIgnoreMatcher(patterns)
}

// visitFile reads one qualifying file. Read and decode failures are logged
// and the file is left out of the sources.
func (g *SnapshotGenerator) visitFile(absPath, relPath string, d fs.DirEntry) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		g.logger.Warn("Skipping unreadable file", g.logger.Args("file", relPath, "error", err))
		return
	}
	if !utf8.Valid(content) {
		g.logger.Warn("Skipping file that is not valid UTF-8 text", g.logger.Args("file", relPath))
		return
	}
	info, err := os.Stat(absPath)
	if err != nil {
		g.logger.Warn("Skipping file without metadata", g.logger.Args("file", relPath, "error", err))
		return
	}

	text := string(content)
	g.sources = append(g.sources, models.SourceEntry{File: models.FileRecord{
		Name:         d.Name(),
		FullPath:     absPath,
		RelativePath: relPath,
		Size:         info.Size(),
		LastModified: info.ModTime().Local().Format(LastModifiedLayout),
		Lines:        CountLines(text),
		SourceCode:   text,
	}})

	imports := g.extractor.Extract(text, filepath.Ext(d.Name()), g.tally)
	if len(imports) > 0 {
		g.logger.Trace("Imports found", g.logger.Args("file", relPath, "count", len(imports)))
	}

	if language, ok := DetectLanguage(d.Name()); ok {
		g.languages.vote(language)
	}
}

// WriteSnapshot serializes record as indented JSON to the output file,
// creating parent directories, and makes the file world-writable.
func (g *SnapshotGenerator) WriteSnapshot(record *models.SnapshotRecord) error {
	return WriteSnapshotFile(g.opts.OutputFile, record)
}

// Run generates and writes the snapshot.
func (g *SnapshotGenerator) Run(ctx context.Context) (*models.SnapshotRecord, error) {
	record, err := g.Generate(ctx)
	if err != nil {
		return nil, err
	}
	if err := g.WriteSnapshot(record); err != nil {
		return nil, err
	}
	g.logger.Info("Snapshot written", g.logger.Args("file", g.opts.OutputFile))
	return record, nil
}

// WriteSnapshotFile writes record to path with 4-space indentation.
func WriteSnapshotFile(path string, record *models.SnapshotRecord) error {
	if path == "" {
		return fmt.Errorf("no output file configured")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file %s: %w", path, err)
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(record); err != nil {
		f.Close()
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot %s: %w", path, err)
	}

	if err := os.Chmod(path, 0o666); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	return nil
}

// ReadSnapshotFile loads a snapshot written by WriteSnapshotFile.
func ReadSnapshotFile(path string) (*models.SnapshotRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	var record models.SnapshotRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	return &record, nil
}

// CountLines counts lines the way str.splitlines splits them: "\r\n" and
// each of \n \r \v \f \x1c \x1d \x1e \x85 U+2028 U+2029 end a line. A
// final line without terminator counts; an empty trailing line does not.
func CountLines(s string) int {
	n := 0
	open := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if !isLineBreak(r) {
			open = true
			continue
		}
		n++
		open = false
		if r == '\r' && i < len(s) && s[i] == '\n' {
			i++
		}
	}
	if open {
		n++
	}
	return n
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

// languageVotes keeps per-language file counts in first-seen order.
type languageVotes struct {
	order  []string
	counts map[string]int
}

func newLanguageVotes() *languageVotes {
	return &languageVotes{counts: make(map[string]int)}
}

func (v *languageVotes) vote(language string) {
	if _, ok := v.counts[language]; !ok {
		v.order = append(v.order, language)
	}
	v.counts[language]++
}

// winner applies mode; ties under DetectMajority go to the language seen first.
func (v *languageVotes) winner(mode string) string {
	if len(v.order) == 0 {
		return models.UnknownLanguage
	}
	if mode != DetectMajority {
		return v.order[0]
	}
	best := v.order[0]
	for _, language := range v.order[1:] {
		if v.counts[language] > v.counts[best] {
			best = language
		}
	}
	return best
}
