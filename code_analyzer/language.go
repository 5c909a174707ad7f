package code_analyzer

import "strings"

// LanguageExtensions is the ordered language table used for classification.
// A file name is matched by suffix and the first language wins, so the order
// below is part of the snapshot format: ".h" is cpp, ".pl" is perl and ".yml"
// is yaml.
var LanguageExtensions = []LanguageEntry{
	{"python", []string{".py"}},
	{"javascript", []string{".js", ".mjs", ".jsx"}},
	{"typescript", []string{".ts", ".tsx"}},
	{"java", []string{".java"}},
	{"csharp", []string{".cs", ".csproj"}},
	{"cpp", []string{".cpp", ".hpp", ".h", ".cc"}},
	{"c", []string{".c", ".h"}},
	{"ruby", []string{".rb", ".erb", ".rake"}},
	{"php", []string{".php", ".phtml", ".php3", ".php4", ".php5", ".phps"}},
	{"swift", []string{".swift"}},
	{"kotlin", []string{".kt", ".kts"}},
	{"go", []string{".go"}},
	{"r", []string{".R", ".r"}},
	{"perl", []string{".pl", ".pm", ".t"}},
	{"bash", []string{".sh", ".bash"}},
	{"html", []string{".html", ".htm"}},
	{"css", []string{".css", ".scss", ".sass", ".less"}},
	{"sql", []string{".sql"}},
	{"scala", []string{".scala", ".sc"}},
	{"haskell", []string{".hs", ".lhs"}},
	{"lua", []string{".lua"}},
	{"rust", []string{".rs"}},
	{"dart", []string{".dart"}},
	{"matlab", []string{".m"}},
	{"julia", []string{".jl"}},
	{"vb", []string{".vb", ".vbs"}},
	{"asm", []string{".asm", ".s"}},
	{"fsharp", []string{".fs", ".fsi", ".fsx"}},
	{"groovy", []string{".groovy", ".gvy", ".gy", ".gsh"}},
	{"erlang", []string{".erl", ".hrl"}},
	{"elixir", []string{".ex", ".exs"}},
	{"cobol", []string{".cob", ".cbl"}},
	{"fortran", []string{".f", ".for", ".f90", ".f95"}},
	{"ada", []string{".adb", ".ads"}},
	{"prolog", []string{".pl", ".pro", ".P"}},
	{"lisp", []string{".lisp", ".lsp"}},
	{"scheme", []string{".scm", ".ss"}},
	{"racket", []string{".rkt"}},
	{"verilog", []string{".v", ".vh"}},
	{"vhdl", []string{".vhdl", ".vhd"}},
	{"markdown", []string{".md", ".markdown"}},
	{"vue", []string{".vue"}},
	{"svelte", []string{".svelte"}},
	{"json", []string{".json"}},
	{"yaml", []string{".yaml", ".yml"}},
	{"xml", []string{".xml"}},
	{"git", []string{".gitignore", ".gitattributes"}},
	{"cicd", []string{".travis.yml", "Jenkinsfile", ".circleci/config.yml", ".gitlab-ci.yml", "azure-pipelines.yml"}},
}

// LanguageEntry maps a language tag to the suffixes that identify it.
type LanguageEntry struct {
	Language   string
	Extensions []string
}

// DetectLanguage returns the first language in LanguageExtensions with a
// suffix matching fileName. Matching is case sensitive.
func DetectLanguage(fileName string) (string, bool) {
	for _, entry := range LanguageExtensions {
		if HasAnySuffix(fileName, entry.Extensions) {
			return entry.Language, true
		}
	}
	return "", false
}

// AllExtensions returns every suffix of the language table once, in table order.
func AllExtensions() []string {
	seen := make(map[string]struct{})
	var exts []string
	for _, entry := range LanguageExtensions {
		for _, ext := range entry.Extensions {
			if _, ok := seen[ext]; ok {
				continue
			}
			seen[ext] = struct{}{}
			exts = append(exts, ext)
		}
	}
	return exts
}

// HasAnySuffix reports whether name ends with any of suffixes.
func HasAnySuffix(name string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if suffix != "" && strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
