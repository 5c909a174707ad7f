package code_analyzer

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

type importGrammar struct {
	language func() *sitter.Language
	query    string
}

var (
	goImportGrammar = importGrammar{
		language: golang.GetLanguage,
		query:    `(import_spec path: (_) @path)`,
	}
	pythonImportGrammar = importGrammar{
		language: python.GetLanguage,
		query: `(import_statement name: (dotted_name) @name)
(import_statement name: (aliased_import name: (dotted_name) @name))
(import_from_statement module_name: (dotted_name) @name)`,
	}
	javascriptImportGrammar = importGrammar{
		language: javascript.GetLanguage,
		query:    `(import_statement source: (string) @source)`,
	}
	typescriptImportGrammar = importGrammar{
		language: typescript.GetLanguage,
		query:    `(import_statement source: (string) @source)`,
	}
	tsxImportGrammar = importGrammar{
		language: tsx.GetLanguage,
		query:    `(import_statement source: (string) @source)`,
	}
	javaImportGrammar = importGrammar{
		language: java.GetLanguage,
		query: `(import_declaration (scoped_identifier) @name)
(import_declaration (identifier) @name)`,
	}
)

var treeSitterGrammars = map[string]importGrammar{
	".go":   goImportGrammar,
	".py":   pythonImportGrammar,
	".js":   javascriptImportGrammar,
	".jsx":  javascriptImportGrammar,
	".mjs":  javascriptImportGrammar,
	".ts":   typescriptImportGrammar,
	".tsx":  tsxImportGrammar,
	".java": javaImportGrammar,
}

// TreeSitterExtractor reads imports from the syntax tree for the languages
// it has a grammar for and uses the regex table for everything else. Unlike
// the line patterns it sees grouped Go import blocks and aliased imports.
type TreeSitterExtractor struct {
	queries map[string]*sitter.Query
}

// NewTreeSitterExtractor returns an extractor with an empty query cache.
func NewTreeSitterExtractor() *TreeSitterExtractor {
	return &TreeSitterExtractor{queries: make(map[string]*sitter.Query)}
}

func (e *TreeSitterExtractor) Extract(content string, ext string, tally *ImportTally) []string {
	matches, ok := e.parseImports([]byte(content), ext)
	if !ok {
		matches = regexImports(content, ext)
	}
	tally.AddAll(matches)
	return matches
}

// parseImports returns false when ext has no grammar or parsing failed.
func (e *TreeSitterExtractor) parseImports(source []byte, ext string) ([]string, bool) {
	grammar, ok := treeSitterGrammars[ext]
	if !ok {
		return nil, false
	}
	lang := grammar.language()

	query, err := e.query(ext, grammar, lang)
	if err != nil {
		return nil, false
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil {
		return nil, false
	}
	defer tree.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, tree.RootNode())

	var imports []string
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		for _, capture := range match.Captures {
			name := strings.Trim(capture.Node.Content(source), "\"'`")
			if name != "" {
				imports = append(imports, name)
			}
		}
	}
	return imports, true
}

func (e *TreeSitterExtractor) query(ext string, grammar importGrammar, lang *sitter.Language) (*sitter.Query, error) {
	if q, ok := e.queries[ext]; ok {
		return q, nil
	}
	q, err := sitter.NewQuery([]byte(grammar.query), lang)
	if err != nil {
		return nil, err
	}
	e.queries[ext] = q
	return q, nil
}
