// Package extract runs a compiled tree-sitter query over source text and
// projects the captured nodes into position-tagged match records.
package extract

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/treegrep/internal/languages"
)

// Extractor binds one language to one compiled query. It is immutable after
// construction and safe to share across goroutines; the *sitter.Parser passed
// to each call is not, and must be exclusively owned by that call.
type Extractor struct {
	language languages.Language
	query    *sitter.Query
	captures []string
	ignored  map[uint32]struct{}
}

// New builds an Extractor for a query compiled against lang's grammar.
// Captures whose name starts with an underscore are bound during matching but
// never surfaced in results, so query authors can use helper captures in
// predicates without polluting output.
func New(lang languages.Language, query *sitter.Query) *Extractor {
	captures := query.CaptureNames()

	ignored := make(map[uint32]struct{})
	for i, name := range captures {
		if strings.HasPrefix(name, "_") {
			ignored[uint32(i)] = struct{}{}
		}
	}

	return &Extractor{
		language: lang,
		query:    query,
		captures: captures,
		ignored:  ignored,
	}
}

// Language returns the language this Extractor was built for.
func (e *Extractor) Language() languages.Language {
	return e.language
}

// ExtractFromFile reads path and extracts matches from its contents.
// A nil ExtractedFile with a nil error means the query produced no matches.
func (e *Extractor) ExtractFromFile(path string, parser *sitter.Parser) (*ExtractedFile, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read file %s: %w", path, err)
	}

	return e.ExtractFromText(path, source, parser)
}

// ExtractFromText extracts matches from source. path is recorded on the
// result and may be empty for anonymous input (stdin, tests). parser is
// reconfigured to this Extractor's grammar on every call.
//
// A nil ExtractedFile with a nil error means the query produced no matches;
// that is a normal outcome, not an error.
func (e *Extractor) ExtractFromText(path string, source []byte, parser *sitter.Parser) (*ExtractedFile, error) {
	if err := parser.SetLanguage(e.language.Grammar()); err != nil {
		return nil, fmt.Errorf("could not set language %s: %w", e.language, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		// The grammar is error-tolerant and we never configure a timeout or
		// cancellation, so a nil tree can only mean an internal failure.
		return nil, fmt.Errorf("could not parse %s to a tree; this is an internal error and should be reported", origin(path))
	}
	defer tree.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	var extracted []ExtractedMatch
	matches := cursor.Matches(e.query, tree.RootNode(), source)
	for match := matches.Next(); match != nil; match = matches.Next() {
		for _, capture := range match.Captures {
			if _, skip := e.ignored[capture.Index]; skip {
				continue
			}

			node := capture.Node
			span := source[node.StartByte():node.EndByte()]
			if !utf8.Valid(span) {
				return nil, fmt.Errorf("could not extract text from capture %q in %s: span is not valid UTF-8", e.captures[capture.Index], origin(path))
			}

			extracted = append(extracted, ExtractedMatch{
				Kind:  node.Kind(),
				Name:  e.captures[capture.Index],
				Text:  string(span),
				Start: pointFrom(node.StartPosition()),
				End:   pointFrom(node.EndPosition()),
			})
		}
	}

	if len(extracted) == 0 {
		return nil, nil
	}

	return &ExtractedFile{
		File:     path,
		FileType: e.language.Name(),
		Matches:  extracted,
	}, nil
}

func origin(path string) string {
	if path == "" {
		return "input"
	}
	return path
}
