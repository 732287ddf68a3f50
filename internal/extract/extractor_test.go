package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/treegrep/internal/languages"
)

// Test Plan for Extractor:
// - Captures a function item and its identifier in traversal order
// - Underscore-prefixed captures are matched but never reported
// - A query whose captures are all underscore-prefixed yields no result
// - Empty input yields no result, not an error
// - Source that the query does not apply to yields no result
// - Extraction is deterministic: same input, same Extractor, same output
// - Every reported name comes from the query's capture-name list
// - File entry point records the path and wraps read errors with it
// - Invalid UTF-8 inside a captured span fails the whole call
// - One parser can be reused across extractors of different languages

func newExtractor(t *testing.T, lang languages.Language, querySource string) *Extractor {
	t.Helper()
	query, err := lang.CompileQuery(querySource)
	require.NoError(t, err)
	t.Cleanup(query.Close)
	return New(lang, query)
}

// Test: Function item and its name are both captured, in traversal order
func TestExtractor_FunctionAndIdentifier(t *testing.T) {
	t.Parallel()

	extractor := newExtractor(t, languages.Rust, `(function_item (identifier) @id) @function`)

	parser := sitter.NewParser()
	defer parser.Close()

	source := `fn main(){println!("hello");}`
	file, err := extractor.ExtractFromText("", []byte(source), parser)

	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, "rust", file.FileType)
	assert.Equal(t, "", file.File)

	require.Len(t, file.Matches, 2)

	assert.Equal(t, "function", file.Matches[0].Name)
	assert.Equal(t, source, file.Matches[0].Text)
	assert.Equal(t, "function_item", file.Matches[0].Kind)
	assert.Equal(t, Point{Row: 0, Column: 0}, file.Matches[0].Start)

	assert.Equal(t, "id", file.Matches[1].Name)
	assert.Equal(t, "main", file.Matches[1].Text)
	assert.Equal(t, "identifier", file.Matches[1].Kind)
	assert.Equal(t, Point{Row: 0, Column: 3}, file.Matches[1].Start)
}

// Test: Underscore captures are bound but not surfaced
func TestExtractor_IgnoredCaptures(t *testing.T) {
	t.Parallel()

	extractor := newExtractor(t, languages.Rust, `(function_item (identifier) @_helper) @value`)

	parser := sitter.NewParser()
	defer parser.Close()

	file, err := extractor.ExtractFromText("", []byte("fn main(){}\nfn other(){}\n"), parser)

	require.NoError(t, err)
	require.NotNil(t, file)
	require.Len(t, file.Matches, 2)
	for _, m := range file.Matches {
		assert.Equal(t, "value", m.Name)
	}
}

// Test: All-underscore queries produce no result on any input
func TestExtractor_AllCapturesIgnored(t *testing.T) {
	t.Parallel()

	extractor := newExtractor(t, languages.Rust, `(function_item (identifier) @_id) @_function`)

	parser := sitter.NewParser()
	defer parser.Close()

	file, err := extractor.ExtractFromText("", []byte("fn main(){}"), parser)

	require.NoError(t, err)
	assert.Nil(t, file)
}

// Test: Empty input is a normal no-result outcome
func TestExtractor_EmptyInput(t *testing.T) {
	t.Parallel()

	extractor := newExtractor(t, languages.Rust, `(function_item (identifier) @id) @function`)

	parser := sitter.NewParser()
	defer parser.Close()

	file, err := extractor.ExtractFromText("", nil, parser)

	require.NoError(t, err)
	assert.Nil(t, file)
}

// Test: A query that does not apply to the source yields no result
func TestExtractor_NoMatches(t *testing.T) {
	t.Parallel()

	extractor := newExtractor(t, languages.Rust, `(struct_item) @s`)

	parser := sitter.NewParser()
	defer parser.Close()

	file, err := extractor.ExtractFromText("", []byte("fn main(){}"), parser)

	require.NoError(t, err)
	assert.Nil(t, file)
}

// Test: Extraction is deterministic across calls
func TestExtractor_Idempotent(t *testing.T) {
	t.Parallel()

	extractor := newExtractor(t, languages.Rust, `(function_item (identifier) @id) @function`)

	parser := sitter.NewParser()
	defer parser.Close()

	source := []byte("fn main(){}\nfn helper(){}\n")
	first, err := extractor.ExtractFromText("a.rs", source, parser)
	require.NoError(t, err)
	second, err := extractor.ExtractFromText("a.rs", source, parser)
	require.NoError(t, err)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first, second)
}

// Test: Reported names come from the compiled query's capture list
func TestExtractor_NamesFromCaptureList(t *testing.T) {
	t.Parallel()

	lang := languages.Rust
	query, err := lang.CompileQuery(`(function_item (identifier) @id) @function (struct_item) @_internal`)
	require.NoError(t, err)
	defer query.Close()

	extractor := New(lang, query)

	parser := sitter.NewParser()
	defer parser.Close()

	file, err := extractor.ExtractFromText("", []byte("struct S; fn main(){}"), parser)
	require.NoError(t, err)
	require.NotNil(t, file)

	names := query.CaptureNames()
	for _, m := range file.Matches {
		assert.Contains(t, names, m.Name)
		assert.NotContains(t, m.Name, "_internal")
	}
}

// Test: File entry point records the path
func TestExtractor_ExtractFromFile(t *testing.T) {
	t.Parallel()

	extractor := newExtractor(t, languages.Rust, `(function_item name: (identifier) @name)`)

	parser := sitter.NewParser()
	defer parser.Close()

	file, err := extractor.ExtractFromFile("../../testdata/code/rust/simple.rs", parser)

	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, "../../testdata/code/rust/simple.rs", file.File)
	assert.Equal(t, "rust", file.FileType)

	var names []string
	for _, m := range file.Matches {
		names = append(names, m.Text)
	}
	assert.Contains(t, names, "main")
	assert.Contains(t, names, "helper")
	assert.Contains(t, names, "new")
	assert.Contains(t, names, "greet")
}

// Test: Unreadable files fail with the offending path in the error
func TestExtractor_FileNotFound(t *testing.T) {
	t.Parallel()

	extractor := newExtractor(t, languages.Rust, `(function_item) @f`)

	parser := sitter.NewParser()
	defer parser.Close()

	file, err := extractor.ExtractFromFile("does/not/exist.rs", parser)

	require.Error(t, err)
	assert.Nil(t, file)
	assert.Contains(t, err.Error(), "does/not/exist.rs")
}

// Test: Invalid UTF-8 in a captured span aborts the call
func TestExtractor_InvalidUTF8(t *testing.T) {
	t.Parallel()

	extractor := newExtractor(t, languages.Rust, `(source_file) @all`)

	parser := sitter.NewParser()
	defer parser.Close()

	source := append([]byte("fn main(){}"), 0xff, 0xfe)
	file, err := extractor.ExtractFromText("bad.rs", source, parser)

	require.Error(t, err)
	assert.Nil(t, file)
	assert.Contains(t, err.Error(), "UTF-8")
	assert.Contains(t, err.Error(), "bad.rs")
}

// Test: One parser can serve extractors of different languages in turn
func TestExtractor_ParserReuseAcrossLanguages(t *testing.T) {
	t.Parallel()

	rustExtractor := newExtractor(t, languages.Rust, `(function_item name: (identifier) @name)`)
	pyExtractor := newExtractor(t, languages.Python, `(function_definition name: (identifier) @name)`)

	parser := sitter.NewParser()
	defer parser.Close()

	rustFile, err := rustExtractor.ExtractFromText("", []byte("fn main(){}"), parser)
	require.NoError(t, err)
	require.NotNil(t, rustFile)
	assert.Equal(t, "main", rustFile.Matches[0].Text)

	pyFile, err := pyExtractor.ExtractFromText("", []byte("def greet():\n    pass\n"), parser)
	require.NoError(t, err)
	require.NotNil(t, pyFile)
	assert.Equal(t, "greet", pyFile.Matches[0].Text)
	assert.Equal(t, "python", pyFile.FileType)
}
