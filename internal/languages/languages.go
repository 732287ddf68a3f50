// Package languages maps supported grammars to their tree-sitter bindings.
package languages

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Language identifies one supported grammar. Adding a language means adding
// a constant here and a case to each switch below.
type Language int

const (
	C Language = iota
	Java
	PHP
	Python
	Ruby
	Rust
	TypeScript
	TSX
)

// All returns every supported language, in a stable order.
func All() []Language {
	return []Language{C, Java, PHP, Python, Ruby, Rust, TypeScript, TSX}
}

// Name returns the language identifier used on the command line and as the
// file_type tag in results.
func (l Language) Name() string {
	switch l {
	case C:
		return "c"
	case Java:
		return "java"
	case PHP:
		return "php"
	case Python:
		return "python"
	case Ruby:
		return "ruby"
	case Rust:
		return "rust"
	case TypeScript:
		return "typescript"
	case TSX:
		return "tsx"
	default:
		return "unknown"
	}
}

func (l Language) String() string {
	return l.Name()
}

// Grammar returns the tree-sitter grammar handle for this language.
func (l Language) Grammar() *sitter.Language {
	switch l {
	case C:
		return sitter.NewLanguage(c.Language())
	case Java:
		return sitter.NewLanguage(java.Language())
	case PHP:
		return sitter.NewLanguage(php.LanguagePHP())
	case Python:
		return sitter.NewLanguage(python.Language())
	case Ruby:
		return sitter.NewLanguage(ruby.Language())
	case Rust:
		return sitter.NewLanguage(rust.Language())
	case TypeScript:
		return sitter.NewLanguage(typescript.LanguageTypescript())
	case TSX:
		return sitter.NewLanguage(typescript.LanguageTSX())
	default:
		return nil
	}
}

// Extensions returns the file extensions associated with this language.
func (l Language) Extensions() []string {
	switch l {
	case C:
		return []string{".c", ".h"}
	case Java:
		return []string{".java"}
	case PHP:
		return []string{".php"}
	case Python:
		return []string{".py"}
	case Ruby:
		return []string{".rb"}
	case Rust:
		return []string{".rs"}
	case TypeScript:
		return []string{".ts"}
	case TSX:
		return []string{".tsx"}
	default:
		return nil
	}
}

// CompileQuery compiles a tree-sitter query string against this language's
// grammar. A malformed pattern or an unknown node kind is a compile error.
func (l Language) CompileQuery(source string) (*sitter.Query, error) {
	query, queryErr := sitter.NewQuery(l.Grammar(), source)
	if queryErr != nil {
		return nil, fmt.Errorf("failed to compile %s query: %s", l.Name(), queryErr.Message)
	}
	return query, nil
}

// FromName looks up a language by its identifier (e.g. "rust").
func FromName(name string) (Language, error) {
	for _, l := range All() {
		if l.Name() == strings.ToLower(name) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unsupported language: %q (supported: %s)", name, supportedNames())
}

// FromPath looks up a language by a file path's extension.
func FromPath(path string) (Language, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, l := range All() {
		for _, e := range l.Extensions() {
			if e == ext {
				return l, nil
			}
		}
	}
	return 0, fmt.Errorf("no supported language for extension %q", ext)
}

func supportedNames() string {
	names := make([]string, 0, len(All()))
	for _, l := range All() {
		names = append(names, l.Name())
	}
	return strings.Join(names, ", ")
}
