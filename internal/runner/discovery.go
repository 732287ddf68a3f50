package runner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/treegrep/internal/languages"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Discovery walks a directory tree and selects the files one extraction run
// should process: files with the target language's extension, filtered by
// optional include/ignore glob patterns.
type Discovery struct {
	rootDir         string
	extensions      map[string]bool
	includePatterns []compiledPattern
	ignorePatterns  []compiledPattern
}

// NewDiscovery compiles the glob patterns up front so pattern errors surface
// before any walking starts.
func NewDiscovery(rootDir string, lang languages.Language, includePatterns, ignorePatterns []string) (*Discovery, error) {
	d := &Discovery{
		rootDir:    rootDir,
		extensions: make(map[string]bool),
	}
	for _, ext := range lang.Extensions() {
		d.extensions[ext] = true
	}

	for _, pattern := range includePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		d.includePatterns = append(d.includePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		d.ignorePatterns = append(d.ignorePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	return d, nil
}

// Discover walks the root directory and returns matching file paths.
func (d *Discovery) Discover() ([]string, error) {
	files := []string{}

	err := filepath.Walk(d.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(d.rootDir, path)
		if err != nil {
			return err
		}

		// Normalize path separators for glob matching
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if d.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.shouldIgnore(relPath) {
			return nil
		}

		if !d.extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		if len(d.includePatterns) > 0 && !matchesAnyPattern(relPath, d.includePatterns) {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// shouldIgnore checks if a path matches any ignore pattern.
func (d *Discovery) shouldIgnore(relPath string) bool {
	if relPath == "." {
		return false
	}

	// Always skip VCS metadata
	if relPath == ".git" || strings.HasPrefix(relPath, ".git/") {
		return true
	}

	if matchesAnyPattern(relPath, d.ignorePatterns) {
		return true
	}

	// A directory pattern like "node_modules/**" should also skip the
	// directory itself so the walk can prune it.
	return matchesAnyPattern(relPath+"/**", d.ignorePatterns)
}

func matchesAnyPattern(relPath string, patterns []compiledPattern) bool {
	for _, p := range patterns {
		if p.glob.Match(relPath) {
			return true
		}
	}
	return false
}
