// Package runner executes one extractor over many files: discovery, a
// bounded worker pool, progress reporting, and optional watch mode.
package runner

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/treegrep/internal/extract"
)

// Options controls batch execution.
type Options struct {
	// Jobs is the worker count; 0 means one per CPU.
	Jobs int
	// Sort orders results with the extract package's total ordering instead
	// of completion order.
	Sort bool
	// Quiet disables the progress bar.
	Quiet bool
}

// FileError records an extraction failure for a single input. The batch
// continues past it.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Result collects the outcome of one batch run. Files only contains inputs
// that produced at least one match.
type Result struct {
	Files  []*extract.ExtractedFile
	Errors []*FileError
}

// Runner drives one Extractor over batches of files.
type Runner struct {
	extractor *extract.Extractor
	opts      Options
}

// New creates a Runner. The Extractor is shared read-only by all workers;
// each worker owns its own parser.
func New(extractor *extract.Extractor, opts Options) *Runner {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	return &Runner{extractor: extractor, opts: opts}
}

// Run extracts from every path. Per-file failures are collected in the
// result, not returned; only a cancelled context aborts the batch early.
func (r *Runner) Run(ctx context.Context, paths []string) *Result {
	result := &Result{}
	if len(paths) == 0 {
		return result
	}

	var bar *progressbar.ProgressBar
	if !r.opts.Quiet && len(paths) > 1 {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetDescription("Extracting"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files/s"),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
		)
	}

	jobs := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < r.opts.Jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// One parser per worker: parsers are stateful and must not be
			// shared between in-flight extractions.
			parser := sitter.NewParser()
			defer parser.Close()

			for path := range jobs {
				file, err := r.extractor.ExtractFromFile(path, parser)

				mu.Lock()
				if err != nil {
					result.Errors = append(result.Errors, &FileError{Path: path, Err: err})
				} else if file != nil {
					result.Files = append(result.Files, file)
				}
				mu.Unlock()

				if bar != nil {
					bar.Add(1)
				}
			}
		}()
	}

feed:
	for _, path := range paths {
		select {
		case jobs <- path:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if bar != nil {
		bar.Finish()
	}

	if r.opts.Sort {
		slices.SortFunc(result.Files, func(a, b *extract.ExtractedFile) int {
			return a.Compare(b)
		})
	} else {
		// Without sorting, at least make output independent of worker
		// interleaving by restoring input order.
		order := make(map[string]int, len(paths))
		for i, p := range paths {
			order[p] = i
		}
		slices.SortFunc(result.Files, func(a, b *extract.ExtractedFile) int {
			return order[a.File] - order[b.File]
		})
	}
	slices.SortFunc(result.Errors, func(a, b *FileError) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		default:
			return 0
		}
	})

	return result
}
