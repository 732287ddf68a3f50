package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/treegrep/internal/extract"
	"github.com/mvp-joe/treegrep/internal/languages"
	"github.com/mvp-joe/treegrep/internal/output"
	"github.com/mvp-joe/treegrep/internal/runner"
	"github.com/mvp-joe/treegrep/internal/storage"
)

var (
	formatFlag  string
	jobsFlag    int
	sortFlag    bool
	quietFlag   bool
	watchFlag   bool
	dbFlag      string
	ignoreFlags []string
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <language> <query> [path...]",
	Short: "Run a tree-sitter query over source files",
	Long: `Extract runs a tree-sitter query over the given files or directories
and prints the captured nodes. Captures whose name starts with an
underscore are matched but not reported.

Output is one line per match (origin:row:col:name:text, 1-based
coordinates) or a JSON record per file with --format json.

Examples:
  # Every function item and its name in a Rust tree
  treegrep extract rust '(function_item (identifier) @id) @function' src/

  # Python function names as JSON, 8 workers, deterministic order
  treegrep extract python '(function_definition name: (identifier) @name)' --format json --jobs 8 --sort .

  # Read from stdin
  cat main.rs | treegrep extract rust '(identifier) @id' -

  # Persist a run to SQLite
  treegrep extract rust '(macro_invocation) @macro' --db matches.db src/

  # Keep extracting as files change
  treegrep extract typescript '(interface_declaration) @iface' --watch src/
`,
	Args: cobra.MinimumNArgs(2),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&formatFlag, "format", "f", "text", "Output format: text or json")
	extractCmd.Flags().IntVarP(&jobsFlag, "jobs", "j", 0, "Number of parallel workers (default: one per CPU)")
	extractCmd.Flags().BoolVar(&sortFlag, "sort", false, "Sort results instead of keeping input order")
	extractCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	extractCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch for file changes and re-extract")
	extractCmd.Flags().StringVar(&dbFlag, "db", "", "Also save results to a SQLite database at this path")
	extractCmd.Flags().StringSliceVar(&ignoreFlags, "ignore", nil, "Glob patterns of paths to skip (repeatable)")

	viper.BindPFlag("format", extractCmd.Flags().Lookup("format"))
	viper.BindPFlag("jobs", extractCmd.Flags().Lookup("jobs"))
	viper.BindPFlag("ignore", extractCmd.Flags().Lookup("ignore"))
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	lang, err := languages.FromName(args[0])
	if err != nil {
		return err
	}

	query, err := lang.CompileQuery(args[1])
	if err != nil {
		return err
	}
	defer query.Close()

	extractor := extract.New(lang, query)

	format, err := output.ParseFormat(viper.GetString("format"))
	if err != nil {
		return err
	}

	paths := args[2:]
	if len(paths) == 0 {
		paths = []string{"."}
	}

	// Stdin is a single anonymous extraction with no discovery or pooling.
	if len(paths) == 1 && paths[0] == "-" {
		return extractStdin(extractor, format)
	}

	files, dirs, err := resolveInputs(lang, paths)
	if err != nil {
		return err
	}

	run := runner.New(extractor, runner.Options{
		Jobs:  viper.GetInt("jobs"),
		Sort:  sortFlag,
		Quiet: quietFlag,
	})

	result := run.Run(ctx, files)
	for _, fileErr := range result.Errors {
		log.Printf("skipping %v", fileErr)
	}

	if err := output.Write(os.Stdout, result.Files, format); err != nil {
		return err
	}

	if dbFlag != "" {
		if err := saveRun(lang, args[1], result.Files); err != nil {
			return err
		}
	}

	if watchFlag {
		return watchAndExtract(ctx, extractor, lang, dirs, format)
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("%d file(s) could not be processed", len(result.Errors))
	}
	return nil
}

// resolveInputs expands directories through discovery and passes explicit
// files straight through.
func resolveInputs(lang languages.Language, paths []string) (files []string, dirs []string, err error) {
	ignorePatterns := viper.GetStringSlice("ignore")

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot access %s: %w", path, err)
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		dirs = append(dirs, path)
		discovery, err := runner.NewDiscovery(path, lang, nil, ignorePatterns)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid ignore pattern: %w", err)
		}
		found, err := discovery.Discover()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to discover files under %s: %w", path, err)
		}
		files = append(files, found...)
	}

	return files, dirs, nil
}

func extractStdin(extractor *extract.Extractor, format output.Format) error {
	source, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("could not read stdin: %w", err)
	}

	parser := sitter.NewParser()
	defer parser.Close()

	file, err := extractor.ExtractFromText("", source, parser)
	if err != nil {
		return err
	}
	if file == nil {
		return nil
	}
	return output.Write(os.Stdout, []*extract.ExtractedFile{file}, format)
}

func saveRun(lang languages.Language, query string, files []*extract.ExtractedFile) error {
	db, err := storage.Open(dbFlag)
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := db.SaveRun(lang.Name(), query, files)
	if err != nil {
		return err
	}
	if !quietFlag {
		stats, err := db.Stats(runID)
		if err != nil {
			return err
		}
		log.Printf("Saved run %s: %d files, %d matches", stats.RunID, stats.Files, stats.Matches)
	}
	return nil
}

// watchAndExtract re-extracts changed files until interrupted. Watch mode is
// single-threaded: change batches are small and one parser suffices.
func watchAndExtract(ctx context.Context, extractor *extract.Extractor, lang languages.Language, dirs []string, format output.Format) error {
	if len(dirs) == 0 {
		return fmt.Errorf("--watch requires at least one directory argument")
	}

	watcher, err := runner.NewWatcher(dirs, lang.Extensions())
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if !quietFlag {
		log.Println("Watching for changes...")
	}

	parser := sitter.NewParser()
	defer parser.Close()

	return watcher.Watch(ctx, func(changed []string) {
		for _, path := range changed {
			file, err := extractor.ExtractFromFile(path, parser)
			if err != nil {
				log.Printf("skipping %s: %v", path, err)
				continue
			}
			if file == nil {
				continue
			}
			if err := output.Write(os.Stdout, []*extract.ExtractedFile{file}, format); err != nil {
				log.Printf("failed to write results: %v", err)
			}
		}
	})
}
