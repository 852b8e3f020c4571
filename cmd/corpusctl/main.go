// Command corpusctl is a thin CLI exercising the document-corpus core
// end-to-end: document reads, section reads and edits, renames, moves,
// archiving and bulk edits are reachable as subcommands (DeleteDocument,
// AppendSection, PrependSection and the section-move operations are not),
// grounded on calvinalkan-agent-task's cmd/mddb playground CLI
// and internal/cli's Command/pflag dispatch style.
package main

import (
	"os"

	flag "github.com/spf13/pflag"
	"github.com/rs/zerolog"

	"github.com/mdcorpus/corpus/internal/cliconfig"
	"github.com/mdcorpus/corpus/internal/pathutil"
	"github.com/mdcorpus/corpus/pkg/corpus"
	"github.com/mdcorpus/corpus/pkg/fsio"
)

// app bundles the constructed core for subcommands to operate against.
type app struct {
	manager *corpus.Manager
	cache   *corpus.Cache
	paths   *pathutil.Handler
	cfg     corpus.Config
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	o := NewIO(os.Stdout, os.Stderr)

	globalFlags := flag.NewFlagSet("corpusctl", flag.ContinueOnError)
	globalFlags.SetOutput(os.Stderr)
	root := globalFlags.String("root", "", "workspace root (overrides config file)")
	cacheSize := globalFlags.Int("cache-size", 0, "max resident documents (overrides config file)")
	verbose := globalFlags.Bool("verbose", false, "debug-level logging")

	globalFlags.ParseErrorsWhitelist.UnknownFlags = true

	if err := globalFlags.Parse(args); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	rest := globalFlags.Args()
	if len(rest) == 0 {
		printUsage(o)
		return 1
	}

	cmdName := rest[0]
	cmdArgs := rest[1:]

	cmd, ok := commandTable[cmdName]
	if !ok {
		if cmdName == "help" || cmdName == "-h" || cmdName == "--help" {
			printUsage(o)
			return 0
		}

		o.ErrPrintln("error: unknown command:", cmdName)
		printUsage(o)

		return 1
	}

	a, err := buildApp(*root, *cacheSize, *verbose)
	if err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	return cmd.Run(o, a, cmdArgs)
}

func buildApp(rootOverride string, cacheSizeOverride int, verbose bool) (*app, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	overrides := cliconfig.Overrides{}
	if rootOverride != "" {
		overrides.WorkspaceRoot = rootOverride
		overrides.HasWorkspaceRoot = true
	}

	if cacheSizeOverride > 0 {
		overrides.MaxCacheEntries = cacheSizeOverride
		overrides.HasMaxCacheEntries = true
	}

	cfg, _, err := cliconfig.Load(workDir, overrides, os.Environ())
	if err != nil {
		return nil, err
	}

	paths, err := pathutil.New(cfg.WorkspaceRoot)
	if err != nil {
		return nil, err
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	fsys := fsio.NewReal(fsio.WithRealLogger(logger))
	cache := corpus.NewCache(fsys, cfg.MaxCacheEntries)
	manager := corpus.NewManager(paths, fsys, cache, logger)

	return &app{manager: manager, cache: cache, paths: paths, cfg: cfg}, nil
}

func printUsage(o *IO) {
	o.Println("corpusctl - markdown document corpus CLI")
	o.Println()
	o.Println("Usage: corpusctl [--root=DIR] [--cache-size=N] [--verbose] <command> [args]")
	o.Println()
	o.Println("Commands:")

	for _, name := range commandOrder {
		o.Printf("  %-28s %s\n", commandTable[name].Usage, commandTable[name].Short)
	}
}
