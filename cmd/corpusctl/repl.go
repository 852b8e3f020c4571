package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"
	"github.com/peterh/liner"
)

var cmdRepl = &Command{
	Usage: "repl",
	Short: "interactive shell over the document manager",
	Flags: flag.NewFlagSet("repl", flag.ContinueOnError),
	Exec: func(o *IO, a *app, args []string) error {
		return (&repl{app: a, out: o}).run()
	},
}

// repl is the interactive command loop, grounded on calvinalkan-agent-task's
// cmd/sloty REPL (liner setup, history file, tab completion).
type repl struct {
	app   *app
	out   *IO
	liner *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".corpusctl_history")
}

func (r *repl) run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("corpusctl - markdown document corpus shell (root=%s)\n", r.app.cfg.WorkspaceRoot)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("corpus> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		fields := strings.Fields(line)
		name, fieldArgs := strings.ToLower(fields[0]), fields[1:]

		if name == "exit" || name == "quit" || name == "q" {
			fmt.Println("Bye!")
			r.saveHistory()

			return nil
		}

		if name == "help" || name == "?" {
			r.printHelp()
			continue
		}

		r.dispatch(name, fieldArgs)
	}

	r.saveHistory()

	return nil
}

func (r *repl) dispatch(name string, args []string) {
	cmd, ok := commandTable[name]
	if !ok {
		fmt.Printf("Unknown command: %s (type 'help' for commands)\n", name)
		return
	}

	sub := &Command{Flags: cloneFlagSet(cmd), Usage: cmd.Usage, Short: cmd.Short, Exec: cmd.Exec}
	sub.Run(r.out, r.app, args)
}

// cloneFlagSet gives each REPL invocation a fresh FlagSet so repeated calls
// to the same subcommand don't trip pflag's "flag redefined" panics.
func cloneFlagSet(cmd *Command) *flag.FlagSet {
	fresh := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.Flags.VisitAll(func(f *flag.Flag) {
		fresh.Var(f.Value, f.Name, f.Usage)
		fresh.Lookup(f.Name).DefValue = f.DefValue
	})

	return fresh
}

func (r *repl) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *repl) completer(line string) []string {
	lower := strings.ToLower(line)

	var completions []string

	for _, name := range commandOrder {
		if strings.HasPrefix(name, lower) {
			completions = append(completions, name)
		}
	}

	for _, name := range []string{"help", "exit", "quit", "q"} {
		if strings.HasPrefix(name, lower) {
			completions = append(completions, name)
		}
	}

	return completions
}

func (r *repl) printHelp() {
	fmt.Println("Commands:")

	for _, name := range commandOrder {
		cmd := commandTable[name]
		fmt.Printf("  %-28s %s\n", cmd.Usage, cmd.Short)
	}

	fmt.Println("  help                         Show this help")
	fmt.Println("  exit / quit / q              Exit")
}
