package main

import (
	"errors"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is a CLI subcommand with unified help generation, grounded on
// calvinalkan-agent-task's internal/cli/command.go.
type Command struct {
	Flags *flag.FlagSet
	Usage string
	Short string
	Exec  func(o *IO, app *app, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// PrintHelp prints "corpusctl <cmd> --help" output.
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: corpusctl", c.Usage)
	o.Println()
	o.Println(c.Short)

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}
}

// Run parses flags and executes the command, returning a process exit code.
func (c *Command) Run(o *IO, app *app, args []string) int {
	c.Flags.SetOutput(&strings.Builder{})

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)
			return 0
		}

		o.ErrPrintln("error:", err)
		c.PrintHelp(o)

		return 1
	}

	if err := c.Exec(o, app, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	return o.Finish()
}
