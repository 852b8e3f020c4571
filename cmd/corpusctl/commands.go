package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/mdcorpus/corpus/pkg/corpus"
	"github.com/mdcorpus/corpus/pkg/markdown"
)

var commandOrder = []string{
	"get", "section", "update", "insert", "delete",
	"rename-section", "rename-title", "move", "archive", "bulk", "repl",
}

var commandTable = map[string]*Command{
	"get":            cmdGet,
	"section":        cmdSection,
	"update":         cmdUpdate,
	"insert":         cmdInsert,
	"delete":         cmdDelete,
	"rename-section": cmdRenameSection,
	"rename-title":   cmdRenameTitle,
	"move":           cmdMove,
	"archive":        cmdArchive,
	"bulk":           cmdBulk,
	"repl":           cmdRepl,
}

var cmdGet = &Command{
	Usage: "get <path>",
	Short: "print a document's metadata and heading tree",
	Flags: flag.NewFlagSet("get", flag.ContinueOnError),
	Exec: func(o *IO, a *app, args []string) error {
		if len(args) != 1 {
			return errors.New("usage: corpusctl get <path>")
		}

		doc, err := a.manager.GetDocument(args[0])
		if err != nil {
			return err
		}

		o.Printf("title:     %s\n", doc.Metadata.Title)
		o.Printf("namespace: %s\n", doc.Metadata.Namespace)
		o.Printf("keywords:  %v\n", doc.Metadata.Keywords)

		for _, h := range doc.Headings {
			o.Printf("%s#%d %s (%s)\n", indent(h.Depth), h.Depth, h.Title, h.Slug)
		}

		return nil
	},
}

func indent(depth int) string {
	s := ""
	for i := 1; i < depth; i++ {
		s += "  "
	}

	return s
}

var cmdSection = &Command{
	Usage: "section <path> <slug>",
	Short: "print a section's body",
	Flags: flag.NewFlagSet("section", flag.ContinueOnError),
	Exec: func(o *IO, a *app, args []string) error {
		if len(args) != 2 {
			return errors.New("usage: corpusctl section <path> <slug>")
		}

		content, err := a.manager.GetSectionContent(args[0], args[1])
		if err != nil {
			return err
		}

		o.Printf("%s", content)

		return nil
	},
}

var updateFlags = flag.NewFlagSet("update", flag.ContinueOnError)
var updateStdin = updateFlags.Bool("stdin", false, "read the new body from stdin instead of argv")

var cmdUpdate = &Command{
	Usage: "update <path> <slug> [body]",
	Short: "replace a section's body",
	Flags: updateFlags,
	Exec: func(o *IO, a *app, args []string) error {
		if len(args) < 2 {
			return errors.New("usage: corpusctl update <path> <slug> [body]")
		}

		body, err := bodyArg(args[2:], *updateStdin)
		if err != nil {
			return err
		}

		action, err := a.manager.UpdateSection(args[0], args[1], body)
		if err != nil {
			return err
		}

		o.Printf("updated: %s\n", action.Slug)

		return nil
	},
}

func bodyArg(rest []string, fromStdin bool) (string, error) {
	if fromStdin {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}

		return string(data), nil
	}

	if len(rest) == 0 {
		return "", errors.New("body required: pass it as an argument or use --stdin")
	}

	return rest[0], nil
}

var insertFlags = flag.NewFlagSet("insert", flag.ContinueOnError)
var insertMode = insertFlags.String("mode", "insert_after", "insert_before|insert_after|append_child")
var insertDepth = insertFlags.Int("depth", 0, "depth hint when ref is the document title")
var insertStdin = insertFlags.Bool("stdin", false, "read the new section's body from stdin")

var cmdInsert = &Command{
	Usage: "insert <path> <ref-slug> <title> [body]",
	Short: "create a new section relative to ref-slug",
	Flags: insertFlags,
	Exec: func(o *IO, a *app, args []string) error {
		if len(args) < 3 {
			return errors.New("usage: corpusctl insert <path> <ref-slug> <title> [body]")
		}

		mode, err := parseInsertMode(*insertMode)
		if err != nil {
			return err
		}

		body, err := bodyArg(args[3:], *insertStdin)
		if err != nil {
			body = ""
		}

		action, err := a.manager.InsertSection(args[0], args[1], mode, *insertDepth, args[2], body)
		if err != nil {
			return err
		}

		o.Printf("created: %s\n", action.Slug)

		return nil
	},
}

func parseInsertMode(s string) (markdown.Mode, error) {
	switch s {
	case "insert_before":
		return markdown.InsertBefore, nil
	case "insert_after":
		return markdown.InsertAfter, nil
	case "append_child":
		return markdown.AppendChild, nil
	default:
		return 0, fmt.Errorf("unknown --mode %q", s)
	}
}

var cmdDelete = &Command{
	Usage: "delete <path> <slug>",
	Short: "remove a section and its subtree",
	Flags: flag.NewFlagSet("delete", flag.ContinueOnError),
	Exec: func(o *IO, a *app, args []string) error {
		if len(args) != 2 {
			return errors.New("usage: corpusctl delete <path> <slug>")
		}

		action, err := a.manager.DeleteSection(args[0], args[1])
		if err != nil {
			return err
		}

		o.Printf("removed: %s\n", action.Slug)

		if action.RemovedContent != "" {
			o.Printf("---\n%s\n", action.RemovedContent)
		}

		return nil
	},
}

var cmdRenameSection = &Command{
	Usage: "rename-section <path> <slug> <new-title>",
	Short: "rewrite a heading's title",
	Flags: flag.NewFlagSet("rename-section", flag.ContinueOnError),
	Exec: func(o *IO, a *app, args []string) error {
		if len(args) != 3 {
			return errors.New("usage: corpusctl rename-section <path> <slug> <new-title>")
		}

		newSlug, err := a.manager.RenameSection(args[0], args[1], args[2])
		if err != nil {
			return err
		}

		o.Printf("renamed to: %s\n", newSlug)

		return nil
	},
}

var cmdRenameTitle = &Command{
	Usage: "rename-title <path> <new-title>",
	Short: "rewrite a document's H1",
	Flags: flag.NewFlagSet("rename-title", flag.ContinueOnError),
	Exec: func(o *IO, a *app, args []string) error {
		if len(args) != 2 {
			return errors.New("usage: corpusctl rename-title <path> <new-title>")
		}

		if err := a.manager.RenameTitle(args[0], args[1]); err != nil {
			return err
		}

		o.Println("renamed")

		return nil
	},
}

var moveFlags = flag.NewFlagSet("move", flag.ContinueOnError)
var moveAcrossDirs = moveFlags.Bool("across", false, "call MoveDocument instead of RenameDocument (both create missing destination directories)")

var cmdMove = &Command{
	Usage: "move <old-path> <new-path>",
	Short: "rename or relocate a document",
	Flags: moveFlags,
	Exec: func(o *IO, a *app, args []string) error {
		if len(args) != 2 {
			return errors.New("usage: corpusctl move <old-path> <new-path>")
		}

		var err error
		if *moveAcrossDirs {
			err = a.manager.MoveDocument(args[0], args[1])
		} else {
			err = a.manager.RenameDocument(args[0], args[1])
		}

		if err != nil {
			return err
		}

		o.Println("moved")

		return nil
	},
}

var archiveFlags = flag.NewFlagSet("archive", flag.ContinueOnError)
var archiveReason = archiveFlags.String("reason", "", "reason recorded in the .audit sidecar")

var cmdArchive = &Command{
	Usage: "archive <path>",
	Short: "move a document under /archived and write an audit sidecar",
	Flags: archiveFlags,
	Exec: func(o *IO, a *app, args []string) error {
		if len(args) != 1 {
			return errors.New("usage: corpusctl archive <path>")
		}

		if err := a.manager.ArchiveDocument(args[0], *archiveReason); err != nil {
			return err
		}

		o.Println("archived")

		return nil
	},
}

var cmdBulk = &Command{
	Usage: "bulk <path>",
	Short: "apply a JSON array of section-edit ops (read from stdin) to one snapshot",
	Flags: flag.NewFlagSet("bulk", flag.ContinueOnError),
	Exec: func(o *IO, a *app, args []string) error {
		if len(args) != 1 {
			return errors.New("usage: corpusctl bulk <path> < ops.json")
		}

		var ops []corpus.BulkOp

		if err := json.NewDecoder(os.Stdin).Decode(&ops); err != nil {
			return fmt.Errorf("decoding ops: %w", err)
		}

		results, err := a.manager.ApplyBulk(args[0], ops)

		out, encErr := json.MarshalIndent(results, "", "  ")
		if encErr == nil {
			o.Printf("%s\n", out)
		}

		if err != nil {
			o.Warn(err.Error())
		}

		return nil
	},
}
