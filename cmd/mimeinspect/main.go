// Command mimeinspect parses a single RFC 5322/MIME message and prints
// its part tree: content type, size, and disposition for every part,
// indented by nesting depth. It is a demo CLI, not part of the module's
// API surface.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mimetree.dev/email"
	"mimetree.dev/email/mimeparser"
)

var version = "unknown" // filled in by "-ldflags=-X main.version=<val>"

func main() {
	log.SetFlags(0)

	var showWarnings bool

	root := &cobra.Command{
		Use:     "mimeinspect [file]",
		Short:   "Print the MIME part tree of a message",
		Version: version,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := os.Stdin
			name := "stdin"
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				src = f
				name = args[0]
			}

			data, err := io.ReadAll(src)
			if err != nil {
				return fmt.Errorf("reading %s: %v", name, err)
			}

			var warnings []string
			msg, err := mimeparser.ParseOptions(data, mimeparser.Options{
				Warn: func(offset int64, code, context string) {
					warnings = append(warnings, fmt.Sprintf("%d: %s: %s", offset, code, context))
				},
			})
			if err != nil {
				return fmt.Errorf("parsing %s: %v", name, err)
			}

			printMessage(cmd.OutOrStdout(), msg)

			if showWarnings {
				for _, w := range warnings {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
				}
			}
			return nil
		},
	}
	root.Flags().BoolVar(&showWarnings, "warnings", false, "print recoverable parse warnings to stderr")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func printMessage(w io.Writer, msg *email.Message) {
	fmt.Fprintf(w, "Subject: %s\n", msg.Subject())
	if id := msg.MessageID(); id != "" {
		fmt.Fprintf(w, "Message-ID: %s\n", id)
	}
	printObject(w, msg.Body, 0)
}

func printObject(w io.Writer, o email.Object, depth int) {
	indent := strings.Repeat("  ", depth)
	ct := o.Base().ContentType()
	line := fmt.Sprintf("%s/%s", ct.Type, ct.Subtype)
	if d := o.Base().Disposition(); d != nil {
		line += fmt.Sprintf(" (%s)", d.Value)
	}

	switch v := o.(type) {
	case *email.Part:
		size := int64(-1)
		if v.Body != nil {
			size = v.Body.Len()
		}
		fmt.Fprintf(w, "%s%s, %d bytes\n", indent, line, size)
	case *email.Multipart:
		fmt.Fprintf(w, "%s%s, %d parts\n", indent, line, len(v.Children))
		for _, child := range v.Children {
			printObject(w, child, depth+1)
		}
	case *email.MessagePart:
		fmt.Fprintf(w, "%s%s\n", indent, line)
		if v.Nested != nil {
			printObject(w, v.Nested.Body, depth+1)
		}
	default:
		fmt.Fprintf(w, "%s%s\n", indent, line)
	}
}
