package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/HOZHENWAI/hydrus/serialize"
)

// newInspectCmd prints the descriptors a serialised page parser declares
// it can produce, without running it against any document.
func newInspectCmd() *cobra.Command {
	var parserPath string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the content a serialised page parser can produce",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(parserPath)
		},
	}

	cmd.Flags().StringVar(&parserPath, "parser", "", "path to a serialised page_parser XML document (required)")
	_ = cmd.MarkFlagRequired("parser")

	return cmd
}

func runInspect(parserPath string) error {
	parser, err := loadPageParser(parserPath)
	if err != nil {
		return err
	}

	fmt.Printf("parser: %s (%s)\n", parser.Name, parser.ParserKey)
	for _, d := range parser.GetParsableContent() {
		switch {
		case d.Priority != nil:
			fmt.Fprintf(os.Stdout, "  urls: %s priority=%d\n", d.Name, *d.Priority)
		case d.Namespace != "":
			fmt.Fprintf(os.Stdout, "  mappings: %s namespace=%s\n", d.Name, d.Namespace)
		default:
			fmt.Fprintf(os.Stdout, "  %s: %s\n", d.Type, d.Name)
		}
	}
	return nil
}
