package main

import (
	"fmt"
	"os"

	"github.com/beevik/etree"
	"github.com/spf13/cobra"

	"github.com/HOZHENWAI/hydrus/serialize"
)

// newMigrateCmd reads a serialised node of any historical schema version
// and rewrites it in the current schema, running it through
// serialize's deserialise-then-reserialise upgrade loop.
func newMigrateCmd() *cobra.Command {
	var kind, inPath, outPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade a serialised node to its current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(kind, inPath, outPath)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "node kind: formula, file_lookup, page_parser (required)")
	cmd.Flags().StringVar(&inPath, "in", "", "path to the serialised document (required)")
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the migrated document (default: overwrite --in)")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func runMigrate(kind, inPath, outPath string) error {
	if outPath == "" {
		outPath = inPath
	}

	raw, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read %q: %w", inPath, err)
	}
	root, err := serialize.ReadDocument(string(raw))
	if err != nil {
		return fmt.Errorf("read %q: %w", inPath, err)
	}

	var current *etree.Element
	switch kind {
	case "formula":
		f, err := serialize.DeserializeFormula(root)
		if err != nil {
			return err
		}
		current = serialize.SerializeFormula(f)

	case "file_lookup":
		r, err := serialize.DeserializeFileLookup(root)
		if err != nil {
			return err
		}
		current, err = serialize.SerializeFileLookup(r)
		if err != nil {
			return err
		}

	case "page_parser":
		p, err := serialize.DeserializePageParser(root)
		if err != nil {
			return err
		}
		current, err = serialize.SerializePageParser(p)
		if err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown kind %q: expected formula, file_lookup, or page_parser", kind)
	}

	out, err := serialize.NewDocument(current).WriteString()
	if err != nil {
		return fmt.Errorf("serialise migrated document: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write %q: %w", outPath, err)
	}
	return nil
}
