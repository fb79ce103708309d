// Command pageparse drives the parsing engine from the command line: it
// can run a page parser against a fetched or local document, migrate a
// serialised node to its current schema version, and inspect what a
// parser declares it can produce.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	var configPath string

	cmd := &cobra.Command{
		Use:           "pageparse",
		Short:         "Run, migrate, and inspect declarative page parsers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: parseLevel(logLevel),
			})))
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (see internal/config)")

	cmd.AddCommand(
		newParseCmd(&configPath),
		newMigrateCmd(),
		newInspectCmd(),
	)
	return cmd
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
